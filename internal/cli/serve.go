package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/risklens/bowtie/internal/api"
	"github.com/risklens/bowtie/pkg/config"
	"github.com/risklens/bowtie/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string // listen address override
	noCache bool   // disable the compile cache
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bowtie HTTP API server",
		Long: `Serve runs the HTTP API, exposing the compile pipeline and a diagram
store over REST. The store backend (memory or mongo) and listen address
come from the config file; --addr overrides the address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	srv := api.NewServer(api.Config{
		Addr:   addr,
		Runner: runner,
		Store:  st,
		Logger: c.Logger,
	})
	return srv.ListenAndServe(ctx)
}

// newStore builds the diagram store backend selected by the config.
func (c *CLI) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Server.Store == config.StoreMongo {
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	}
	return store.NewMemoryStore(), nil
}
