package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"json", []string{"json"}},
		{"svg,json,dot", []string{"svg", "json", "dot"}},
		{"svg, png", []string{"svg", "png"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output string
		input  string
		want   string
	}{
		{"", "diagram.bt", "diagram"},
		{"", "dir/diagram.bt", "dir/diagram"},
		{"out.svg", "diagram.bt", "out"},
		{"out.png", "diagram.bt", "out"},
		{"out", "diagram.bt", "out"},
		{"release.v2", "diagram.bt", "release.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.bt")
	if err := os.WriteFile(path, []byte("event E\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if got != "event E\n" {
		t.Errorf("content = %q", got)
	}

	if _, err := readDocument(filepath.Join(t.TempDir(), "absent.bt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	w, err := openOutput(path)
	if err != nil {
		t.Fatalf("openOutput: %v", err)
	}
	if _, err := w.Write([]byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("file content = %q", data)
	}

	// Empty path writes to stdout; Close must be a no-op.
	stdout, err := openOutput("")
	if err != nil {
		t.Fatal(err)
	}
	if err := stdout.Close(); err != nil {
		t.Errorf("stdout close: %v", err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("dir = %q", dir)
	}
}

func TestCacheClearUsesConfiguredDir(t *testing.T) {
	cacheRoot := t.TempDir()
	sub := filepath.Join(cacheRoot, "ab")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(sub, "entry.json")
	if err := os.WriteFile(entry, []byte(`{"data":""}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+cacheRoot+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", cfgPath, "cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Error("cache clear left entries in the configured cache dir")
	}
}

func TestCachePathUsesConfiguredDir(t *testing.T) {
	cacheRoot := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+cacheRoot+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.ConfigPath = cfgPath
	dir, err := c.cacheLocation()
	if err != nil {
		t.Fatalf("cacheLocation: %v", err)
	}
	if dir != cacheRoot {
		t.Errorf("dir = %q, want %q", dir, cacheRoot)
	}
}

func TestCacheLocationRejectsRemoteBackend(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.ConfigPath = cfgPath
	if _, err := c.cacheLocation(); err == nil {
		t.Error("expected error for a backend with no local directory")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()

	want := []string{"compile", "render", "watch", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
