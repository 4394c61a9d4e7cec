// Package store persists compiled diagrams for the HTTP API.
//
// A stored diagram pairs the source document with its compiled graph and
// layout, under a server-assigned ID. Backends:
//   - memory: in-memory storage for development/testing
//   - mongo: MongoDB-backed storage for production deployments
//
// The engine itself is stateless; storage exists purely so API clients can
// re-fetch a compiled diagram without resubmitting the document.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a diagram does not exist.
	ErrNotFound = errors.New("not found")
)

// Diagram is a stored compile result.
type Diagram struct {
	ID        string         `json:"id" bson:"_id"`
	Title     string         `json:"title,omitempty" bson:"title,omitempty"`
	Source    string         `json:"source" bson:"source"`
	DocHash   string         `json:"doc_hash" bson:"doc_hash"`
	Graph     graph.Document `json:"graph" bson:"graph"`
	Layout    layout.Layout  `json:"layout" bson:"layout"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// New creates a Diagram with a fresh ID and creation timestamp.
func New(source, docHash string, g *graph.Graph, l layout.Layout) *Diagram {
	return &Diagram{
		ID:        uuid.NewString(),
		Title:     g.Title(),
		Source:    source,
		DocHash:   docHash,
		Graph:     graph.Export(g),
		Layout:    l,
		CreatedAt: time.Now().UTC(),
	}
}

// Store persists compiled diagrams.
type Store interface {
	// Put stores a diagram under its ID.
	Put(ctx context.Context, d *Diagram) error

	// Get retrieves a diagram by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Diagram, error)

	// List returns stored diagrams, newest first, up to limit (0 = all).
	List(ctx context.Context, limit int) ([]*Diagram, error)

	// Delete removes a diagram. Deleting a missing ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
