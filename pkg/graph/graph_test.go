package graph

import (
	"testing"

	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/parser"
)

func mustParse(t *testing.T, doc string) []parser.Record {
	t.Helper()
	records, err := parser.ParseString(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return records
}

func mustBuild(t *testing.T, doc string) *Graph {
	t.Helper()
	g, err := Build(mustParse(t, doc))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func TestBuild(t *testing.T) {
	g := mustBuild(t, `title Cyber Attacks
cause Phishing Emails
cause Weak Passwords
event Loss of Sensitive Data
consequence Financial Loss
consequence Legal Consequences
barrier Multi-Factor Authentication: Weak Passwords
`)

	if g.Title() != "Cyber Attacks" {
		t.Errorf("title = %q", g.Title())
	}
	if g.Event() != "Loss of Sensitive Data" {
		t.Errorf("event = %q", g.Event())
	}
	if len(g.Causes()) != 2 {
		t.Errorf("causes = %d, want 2", len(g.Causes()))
	}
	if len(g.Consequences()) != 2 {
		t.Errorf("consequences = %d, want 2", len(g.Consequences()))
	}
	if len(g.Barriers()) != 1 {
		t.Errorf("barriers = %d, want 1", len(g.Barriers()))
	}

	// Declaration order is preserved.
	if g.Causes()[0].Name != "Phishing Emails" || g.Causes()[1].Name != "Weak Passwords" {
		t.Errorf("cause order: %q, %q", g.Causes()[0].Name, g.Causes()[1].Name)
	}
	if g.Causes()[0].Side != SideCause {
		t.Errorf("cause side = %q", g.Causes()[0].Side)
	}
}

func TestBuildNoEvent(t *testing.T) {
	_, err := Build(mustParse(t, "cause A\nconsequence B\n"))
	if !errors.Is(err, errors.ErrCodeStructuralNoEvent) {
		t.Errorf("code = %v, want STRUCTURAL_NO_EVENT", errors.GetCode(err))
	}
}

func TestBuildMultipleEvents(t *testing.T) {
	_, err := Build(mustParse(t, "event First\nevent Second\n"))
	if !errors.Is(err, errors.ErrCodeStructuralMultipleEvent) {
		t.Errorf("code = %v, want STRUCTURAL_MULTIPLE_EVENT", errors.GetCode(err))
	}
}

func TestBuildEmptyDocument(t *testing.T) {
	_, err := Build(nil)
	if !errors.Is(err, errors.ErrCodeStructuralNoEvent) {
		t.Errorf("code = %v, want STRUCTURAL_NO_EVENT", errors.GetCode(err))
	}
}

func TestLookup(t *testing.T) {
	g := mustBuild(t, "cause A\nevent E\nconsequence B\n")

	if _, ok := g.Lookup(SideCause, "A"); !ok {
		t.Error("Lookup(cause, A) missed")
	}
	if _, ok := g.Lookup(SideConsequence, "A"); ok {
		t.Error("Lookup(consequence, A) should miss: sides are independent namespaces")
	}
	if _, ok := g.Lookup(SideConsequence, "B"); !ok {
		t.Error("Lookup(consequence, B) missed")
	}
}

func TestEdgesBarrierOrder(t *testing.T) {
	// Both barriers target the same consequence. Their order on that edge
	// must follow the barriers' declaration order in the document, not the
	// order targets appear inside each barrier's own list.
	g := mustBuild(t, `cause A
event E
consequence Shared
consequence Other
barrier Second Listed First: Other, Shared
barrier Alpha: Shared
`)

	edges := g.Edges(SideConsequence)
	if len(edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(edges))
	}
	shared := edges[0]
	if shared.Node.Name != "Shared" {
		t.Fatalf("edge order: first edge is %q", shared.Node.Name)
	}
	if len(shared.Barriers) != 2 {
		t.Fatalf("barriers on shared edge = %d, want 2", len(shared.Barriers))
	}
	if shared.Barriers[0].Name != "Second Listed First" || shared.Barriers[1].Name != "Alpha" {
		t.Errorf("barrier order = %q, %q; want declaration order",
			shared.Barriers[0].Name, shared.Barriers[1].Name)
	}
}

func TestEdgesMultiTargetBarrier(t *testing.T) {
	g := mustBuild(t, `event E
consequence Shutdown of Operations
consequence Legal Consequences
barrier Legal Compliance: Shutdown of Operations, Legal Consequences
`)

	edges := g.Edges(SideConsequence)
	for _, e := range edges {
		if len(e.Barriers) != 1 {
			t.Fatalf("edge %q has %d barriers, want 1", e.Node.Name, len(e.Barriers))
		}
		if e.Barriers[0].Name != "Legal Compliance" {
			t.Errorf("edge %q barrier = %q", e.Node.Name, e.Barriers[0].Name)
		}
	}
	// One logical barrier, two placements.
	if len(g.Barriers()) != 1 {
		t.Errorf("barriers = %d, want 1", len(g.Barriers()))
	}
}

func TestEdgesNoBarriers(t *testing.T) {
	g := mustBuild(t, "cause Bare\nevent E\n")
	edges := g.Edges(SideCause)
	if len(edges) != 1 {
		t.Fatalf("edges = %d", len(edges))
	}
	if len(edges[0].Barriers) != 0 {
		t.Errorf("bare edge has %d barriers", len(edges[0].Barriers))
	}
}
