package graph

import (
	"github.com/risklens/bowtie/pkg/errors"
)

// Validate checks the referential integrity and uniqueness invariants of a
// built graph. Unlike Build, it does not stop at the first defect: all
// issues across the whole document are collected and returned together, so a
// caller can report every problem in one compile.
//
// A nil return means the graph is confirmed and safe to hand to the layout
// engine. The checks are independent of each other:
//
//  1. no duplicate cause names and no duplicate consequence names
//     (case-sensitive exact match);
//  2. barrier target sets contain no repeats, within a record or across
//     records of the same name; disjoint redeclarations are permitted;
//  3. every barrier target resolves to exactly one side — a name present on
//     both sides is ambiguous and always rejected, never guessed;
//  4. every target must name a declared node.
//
// A cause or consequence with zero attached barriers is legal: barriers are
// optional hardening, not a structural requirement.
func Validate(g *Graph) errors.Issues {
	var issues errors.Issues

	issues = append(issues, duplicateNodes(g.causes, SideCause)...)
	issues = append(issues, duplicateNodes(g.consequences, SideConsequence)...)
	issues = append(issues, duplicateBarriers(g.barriers)...)
	issues = append(issues, resolveTargets(g)...)

	if len(issues) == 0 {
		return nil
	}
	return issues
}

// duplicateNodes flags repeated declarations within one side.
func duplicateNodes(nodes []*Node, side Side) errors.Issues {
	var issues errors.Issues
	seen := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if first, ok := seen[n.Name]; ok {
			issues = append(issues, errors.NewAt(errors.ErrCodeValidationDuplicateNode, n.Line,
				"duplicate %s %q (first declared on line %d)", side, n.Name, first))
			continue
		}
		seen[n.Name] = n.Line
	}
	return issues
}

// duplicateBarriers flags a barrier target listed more than once under one
// name, whether the repetition sits inside a single record or across a
// redeclaration. Targets are a set: redeclaring a name with disjoint targets
// is permitted and treated as one logical barrier split across records.
func duplicateBarriers(barriers []*Barrier) errors.Issues {
	var issues errors.Issues
	targetsByName := make(map[string]map[string]bool)
	for _, b := range barriers {
		prior := targetsByName[b.Name]
		if prior == nil {
			prior = make(map[string]bool, len(b.Targets))
			targetsByName[b.Name] = prior
		}
		for _, t := range b.Targets {
			if prior[t] {
				issues = append(issues, errors.NewAt(errors.ErrCodeValidationDuplicateBarrier, b.Line,
					"barrier %q lists target %q more than once", b.Name, t))
				continue
			}
			prior[t] = true
		}
	}
	return issues
}

// resolveTargets checks that every barrier target names exactly one declared
// node. Targets naming nodes on both sides are ambiguous: the notation has
// no side-qualifier syntax, so the document must be reworded.
func resolveTargets(g *Graph) errors.Issues {
	var issues errors.Issues
	for _, b := range g.barriers {
		for _, t := range b.Targets {
			_, isCause := g.Lookup(SideCause, t)
			_, isConsequence := g.Lookup(SideConsequence, t)
			switch {
			case isCause && isConsequence:
				issues = append(issues, errors.NewAt(errors.ErrCodeValidationAmbiguousTarget, b.Line,
					"barrier %q target %q names both a cause and a consequence", b.Name, t))
			case !isCause && !isConsequence:
				issues = append(issues, errors.NewAt(errors.ErrCodeValidationUnresolvedTarget, b.Line,
					"barrier %q target %q does not name any cause or consequence", b.Name, t))
			}
		}
	}
	return issues
}
