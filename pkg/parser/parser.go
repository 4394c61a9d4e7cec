// Package parser tokenizes bowtie notation documents into typed records.
//
// The notation is line-oriented: the first token of each non-blank line
// selects the record kind.
//
//	title Chemical Spillage
//	cause Corroded Pipework
//	event Loss of Containment
//	consequence Environmental Damage
//	barrier Inspection Regime: Corroded Pipework
//
// Barrier lines carry a colon-separated target list; multiple targets are
// comma-separated. There is no comment syntax: any line that does not match
// the grammar is a parse error, never silently ignored.
package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/risklens/bowtie/pkg/errors"
)

// Scanner reads a document line by line, producing one Record per non-blank
// line in source order. A Scanner is single-pass and not restartable.
type Scanner struct {
	s        *bufio.Scanner
	line     int
	sawTitle bool
	err      error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{s: bufio.NewScanner(r)}
}

// Next returns the next record in the document.
// It returns io.EOF after the last record, and a *errors.Error for the first
// malformed line. Once an error is returned, Next keeps returning it.
func (sc *Scanner) Next() (Record, error) {
	if sc.err != nil {
		return nil, sc.err
	}
	for sc.s.Scan() {
		sc.line++
		text := strings.TrimSpace(sc.s.Text())
		if text == "" {
			continue
		}
		rec, err := sc.parseLine(text)
		if err != nil {
			sc.err = err
			return nil, err
		}
		return rec, nil
	}
	if err := sc.s.Err(); err != nil {
		sc.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
		return nil, sc.err
	}
	sc.err = io.EOF
	return nil, io.EOF
}

// Parse consumes the whole document and returns its records in source order.
// It stops at the first parse error.
func Parse(r io.Reader) ([]Record, error) {
	sc := NewScanner(r)
	var records []Record
	for {
		rec, err := sc.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ParseString parses a document held in memory.
func ParseString(doc string) ([]Record, error) {
	return Parse(strings.NewReader(doc))
}

// parseLine dispatches on the leading keyword of a trimmed non-blank line.
func (sc *Scanner) parseLine(text string) (Record, error) {
	keyword, rest, found := strings.Cut(text, " ")
	if !found {
		return nil, errors.NewAt(errors.ErrCodeParseSyntax, sc.line,
			"record %q has no value", keyword)
	}
	rest = strings.TrimSpace(rest)

	switch keyword {
	case "title":
		if sc.sawTitle {
			return nil, errors.NewAt(errors.ErrCodeParseDuplicateTitle, sc.line,
				"duplicate title record")
		}
		sc.sawTitle = true
		return Title{Text: rest, Line: sc.line}, nil
	case "cause":
		if err := sc.checkName(rest); err != nil {
			return nil, err
		}
		return Cause{Name: rest, Line: sc.line}, nil
	case "event":
		if err := sc.checkName(rest); err != nil {
			return nil, err
		}
		return Event{Name: rest, Line: sc.line}, nil
	case "consequence":
		if err := sc.checkName(rest); err != nil {
			return nil, err
		}
		return Consequence{Name: rest, Line: sc.line}, nil
	case "barrier":
		return sc.parseBarrier(rest)
	default:
		return nil, errors.NewAt(errors.ErrCodeParseSyntax, sc.line,
			"unknown record keyword %q", keyword)
	}
}

// parseBarrier parses the "<name>: <target>[, <target>]*" body of a barrier
// line. An empty target list (colon with nothing after, or all-empty entries)
// is a parse error.
func (sc *Scanner) parseBarrier(body string) (Record, error) {
	name, targetList, found := strings.Cut(body, ":")
	if !found {
		return nil, errors.NewAt(errors.ErrCodeParseSyntax, sc.line,
			"barrier record is missing the ':' target separator")
	}
	name = strings.TrimSpace(name)
	if err := sc.checkName(name); err != nil {
		return nil, err
	}

	var targets []string
	for _, t := range strings.Split(targetList, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		return nil, errors.NewAt(errors.ErrCodeParseBarrierTargets, sc.line,
			"barrier %q has an empty target list", name)
	}

	return Barrier{Name: name, Targets: targets, Line: sc.line}, nil
}

// checkName rejects names the notation cannot express unambiguously.
// Colons and commas collide with the barrier target syntax and there is no
// escape mechanism, so they are flagged rather than silently supported.
func (sc *Scanner) checkName(name string) error {
	if name == "" {
		return errors.NewAt(errors.ErrCodeParseName, sc.line, "empty name")
	}
	if i := strings.IndexAny(name, ":,"); i >= 0 {
		return errors.NewAt(errors.ErrCodeParseName, sc.line,
			"name %q contains reserved character %q", name, name[i])
	}
	return nil
}
