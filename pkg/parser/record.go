package parser

// Record is a typed fact produced from one non-blank source line.
// The concrete types are Title, Cause, Event, Consequence, and Barrier.
type Record interface {
	// Pos returns the 1-based source line the record was parsed from.
	Pos() int
}

// Title is the optional document title. At most one per document.
type Title struct {
	Text string
	Line int
}

// Cause declares a condition on the left side of the bowtie.
type Cause struct {
	Name string
	Line int
}

// Event declares the central event. Exactly one per document.
type Event struct {
	Name string
	Line int
}

// Consequence declares an outcome on the right side of the bowtie.
type Consequence struct {
	Name string
	Line int
}

// Barrier declares a control measure attached to one or more causes or
// consequences. Targets are kept in the order they were listed; resolution
// against declared nodes is deferred to validation.
type Barrier struct {
	Name    string
	Targets []string
	Line    int
}

func (t Title) Pos() int       { return t.Line }
func (c Cause) Pos() int       { return c.Line }
func (e Event) Pos() int       { return e.Line }
func (c Consequence) Pos() int { return c.Line }
func (b Barrier) Pos() int     { return b.Line }
