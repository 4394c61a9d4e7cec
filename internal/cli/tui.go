package cli

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/pipeline"
)

// =============================================================================
// WatchModel - live re-render status view
// =============================================================================

// watchChangeMsg signals that the watched file changed and a render started.
type watchChangeMsg struct{}

// watchRenderMsg carries the outcome of one render pass.
type watchRenderMsg struct {
	stats    pipeline.Stats
	cached   bool
	duration time.Duration
	err      error
}

// watchModel is the bubbletea model for the watch command's status view.
type watchModel struct {
	input  string
	output string

	rendering bool
	renders   int
	last      watchRenderMsg
	lastAt    time.Time
}

// newWatchModel creates the initial watch view state.
func newWatchModel(input, output string) watchModel {
	return watchModel{input: input, output: output, rendering: true}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case watchChangeMsg:
		m.rendering = true
	case watchRenderMsg:
		m.rendering = false
		m.renders++
		m.last = msg
		m.lastAt = time.Now()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Watching " + m.input))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(iconArrow + " " + m.output))
	b.WriteString("\n\n")

	switch {
	case m.rendering:
		b.WriteString(StyleHighlight.Render("rendering..."))
		b.WriteString("\n")
	case m.last.err != nil:
		b.WriteString(StyleError.Render(iconError + " render failed"))
		b.WriteString("\n")
		for _, line := range formatIssueLines(m.last.err) {
			b.WriteString("  " + line + "\n")
		}
	default:
		b.WriteString(StyleSuccess.Render(iconSuccess+" rendered") +
			StyleDim.Render(fmt.Sprintf(" (%s)", m.last.duration.Round(time.Millisecond))))
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d causes · %d consequences · %d barriers",
			m.last.stats.CauseCount, m.last.stats.ConsequenceCount, m.last.stats.BarrierCount)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("%d render(s)", m.renders)
	if !m.lastAt.IsZero() {
		status += " · last at " + m.lastAt.Format("15:04:05")
	}
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n")

	return b.String()
}

// formatIssueLines renders a compile failure as plain display lines.
func formatIssueLines(err error) []string {
	if issues, ok := errors.AsIssues(err); ok {
		lines := make([]string, len(issues))
		for i, issue := range issues {
			lines[i] = formatIssueLine(issue)
		}
		return lines
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return []string{formatIssueLine(e)}
	}
	return []string{StyleError.Render(err.Error())}
}

func formatIssueLine(e *errors.Error) string {
	loc := ""
	if e.Line > 0 {
		loc = styleIssueLine.Render(fmt.Sprintf("line %d: ", e.Line))
	}
	return styleIssueCode.Render(string(e.Code)) + " " + loc + e.Message
}
