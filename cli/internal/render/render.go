package render

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/interday/reliastat/pkg/types"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorBorder  = lipgloss.Color("#16858E")
	colorMuted   = lipgloss.Color("#2C4A54")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	valueStyle  = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

// Renderer writes results to one output stream.
type Renderer struct {
	w      io.Writer
	styled bool
}

// New returns a Renderer for w, styled when w is a terminal.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w, styled: isTerminal(w)}
}

// Plain returns a Renderer that never styles its output.
func Plain(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Results prints every metric of rs in display order.
func (r *Renderer) Results(rs types.ResultSet) {
	entries := rs.Entries()
	if !r.styled {
		for _, e := range entries {
			fmt.Fprintf(r.w, "%s: %s\n", e.Metric.Name(), e.Value)
		}
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Metric.Name(), e.Value.String()})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("Métrica", "Valor").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return valueStyle
			default:
				return cellStyle
			}
		})
	fmt.Fprintln(r.w, t.Render())
}

// Analysis prints the header line of a stored analysis, its results and any alerts.
func (r *Renderer) Analysis(a *types.Analysis) {
	line := fmt.Sprintf("analysis %s  n=%d  resamples=%d  confidence=%v",
		a.ID, a.N, a.Params.Resamples, a.Params.Confidence)
	if r.styled {
		line = mutedStyle.Render(line)
	}
	fmt.Fprintln(r.w, line)
	r.Results(a.Results)
	r.Alerts(a.Alerts)
}

// Alerts prints one line per fired alert.
func (r *Renderer) Alerts(alerts []types.Alert) {
	for _, al := range alerts {
		line := fmt.Sprintf("ALERT [%s] %s: %s (%s = %s)", al.Severity, al.Rule, al.Condition, al.Metric, al.Value)
		if r.styled {
			line = warnStyle.Render(line)
		}
		fmt.Fprintln(r.w, line)
	}
}

// Error prints err as a user-facing failure message.
func (r *Renderer) Error(err error) {
	msg := types.UserMessage(err)
	if r.styled {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(r.w, msg)
}
