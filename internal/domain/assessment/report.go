package assessment

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette used by the terminal report.
var (
	ColorHeader  = lipgloss.Color("#B48EAD")
	ColorPrompt  = lipgloss.Color("#5E81AC")
	ColorAccent  = lipgloss.Color("#88C0D0")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarning = lipgloss.Color("#EBCB8B")
)

// Styles groups the lipgloss styles used for prompts and the report.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Prompt  lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles is the colored theme.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Foreground(ColorHeader),
		Bold:    lipgloss.NewStyle().Bold(true),
		Prompt:  lipgloss.NewStyle().Foreground(ColorPrompt),
		Accent:  lipgloss.NewStyle().Foreground(ColorAccent),
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	}
}

// PlainStyles renders text unchanged; used when output is not a terminal.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Header: s, Bold: s, Prompt: s, Accent: s, Success: s, Warning: s}
}

// WriteReport prints the maturity report for s.
func WriteReport(w io.Writer, s Summary, st Styles) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Header.Render("--- MLOps Maturity Report ---"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Bold.Render("Maturity by Dimension:"))
	for _, d := range s.Dimensions {
		fmt.Fprintf(w, "  - %s: Average Score %.2f (Level %d: %s)\n", d.Name, d.Average, d.Level, LevelName(d.Level))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Bold.Render("Overall MLOps Maturity:"))
	fmt.Fprintf(w, "  Total Average Score: %.2f\n", s.OverallAvg)
	fmt.Fprintf(w, "  Maturity Level: %s\n", st.Success.Render(fmt.Sprintf("Level %d: %s", s.OverallLevel, LevelName(s.OverallLevel))))

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Accent.Render("-- Recommendations --"))
	for _, r := range Recommendations(s.OverallLevel) {
		fmt.Fprintln(w, "  "+r)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Assessment Complete ---")
}
