package assessment

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DemoChoice is the option index picked for every question in demo mode.
const DemoChoice = 2

// Chooser selects an option index for a question.
type Chooser interface {
	Choose(dimension string, index int, q Question) (int, error)
}

// Answers holds the selected scores per dimension, in question set order.
type Answers struct {
	Dimensions []DimensionAnswers
}

// DimensionAnswers accumulates the scores chosen within one dimension.
type DimensionAnswers struct {
	Name   string
	Scores []int
}

// Run walks every question and records the score of the chosen option.
func Run(qs *QuestionSet, c Chooser) (Answers, error) {
	out := Answers{Dimensions: make([]DimensionAnswers, 0, len(qs.Dimensions))}
	for _, d := range qs.Dimensions {
		da := DimensionAnswers{Name: d.Name, Scores: make([]int, 0, len(d.Questions))}
		for i, q := range d.Questions {
			idx, err := c.Choose(d.Name, i, q)
			if err != nil {
				return Answers{}, err
			}
			if idx < 0 || idx >= len(q.Scores) {
				return Answers{}, fmt.Errorf("choice %d out of range for %s question %d", idx, d.Name, i+1)
			}
			da.Scores = append(da.Scores, q.Scores[idx])
		}
		out.Dimensions = append(out.Dimensions, da)
	}
	return out, nil
}

// DemoChooser always picks DemoChoice, falling back to the last option.
type DemoChooser struct{}

// Choose implements Chooser.
func (DemoChooser) Choose(_ string, _ int, q Question) (int, error) {
	return min(DemoChoice, len(q.Options)-1), nil
}

// Prompt asks each question on out and reads lettered answers from in.
type Prompt struct {
	in      *bufio.Reader
	out     io.Writer
	styles  Styles
	lastDim string
}

// NewPrompt creates an interactive chooser.
func NewPrompt(in io.Reader, out io.Writer, styles Styles) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out, styles: styles}
}

// Intro prints the questionnaire header.
func (p *Prompt) Intro() {
	fmt.Fprintln(p.out, p.styles.Header.Render("--- MLOps Maturity Assessment ---"))
	fmt.Fprintln(p.out, "Answer the following questions to assess your organization's MLOps maturity.")
	fmt.Fprintln(p.out, "Choose the option that best describes your current practices (e.g., 'A', 'B', 'C', 'D').")
}

// Choose implements Chooser. Invalid answers re-prompt; EOF aborts.
func (p *Prompt) Choose(dimension string, index int, q Question) (int, error) {
	if dimension != p.lastDim {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, p.styles.Bold.Render("-- Dimension: "+dimension+" --"))
		p.lastDim = dimension
	}
	fmt.Fprintf(p.out, "\n%d. %s\n", index+1, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(p.out, "  %s) %s\n", OptionLetter(i), opt)
	}

	for {
		fmt.Fprint(p.out, p.styles.Prompt.Render("Your choice ("+letters(len(q.Options))+"): "))
		line, err := p.in.ReadString('\n')
		choice := strings.ToUpper(strings.TrimSpace(line))
		if idx, ok := parseLetter(choice, len(q.Options)); ok {
			return idx, nil
		}
		if err != nil {
			fmt.Fprintln(p.out)
			return 0, ErrInputClosed
		}
		fmt.Fprintln(p.out, p.styles.Warning.Render("Invalid choice. Please enter "+letters(len(q.Options))+"."))
	}
}

// OptionLetter returns the label for option i: A, B, C...
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

func parseLetter(s string, n int) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	idx := int(s[0] - 'A')
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

func letters(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = OptionLetter(i)
	}
	return strings.Join(parts, ", ")
}
