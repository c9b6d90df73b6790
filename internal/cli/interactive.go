package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/converge/internal/expr"
	"github.com/roach88/converge/internal/problem"
)

// maxPromptAttempts bounds re-asking so a closed or garbage input stream
// cannot loop forever.
const maxPromptAttempts = 10

// prompter re-asks for values until they parse, reading from the
// command's input stream so tests can script a session.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewScanner(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
}

// promptProblem fills in the problem interactively. Numeric fields keep
// their current values as defaults when the user enters nothing.
func promptProblem(p *problem.Problem, cmd *cobra.Command) error {
	pr := newPrompter(cmd)

	fmt.Fprintln(pr.out, "Newton-Raphson root finder")
	fmt.Fprintln(pr.out, "Functions of x, e.g.: x^2 - 2, cos(x) - x, exp(x) - 3")
	fmt.Fprintln(pr.out)

	fn, err := pr.expression("f(x) = ", false)
	if err != nil {
		return err
	}
	p.Function = fn

	dfx, err := pr.expression("f'(x) = (empty to derive automatically) ", true)
	if err != nil {
		return err
	}
	p.Derivative = dfx

	if p.X0, err = pr.float(fmt.Sprintf("Initial guess x0 [%g]: ", p.X0), p.X0, anyFloat); err != nil {
		return err
	}
	if p.Eps, err = pr.float(fmt.Sprintf("Tolerance eps [%g]: ", p.Eps), p.Eps, positiveFloat); err != nil {
		return err
	}
	if p.MaxIter, err = pr.integer(fmt.Sprintf("Iteration cap [%d]: ", p.MaxIter), p.MaxIter); err != nil {
		return err
	}
	return nil
}

func anyFloat(float64) string { return "" }

func positiveFloat(v float64) string {
	if v <= 0 {
		return "must be greater than zero"
	}
	return ""
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// expression prompts until the input parses. An empty answer is returned
// as-is when optional.
func (p *prompter) expression(prompt string, optional bool) (string, error) {
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		text, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if text == "" {
			if optional {
				return "", nil
			}
			fmt.Fprintln(p.out, "An expression is required.")
			continue
		}
		if _, err := expr.Parse(text); err != nil {
			fmt.Fprintf(p.out, "Invalid expression: %v\n", err)
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("no valid expression after %d attempts", maxPromptAttempts)
}

func (p *prompter) float(prompt string, def float64, check func(float64) string) (float64, error) {
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		text, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		if text == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			fmt.Fprintf(p.out, "Not a number: %q\n", text)
			continue
		}
		if msg := check(v); msg != "" {
			fmt.Fprintf(p.out, "Invalid value: %s\n", msg)
			continue
		}
		return v, nil
	}
	return 0, fmt.Errorf("no valid number after %d attempts", maxPromptAttempts)
}

func (p *prompter) integer(prompt string, def int) (int, error) {
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		text, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		if text == "" {
			return def, nil
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			fmt.Fprintf(p.out, "Not an integer: %q\n", text)
			continue
		}
		if v <= 0 {
			fmt.Fprintln(p.out, "Invalid value: must be greater than zero")
			continue
		}
		return v, nil
	}
	return 0, fmt.Errorf("no valid integer after %d attempts", maxPromptAttempts)
}
