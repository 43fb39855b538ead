// Package review walks the user through detected duplicate pairs and
// collects which activities they want to delete. It never deletes
// anything itself; the outcome is a list of marked activities with the
// provider URLs where deletion happens manually.
package review

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/dedup"
)

// URLResolver maps an activity to the provider page where it can be
// inspected and deleted.
type URLResolver func(a *activity.Activity) string

// Session drives one review pass over a set of duplicate pairs.
type Session struct {
	out    io.Writer
	urlFor URLResolver

	// DryRun marks every recommended deletion without prompting.
	DryRun bool

	// prompt reads one answer from the user. Overridable for tests;
	// the default uses readline.
	prompt func(question string) (string, error)
}

// NewSession creates an interactive session writing to out.
func NewSession(out io.Writer, urlFor URLResolver) *Session {
	if out == nil {
		out = os.Stdout
	}
	s := &Session{out: out, urlFor: urlFor}
	s.prompt = s.readlinePrompt
	return s
}

// Run reviews every pair and returns the activities marked for deletion.
// Pairs with a clear quality winner are marked automatically; only pairs
// whose scores are very close are put to the user. Quitting early returns
// what was marked so far.
func (s *Session) Run(pairs []dedup.Pair) ([]Marked, error) {
	if len(pairs) == 0 {
		fmt.Fprintln(s.out, "No duplicates found.")
		return nil, nil
	}

	renderWelcome(s.out, len(pairs))

	var marked []Marked
	green := color.New(color.FgGreen).SprintFunc()

review:
	for i, pair := range pairs {
		renderPair(s.out, i+1, len(pairs), pair)

		if s.DryRun {
			fmt.Fprintf(s.out, "  %s\n", green("[dry run] would mark: "+pair.RecommendedDelete.Name))
			marked = append(marked, s.mark(pair.RecommendedDelete))
			continue
		}

		if !pair.IsVerySimilar {
			fmt.Fprintf(s.out, "  %s\n", green("Marked automatically (clear winner)."))
			marked = append(marked, s.mark(pair.RecommendedDelete))
			continue
		}

		for {
			answer, err := s.prompt("Keep which? [1/2/s(kip)/q(uit)]: ")
			if err != nil {
				if err == io.EOF || err == readline.ErrInterrupt {
					break review
				}
				return marked, err
			}

			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "1":
				marked = append(marked, s.mark(pair.Activity2))
			case "2":
				marked = append(marked, s.mark(pair.Activity1))
			case "s", "skip", "":
				fmt.Fprintln(s.out, "  Skipped.")
			case "q", "quit":
				break review
			default:
				fmt.Fprintln(s.out, "  Please answer 1, 2, s or q.")
				continue
			}
			break
		}
	}

	renderSummary(s.out, marked)
	return marked, nil
}

func (s *Session) mark(a *activity.Activity) Marked {
	url := ""
	if s.urlFor != nil {
		url = s.urlFor(a)
	}
	return Marked{Activity: a, URL: url}
}

// readlinePrompt asks one question on the terminal.
func (s *Session) readlinePrompt(question string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.New(color.FgCyan).Sprint(question),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create prompt: %w", err)
	}
	defer rl.Close()
	return rl.Readline()
}
