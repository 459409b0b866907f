package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"gmaps-scraper/config"
)

var errNoQueries = eris.New("no queries provided")

// yesAnswers select the built-in query list. Portuguese answers are kept so
// existing operators are not surprised.
var yesAnswers = map[string]bool{"s": true, "sim": true, "y": true, "yes": true}

// prompter asks for values that were not supplied through flags or env.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. EOF counts as an
// empty answer.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", eris.Wrap(err, "read answer")
	}
	return strings.TrimSpace(line), nil
}

// location returns the configured location, prompting when it is empty.
func (p *prompter) location(cfg *config.Config) (string, error) {
	if loc := strings.TrimSpace(cfg.Location); loc != "" {
		return loc, nil
	}
	answer, err := p.ask(fmt.Sprintf("Location to search (default: %s): ", config.DefaultLocation))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return config.DefaultLocation, nil
	}
	return answer, nil
}

// queries returns the query list from config, or asks whether to use the
// built-in list and otherwise reads a comma-separated custom list.
func (p *prompter) queries(cfg *config.Config) ([]string, error) {
	if cfg.UseDefaultQueries {
		return config.DefaultQueries, nil
	}
	if qs := cfg.QueryList(); len(qs) > 0 {
		return qs, nil
	}

	fmt.Fprintln(p.out, "Built-in queries:")
	for _, q := range config.DefaultQueries {
		fmt.Fprintln(p.out, "  -", q)
	}
	answer, err := p.ask("Use the built-in query list? [s/n]: ")
	if err != nil {
		return nil, err
	}
	if yesAnswers[strings.ToLower(answer)] {
		return config.DefaultQueries, nil
	}

	raw, err := p.ask("Enter your queries separated by commas: ")
	if err != nil {
		return nil, err
	}
	qs := config.SplitQueries(raw)
	if len(qs) == 0 {
		fmt.Fprintln(p.out, "No query provided. Exiting.")
		return nil, errNoQueries
	}
	return qs, nil
}
