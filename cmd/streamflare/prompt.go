package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// prompter reads answers line by line
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the answer, or def for an empty answer
func (p *prompter) ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		if errors.Is(err, io.EOF) && def == "" {
			return "", io.ErrUnexpectedEOF
		}
		return def, nil
	}
	return answer, nil
}

// choose asks until the answer is one of options
func (p *prompter) choose(question string, options []string) (string, error) {
	label := fmt.Sprintf("%s (%s)", question, strings.Join(options, ", "))
	for {
		answer, err := p.ask(label, "")
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		if slices.Contains(options, answer) {
			return answer, nil
		}
		fmt.Fprintf(p.out, "Choose one of the available formats: %s!\n", strings.Join(options, ", "))
	}
}

// confirm asks a yes/no question
func (p *prompter) confirm(question string, def bool) (bool, error) {
	answer, err := p.ask(question+" (yes/no)", "")
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}
