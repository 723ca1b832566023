package cli

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// Choices offered when an answer is left empty.
const (
	PromptAnswerAgain = "Answer again"
	PromptSkip        = "Skip this question"
	PromptSaveAndQuit = "Save and quit"
)

// errQuit is returned by a Prompter when the user leaves the session.
var errQuit = errors.New("quit requested")

// Prompter reads answers and menu choices from the user.
type Prompter interface {
	Ask(label string) (string, error)
	Choose(label string, items []string) (string, error)
}

// terminalPrompter reads from the terminal. Ctrl-C and Ctrl-D map to
// errQuit.
type terminalPrompter struct{}

func (terminalPrompter) Ask(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	answer, err := p.Run()
	return answer, quitOn(err)
}

func (terminalPrompter) Choose(label string, items []string) (string, error) {
	s := promptui.Select{Label: label, Items: items}
	_, choice, err := s.Run()
	return choice, quitOn(err)
}

func quitOn(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errQuit
	}
	return err
}
