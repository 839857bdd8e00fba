// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ErrCancelled is returned by workflows when the operator declines a
// confirmation. Commands treat it as a clean cancellation, not a failure.
var ErrCancelled = errors.New("cancelled by operator")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// IsCancelled reports whether err is a clean operator cancellation: a
// declined confirmation or an interrupt while a prompt was open.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || IsAborted(err)
}

// Confirmer asks the operator a yes/no question before destructive work.
// Commands depend on this interface so tests can script the answers.
type Confirmer interface {
	Confirm(label string) (bool, error)
}

// Terminal is the Confirmer used by the real CLIs. It prompts on the
// controlling terminal with a default-no question.
type Terminal struct{}

// Confirm implements Confirmer.
func (Terminal) Confirm(label string) (bool, error) {
	return Confirm(label, false)
}

// Confirm prompts the user for yes/no confirmation.
// Returns true if the user confirms, false otherwise.
// Returns ErrAborted if the user presses Ctrl+C.
func Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, defaultStr),
		IsConfirm: true,
		Default:   "",
	}

	result, err := prompt.Run()
	if err != nil {
		// Ctrl+C should abort
		if err == promptui.ErrInterrupt {
			return false, ErrAborted
		}
		// promptui returns ErrAbort for "n" response
		if err == promptui.ErrAbort {
			return false, nil
		}
		// Empty input uses default
		if result == "" {
			return defaultYes, nil
		}
		return false, err
	}

	return strings.ToLower(result) == "y" || strings.ToLower(result) == "yes", nil
}
