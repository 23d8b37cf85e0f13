/*
Package input handles interactive user input.
*/
package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is a terminal used for input. If `nil`, stdin is used if it's a
// terminal.
var Terminal *term.Terminal

// Stdin is the file used for input when Terminal is nil.
var Stdin = os.Stdin

// ErrNotTerminal is returned when consent is required but there is no
// terminal to ask for it.
var ErrNotTerminal = errors.New("input is not a terminal, use --force to proceed without confirmation")

// ReadLine reads line from the input without trailing '\n'.
func ReadLine(w io.Writer, prompt string) (string, error) {
	if Terminal != nil {
		_, err := Terminal.Write([]byte(prompt))
		if err != nil {
			return "", err
		}
		raw, err := Terminal.ReadLine()
		return strings.TrimRight(raw, "\n"), err
	}
	fd := int(Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", err
	}
	defer func() { _ = term.Restore(fd, state) }()
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{Stdin, w}, prompt)
	return t.ReadLine()
}

// Confirm asks the user to confirm the operation described by prompt. Only
// "y" and "yes" are accepted as consent.
func Confirm(w io.Writer, prompt string) (bool, error) {
	line, err := ReadLine(w, fmt.Sprintf("%s Are you sure? [y/N] ", prompt))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
