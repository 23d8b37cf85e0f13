package input

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func setTerminal(t *testing.T, in string) *bytes.Buffer {
	out := &bytes.Buffer{}
	Terminal = term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{bytes.NewBufferString(in), out}, "")
	t.Cleanup(func() { Terminal = nil })
	return out
}

func TestConfirm(t *testing.T) {
	for in, expected := range map[string]bool{
		"y\r":    true,
		"YES\r":  true,
		" yes\r": true,
		"n\r":    false,
		"\r":     false,
		"yep\r":  false,
	} {
		out := setTerminal(t, in)
		ok, err := Confirm(io.Discard, "Destroy 5 coins.")
		require.NoError(t, err, in)
		require.Equal(t, expected, ok, in)
		require.Contains(t, out.String(), "Destroy 5 coins. Are you sure? [y/N] ")
	}
}

func TestConfirmEOF(t *testing.T) {
	setTerminal(t, "")
	_, err := Confirm(io.Discard, "Migrate.")
	require.Error(t, err)
}

func TestNotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		Stdin = os.Stdin
		_ = r.Close()
		_ = w.Close()
	})
	Stdin = r
	_, err = Confirm(io.Discard, "Merge.")
	require.True(t, errors.Is(err, ErrNotTerminal))
}
