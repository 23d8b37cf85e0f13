package options

import (
	"fmt"

	"github.com/nspcc-dev/coinops/cli/input"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/urfave/cli"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printer formats numbers with thousands separators.
var Printer = message.NewPrinter(language.English)

// PrintResult prints an operation result summary.
func PrintResult(ctx *cli.Context, res executor.Result) {
	w := ctx.App.Writer
	Printer.Fprintf(w, "Submitted: %d\n", res.Submitted)
	Printer.Fprintf(w, "Failed: %d\n", res.Failed)
	for _, d := range res.Digests {
		fmt.Fprintf(w, "  %s\n", d)
	}
	for _, err := range res.Errors {
		fmt.Fprintf(w, "Error: %s\n", err)
	}
}

// Confirm asks for consent unless --force is given. An error is returned if
// there is no terminal to ask.
func Confirm(ctx *cli.Context, format string, args ...any) (bool, error) {
	if ctx.Bool("force") {
		return true, nil
	}
	return input.Confirm(ctx.App.Writer, Printer.Sprintf(format, args...))
}
