package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/coinops/cli/clean"
	"github.com/nspcc-dev/coinops/cli/manage"
	"github.com/nspcc-dev/coinops/cli/query"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "coinops\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a coinops instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "coinops"
	ctl.Version = config.Version
	ctl.Usage = "Bulk coin and object operations for ledger accounts"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, clean.NewCommands()...)
	ctl.Commands = append(ctl.Commands, manage.NewCommands()...)
	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	return ctl
}
