package query

import (
	"fmt"

	"github.com/nspcc-dev/coinops/cli/options"
	"github.com/nspcc-dev/coinops/pkg/coinselect"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli"
)

var verboseFlag = cli.BoolFlag{
	Name:  "verbose, v",
	Usage: "print every coin",
}

// NewCommands returns 'query' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "query",
		Usage: "query account holdings",
		Subcommands: []cli.Command{
			{
				Name:      "holdings",
				Usage:     "print coin balances by type",
				UsageText: "holdings [-v] [-k keystore] [-a address]",
				Action:    holdings,
				Flags:     append(options.Common(), verboseFlag),
			},
			{
				Name:      "items",
				Usage:     "print non-coin objects",
				UsageText: "items [-k keystore] [-a address]",
				Action:    items,
				Flags:     options.Common(),
			},
		},
	}}
}

func holdings(ctx *cli.Context) error {
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	coins, err := env.Inventory.ListHoldings(env.Signer.Address())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	w := ctx.App.Writer
	fmt.Fprintf(w, "Account: %s\n", env.Signer.Address())
	groups, order := inventory.GroupByType(coins)
	for _, t := range order {
		var (
			sum    = coinselect.Sum(groups[t])
			amount = sum.ToBig().String()
		)
		if meta, err := env.Inventory.Metadata(t); err == nil {
			amount = decimal.NewFromBigInt(sum.ToBig(), -int32(meta.Decimals)).String() + " " + meta.Symbol
		}
		options.Printer.Fprintf(w, "%s: %s (%d coins)\n", t, amount, len(groups[t]))
		if ctx.Bool("verbose") {
			for _, c := range coinselect.SortDesc(groups[t]) {
				options.Printer.Fprintf(w, "  %s: %d\n", c.ID, c.Quantity)
			}
		}
	}
	return nil
}

func items(ctx *cli.Context) error {
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	objs, err := env.Inventory.ListItems(env.Signer.Address())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	w := ctx.App.Writer
	for _, o := range objs {
		fmt.Fprintf(w, "%s: %s\n", o.ID, o.Type)
	}
	options.Printer.Fprintf(w, "Total: %d\n", len(objs))
	return nil
}
