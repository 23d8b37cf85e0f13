package clean

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/coinops/cli/options"
	"github.com/nspcc-dev/coinops/pkg/cleanup"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli"
)

var (
	typeFlag = cli.StringFlag{
		Name:  "type, t",
		Usage: "asset type to merge (every type by default)",
	}
	thresholdFlag = cli.StringFlag{
		Name:  "threshold",
		Usage: "dust value threshold (configured one by default)",
	}
	consolidateFlag = cli.BoolFlag{
		Name:  "consolidate",
		Usage: "merge non-zero dust into the largest coin of its type",
	}
)

var errNoArgs = errors.New("this command doesn't accept arguments")

// NewCommands returns 'clean' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "clean",
		Usage: "clean up account holdings",
		Subcommands: []cli.Command{
			{
				Name:      "destroy-zero",
				Usage:     "destroy every zero-balance coin",
				UsageText: "destroy-zero [-k keystore] [-a address] [--batch-size n] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
				Action:    destroyZero,
				Flags:     options.Mutating(options.BatchSize),
			},
			{
				Name:      "merge",
				Usage:     "merge coins of every type (or of the given one) into the largest coin",
				UsageText: "merge [-t type] [-k keystore] [-a address] [--batch-size n] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
				Description: `Merges coins of the same type into the largest one. For the native
   currency the fee coin (--gas-object or the largest native coin) is left
   aside and the rest is merged into the largest of the remaining coins.`,
				Action: merge,
				Flags:  options.Mutating(typeFlag, options.BatchSize),
			},
			{
				Name:      "dust",
				Usage:     "find low-value holdings, destroy zero ones and optionally merge the rest",
				UsageText: "dust [--threshold value] [--consolidate] [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
				Description: `Values every coin using configured prices and coin metadata. Coins
   worth less than the threshold are dust, coins of types with no price are
   dust if their balance is zero. Native coins with non-zero balance are
   never dust. Zero-balance dust is destroyed, the rest is only reported
   unless --consolidate is given.`,
				Action: dust,
				Flags:  options.Mutating(thresholdFlag, consolidateFlag, options.BatchSize),
			},
		},
	}}
}

func getOptions(ctx *cli.Context) cleanup.Options {
	return cleanup.Options{
		TxOptions: options.GetTxOptions(ctx),
		BatchSize: ctx.Int("batch-size"),
	}
}

func destroyZero(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(errNoArgs, 1)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	opts := getOptions(ctx)
	return run(ctx, "Destroy", func(dryRun bool) (*cleanup.Report, error) {
		opts.DryRun = dryRun
		return env.Cleaner().DestroyZero(opts)
	})
}

func merge(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(errNoArgs, 1)
	}
	var typ *ledger.AssetType
	if s := ctx.String("type"); s != "" {
		t, err := ledger.ParseAssetType(s)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		typ = &t
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	opts := getOptions(ctx)
	return run(ctx, "Merge", func(dryRun bool) (*cleanup.Report, error) {
		opts.DryRun = dryRun
		return env.Cleaner().Merge(typ, opts)
	})
}

func dust(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError(errNoArgs, 1)
	}
	opts := cleanup.DustOptions{
		Options:     getOptions(ctx),
		Consolidate: ctx.Bool("consolidate"),
	}
	if s := ctx.String("threshold"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("bad threshold: %w", err), 1)
		}
		opts.Threshold = &d
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	var printed bool
	return run(ctx, "Clean up", func(dryRun bool) (*cleanup.Report, error) {
		opts.DryRun = dryRun
		rep, err := env.Cleaner().Dust(opts)
		if err != nil {
			return nil, err
		}
		if !printed {
			printDust(ctx, rep)
			printed = true
		}
		return &rep.Report, nil
	})
}

func printDust(ctx *cli.Context, rep *cleanup.DustReport) {
	w := ctx.App.Writer
	fmt.Fprintf(w, "Dust threshold: %s\n", rep.Threshold)
	for _, h := range rep.Dust {
		value := "unpriced"
		if h.Priced {
			value = h.Value.String()
		}
		options.Printer.Fprintf(w, "  %s %s: %d (%s)\n", h.Coin.ID, h.Coin.Type.Short(), h.Coin.Quantity, value)
	}
	options.Printer.Fprintf(w, "Zero-balance: %d, non-zero: %d\n", len(rep.Destroyed), len(rep.Candidates))
}

// run plans the operation, prints the plan and executes it after getting
// the consent.
func run(ctx *cli.Context, action string, op func(dryRun bool) (*cleanup.Report, error)) error {
	rep, err := op(true)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printPlan(ctx, rep)
	if rep.Items() == 0 {
		fmt.Fprintln(ctx.App.Writer, "Nothing to do.")
		return nil
	}
	if ctx.Bool("dry-run") {
		return nil
	}
	ok, err := options.Confirm(ctx, "%s %d coins in %d bundles.", action, rep.Items(), rep.Bundles())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ok {
		return nil
	}
	rep, err = op(false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.ResultExit(ctx, rep.Result)
}

func printPlan(ctx *cli.Context, rep *cleanup.Report) {
	w := ctx.App.Writer
	for _, p := range rep.Plans {
		options.Printer.Fprintf(w, "%s %s: %d coins, %d bundles", p.Kind, p.Type.Short(), p.Plan.Len(), p.Plan.BundleCount())
		if p.Target != nil {
			fmt.Fprintf(w, ", into %s", p.Target)
		}
		fmt.Fprintln(w)
	}
}
