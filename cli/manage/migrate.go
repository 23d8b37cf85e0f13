package manage

import (
	"fmt"

	"github.com/nspcc-dev/coinops/cli/flags"
	"github.com/nspcc-dev/coinops/cli/options"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/migrate"
	"github.com/urfave/cli"
)

var classFlag = cli.StringFlag{
	Name:  "class",
	Value: string(migrate.ClassAll),
	Usage: "what to migrate: coin, item or all",
}

func newMigrateCommand() cli.Command {
	return cli.Command{
		Name:      "migrate",
		Usage:     "move everything the account owns to another one",
		UsageText: "migrate --to address [--class coin|item|all] [--exclude-type type] [--batch-size n] [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
		Description: `Transfers holdings to the recipient in three phases: non-native coins,
   then other objects, then native coins. Native coins pay for the earlier
   phases, so they're always moved last with a single pay-all bundle (after
   merging them if there are too many). A failed bundle doesn't stop the
   migration, failures are reported at the end.`,
		Action: migrateAccount,
		Flags:  options.Mutating(toFlag, classFlag, options.ExcludeType, options.BatchSize),
	}
}

func migrateAccount(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError("this command doesn't accept arguments", 1)
	}
	to, err := getRecipient(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	class, err := migrate.ParseClass(ctx.String("class"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	w := ctx.App.Writer
	opts := migrate.Options{
		TxOptions: options.GetTxOptions(ctx),
		Class:     class,
		BatchSize: ctx.Int("batch-size"),
		Exclude:   flags.GetAssetTypes(ctx, options.ExcludeType.Name),
		PhaseHook: func(p migrate.Phase, res executor.Result) {
			options.Printer.Fprintf(w, "Phase %s done: %d submitted, %d failed\n", p, res.Submitted, res.Failed)
		},
	}
	m := env.Migrator()
	plan, err := m.Plan(to, opts)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	pv := m.Preview(plan)
	for _, ph := range pv.Phases {
		options.Printer.Fprintf(w, "Phase %s: %d objects, %d bundles\n", ph.Phase, ph.Items, ph.Bundles)
	}
	if n := len(plan.Excluded) + len(plan.ExcludedItems); n > 0 {
		options.Printer.Fprintf(w, "Excluded: %d objects\n", n)
	}
	options.Printer.Fprintf(w, "Total: %d objects, %d bundles, fee ceiling %d\n", pv.Items, pv.Bundles, pv.Fee)
	if pv.Items == 0 {
		fmt.Fprintln(w, "Nothing to do.")
		return nil
	}
	if ctx.Bool("dry-run") {
		return nil
	}
	ok, err := options.Confirm(ctx, "Migrate %d objects to %s.", pv.Items, to)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ok {
		return nil
	}
	res, err := m.Migrate(to, opts)
	if err != nil {
		options.PrintResult(ctx, res)
		return cli.NewExitError(err, 1)
	}
	return options.ResultExit(ctx, res)
}
