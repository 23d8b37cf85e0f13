package manage

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/coinops/cli/flags"
	"github.com/nspcc-dev/coinops/cli/options"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/nspcc-dev/coinops/pkg/manage"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli"
)

var (
	typeFlag = cli.StringFlag{
		Name:  "type, t",
		Usage: "asset type",
	}
	toFlag = flags.IDFlag{
		Name:  "to",
		Usage: "recipient address",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "amount to send",
	}
	baseUnitsFlag = cli.BoolFlag{
		Name:  "base-units",
		Usage: "amounts are given in base units instead of ones scaled by asset decimals",
	}
	coinFlag = flags.IDFlag{
		Name:  "coin",
		Usage: "coin to split",
	}
	partsFlag = cli.Uint64Flag{
		Name:  "parts",
		Usage: "number of equal parts",
	}
)

var (
	errNoType      = errors.New("no asset type specified, use --type")
	errNoRecipient = errors.New("no recipient specified, use --to")
)

// NewCommands returns 'manage' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "manage",
		Usage: "transfer, split and migrate holdings",
		Subcommands: []cli.Command{
			{
				Name:      "transfer",
				Usage:     "send some amount of coins",
				UsageText: "transfer -t type --amount value --to address [--base-units] [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
				Description: `Selects coins covering the amount (largest first), merges them if
   needed and sends the amount to the recipient. A single coin matching the
   amount exactly is sent as is.`,
				Action: transfer,
				Flags:  options.Mutating(typeFlag, amountFlag, toFlag, baseUnitsFlag),
			},
			{
				Name:      "transfer-objects",
				Usage:     "send objects",
				UsageText: "transfer-objects --to address [--batch-size n] [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force] <id> [<id> ...]",
				Action:    transferObjects,
				Flags:     options.Mutating(toFlag, options.BatchSize),
			},
			{
				Name:      "split",
				Usage:     "split coins into new coins of the given amounts",
				UsageText: "split -t type [--base-units] [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force] <amount> [<amount> ...]",
				Action:    split,
				Flags:     options.Mutating(typeFlag, baseUnitsFlag),
			},
			{
				Name:      "split-equal",
				Usage:     "split the coin into a number of equal coins",
				UsageText: "split-equal --coin id --parts n [-k keystore] [-a address] [--gas-budget n] [--gas-object id] [--dry-run] [--force]",
				Action:    splitEqual,
				Flags:     options.Mutating(coinFlag, partsFlag),
			},
			newMigrateCommand(),
		},
	}}
}

func getOptions(ctx *cli.Context) manage.Options {
	return manage.Options{TxOptions: options.GetTxOptions(ctx)}
}

func getType(ctx *cli.Context) (ledger.AssetType, error) {
	s := ctx.String("type")
	if s == "" {
		return "", errNoType
	}
	return ledger.ParseAssetType(s)
}

func getRecipient(ctx *cli.Context) (ledger.ID, error) {
	to := flags.GetID(ctx, "to")
	if to == nil {
		return ledger.ID{}, errNoRecipient
	}
	return *to, nil
}

// decimalsOf returns the number of decimals amounts of the type are given
// with.
func decimalsOf(ctx *cli.Context, env *options.Env, typ ledger.AssetType) (uint8, error) {
	if ctx.Bool("base-units") {
		return 0, nil
	}
	meta, err := env.Inventory.Metadata(typ)
	if err != nil {
		return 0, fmt.Errorf("can't get %s decimals (use --base-units to give raw amounts): %w", typ.Short(), err)
	}
	return meta.Decimals, nil
}

// parseAmount parses a decimal amount into base units.
func parseAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	d = d.Shift(int32(decimals))
	if !d.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("amount %q is not positive", s)
	}
	b := d.BigInt()
	if !b.IsUint64() {
		return 0, fmt.Errorf("amount %q is too big", s)
	}
	return b.Uint64(), nil
}

func transfer(ctx *cli.Context) error {
	typ, err := getType(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	to, err := getRecipient(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	dec, err := decimalsOf(ctx, env, typ)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	amount, err := parseAmount(ctx.String("amount"), dec)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	opts := getOptions(ctx)
	return run(ctx, fmt.Sprintf("Transfer %s %s to %s.", ctx.String("amount"), typ.Short(), to), func(dryRun bool) (*manage.Report, error) {
		opts.DryRun = dryRun
		return env.Manager().TransferCoin(typ, amount, to, opts)
	})
}

func transferObjects(ctx *cli.Context) error {
	to, err := getRecipient(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.NArg() == 0 {
		return cli.NewExitError("no objects to transfer", 1)
	}
	ids := make([]ledger.ID, 0, ctx.NArg())
	for _, arg := range ctx.Args() {
		id, err := ledger.ParseID(arg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		ids = append(ids, id)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	opts := getOptions(ctx)
	return run(ctx, fmt.Sprintf("Transfer %d objects to %s.", len(ids), to), func(dryRun bool) (*manage.Report, error) {
		opts.DryRun = dryRun
		return env.Manager().TransferObjects(ids, to, ctx.Int("batch-size"), opts)
	})
}

func split(ctx *cli.Context) error {
	typ, err := getType(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.NArg() == 0 {
		return cli.NewExitError("no amounts to split", 1)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	dec, err := decimalsOf(ctx, env, typ)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	amounts := make([]uint64, 0, ctx.NArg())
	for _, arg := range ctx.Args() {
		a, err := parseAmount(arg, dec)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		amounts = append(amounts, a)
	}
	opts := getOptions(ctx)
	return run(ctx, fmt.Sprintf("Split %s into %d coins.", typ.Short(), len(amounts)), func(dryRun bool) (*manage.Report, error) {
		opts.DryRun = dryRun
		return env.Manager().Split(typ, amounts, opts)
	})
}

func splitEqual(ctx *cli.Context) error {
	coin := flags.GetID(ctx, "coin")
	if coin == nil {
		return cli.NewExitError("no coin specified, use --coin", 1)
	}
	parts := ctx.Uint64("parts")
	if parts < 2 {
		return cli.NewExitError("number of parts must be at least 2, use --parts", 1)
	}
	env, exitErr := options.NewEnv(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()

	opts := getOptions(ctx)
	return run(ctx, "Split "+coin.String()+" into "+strconv.FormatUint(parts, 10)+" coins.", func(dryRun bool) (*manage.Report, error) {
		opts.DryRun = dryRun
		return env.Manager().SplitEqual(*coin, parts, opts)
	})
}

// run plans the operation, prints the plan and executes it after getting
// the consent.
func run(ctx *cli.Context, prompt string, op func(dryRun bool) (*manage.Report, error)) error {
	rep, err := op(true)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	w := ctx.App.Writer
	for i, b := range rep.Bundles {
		options.Printer.Fprintf(w, "Bundle #%d: %d commands, %d objects, gas budget %d\n", i+1, len(b.Commands), len(b.Items), b.GasBudget)
	}
	if ctx.Bool("dry-run") {
		return nil
	}
	ok, err := options.Confirm(ctx, "%s", prompt)
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
