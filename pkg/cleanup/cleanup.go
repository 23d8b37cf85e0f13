/*
Package cleanup implements zero-balance coin destruction, coin consolidation
and dust detection.

Only zero-quantity coins are ever destroyed. Non-zero dust can only be
merged into the largest coin of its type when it's explicitly requested.
*/
package cleanup

import (
	"fmt"

	"github.com/nspcc-dev/coinops/pkg/batch"
	"github.com/nspcc-dev/coinops/pkg/coinselect"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/encoder"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/nspcc-dev/coinops/pkg/price"
	"go.uber.org/zap"
)

// Params are Cleaner dependencies.
type Params struct {
	Inventory  *inventory.Inventory
	Executor   *executor.Executor
	Encoder    encoder.Encoder
	Network    config.NetworkConfig
	Operations config.OperationsConfig
	// Prices are used by dust detection, every asset is treated as unpriced
	// if it's nil.
	Prices price.Source
	Logger *zap.Logger
}

// Cleaner performs cleanup operations for the executor's account.
type Cleaner struct {
	inv    *inventory.Inventory
	exec   *executor.Executor
	enc    encoder.Encoder
	net    config.NetworkConfig
	ops    config.OperationsConfig
	prices price.Source
	log    *zap.Logger
}

// Options are common cleanup options.
type Options struct {
	executor.TxOptions
	// DryRun stops after planning, nothing is submitted.
	DryRun bool
	// BatchSize overrides the default number of items per bundle (or per
	// call for merges).
	BatchSize int
}

// TypePlan is a plan for coins of a single type.
type TypePlan struct {
	Type ledger.AssetType
	Kind ledger.CallKind
	// Target is the coin everything is merged into for merges.
	Target *ledger.ID
	// Gas is the fee coin pinned for this plan.
	Gas  *ledger.ID
	Plan batch.Plan[ledger.ID]
}

// Report is the outcome of a cleanup operation. Result is empty for dry
// runs.
type Report struct {
	DryRun bool
	Plans  []TypePlan
	Result executor.Result
}

// Items returns the number of planned items.
func (r *Report) Items() int {
	var n int
	for _, p := range r.Plans {
		n += len(p.Plan.Items())
	}
	return n
}

// Bundles returns the number of planned bundles.
func (r *Report) Bundles() int {
	var n int
	for _, p := range r.Plans {
		n += p.Plan.BundleCount()
	}
	return n
}

// New creates a Cleaner.
func New(p Params) *Cleaner {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{
		inv:    p.Inventory,
		exec:   p.Executor,
		enc:    p.Encoder,
		net:    p.Network,
		ops:    p.Operations,
		prices: p.Prices,
		log:    log,
	}
}

// DestroyZero destroys every zero-quantity coin of the account.
func (c *Cleaner) DestroyZero(opts Options) (*Report, error) {
	coins, err := c.inv.ListHoldings(c.exec.Sender())
	if err != nil {
		return nil, err
	}
	var zeros []ledger.Coin
	for _, coin := range coins {
		if coin.Quantity == 0 {
			zeros = append(zeros, coin)
		}
	}
	rep := &Report{DryRun: opts.DryRun, Result: executor.NewResult()}
	if err := c.planDestroy(rep, zeros, opts); err != nil {
		return nil, err
	}
	c.log.Info("zero-balance coins found", zap.Int("coins", len(zeros)), zap.Int("bundles", rep.Bundles()))
	c.run(rep, opts)
	return rep, nil
}

// Merge consolidates coins of the given type (or of every type if typ is
// nil) into the largest coin of that type. For the native type the fee coin
// is left aside and the largest of the remaining coins is the target.
func (c *Cleaner) Merge(typ *ledger.AssetType, opts Options) (*Report, error) {
	coins, err := c.inv.ListHoldings(c.exec.Sender())
	if err != nil {
		return nil, err
	}
	groups, order := inventory.GroupByType(coins)
	if typ != nil {
		order = []ledger.AssetType{*typ}
	}
	rep := &Report{DryRun: opts.DryRun, Result: executor.NewResult()}
	for _, t := range order {
		if err := c.planMerge(rep, coins, groups[t], t, opts); err != nil {
			return nil, err
		}
	}
	c.log.Info("merge planned", zap.Int("types", len(rep.Plans)), zap.Int("coins", rep.Items()), zap.Int("bundles", rep.Bundles()))
	c.run(rep, opts)
	return rep, nil
}

func (c *Cleaner) planDestroy(rep *Report, zeros []ledger.Coin, opts Options) error {
	if err := opts.CheckGas(coinselect.IDs(zeros)...); err != nil {
		return err
	}
	size := opts.BatchSize
	if size <= 0 {
		size = c.ops.DestroyBatchSize
	}
	groups, order := inventory.GroupByType(zeros)
	for _, t := range order {
		// Each object is destroyed by its own command, so the bundle is a
		// single group limited by command count.
		plan, err := batch.New(coinselect.IDs(groups[t]), c.net.ItemsPerBundle(size), 1)
		if err != nil {
			return err
		}
		rep.Plans = append(rep.Plans, TypePlan{Type: t, Kind: ledger.DestroyZero, Plan: plan})
	}
	return nil
}

// planMerge plans merging coins of type t into the largest of them, all
// holdings are used to pick the fee coin.
func (c *Cleaner) planMerge(rep *Report, all, coins []ledger.Coin, t ledger.AssetType, opts Options) error {
	var gas *ledger.ID
	if t == c.net.NativeCoinType {
		g, err := coinselect.GasCoin(all, c.net.NativeCoinType, opts.GasObject)
		if err != nil {
			return err
		}
		coins = coinselect.Exclude(coins, g.ID)
		gas = &g.ID
	}
	if len(coins) < 2 {
		return nil
	}
	if err := opts.CheckGas(coinselect.IDs(coins)...); err != nil {
		return err
	}
	perCall := c.net.MaxArgsPerCall
	if opts.BatchSize > 0 {
		perCall = min(perCall, opts.BatchSize)
	}
	plan, err := batch.NewWithTarget(coinselect.IDs(coinselect.SortDesc(coins)), 0, perCall, c.net.MaxGroupsPerBundle)
	if err != nil {
		return err
	}
	rep.Plans = append(rep.Plans, TypePlan{Type: t, Kind: ledger.Merge, Target: plan.Target, Gas: gas, Plan: plan})
	return nil
}

func (c *Cleaner) run(rep *Report, opts Options) {
	if rep.DryRun {
		return
	}
	var (
		owner = c.exec.Sender()
		tx    = opts.TxOptions.WithDefaults(c.net)
	)
	for _, tp := range rep.Plans {
		tpo := tx
		if tp.Gas != nil {
			tpo.GasObject = tp.Gas
		}
		res := c.exec.Run(tp.Plan, func(groups batch.Bundle[ledger.ID]) (*ledger.Bundle, error) {
			var cmds []ledger.Command
			for _, g := range groups {
				args := encoder.Args{Type: tp.Type, Objects: g}
				if tp.Target != nil {
					args.Target = *tp.Target
				}
				cc, err := c.enc.Encode(tp.Kind, args)
				if err != nil {
					return nil, fmt.Errorf("%s of %s: %w", tp.Kind, tp.Type.Short(), err)
				}
				cmds = append(cmds, cc...)
			}
			return tpo.NewBundle(owner, cmds, groups.Items()), nil
		})
		c.log.Info("cleanup step done",
			zap.Stringer("kind", tp.Kind),
			zap.String("type", tp.Type.Short()),
			zap.Stringer("result", res))
		rep.Result.Merge(res)
	}
}
