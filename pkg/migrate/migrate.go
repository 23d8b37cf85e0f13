/*
Package migrate moves all assets of an account to another address.

Migration runs in three phases: non-native coins, non-coin objects and
native coins. Every phase is planned and executed independently, failures
are accumulated, so a failed bundle in one phase doesn't prevent the next
ones from running.
*/
package migrate

import (
	"fmt"

	"github.com/nspcc-dev/coinops/pkg/batch"
	"github.com/nspcc-dev/coinops/pkg/coinselect"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/encoder"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"go.uber.org/zap"
)

// Params are Migrator dependencies.
type Params struct {
	Inventory  *inventory.Inventory
	Executor   *executor.Executor
	Encoder    encoder.Encoder
	Network    config.NetworkConfig
	Operations config.OperationsConfig
	Logger     *zap.Logger
}

// PhaseHook is called after every executed phase with its result.
type PhaseHook func(p Phase, res executor.Result)

// Options are migration options.
type Options struct {
	executor.TxOptions
	// Class selects asset classes to migrate.
	Class Class
	// BatchSize is the number of objects moved per bundle.
	BatchSize int
	// Exclude lists types left behind.
	Exclude []ledger.AssetType
	// PhaseHook is called after each phase if set.
	PhaseHook PhaseHook
}

// Migrator migrates the executor's account.
type Migrator struct {
	inv  *inventory.Inventory
	exec *executor.Executor
	enc  encoder.Encoder
	net  config.NetworkConfig
	ops  config.OperationsConfig
	log  *zap.Logger
}

// New creates a Migrator.
func New(p Params) *Migrator {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{
		inv:  p.Inventory,
		exec: p.Executor,
		enc:  p.Encoder,
		net:  p.Network,
		ops:  p.Operations,
		log:  log,
	}
}

// Plan reads the inventory and plans migration to the recipient.
func (m *Migrator) Plan(recipient ledger.ID, opts Options) (*Plan, error) {
	owner := m.exec.Sender()
	switch {
	case recipient.IsZero():
		return nil, errNoRecipient
	case recipient == owner:
		return nil, ErrSelfMigration
	}
	if opts.Class == "" {
		opts.Class = ClassAll
	}
	p := &Plan{
		Owner:     owner,
		Recipient: recipient,
		BatchSize: m.batchSize(opts.BatchSize),
		GasBudget: opts.WithDefaults(m.net).GasBudget,
	}
	excluded := ledger.NewAssetTypeSet(opts.Exclude...)

	coins, err := m.inv.ListHoldings(owner)
	if err != nil {
		return nil, err
	}
	if opts.GasObject != nil {
		if _, err := coinselect.GasCoin(coins, m.net.NativeCoinType, opts.GasObject); err != nil {
			return nil, err
		}
	}
	if opts.Class.coins() {
		for _, c := range coins {
			switch {
			case excluded.Contains(c.Type):
				p.Excluded = append(p.Excluded, c)
			case c.Type == m.net.NativeCoinType:
				p.Native = append(p.Native, c)
			default:
				p.Coins = append(p.Coins, c)
			}
		}
	}
	if opts.Class.items() {
		items, err := m.inv.ListItems(owner)
		if err != nil {
			return nil, err
		}
		for _, o := range items {
			if t, err := ledger.ParseAssetType(o.Type); err == nil && excluded.Contains(t) {
				p.ExcludedItems = append(p.ExcludedItems, o)
				continue
			}
			p.Items = append(p.Items, o)
		}
	}
	return p, nil
}

func (m *Migrator) batchSize(requested int) int {
	if requested <= 0 {
		requested = m.ops.MigrateBatchSize
	}
	return m.net.ItemsPerBundle(requested)
}

// Preview summarizes the plan without executing anything.
func (m *Migrator) Preview(p *Plan) Preview {
	var res Preview
	for _, ph := range PhaseOrder {
		var pp = PhasePreview{Phase: ph}
		switch ph {
		case PhaseCoins:
			pp.Items, pp.Bundles = len(p.Coins), bundles(len(p.Coins), p.BatchSize)
		case PhaseItems:
			pp.Items, pp.Bundles = len(p.Items), bundles(len(p.Items), p.BatchSize)
		case PhaseNative:
			pp.Items = len(p.Native)
			if n := len(p.Native); n > 0 {
				pp.Bundles = 1
				if n > m.net.MaxArgsPerCall {
					pp.Bundles += bundles(n-2, m.net.BundleCapacity())
				}
			}
		}
		if pp.Items == 0 {
			continue
		}
		res.Phases = append(res.Phases, pp)
		res.Items += pp.Items
		res.Bundles += pp.Bundles
	}
	res.Fee = uint64(res.Bundles) * p.GasBudget
	return res
}

func bundles(n, perBundle int) int {
	return (n + perBundle - 1) / perBundle
}

// Migrate plans and executes migration to the recipient. Only planning and
// inventory read errors are returned, bundle failures are accounted for in
// the result.
func (m *Migrator) Migrate(recipient ledger.ID, opts Options) (executor.Result, error) {
	var res = executor.NewResult()

	p, err := m.Plan(recipient, opts)
	if err != nil {
		return res, err
	}
	m.log.Info("migration planned",
		zap.Stringer("recipient", recipient),
		zap.Int("coins", len(p.Coins)),
		zap.Int("items", len(p.Items)),
		zap.Int("native", len(p.Native)),
		zap.Int("excluded", len(p.Excluded)+len(p.ExcludedItems)))

	tx := opts.WithDefaults(m.net)
	for _, ph := range PhaseOrder {
		var pr executor.Result
		switch ph {
		case PhaseCoins:
			pr, err = m.transfer(p, coinselect.IDs(p.Coins), tx)
		case PhaseItems:
			ids := make([]ledger.ID, len(p.Items))
			for i := range p.Items {
				ids[i] = p.Items[i].ID
			}
			pr, err = m.transfer(p, ids, tx)
		case PhaseNative:
			if len(p.Native) == 0 {
				continue
			}
			pr, err = m.native(p, tx)
		}
		res.Merge(pr)
		if err != nil {
			return res, fmt.Errorf("%s phase: %w", ph, err)
		}
		m.log.Info("migration phase done", zap.Stringer("phase", ph), zap.Stringer("result", pr))
		if opts.PhaseHook != nil {
			opts.PhaseHook(ph, pr)
		}
	}
	return res, nil
}

func (m *Migrator) transfer(p *Plan, ids []ledger.ID, tx executor.TxOptions) (executor.Result, error) {
	plan, err := batch.New(ids, p.BatchSize, 1)
	if err != nil {
		return executor.NewResult(), err
	}
	return m.exec.Run(plan, func(groups batch.Bundle[ledger.ID]) (*ledger.Bundle, error) {
		cmds, err := m.enc.Encode(ledger.Transfer, encoder.Args{Objects: groups.Items(), Recipient: p.Recipient})
		if err != nil {
			return nil, err
		}
		return tx.NewBundle(p.Owner, cmds, groups.Items()), nil
	}), nil
}

// native moves native coins. They're re-read since earlier phases spent
// fees. If all of them can't be passed to a single PayAll command, coins
// except the two largest are merged into the largest one first, paying
// with the second largest.
func (m *Migrator) native(p *Plan, tx executor.TxOptions) (executor.Result, error) {
	var res = executor.NewResult()

	coins, err := m.inv.ListHoldingsOfType(p.Owner, m.net.NativeCoinType)
	if err != nil {
		return res, err
	}
	if len(coins) == 0 {
		return res, nil
	}
	coins = coinselect.SortDesc(coins)
	// PayAll always pays with its own input.
	tx.GasObject = nil
	if len(coins) > m.net.MaxArgsPerCall {
		target, gas := coins[0].ID, coins[1].ID
		plan, err := batch.New(coinselect.IDs(coins[2:]), m.net.MaxArgsPerCall, m.net.MaxGroupsPerBundle)
		if err != nil {
			return res, err
		}
		mtx := tx
		mtx.GasObject = &gas
		res.Merge(m.exec.Run(plan, func(groups batch.Bundle[ledger.ID]) (*ledger.Bundle, error) {
			var cmds []ledger.Command
			for _, g := range groups {
				cc, err := m.enc.Encode(ledger.Merge, encoder.Args{Type: m.net.NativeCoinType, Target: target, Objects: g})
				if err != nil {
					return nil, err
				}
				cmds = append(cmds, cc...)
			}
			return mtx.NewBundle(p.Owner, cmds, groups.Items()), nil
		}))
		coins = coins[:2]
	}
	ids := coinselect.IDs(coins)
	cmds, err := m.enc.Encode(ledger.PayAllNative, encoder.Args{Objects: ids, Recipient: p.Recipient})
	if err != nil {
		res.Fail(err, ids...)
		return res, nil
	}
	res.Merge(m.exec.Execute(tx.NewBundle(p.Owner, cmds, ids)))
	return res, nil
}
