/*
Package manage implements explicit coin and object management operations:
transfers and splits.
*/
package manage

import (
	"errors"
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

// RPCObjects is a ledger client method required to check objects.
type RPCObjects interface {
	GetObject(id ledger.ID) (*ledger.Object, error)
}

// Params are Manager dependencies.
type Params struct {
	Inventory *inventory.Inventory
	Objects   RPCObjects
	Executor  *executor.Executor
	Encoder   encoder.Encoder
	Network   config.NetworkConfig
	Logger    *zap.Logger
}

// Options are common management options.
type Options struct {
	executor.TxOptions
	// DryRun stops after building bundles, nothing is submitted.
	DryRun bool
}

// Report is the outcome of a management operation. Result is empty for
// dry runs.
type Report struct {
	DryRun  bool
	Bundles []*ledger.Bundle
	Result  executor.Result
}

// Manager performs operations for the executor's account.
type Manager struct {
	inv  *inventory.Inventory
	objs RPCObjects
	exec *executor.Executor
	enc  encoder.Encoder
	net  config.NetworkConfig
	log  *zap.Logger
}

var errZeroAmount = errors.New("zero amount")

// New creates a Manager.
func New(p Params) *Manager {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		inv:  p.Inventory,
		objs: p.Objects,
		exec: p.Executor,
		enc:  p.Encoder,
		net:  p.Network,
		log:  log,
	}
}

// TransferCoin sends amount of the given type to the recipient. Coins
// covering the amount are merged first if there are several of them, a
// coin matching the amount exactly is transferred as is.
func (m *Manager) TransferCoin(typ ledger.AssetType, amount uint64, recipient ledger.ID, opts Options) (*Report, error) {
	if amount == 0 {
		return nil, errZeroAmount
	}
	if recipient.IsZero() {
		return nil, errors.New("empty recipient")
	}
	tx, coins, err := m.prepare(typ, opts)
	if err != nil {
		return nil, err
	}
	for _, c := range coins {
		if c.Quantity == amount {
			cmds, err := m.enc.Encode(ledger.Transfer, encoder.Args{Objects: []ledger.ID{c.ID}, Recipient: recipient})
			if err != nil {
				return nil, err
			}
			return m.run(opts.DryRun, tx.NewBundle(m.exec.Sender(), cmds, []ledger.ID{c.ID}))
		}
	}
	selected, err := coinselect.Select(coins, typ, amount)
	if err != nil {
		return nil, err
	}
	bs, err := m.mergeThen(tx, typ, selected, encoder.Args{
		Type:      typ,
		Target:    selected[0].ID,
		Amounts:   []uint64{amount},
		Recipient: recipient,
	}, ledger.SplitTransfer)
	if err != nil {
		return nil, err
	}
	return m.run(opts.DryRun, bs...)
}

// Split splits coins of the given type into new coins of the given
// amounts. Coins covering the total are merged first.
func (m *Manager) Split(typ ledger.AssetType, amounts []uint64, opts Options) (*Report, error) {
	var total uint64
	for _, a := range amounts {
		if a == 0 {
			return nil, errZeroAmount
		}
		if total+a < total {
			return nil, fmt.Errorf("amounts overflow: %w", coinselect.ErrInsufficientBalance)
		}
		total += a
	}
	if len(amounts) == 0 {
		return nil, errors.New("no amounts")
	}
	tx, coins, err := m.prepare(typ, opts)
	if err != nil {
		return nil, err
	}
	selected, err := coinselect.Select(coins, typ, total)
	if err != nil {
		return nil, err
	}
	bs, err := m.mergeThen(tx, typ, selected, encoder.Args{
		Type:    typ,
		Target:  selected[0].ID,
		Amounts: amounts,
	}, ledger.Split)
	if err != nil {
		return nil, err
	}
	return m.run(opts.DryRun, bs...)
}

// SplitEqual divides the coin into the given number of equal parts, the
// remainder stays in the original coin.
func (m *Manager) SplitEqual(id ledger.ID, parts uint64, opts Options) (*Report, error) {
	coins, err := m.inv.ListHoldings(m.exec.Sender())
	if err != nil {
		return nil, err
	}
	var coin *ledger.Coin
	for i := range coins {
		if coins[i].ID == id {
			coin = &coins[i]
			break
		}
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %s: %w", id, ledger.ErrNotFound)
	}
	if parts > coin.Quantity {
		return nil, fmt.Errorf("can't divide %d into %d parts", coin.Quantity, parts)
	}
	tx := opts.TxOptions.WithDefaults(m.net)
	if coin.Type == m.net.NativeCoinType && tx.GasObject == nil {
		gas, err := coinselect.GasCoin(coinselect.Exclude(coins, id), m.net.NativeCoinType, nil)
		if err != nil {
			return nil, err
		}
		tx.GasObject = &gas.ID
	}
	if err := tx.CheckGas(id); err != nil {
		return nil, err
	}
	cmds, err := m.enc.Encode(ledger.SplitEqual, encoder.Args{Type: coin.Type, Target: id, Parts: parts})
	if err != nil {
		return nil, err
	}
	return m.run(opts.DryRun, tx.NewBundle(m.exec.Sender(), cmds, []ledger.ID{id}))
}

// TransferObjects sends the given objects to the recipient in batches.
// Objects that don't exist or are not owned by the account are reported as
// failed.
func (m *Manager) TransferObjects(ids []ledger.ID, recipient ledger.ID, batchSize int, opts Options) (*Report, error) {
	if recipient.IsZero() {
		return nil, errors.New("empty recipient")
	}
	var (
		owner     = m.exec.Sender()
		tx        = opts.TxOptions.WithDefaults(m.net)
		missing   = executor.NewResult()
		seen      = make(ledger.IDSet, len(ids))
		transfers []ledger.ID
	)
	for _, id := range ids {
		if seen.Contains(id) {
			continue
		}
		seen[id] = struct{}{}
		o, err := m.objs.GetObject(id)
		switch {
		case err != nil && !errors.Is(err, ledger.ErrNotFound):
			return nil, err
		case err != nil, o.Owner == nil || *o.Owner != owner:
			missing.Fail(fmt.Errorf("object %s: %w", id, ledger.ErrNotFound), id)
		default:
			transfers = append(transfers, id)
		}
	}
	if err := tx.CheckGas(transfers...); err != nil {
		return nil, err
	}
	plan, err := batch.New(transfers, m.net.ItemsPerBundle(batchSize), 1)
	if err != nil {
		return nil, err
	}
	var bs []*ledger.Bundle
	for _, pb := range plan.Bundles {
		cmds, err := m.enc.Encode(ledger.Transfer, encoder.Args{Objects: pb.Items(), Recipient: recipient})
		if err != nil {
			return nil, err
		}
		bs = append(bs, tx.NewBundle(owner, cmds, pb.Items()))
	}
	rep, err := m.run(opts.DryRun, bs...)
	if err != nil {
		return nil, err
	}
	rep.Result.Merge(missing)
	return rep, nil
}

// prepare returns fee options and coins usable as operation inputs, for
// the native type the fee coin is excluded and pinned.
func (m *Manager) prepare(typ ledger.AssetType, opts Options) (executor.TxOptions, []ledger.Coin, error) {
	tx := opts.TxOptions.WithDefaults(m.net)
	coins, err := m.inv.ListHoldings(m.exec.Sender())
	if err != nil {
		return tx, nil, err
	}
	if typ == m.net.NativeCoinType {
		gas, err := coinselect.GasCoin(coins, m.net.NativeCoinType, tx.GasObject)
		if err != nil {
			return tx, nil, err
		}
		tx.GasObject = &gas.ID
	}
	if tx.GasObject != nil {
		coins = coinselect.Exclude(coins, *tx.GasObject)
	}
	return tx, coinselect.OfType(coins, typ), nil
}

// mergeThen builds bundles merging selected coins into the first one
// followed by the final command. Merge fits into the final bundle if it's
// a single call, otherwise it's done by separate bundles first.
func (m *Manager) mergeThen(tx executor.TxOptions, typ ledger.AssetType, selected []ledger.Coin, final encoder.Args, kind ledger.CallKind) ([]*ledger.Bundle, error) {
	var (
		owner  = m.exec.Sender()
		target = selected[0].ID
		rest   = coinselect.IDs(selected[1:])
		bs     []*ledger.Bundle
		last   []ledger.Command
	)
	finalCmds, err := m.enc.Encode(kind, final)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 && len(rest) <= m.net.MaxArgsPerCall {
		last, err = m.enc.Encode(ledger.Merge, encoder.Args{Type: typ, Target: target, Objects: rest})
		if err != nil {
			return nil, err
		}
		rest = nil
	}
	if len(rest) > 0 {
		plan, err := batch.New(rest, m.net.MaxArgsPerCall, m.net.MaxGroupsPerBundle)
		if err != nil {
			return nil, err
		}
		for _, pb := range plan.Bundles {
			var cmds []ledger.Command
			for _, g := range pb {
				cc, err := m.enc.Encode(ledger.Merge, encoder.Args{Type: typ, Target: target, Objects: g})
				if err != nil {
					return nil, err
				}
				cmds = append(cmds, cc...)
			}
			bs = append(bs, tx.NewBundle(owner, cmds, pb.Items()))
		}
	}
	items := []ledger.ID{target}
	if last != nil {
		items = coinselect.IDs(selected)
	}
	bs = append(bs, tx.NewBundle(owner, append(last, finalCmds...), items))
	if err := m.checkGas(tx, bs); err != nil {
		return nil, err
	}
	return bs, nil
}

func (m *Manager) checkGas(tx executor.TxOptions, bs []*ledger.Bundle) error {
	for _, b := range bs {
		if err := tx.CheckGas(b.Inputs()...); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) run(dryRun bool, bs ...*ledger.Bundle) (*Report, error) {
	rep := &Report{DryRun: dryRun, Bundles: bs, Result: executor.NewResult()}
	if dryRun {
		return rep, nil
	}
	rep.Result = m.exec.ExecuteAll(bs)
	m.log.Info("operation done", zap.Int("bundles", len(bs)), zap.Stringer("result", rep.Result))
	return rep, nil
}
