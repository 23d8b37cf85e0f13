package cleanup

import (
	"github.com/nspcc-dev/coinops/pkg/coinselect"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/nspcc-dev/coinops/pkg/price"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DustOptions are dust cleanup options.
type DustOptions struct {
	Options
	// Threshold overrides the configured dust threshold.
	Threshold *decimal.Decimal
	// Consolidate enables merging of non-zero dust into the largest coin of
	// its type.
	Consolidate bool
}

// Holding is a valued coin.
type Holding struct {
	Coin ledger.Coin
	// Priced is false if there is no price or metadata for the coin type,
	// Value is zero then.
	Priced bool
	Value  decimal.Decimal
}

// DustReport is the outcome of dust cleanup.
type DustReport struct {
	Report
	Threshold decimal.Decimal
	// Dust is every coin classified as dust.
	Dust []Holding
	// Destroyed are zero-quantity dust coins, they're destroyed.
	Destroyed []ledger.Coin
	// Candidates are non-zero dust coins, they're only merged with
	// Consolidate option.
	Candidates []ledger.Coin
}

// Dust classifies holdings by their market value and destroys zero-quantity
// dust. Native coins with non-zero quantity are never dust.
func (c *Cleaner) Dust(opts DustOptions) (*DustReport, error) {
	threshold, err := c.threshold(opts.Threshold)
	if err != nil {
		return nil, err
	}
	coins, err := c.inv.ListHoldings(c.exec.Sender())
	if err != nil {
		return nil, err
	}
	rep := &DustReport{
		Report:    Report{DryRun: opts.DryRun, Result: executor.NewResult()},
		Threshold: threshold,
	}
	groups, order := inventory.GroupByType(coins)
	candidates := make(map[ledger.AssetType][]ledger.Coin)
	for _, t := range order {
		p, decimals, priced := c.valuation(t)
		for _, coin := range groups[t] {
			h := Holding{Coin: coin, Priced: priced}
			if priced {
				h.Value = price.Value(coin.Quantity, decimals, p)
			}
			if !isDust(h, threshold) {
				continue
			}
			switch {
			case coin.Quantity == 0:
				rep.Destroyed = append(rep.Destroyed, coin)
			case t == c.net.NativeCoinType:
				continue
			default:
				rep.Candidates = append(rep.Candidates, coin)
				candidates[t] = append(candidates[t], coin)
			}
			rep.Dust = append(rep.Dust, h)
		}
	}
	if err := c.planDestroy(&rep.Report, rep.Destroyed, opts.Options); err != nil {
		return nil, err
	}
	if opts.Consolidate {
		for _, t := range order {
			if len(candidates[t]) == 0 {
				continue
			}
			// Dust is merged into the largest coin of its type, which can be a
			// non-dust one.
			target := coinselect.SortDesc(groups[t])[0]
			inputs := append([]ledger.Coin{target}, coinselect.Exclude(candidates[t], target.ID)...)
			if err := c.planMerge(&rep.Report, coins, inputs, t, opts.Options); err != nil {
				return nil, err
			}
		}
	}
	c.log.Info("dust classified",
		zap.Stringer("threshold", threshold),
		zap.Int("dust", len(rep.Dust)),
		zap.Int("zero", len(rep.Destroyed)),
		zap.Int("candidates", len(rep.Candidates)),
		zap.Int("bundles", rep.Bundles()))
	c.run(&rep.Report, opts.Options)
	return rep, nil
}

func isDust(h Holding, threshold decimal.Decimal) bool {
	if !h.Priced {
		return h.Coin.Quantity == 0
	}
	return h.Value.LessThan(threshold)
}

func (c *Cleaner) threshold(override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}
	return c.ops.Threshold()
}

// valuation returns type price and decimals, price lookup and metadata
// errors make the type unpriced.
func (c *Cleaner) valuation(t ledger.AssetType) (decimal.Decimal, uint8, bool) {
	if c.prices == nil {
		return decimal.Zero, 0, false
	}
	p, ok, err := c.prices.Price(t)
	if err != nil {
		c.log.Warn("can't get price", zap.String("type", t.Short()), zap.Error(err))
		return decimal.Zero, 0, false
	}
	if !ok {
		return decimal.Zero, 0, false
	}
	m, err := c.inv.Metadata(t)
	if err != nil {
		c.log.Warn("can't get coin metadata", zap.String("type", t.Short()), zap.Error(err))
		return decimal.Zero, 0, false
	}
	return p, m.Decimals, true
}
