/*
Package price provides quote currency prices of assets.
*/
package price

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Source returns the price of one whole unit of the asset. The second value
// is false if the price is not known.
type Source interface {
	Price(typ ledger.AssetType) (decimal.Decimal, bool, error)
}

// Static is a fixed price table.
type Static map[ledger.AssetType]decimal.Decimal

// NewStatic creates a table from type/price string pairs as they're stored
// in the configuration.
func NewStatic(prices map[string]string) (Static, error) {
	var s = make(Static, len(prices))
	for t, p := range prices {
		typ, err := ledger.ParseAssetType(t)
		if err != nil {
			return nil, fmt.Errorf("bad asset type %q: %w", t, err)
		}
		d, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("bad price for %s: %w", t, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("negative price for %s", t)
		}
		s[typ] = d
	}
	return s, nil
}

// Price implements the Source interface.
func (s Static) Price(typ ledger.AssetType) (decimal.Decimal, bool, error) {
	d, ok := s[typ]
	return d, ok, nil
}

// Value returns the quote value of quantity smallest units of an asset with
// the given decimals.
func Value(quantity uint64, decimals uint8, price decimal.Decimal) decimal.Decimal {
	q := decimal.NewFromBigInt(new(big.Int).SetUint64(quantity), -int32(decimals))
	return q.Mul(price)
}
