/*
Package coinselect implements greedy largest-first coin selection.
*/
package coinselect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// ErrInsufficientBalance is returned when coins can't cover the requested
// amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Select picks coins of the given type whose combined quantity covers target
// using as few coins as largest-first accumulation allows. Coins with equal
// quantities keep their relative input order. No partial result is returned
// on failure. Zero target selects the single largest coin.
func Select(coins []ledger.Coin, typ ledger.AssetType, target uint64) ([]ledger.Coin, error) {
	candidates := SortDesc(OfType(coins, typ))
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no %s coins", ErrInsufficientBalance, typ.Short())
	}
	var (
		want = uint256.NewInt(target)
		sum  = new(uint256.Int)
	)
	for i := range candidates {
		sum.Add(sum, uint256.NewInt(candidates[i].Quantity))
		if sum.Cmp(want) >= 0 {
			return candidates[:i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: have %s of %s, want %d", ErrInsufficientBalance, sum.ToBig().String(), typ.Short(), target)
}

// OfType returns coins of the given type preserving their order.
func OfType(coins []ledger.Coin, typ ledger.AssetType) []ledger.Coin {
	var res []ledger.Coin
	for i := range coins {
		if coins[i].Type == typ {
			res = append(res, coins[i])
		}
	}
	return res
}

// Exclude returns coins without the ones with the specified IDs.
func Exclude(coins []ledger.Coin, ids ...ledger.ID) []ledger.Coin {
	if len(ids) == 0 {
		return coins
	}
	skip := ledger.NewIDSet(ids...)
	res := make([]ledger.Coin, 0, len(coins))
	for i := range coins {
		if !skip.Contains(coins[i].ID) {
			res = append(res, coins[i])
		}
	}
	return res
}

// SortDesc returns a copy of coins stably sorted by quantity in descending
// order.
func SortDesc(coins []ledger.Coin) []ledger.Coin {
	res := make([]ledger.Coin, len(coins))
	copy(res, coins)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Quantity > res[j].Quantity
	})
	return res
}

// Sum returns the total quantity of coins.
func Sum(coins []ledger.Coin) *uint256.Int {
	sum := new(uint256.Int)
	for i := range coins {
		sum.Add(sum, uint256.NewInt(coins[i].Quantity))
	}
	return sum
}

// IDs returns coin IDs.
func IDs(coins []ledger.Coin) []ledger.ID {
	res := make([]ledger.ID, len(coins))
	for i := range coins {
		res[i] = coins[i].ID
	}
	return res
}

// ErrNoGasCoin is returned when the account has no coin to pay fees with.
var ErrNoGasCoin = errors.New("no native coin to pay fees with")

// GasCoin returns the fee-paying coin: the pinned one if it's given (it must
// be an owned native coin) or the largest native coin.
func GasCoin(coins []ledger.Coin, native ledger.AssetType, pinned *ledger.ID) (ledger.Coin, error) {
	natives := SortDesc(OfType(coins, native))
	if pinned == nil {
		if len(natives) == 0 {
			return ledger.Coin{}, ErrNoGasCoin
		}
		return natives[0], nil
	}
	for _, c := range natives {
		if c.ID == *pinned {
			return c, nil
		}
	}
	return ledger.Coin{}, fmt.Errorf("gas object %s is not an owned %s coin", pinned, native.Short())
}
