/*
Package inventory enumerates coins and objects owned by an account.

Listings transparently page through the cursor-based ledger API until it's
exhausted. Nothing is retried, client errors are returned to the caller.
*/
package inventory

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// RPCInventory is a set of ledger client methods required for inventory
// reads.
type RPCInventory interface {
	ListCoins(owner ledger.ID, coinType *ledger.AssetType, cursor string) (*ledger.CoinPage, error)
	ListObjects(owner ledger.ID, cursor string) (*ledger.ObjectPage, error)
	GetCoinMetadata(coinType ledger.AssetType) (*ledger.CoinMetadata, error)
}

// Inventory reads account holdings.
type Inventory struct {
	client RPCInventory
	meta   *lru.Cache
}

// DefaultCacheSize is the number of asset types metadata is cached for when
// a non-positive size is given to New.
const DefaultCacheSize = 256

var errStuckCursor = errors.New("ledger returned the same cursor twice")

// New creates an Inventory using the given client and metadata cache size.
func New(client RPCInventory, cacheSize int) *Inventory {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	meta, _ := lru.New(cacheSize) // Never errors for positive size.
	return &Inventory{
		client: client,
		meta:   meta,
	}
}

// ListHoldings returns all coins owned by the account.
func (inv *Inventory) ListHoldings(owner ledger.ID) ([]ledger.Coin, error) {
	return inv.listCoins(owner, nil)
}

// ListHoldingsOfType returns all coins of the given type owned by the
// account.
func (inv *Inventory) ListHoldingsOfType(owner ledger.ID, typ ledger.AssetType) ([]ledger.Coin, error) {
	return inv.listCoins(owner, &typ)
}

func (inv *Inventory) listCoins(owner ledger.ID, typ *ledger.AssetType) ([]ledger.Coin, error) {
	var (
		res    []ledger.Coin
		cursor string
		seen   = make(map[string]struct{})
	)
	for page := 0; ; page++ {
		p, err := inv.client.ListCoins(owner, typ, cursor)
		if err != nil {
			return nil, fmt.Errorf("listing coins of %s (page %d): %w", owner, page, err)
		}
		res = append(res, p.Coins...)
		if !p.HasNextPage {
			return res, nil
		}
		if err := checkCursor(seen, p.NextCursor); err != nil {
			return nil, fmt.Errorf("listing coins of %s (page %d): %w", owner, page, err)
		}
		cursor = p.NextCursor
	}
}

// ListItems returns all non-coin objects owned by the account.
func (inv *Inventory) ListItems(owner ledger.ID) ([]ledger.Object, error) {
	var (
		res    []ledger.Object
		cursor string
		seen   = make(map[string]struct{})
	)
	for page := 0; ; page++ {
		p, err := inv.client.ListObjects(owner, cursor)
		if err != nil {
			return nil, fmt.Errorf("listing objects of %s (page %d): %w", owner, page, err)
		}
		for _, o := range p.Objects {
			if !o.IsCoin() {
				res = append(res, o)
			}
		}
		if !p.HasNextPage {
			return res, nil
		}
		if err := checkCursor(seen, p.NextCursor); err != nil {
			return nil, fmt.Errorf("listing objects of %s (page %d): %w", owner, page, err)
		}
		cursor = p.NextCursor
	}
}

func checkCursor(seen map[string]struct{}, cursor string) error {
	if cursor == "" {
		return errors.New("next page announced without cursor")
	}
	if _, ok := seen[cursor]; ok {
		return errStuckCursor
	}
	seen[cursor] = struct{}{}
	return nil
}

// Metadata returns metadata of the given asset type, it's cached.
func (inv *Inventory) Metadata(typ ledger.AssetType) (ledger.CoinMetadata, error) {
	if v, ok := inv.meta.Get(typ); ok {
		return v.(ledger.CoinMetadata), nil
	}
	m, err := inv.client.GetCoinMetadata(typ)
	if err != nil {
		return ledger.CoinMetadata{}, fmt.Errorf("metadata of %s: %w", typ.Short(), err)
	}
	inv.meta.Add(typ, *m)
	return *m, nil
}

// GroupByType groups coins by their type. Types are returned in the order
// of their first appearance.
func GroupByType(coins []ledger.Coin) (map[ledger.AssetType][]ledger.Coin, []ledger.AssetType) {
	var (
		groups = make(map[ledger.AssetType][]ledger.Coin)
		order  []ledger.AssetType
	)
	for _, c := range coins {
		if _, ok := groups[c.Type]; !ok {
			order = append(order, c.Type)
		}
		groups[c.Type] = append(groups[c.Type], c)
	}
	return groups, order
}
