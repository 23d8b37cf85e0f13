/*
Package ledger contains the data model shared by all coinops engines: object
identifiers, canonical asset types, coin and object snapshots, command bundles
and their simulation/commitment outcomes.

Snapshots (Coin, Object) are immutable, they're produced by a fresh inventory
read and are never updated in place, a new read supersedes them.
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrNotFound is returned when a referenced object or account doesn't exist
// (anymore).
var ErrNotFound = errors.New("not found")

// Coin is a single fungible holding (coin object) owned by an account.
type Coin struct {
	ID       ID        `json:"coinObjectId"`
	Type     AssetType `json:"coinType"`
	Quantity uint64    `json:"balance,string"`
	Version  uint64    `json:"version,string"`
}

// Object is a reference to an owned object of any kind.
type Object struct {
	ID      ID
	Type    string
	Version uint64
	// Owner is the owning address, it's nil for shared/immutable objects or if
	// the owner is not known.
	Owner *ID
}

// IsCoin checks whether the object is a coin object.
func (o Object) IsCoin() bool {
	_, ok := CoinTypeOf(o.Type)
	return ok
}

// CoinPage is a single page of coin listing.
type CoinPage struct {
	Coins       []Coin
	NextCursor  string
	HasNextPage bool
}

// ObjectPage is a single page of owned object listing.
type ObjectPage struct {
	Objects     []Object
	NextCursor  string
	HasNextPage bool
}

// CoinMetadata is the presentation data of some asset type.
type CoinMetadata struct {
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

// DigestSize is the size of transaction digest in bytes.
const DigestSize = 32

// Digest is a committed transaction digest.
type Digest [DigestSize]byte

// ParseDigest decodes base58-encoded digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest

	b, err := base58.Decode(s)
	if err != nil {
		return d, fmt.Errorf("bad digest %q: %w", s, err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("bad digest %q: %d bytes instead of %d", s, len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// String returns base58 representation of the digest.
func (d Digest) String() string {
	return base58.Encode(d[:])
}

// Outcome is the result of bundle simulation.
type Outcome struct {
	Success bool
	// Error is the ledger-provided failure description.
	Error   string
	GasUsed uint64
}

// TxResult is the result of bundle commitment.
type TxResult struct {
	Digest  Digest
	Success bool
	Error   string
}

// Signer signs transactions on behalf of some account.
type Signer interface {
	// Address returns the account address.
	Address() ID
	// SignTransaction returns serialized signature for the given
	// transaction bytes.
	SignTransaction(tx []byte) (string, error)
}
