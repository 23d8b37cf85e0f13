package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// Class is an asset class filter.
type Class string

// Asset classes.
const (
	ClassCoin Class = "coin"
	ClassItem Class = "item"
	ClassAll  Class = "all"
)

// ParseClass parses asset class name, empty string is ClassAll.
func ParseClass(s string) (Class, error) {
	switch c := Class(strings.ToLower(s)); c {
	case "":
		return ClassAll, nil
	case ClassCoin, ClassItem, ClassAll:
		return c, nil
	default:
		return "", fmt.Errorf("unknown asset class %q (coin, item or all expected)", s)
	}
}

func (c Class) coins() bool { return c != ClassItem }
func (c Class) items() bool { return c != ClassCoin }

// Phase is a migration phase.
type Phase int

// Migration phases.
const (
	PhaseCoins Phase = iota + 1
	PhaseItems
	PhaseNative
)

// PhaseOrder is the order phases are always executed in. Native coins pay
// fees for everything else, so they're moved last.
var PhaseOrder = []Phase{PhaseCoins, PhaseItems, PhaseNative}

// String implements the fmt.Stringer interface.
func (p Phase) String() string {
	switch p {
	case PhaseCoins:
		return "coins"
	case PhaseItems:
		return "items"
	case PhaseNative:
		return "native"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

var (
	// ErrSelfMigration is returned when the recipient is the owner itself.
	ErrSelfMigration = errors.New("recipient is the owner")
	errNoRecipient   = errors.New("empty recipient")
)

// Plan is a migration plan built from a single inventory read.
type Plan struct {
	Owner     ledger.ID
	Recipient ledger.ID
	// Coins are non-native coins moved in the first phase.
	Coins []ledger.Coin
	// Items are non-coin objects moved in the second phase.
	Items []ledger.Object
	// Native coins are moved last, their exact set is re-read before
	// the phase.
	Native []ledger.Coin
	// Excluded are coins left behind because of their type.
	Excluded []ledger.Coin
	// ExcludedItems are objects left behind because of their type.
	ExcludedItems []ledger.Object
	BatchSize     int
	GasBudget     uint64
}

// PhasePreview describes a single phase of the plan.
type PhasePreview struct {
	Phase   Phase
	Items   int
	Bundles int
}

// Preview is a migration plan summary.
type Preview struct {
	Phases  []PhasePreview
	Items   int
	Bundles int
	// Fee is the upper bound of fees, every bundle is assumed to use its
	// whole budget.
	Fee uint64
}
