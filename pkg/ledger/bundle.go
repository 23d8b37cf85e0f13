package ledger

import (
	"errors"
	"fmt"
)

// ErrGasConflict is returned when the fee-paying coin is also used as an
// input of the same bundle.
var ErrGasConflict = errors.New("gas conflict")

// CallKind is the kind of the operation a Command performs.
type CallKind byte

// Known call kinds.
const (
	Merge CallKind = iota + 1
	Split
	SplitEqual
	SplitTransfer
	DestroyZero
	Transfer
	PayAllNative
)

// String implements the fmt.Stringer interface.
func (k CallKind) String() string {
	switch k {
	case Merge:
		return "merge"
	case Split:
		return "split"
	case SplitEqual:
		return "split-equal"
	case SplitTransfer:
		return "split-transfer"
	case DestroyZero:
		return "destroy-zero"
	case Transfer:
		return "transfer"
	case PayAllNative:
		return "pay-all-native"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// MoveCall describes a function call.
type MoveCall struct {
	Package       ID
	Module        string
	Function      string
	TypeArguments []AssetType
	// Arguments are JSON-ready call arguments (object IDs, strings for
	// integers, arrays of them).
	Arguments []any
}

// Command is a single ledger-level call of a bundle. Exactly one of Call,
// Transfer or PayAll is set.
type Command struct {
	Kind CallKind
	// Call is set for Move calls.
	Call *MoveCall
	// Transfer is the object sent to Recipient (Transfer kind).
	Transfer *ID
	// PayAll lists coins merged into the first one and sent whole (minus
	// fee) to Recipient, the first coin pays for the bundle.
	PayAll    []ID
	Recipient ID
	// Inputs are all objects this command consumes or mutates.
	Inputs []ID
}

// Bundle is a group of commands submitted atomically.
type Bundle struct {
	Sender   ID
	Commands []Command
	// GasObject pins the fee-paying coin, nil lets the ledger choose one.
	GasObject *ID
	GasBudget uint64
	// Items are the object references results are accounted for.
	Items []ID
}

// Inputs returns all objects consumed or mutated by bundle commands.
func (b *Bundle) Inputs() []ID {
	var res []ID
	for i := range b.Commands {
		res = append(res, b.Commands[i].Inputs...)
	}
	return res
}

// Validate checks bundle consistency before any network call is made. It
// returns an error wrapping ErrGasConflict if the pinned gas coin is among
// command inputs.
func (b *Bundle) Validate() error {
	if len(b.Commands) == 0 {
		return errors.New("empty bundle")
	}
	if b.GasBudget == 0 {
		return errors.New("zero gas budget")
	}
	for i := range b.Commands {
		c := &b.Commands[i]
		if c.Kind == PayAllNative {
			if len(b.Commands) != 1 {
				return fmt.Errorf("%s command can't be combined with other commands", c.Kind)
			}
			if len(c.PayAll) == 0 {
				return fmt.Errorf("%s command without coins", c.Kind)
			}
			if b.GasObject != nil {
				return fmt.Errorf("%w: %s pays fee with its first coin, gas object can't be pinned", ErrGasConflict, c.Kind)
			}
		}
		if c.Call == nil && c.Transfer == nil && c.PayAll == nil {
			return fmt.Errorf("command #%d (%s) has no payload", i, c.Kind)
		}
	}
	if b.GasObject != nil {
		for _, in := range b.Inputs() {
			if in == *b.GasObject {
				return fmt.Errorf("%w: gas object %s is also an input", ErrGasConflict, in)
			}
		}
	}
	return nil
}
