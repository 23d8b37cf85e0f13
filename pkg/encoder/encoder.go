/*
Package encoder turns high-level call kinds into ledger commands.

Encoder is the only place that knows framework package layout, all addresses
come from the NetworkConfig it's created with.
*/
package encoder

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// Framework module and function names.
const (
	PayModule  = "pay"
	CoinModule = "coin"

	JoinVecFunction          = "join_vec"
	SplitVecFunction         = "split_vec"
	DivideAndKeepFunction    = "divide_and_keep"
	SplitAndTransferFunction = "split_and_transfer"
	DestroyZeroFunction      = "destroy_zero"
)

// Args are call arguments, each kind uses a subset of them.
type Args struct {
	// Type is the coin type for coin-manipulating calls.
	Type ledger.AssetType
	// Target is the coin merged into or split from.
	Target ledger.ID
	// Objects are the items of a command group.
	Objects []ledger.ID
	// Amounts are split amounts.
	Amounts []uint64
	// Parts is the number of equal parts for SplitEqual.
	Parts uint64
	// Recipient is the receiver of transfers.
	Recipient ledger.ID
}

// Encoder builds commands for the given call kind. A single group can result
// in several commands for kinds that handle one object per call.
type Encoder interface {
	Encode(kind ledger.CallKind, args Args) ([]ledger.Command, error)
}

// Move encodes calls to the framework package modules.
type Move struct {
	framework ledger.ID
}

var errNoObjects = errors.New("no objects")

// NewMove creates an encoder for the given network.
func NewMove(cfg config.NetworkConfig) *Move {
	return &Move{framework: cfg.FrameworkPackage}
}

// Encode implements the Encoder interface.
func (m *Move) Encode(kind ledger.CallKind, args Args) ([]ledger.Command, error) {
	switch kind {
	case ledger.Merge:
		if len(args.Objects) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, errNoObjects)
		}
		for _, o := range args.Objects {
			if o == args.Target {
				return nil, fmt.Errorf("%s: target %s is merged into itself", kind, o)
			}
		}
		inputs := append([]ledger.ID{args.Target}, args.Objects...)
		return []ledger.Command{m.call(kind, PayModule, JoinVecFunction, args.Type, inputs,
			args.Target, idArgs(args.Objects))}, nil
	case ledger.Split:
		if len(args.Amounts) == 0 {
			return nil, fmt.Errorf("%s: no amounts", kind)
		}
		amounts := make([]string, len(args.Amounts))
		for i, a := range args.Amounts {
			if a == 0 {
				return nil, fmt.Errorf("%s: zero amount #%d", kind, i)
			}
			amounts[i] = strconv.FormatUint(a, 10)
		}
		return []ledger.Command{m.call(kind, PayModule, SplitVecFunction, args.Type, []ledger.ID{args.Target},
			args.Target, amounts)}, nil
	case ledger.SplitEqual:
		if args.Parts < 2 {
			return nil, fmt.Errorf("%s: at least two parts required, got %d", kind, args.Parts)
		}
		return []ledger.Command{m.call(kind, PayModule, DivideAndKeepFunction, args.Type, []ledger.ID{args.Target},
			args.Target, strconv.FormatUint(args.Parts, 10))}, nil
	case ledger.SplitTransfer:
		if len(args.Amounts) != 1 || args.Amounts[0] == 0 {
			return nil, fmt.Errorf("%s: exactly one non-zero amount required", kind)
		}
		return []ledger.Command{m.call(kind, PayModule, SplitAndTransferFunction, args.Type, []ledger.ID{args.Target},
			args.Target, strconv.FormatUint(args.Amounts[0], 10), args.Recipient)}, nil
	case ledger.DestroyZero:
		if len(args.Objects) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, errNoObjects)
		}
		res := make([]ledger.Command, 0, len(args.Objects))
		for _, o := range args.Objects {
			res = append(res, m.call(kind, CoinModule, DestroyZeroFunction, args.Type, []ledger.ID{o}, o))
		}
		return res, nil
	case ledger.Transfer:
		if len(args.Objects) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, errNoObjects)
		}
		res := make([]ledger.Command, 0, len(args.Objects))
		for _, o := range args.Objects {
			obj := o
			res = append(res, ledger.Command{
				Kind:      kind,
				Transfer:  &obj,
				Recipient: args.Recipient,
				Inputs:    []ledger.ID{obj},
			})
		}
		return res, nil
	case ledger.PayAllNative:
		if len(args.Objects) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, errNoObjects)
		}
		coins := make([]ledger.ID, len(args.Objects))
		copy(coins, args.Objects)
		return []ledger.Command{{
			Kind:      kind,
			PayAll:    coins,
			Recipient: args.Recipient,
			Inputs:    coins,
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported call kind %s", kind)
	}
}

func (m *Move) call(kind ledger.CallKind, module, function string, typ ledger.AssetType, inputs []ledger.ID, params ...any) ledger.Command {
	var typeArgs []ledger.AssetType
	if typ != "" {
		typeArgs = []ledger.AssetType{typ}
	}
	return ledger.Command{
		Kind: kind,
		Call: &ledger.MoveCall{
			Package:       m.framework,
			Module:        module,
			Function:      function,
			TypeArguments: typeArgs,
			Arguments:     params,
		},
		Inputs: inputs,
	}
}

func idArgs(ids []ledger.ID) []string {
	res := make([]string, len(ids))
	for i := range ids {
		res[i] = ids[i].String()
	}
	return res
}
