package executor

import (
	"fmt"

	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// TxOptions are fee parameters applied to every bundle of an operation.
type TxOptions struct {
	// GasBudget is the fee ceiling, network default is used if it's zero.
	GasBudget uint64
	// GasObject pins the fee-paying coin, the ledger picks one if it's nil.
	GasObject *ledger.ID
}

// WithDefaults returns options with network defaults applied.
func (o TxOptions) WithDefaults(cfg config.NetworkConfig) TxOptions {
	if o.GasBudget == 0 {
		o.GasBudget = cfg.GasBudget
	}
	return o
}

// NewBundle creates a bundle with the given fee options.
func (o TxOptions) NewBundle(sender ledger.ID, cmds []ledger.Command, items []ledger.ID) *ledger.Bundle {
	return &ledger.Bundle{
		Sender:    sender,
		Commands:  cmds,
		GasObject: o.GasObject,
		GasBudget: o.GasBudget,
		Items:     items,
	}
}

// CheckGas returns ledger.ErrGasConflict if the pinned gas coin is among
// the given inputs.
func (o TxOptions) CheckGas(inputs ...ledger.ID) error {
	if o.GasObject == nil {
		return nil
	}
	for _, id := range inputs {
		if id == *o.GasObject {
			return fmt.Errorf("%w: gas coin %s is an operation input", ledger.ErrGasConflict, id)
		}
	}
	return nil
}
