package ledgerrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// Transaction execution status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Object error codes.
const (
	ObjectNotExists = "notExists"
	ObjectDeleted   = "deleted"
)

// Execution request types.
const (
	WaitForEffectsCert    = "WaitForEffectsCert"
	WaitForLocalExecution = "WaitForLocalExecution"
)

type (
	// CoinPage is a page of coin listing.
	CoinPage struct {
		Data        []ledger.Coin `json:"data"`
		NextCursor  *string       `json:"nextCursor"`
		HasNextPage bool          `json:"hasNextPage"`
	}

	// ObjectPage is a page of owned object listing.
	ObjectPage struct {
		Data        []ObjectResponse `json:"data"`
		NextCursor  *string          `json:"nextCursor"`
		HasNextPage bool             `json:"hasNextPage"`
	}

	// ObjectResponse is either object data or an error.
	ObjectResponse struct {
		Data  *ObjectData  `json:"data,omitempty"`
		Error *ObjectError `json:"error,omitempty"`
	}

	// ObjectError is an object lookup error.
	ObjectError struct {
		Code     string     `json:"code"`
		ObjectID *ledger.ID `json:"object_id,omitempty"`
	}

	// ObjectData is an object state.
	ObjectData struct {
		ObjectID ledger.ID `json:"objectId"`
		Version  uint64    `json:"version,string"`
		Digest   string    `json:"digest"`
		Type     string    `json:"type,omitempty"`
		Owner    *Owner    `json:"owner,omitempty"`
	}

	// Owner is an object owner, only one of its fields is set (or none
	// for immutable objects).
	Owner struct {
		Address *ledger.ID
		Object  *ledger.ID
		Shared  bool
		// SharedVersion is the version the object became shared at.
		SharedVersion uint64
	}

	// ObjectDataOptions selects object fields returned.
	ObjectDataOptions struct {
		ShowType  bool `json:"showType"`
		ShowOwner bool `json:"showOwner"`
	}

	// ObjectQuery is an owned objects listing query.
	ObjectQuery struct {
		Options ObjectDataOptions `json:"options"`
	}

	// CoinMetadata is asset metadata.
	CoinMetadata struct {
		Decimals    uint8  `json:"decimals"`
		Name        string `json:"name"`
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
	}

	// TransactionBytes is an unsigned transaction built by the node.
	TransactionBytes struct {
		TxBytes string `json:"txBytes"`
	}

	// BatchRequest is a single command of a batch transaction.
	BatchRequest struct {
		MoveCall       *MoveCallParams       `json:"moveCallRequestParams,omitempty"`
		TransferObject *TransferObjectParams `json:"transferObjectRequestParams,omitempty"`
	}

	// MoveCallParams are package function call parameters.
	MoveCallParams struct {
		PackageObjectID ledger.ID          `json:"packageObjectId"`
		Module          string             `json:"module"`
		Function        string             `json:"function"`
		TypeArguments   []ledger.AssetType `json:"typeArguments"`
		Arguments       []any              `json:"arguments"`
	}

	// TransferObjectParams are object transfer parameters.
	TransferObjectParams struct {
		ObjectID  ledger.ID `json:"objectId"`
		Recipient ledger.ID `json:"recipient"`
	}

	// ExecutionStatus is a transaction status.
	ExecutionStatus struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	// GasCostSummary is a transaction fee breakdown.
	GasCostSummary struct {
		ComputationCost uint64 `json:"computationCost,string"`
		StorageCost     uint64 `json:"storageCost,string"`
		StorageRebate   uint64 `json:"storageRebate,string"`
	}

	// Effects are transaction effects.
	Effects struct {
		Status  ExecutionStatus `json:"status"`
		GasUsed GasCostSummary  `json:"gasUsed"`
	}

	// DryRunResult is a transaction simulation result.
	DryRunResult struct {
		Effects Effects `json:"effects"`
	}

	// TransactionResponseOptions selects transaction response fields.
	TransactionResponseOptions struct {
		ShowEffects bool `json:"showEffects"`
	}

	// TransactionResponse is a transaction execution result.
	TransactionResponse struct {
		Digest  string   `json:"digest"`
		Effects *Effects `json:"effects,omitempty"`
	}
)

// Net returns total fee paid, storage rebate can make it zero.
func (g GasCostSummary) Net() uint64 {
	total := g.ComputationCost + g.StorageCost
	if g.StorageRebate >= total {
		return 0
	}
	return total - g.StorageRebate
}

// Object converts object data into ledger.Object.
func (o *ObjectData) Object() ledger.Object {
	res := ledger.Object{ID: o.ObjectID, Type: o.Type, Version: o.Version}
	if o.Owner != nil && o.Owner.Address != nil {
		owner := *o.Owner.Address
		res.Owner = &owner
	}
	return res
}

// Err converts object error into ledger error.
func (e *ObjectError) Err() error {
	var id string
	if e.ObjectID != nil {
		id = e.ObjectID.String()
	}
	switch e.Code {
	case ObjectNotExists, ObjectDeleted:
		return fmt.Errorf("object %s %s: %w", id, e.Code, ledger.ErrNotFound)
	default:
		return fmt.Errorf("object %s: %s", id, e.Code)
	}
}

type ownerAux struct {
	AddressOwner *ledger.ID   `json:"AddressOwner,omitempty"`
	ObjectOwner  *ledger.ID   `json:"ObjectOwner,omitempty"`
	Shared       *sharedOwner `json:"Shared,omitempty"`
}

type sharedOwner struct {
	InitialSharedVersion uint64 `json:"initial_shared_version"`
}

// MarshalJSON implements the json.Marshaler interface.
func (o Owner) MarshalJSON() ([]byte, error) {
	if o.Address == nil && o.Object == nil && !o.Shared {
		return json.Marshal("Immutable")
	}
	aux := ownerAux{AddressOwner: o.Address, ObjectOwner: o.Object}
	if o.Shared {
		aux.Shared = &sharedOwner{InitialSharedVersion: o.SharedVersion}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (o *Owner) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Immutable" {
			return fmt.Errorf("unknown owner %q", s)
		}
		*o = Owner{}
		return nil
	}
	var aux ownerAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.AddressOwner == nil && aux.ObjectOwner == nil && aux.Shared == nil {
		return errors.New("unknown owner kind")
	}
	*o = Owner{Address: aux.AddressOwner, Object: aux.ObjectOwner}
	if aux.Shared != nil {
		o.Shared, o.SharedVersion = true, aux.Shared.InitialSharedVersion
	}
	return nil
}
