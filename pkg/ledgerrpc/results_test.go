package ledgerrpc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestOwnerJSON(t *testing.T) {
	var o Owner
	require.NoError(t, json.Unmarshal([]byte(`{"AddressOwner":"0xa11ce"}`), &o))
	require.Equal(t, ledger.MustParseID("0xa11ce"), *o.Address)

	require.NoError(t, json.Unmarshal([]byte(`{"ObjectOwner":"0x5"}`), &o))
	require.Nil(t, o.Address)
	require.NotNil(t, o.Object)

	require.NoError(t, json.Unmarshal([]byte(`{"Shared":{"initial_shared_version":1}}`), &o))
	require.True(t, o.Shared)
	require.Equal(t, uint64(1), o.SharedVersion)

	require.NoError(t, json.Unmarshal([]byte(`"Immutable"`), &o))
	require.Equal(t, Owner{}, o)

	require.Error(t, json.Unmarshal([]byte(`"Mutable"`), &o))
	require.Error(t, json.Unmarshal([]byte(`{"Other":1}`), &o))

	data, err := json.Marshal(Owner{Shared: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"Shared":{"initial_shared_version":0}}`, string(data))

	for _, o := range []Owner{{}, {Address: &ledger.ID{1}}, {Object: &ledger.ID{2}}, {Shared: true}, {Shared: true, SharedVersion: 42}} {
		data, err := json.Marshal(o)
		require.NoError(t, err)
		var actual Owner
		require.NoError(t, json.Unmarshal(data, &actual))
		require.Equal(t, o, actual)
	}
}

func TestObjectResponse(t *testing.T) {
	var r ObjectResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"objectId":"0x10","version":"7","digest":"abc",
		"type":"0x2::coin::Coin<0x2::sui::SUI>","owner":{"AddressOwner":"0xa11ce"}}}`), &r))
	obj := r.Data.Object()
	require.Equal(t, ledger.MustParseID("0x10"), obj.ID)
	require.Equal(t, uint64(7), obj.Version)
	require.True(t, obj.IsCoin())
	require.Equal(t, ledger.MustParseID("0xa11ce"), *obj.Owner)

	require.NoError(t, json.Unmarshal([]byte(`{"error":{"code":"notExists","object_id":"0x10"}}`), &r))
	require.ErrorIs(t, r.Error.Err(), ledger.ErrNotFound)
	require.NotErrorIs(t, (&ObjectError{Code: "displayError"}).Err(), ledger.ErrNotFound)
}

func TestGasNet(t *testing.T) {
	require.Equal(t, uint64(7), GasCostSummary{ComputationCost: 5, StorageCost: 4, StorageRebate: 2}.Net())
	require.Equal(t, uint64(0), GasCostSummary{ComputationCost: 1, StorageRebate: 2}.Net())
}

func TestError(t *testing.T) {
	e := &Error{Code: InvalidParamsCode, Message: "Invalid params"}
	require.Equal(t, "Invalid params (-32602)", e.Error())
	e.Data = json.RawMessage(`"bad owner"`)
	require.Equal(t, `Invalid params (-32602) - "bad owner"`, e.Error())

	var err error = e
	require.True(t, errors.Is(err, &Error{Code: InvalidParamsCode}))
	require.False(t, errors.Is(err, &Error{Code: InternalErrorCode}))
}
