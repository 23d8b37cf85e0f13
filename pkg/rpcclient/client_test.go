package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/nspcc-dev/coinops/pkg/ledgerrpc"
	"github.com/stretchr/testify/require"
)

const testDigest = "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw"

var (
	owner  = ledger.MustParseID("0xa11ce")
	native = ledger.MustParseAssetType("0x2::sui::SUI")
)

type testSigner ledger.ID

func (s testSigner) Address() ledger.ID { return ledger.ID(s) }

func (s testSigner) SignTransaction(tx []byte) (string, error) {
	return "sig-" + string(rune('0'+len(tx))), nil
}

// initTestServer starts a server answering every method with the response
// from the map and recording requests.
func initTestServer(t *testing.T, responses map[string]string, requests *[]ledgerrpc.Request) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var r ledgerrpc.Request
		require.NoError(t, json.Unmarshal(data, &r))
		require.Equal(t, ledgerrpc.JSONRPCVersion, r.JSONRPC)
		if requests != nil {
			*requests = append(*requests, r)
		}
		resp, ok := responses[r.Method]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, err = w.Write([]byte(`{"jsonrpc":"2.0","id":1,` + resp + `}`))
		require.NoError(t, err)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.TODO(), srv.URL, Options{PageSize: 2})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

type rpcClientTestCase struct {
	name     string
	method   string
	response string
	invoke   func(c *Client) (any, error)
	fails    bool
	check    func(t *testing.T, res any)
}

var rpcClientTestCases = []rpcClientTestCase{
	{
		name:     "all coins",
		method:   "suix_getAllCoins",
		response: `"result":{"data":[{"coinType":"0x2::sui::SUI","coinObjectId":"0x10","version":"3","digest":"x","balance":"1000"}],"nextCursor":"0x10","hasNextPage":true}`,
		invoke: func(c *Client) (any, error) {
			return c.ListCoins(owner, nil, "")
		},
		check: func(t *testing.T, res any) {
			p := res.(*ledger.CoinPage)
			require.True(t, p.HasNextPage)
			require.Equal(t, "0x10", p.NextCursor)
			require.Equal(t, []ledger.Coin{{ID: ledger.MustParseID("0x10"), Type: native, Quantity: 1000, Version: 3}}, p.Coins)
		},
	},
	{
		name:     "coins of type",
		method:   "suix_getCoins",
		response: `"result":{"data":[],"nextCursor":null,"hasNextPage":false}`,
		invoke: func(c *Client) (any, error) {
			return c.ListCoins(owner, &native, "0x10")
		},
		check: func(t *testing.T, res any) {
			p := res.(*ledger.CoinPage)
			require.False(t, p.HasNextPage)
			require.Empty(t, p.NextCursor)
			require.Empty(t, p.Coins)
		},
	},
	{
		name:     "owned objects",
		method:   "suix_getOwnedObjects",
		response: `"result":{"data":[{"data":{"objectId":"0x20","version":"1","digest":"x","type":"0x7::nft::Ticket","owner":{"AddressOwner":"0xa11ce"}}}],"nextCursor":null,"hasNextPage":false}`,
		invoke: func(c *Client) (any, error) {
			return c.ListObjects(owner, "")
		},
		check: func(t *testing.T, res any) {
			p := res.(*ledger.ObjectPage)
			require.Len(t, p.Objects, 1)
			require.Equal(t, "0x7::nft::Ticket", p.Objects[0].Type)
			require.Equal(t, owner, *p.Objects[0].Owner)
		},
	},
	{
		name:     "owned objects error",
		method:   "suix_getOwnedObjects",
		response: `"result":{"data":[{"error":{"code":"deleted","object_id":"0x20"}}],"hasNextPage":false}`,
		invoke: func(c *Client) (any, error) {
			return c.ListObjects(owner, "")
		},
		fails: true,
	},
	{
		name:     "object",
		method:   "sui_getObject",
		response: `"result":{"data":{"objectId":"0x20","version":"5","digest":"x","type":"0x7::nft::Ticket","owner":"Immutable"}}`,
		invoke: func(c *Client) (any, error) {
			return c.GetObject(ledger.MustParseID("0x20"))
		},
		check: func(t *testing.T, res any) {
			o := res.(*ledger.Object)
			require.Equal(t, uint64(5), o.Version)
			require.Nil(t, o.Owner)
		},
	},
	{
		name:     "coin metadata",
		method:   "suix_getCoinMetadata",
		response: `"result":{"decimals":9,"name":"Sui","symbol":"SUI","description":"","iconUrl":null,"id":"0x9"}`,
		invoke: func(c *Client) (any, error) {
			return c.GetCoinMetadata(native)
		},
		check: func(t *testing.T, res any) {
			require.Equal(t, &ledger.CoinMetadata{Decimals: 9, Name: "Sui", Symbol: "SUI"}, res)
		},
	},
	{
		name:     "reference gas price",
		method:   "suix_getReferenceGasPrice",
		response: `"result":"750"`,
		invoke: func(c *Client) (any, error) {
			return c.GetReferenceGasPrice()
		},
		check: func(t *testing.T, res any) {
			require.Equal(t, uint64(750), res)
		},
	},
	{
		name:     "rpc error",
		method:   "suix_getReferenceGasPrice",
		response: `"error":{"code":-32602,"message":"Invalid params"}`,
		invoke: func(c *Client) (any, error) {
			return c.GetReferenceGasPrice()
		},
		fails: true,
	},
}

func TestRPCClient(t *testing.T) {
	for _, tc := range rpcClientTestCases {
		t.Run(tc.name, func(t *testing.T) {
			c := initTestServer(t, map[string]string{tc.method: tc.response}, nil)
			res, err := tc.invoke(c)
			if tc.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, res)
		})
	}
}

func TestNotFound(t *testing.T) {
	c := initTestServer(t, map[string]string{
		"sui_getObject":        `"result":{"error":{"code":"notExists","object_id":"0x20"}}`,
		"suix_getCoinMetadata": `"result":null`,
	}, nil)
	_, err := c.GetObject(ledger.MustParseID("0x20"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = c.GetCoinMetadata(native)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	var rpcErr *ledgerrpc.Error
	_, err = c.GetReferenceGasPrice()
	require.Error(t, err)
	require.False(t, errors.As(err, &rpcErr))
}

func TestRequestParams(t *testing.T) {
	var reqs []ledgerrpc.Request
	c := initTestServer(t, map[string]string{"suix_getCoins": `"result":{"data":[],"hasNextPage":false}`}, &reqs)
	_, err := c.ListCoins(owner, &native, "")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.Equal(t, []any{owner.String(), native.String(), nil, float64(2)}, reqs[0].Params)
}

func testBundle() *ledger.Bundle {
	target, merged := ledger.MustParseID("0x10"), ledger.MustParseID("0x11")
	gas := ledger.MustParseID("0x1")
	return &ledger.Bundle{
		Sender: owner,
		Commands: []ledger.Command{{
			Kind: ledger.Merge,
			Call: &ledger.MoveCall{
				Package:       ledger.MustParseID("0x2"),
				Module:        "pay",
				Function:      "join_vec",
				TypeArguments: []ledger.AssetType{native},
				Arguments:     []any{target, []string{merged.String()}},
			},
			Inputs: []ledger.ID{target, merged},
		}, {
			Kind:      ledger.Transfer,
			Transfer:  &target,
			Recipient: ledger.MustParseID("0xb0b"),
			Inputs:    []ledger.ID{target},
		}},
		GasObject: &gas,
		GasBudget: 5000,
		Items:     []ledger.ID{merged},
	}
}

func TestSimulateAndCommit(t *testing.T) {
	var reqs []ledgerrpc.Request
	c := initTestServer(t, map[string]string{
		"unsafe_batchTransaction":     `"result":{"txBytes":"AAEC","gas":[],"inputObjects":[]}`,
		"sui_dryRunTransactionBlock":  `"result":{"effects":{"status":{"status":"success"},"gasUsed":{"computationCost":"1000","storageCost":"500","storageRebate":"300"}}}`,
		"sui_executeTransactionBlock": `"result":{"digest":"` + testDigest + `","effects":{"status":{"status":"failure","error":"InsufficientGas"},"gasUsed":{"computationCost":"1","storageCost":"0","storageRebate":"0"}}}`,
	}, &reqs)

	b := testBundle()
	out, err := c.Simulate(b)
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, uint64(1200), out.GasUsed)

	require.Len(t, reqs, 2)
	require.Equal(t, "unsafe_batchTransaction", reqs[0].Method)
	data, err := json.Marshal(reqs[0].Params)
	require.NoError(t, err)
	require.JSONEq(t, `["`+owner.String()+`",[
		{"moveCallRequestParams":{"packageObjectId":"`+ledger.MustParseID("0x2").String()+`","module":"pay","function":"join_vec",
			"typeArguments":["`+native.String()+`"],
			"arguments":["`+ledger.MustParseID("0x10").String()+`",["`+ledger.MustParseID("0x11").String()+`"]]}},
		{"transferObjectRequestParams":{"objectId":"`+ledger.MustParseID("0x10").String()+`","recipient":"`+ledger.MustParseID("0xb0b").String()+`"}}
	],"`+ledger.MustParseID("0x1").String()+`","5000"]`, string(data))
	require.Equal(t, []any{"AAEC"}, reqs[1].Params)

	res, err := c.Commit(b, testSigner(owner))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "InsufficientGas", res.Error)
	require.Equal(t, testDigest, res.Digest.String())
	require.Equal(t, "sui_executeTransactionBlock", reqs[3].Method)
	require.Equal(t, []any{"AAEC", []any{"sig-3"}, map[string]any{"showEffects": true}, ledgerrpc.WaitForLocalExecution}, reqs[3].Params)

	_, err = c.Commit(b, testSigner(ledger.MustParseID("0xb0b")))
	require.Error(t, err)
}

func TestPayAll(t *testing.T) {
	var reqs []ledgerrpc.Request
	c := initTestServer(t, map[string]string{
		"unsafe_payAllSui":           `"result":{"txBytes":"AAEC"}`,
		"sui_dryRunTransactionBlock": `"result":{"effects":{"status":{"status":"failure","error":"MoveAbort"},"gasUsed":{"computationCost":"0","storageCost":"0","storageRebate":"0"}}}`,
	}, &reqs)
	coins := []ledger.ID{ledger.MustParseID("0x1"), ledger.MustParseID("0x2")}
	out, err := c.Simulate(&ledger.Bundle{
		Sender:    owner,
		Commands:  []ledger.Command{{Kind: ledger.PayAllNative, PayAll: coins, Recipient: ledger.MustParseID("0xb0b"), Inputs: coins}},
		GasBudget: 10,
		Items:     coins,
	})
	require.NoError(t, err)
	require.False(t, out.Success)
	require.Equal(t, "MoveAbort", out.Error)
	require.Equal(t, "unsafe_payAllSui", reqs[0].Method)
	require.Equal(t, []any{owner.String(), []any{coins[0].String(), coins[1].String()}, ledger.MustParseID("0xb0b").String(), "10"}, reqs[0].Params)

	_, err = c.Simulate(&ledger.Bundle{Sender: owner})
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(context.TODO(), "ws://localhost:9000", Options{})
	require.Error(t, err)
	_, err = New(context.TODO(), ":bad", Options{})
	require.Error(t, err)
	c, err := New(context.TODO(), "http://localhost:9000", Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000", c.Endpoint())
	require.Equal(t, DefaultPageSize, c.opts.PageSize)
}
