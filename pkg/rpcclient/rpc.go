package rpcclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/nspcc-dev/coinops/pkg/ledgerrpc"
)

var objectOptions = ledgerrpc.ObjectDataOptions{ShowType: true, ShowOwner: true}

func cursorParam(cursor string) any {
	if cursor == "" {
		return nil
	}
	return cursor
}

func coinPage(p *ledgerrpc.CoinPage) *ledger.CoinPage {
	res := &ledger.CoinPage{Coins: p.Data, HasNextPage: p.HasNextPage}
	if p.NextCursor != nil {
		res.NextCursor = *p.NextCursor
	}
	return res
}

// ListCoins returns a page of coins owned by the account, of the given type
// or of every type if coinType is nil.
func (c *Client) ListCoins(owner ledger.ID, coinType *ledger.AssetType, cursor string) (*ledger.CoinPage, error) {
	var (
		resp   = new(ledgerrpc.CoinPage)
		method = "suix_getAllCoins"
		params = []any{owner}
	)
	if coinType != nil {
		method = "suix_getCoins"
		params = append(params, *coinType)
	}
	params = append(params, cursorParam(cursor), c.opts.PageSize)
	if err := c.performRequest(method, params, resp); err != nil {
		return nil, err
	}
	return coinPage(resp), nil
}

// ListObjects returns a page of objects owned by the account.
func (c *Client) ListObjects(owner ledger.ID, cursor string) (*ledger.ObjectPage, error) {
	var (
		resp   = new(ledgerrpc.ObjectPage)
		params = []any{owner, ledgerrpc.ObjectQuery{Options: objectOptions}, cursorParam(cursor), c.opts.PageSize}
	)
	if err := c.performRequest("suix_getOwnedObjects", params, resp); err != nil {
		return nil, err
	}
	res := &ledger.ObjectPage{HasNextPage: resp.HasNextPage}
	if resp.NextCursor != nil {
		res.NextCursor = *resp.NextCursor
	}
	for i, o := range resp.Data {
		if o.Data == nil {
			if o.Error != nil {
				return nil, o.Error.Err()
			}
			return nil, fmt.Errorf("empty object #%d", i)
		}
		res.Objects = append(res.Objects, o.Data.Object())
	}
	return res, nil
}

// GetObject returns the current object state, ledger.ErrNotFound is
// returned for missing or deleted objects.
func (c *Client) GetObject(id ledger.ID) (*ledger.Object, error) {
	var resp = new(ledgerrpc.ObjectResponse)
	if err := c.performRequest("sui_getObject", []any{id, objectOptions}, resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("object %s: %w", id, ledger.ErrNotFound)
	}
	obj := resp.Data.Object()
	return &obj, nil
}

// GetCoinMetadata returns asset metadata, ledger.ErrNotFound is returned if
// there is none.
func (c *Client) GetCoinMetadata(coinType ledger.AssetType) (*ledger.CoinMetadata, error) {
	var resp *ledgerrpc.CoinMetadata
	if err := c.performRequest("suix_getCoinMetadata", []any{coinType}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("metadata of %s: %w", coinType, ledger.ErrNotFound)
	}
	return &ledger.CoinMetadata{Decimals: resp.Decimals, Name: resp.Name, Symbol: resp.Symbol}, nil
}

// GetReferenceGasPrice returns the current reference gas price.
func (c *Client) GetReferenceGasPrice() (uint64, error) {
	var resp string
	if err := c.performRequest("suix_getReferenceGasPrice", nil, &resp); err != nil {
		return 0, err
	}
	return strconv.ParseUint(resp, 10, 64)
}

// BuildTransaction makes the node build an unsigned transaction for the
// bundle.
func (c *Client) BuildTransaction(b *ledger.Bundle) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	var (
		resp   = new(ledgerrpc.TransactionBytes)
		budget = strconv.FormatUint(b.GasBudget, 10)
		err    error
	)
	if cmd := b.Commands[0]; cmd.Kind == ledger.PayAllNative {
		err = c.performRequest("unsafe_payAllSui", []any{b.Sender, cmd.PayAll, cmd.Recipient, budget}, resp)
	} else {
		var reqs = make([]ledgerrpc.BatchRequest, 0, len(b.Commands))
		for i, cmd := range b.Commands {
			switch {
			case cmd.Call != nil:
				reqs = append(reqs, ledgerrpc.BatchRequest{MoveCall: &ledgerrpc.MoveCallParams{
					PackageObjectID: cmd.Call.Package,
					Module:          cmd.Call.Module,
					Function:        cmd.Call.Function,
					TypeArguments:   cmd.Call.TypeArguments,
					Arguments:       cmd.Call.Arguments,
				}})
			case cmd.Transfer != nil:
				reqs = append(reqs, ledgerrpc.BatchRequest{TransferObject: &ledgerrpc.TransferObjectParams{
					ObjectID:  *cmd.Transfer,
					Recipient: cmd.Recipient,
				}})
			default:
				return nil, fmt.Errorf("command #%d (%s) can't be batched", i, cmd.Kind)
			}
		}
		var gas any
		if b.GasObject != nil {
			gas = *b.GasObject
		}
		err = c.performRequest("unsafe_batchTransaction", []any{b.Sender, reqs, gas, budget}, resp)
	}
	if err != nil {
		return nil, err
	}
	tx, err := base64.StdEncoding.DecodeString(resp.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("bad transaction bytes: %w", err)
	}
	if len(tx) == 0 {
		return nil, errors.New("empty transaction")
	}
	return tx, nil
}

// Simulate dry-runs the bundle.
func (c *Client) Simulate(b *ledger.Bundle) (*ledger.Outcome, error) {
	tx, err := c.BuildTransaction(b)
	if err != nil {
		return nil, err
	}
	var resp = new(ledgerrpc.DryRunResult)
	if err := c.performRequest("sui_dryRunTransactionBlock", []any{base64.StdEncoding.EncodeToString(tx)}, resp); err != nil {
		return nil, err
	}
	return &ledger.Outcome{
		Success: resp.Effects.Status.Status == ledgerrpc.StatusSuccess,
		Error:   resp.Effects.Status.Error,
		GasUsed: resp.Effects.GasUsed.Net(),
	}, nil
}

// Commit builds, signs and executes the bundle waiting for its local
// execution.
func (c *Client) Commit(b *ledger.Bundle, s ledger.Signer) (*ledger.TxResult, error) {
	if s.Address() != b.Sender {
		return nil, fmt.Errorf("signer %s doesn't match sender %s", s.Address(), b.Sender)
	}
	tx, err := c.BuildTransaction(b)
	if err != nil {
		return nil, err
	}
	sig, err := s.SignTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	var (
		resp   = new(ledgerrpc.TransactionResponse)
		params = []any{
			base64.StdEncoding.EncodeToString(tx),
			[]string{sig},
			ledgerrpc.TransactionResponseOptions{ShowEffects: true},
			ledgerrpc.WaitForLocalExecution,
		}
	)
	if err := c.performRequest("sui_executeTransactionBlock", params, resp); err != nil {
		return nil, err
	}
	d, err := ledger.ParseDigest(resp.Digest)
	if err != nil {
		return nil, fmt.Errorf("bad digest: %w", err)
	}
	res := &ledger.TxResult{Digest: d}
	if resp.Effects == nil {
		return nil, fmt.Errorf("no effects for transaction %s", resp.Digest)
	}
	res.Success = resp.Effects.Status.Status == ledgerrpc.StatusSuccess
	res.Error = resp.Effects.Status.Error
	return res, nil
}
