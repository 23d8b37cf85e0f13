/*
Package fakeledger provides an in-memory object ledger implementing the set
of client methods used by coinops engines. It applies command effects
(merge, split, destroy, transfer) to its state, so tests can check both
submitted bundles and resulting holdings.
*/
package fakeledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/nspcc-dev/coinops/pkg/encoder"
	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// DefaultGasCost is charged from the gas coin for every committed bundle.
const DefaultGasCost = 1000

type object struct {
	id       ledger.ID
	owner    ledger.ID
	typ      string
	coinType ledger.AssetType
	isCoin   bool
	quantity uint64
	version  uint64
}

// Ledger is an in-memory ledger. It's safe for concurrent use.
type Ledger struct {
	lock sync.Mutex

	native  ledger.AssetType
	objects map[ledger.ID]*object
	order   []ledger.ID
	meta    map[ledger.AssetType]ledger.CoinMetadata
	nextID  uint64
	digests uint64

	// PageSize limits listing pages, 50 by default.
	PageSize int
	// GasCost is charged for each bundle.
	GasCost uint64
	// SimulateHook can fail simulation returning a non-empty error string.
	SimulateHook func(b *ledger.Bundle) string
	// CommitHook can fail commitment returning an error.
	CommitHook func(b *ledger.Bundle) error
	// Simulated and Committed record bundles passed to Simulate and
	// successfully applied by Commit.
	Simulated []*ledger.Bundle
	Committed []*ledger.Bundle
	// ListCalls counts ListCoins/ListObjects invocations.
	ListCalls int
	// MetadataCalls counts GetCoinMetadata invocations.
	MetadataCalls int
}

// New creates an empty ledger with the given native coin type.
func New(native ledger.AssetType) *Ledger {
	return &Ledger{
		native:   native,
		objects:  make(map[ledger.ID]*object),
		meta:     make(map[ledger.AssetType]ledger.CoinMetadata),
		nextID:   0x1000,
		PageSize: 50,
		GasCost:  DefaultGasCost,
	}
}

func (l *Ledger) newID() ledger.ID {
	var id ledger.ID
	l.nextID++
	binary.BigEndian.PutUint64(id[ledger.IDSize-8:], l.nextID)
	return id
}

func (l *Ledger) put(o *object) {
	if _, ok := l.objects[o.id]; !ok {
		l.order = append(l.order, o.id)
	}
	l.objects[o.id] = o
}

func (l *Ledger) remove(id ledger.ID) {
	delete(l.objects, id)
	for i := range l.order {
		if l.order[i] == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// AddCoin creates a coin owned by owner and returns its ID.
func (l *Ledger) AddCoin(owner ledger.ID, typ ledger.AssetType, quantity uint64) ledger.ID {
	l.lock.Lock()
	defer l.lock.Unlock()
	id := l.newID()
	l.put(&object{
		id:       id,
		owner:    owner,
		typ:      "0x2::coin::Coin<" + string(typ) + ">",
		coinType: typ,
		isCoin:   true,
		quantity: quantity,
		version:  1,
	})
	return id
}

// AddObject creates a non-coin object owned by owner and returns its ID.
func (l *Ledger) AddObject(owner ledger.ID, typ string) ledger.ID {
	l.lock.Lock()
	defer l.lock.Unlock()
	id := l.newID()
	l.put(&object{id: id, owner: owner, typ: typ, version: 1})
	return id
}

// SetMetadata sets metadata for the asset type.
func (l *Ledger) SetMetadata(typ ledger.AssetType, m ledger.CoinMetadata) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.meta[typ] = m
}

// Coins returns all coins owned by owner (of the given type if it's not
// empty), sorted by ID.
func (l *Ledger) Coins(owner ledger.ID, typ ledger.AssetType) []ledger.Coin {
	l.lock.Lock()
	defer l.lock.Unlock()
	var res []ledger.Coin
	for _, id := range l.order {
		o := l.objects[id]
		if o.isCoin && o.owner == owner && (typ == "" || o.coinType == typ) {
			res = append(res, o.coin())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return string(res[i].ID[:]) < string(res[j].ID[:])
	})
	return res
}

// Balance returns the total quantity of the given type owned by owner.
func (l *Ledger) Balance(owner ledger.ID, typ ledger.AssetType) uint64 {
	var sum uint64
	for _, c := range l.Coins(owner, typ) {
		sum += c.Quantity
	}
	return sum
}

// Owner returns the owner of the object.
func (l *Ledger) Owner(id ledger.ID) (ledger.ID, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	o, ok := l.objects[id]
	if !ok {
		return ledger.ID{}, false
	}
	return o.owner, true
}

func (o *object) coin() ledger.Coin {
	return ledger.Coin{ID: o.id, Type: o.coinType, Quantity: o.quantity, Version: o.version}
}

func (o *object) ref() ledger.Object {
	owner := o.owner
	return ledger.Object{ID: o.id, Type: o.typ, Version: o.version, Owner: &owner}
}

func (l *Ledger) owned(owner ledger.ID, pred func(*object) bool) []*object {
	var res []*object
	for _, id := range l.order {
		o := l.objects[id]
		if o.owner == owner && pred(o) {
			res = append(res, o)
		}
	}
	return res
}

func pageBounds(cursor string, total, size int) (int, int, error) {
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > total {
			return 0, 0, fmt.Errorf("bad cursor %q", cursor)
		}
		start = n
	}
	return start, min(start+size, total), nil
}

// ListCoins implements the inventory client interface.
func (l *Ledger) ListCoins(owner ledger.ID, coinType *ledger.AssetType, cursor string) (*ledger.CoinPage, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.ListCalls++
	all := l.owned(owner, func(o *object) bool {
		return o.isCoin && (coinType == nil || o.coinType == *coinType)
	})
	start, end, err := pageBounds(cursor, len(all), l.PageSize)
	if err != nil {
		return nil, err
	}
	p := &ledger.CoinPage{HasNextPage: end < len(all)}
	if p.HasNextPage {
		p.NextCursor = strconv.Itoa(end)
	}
	for _, o := range all[start:end] {
		p.Coins = append(p.Coins, o.coin())
	}
	return p, nil
}

// ListObjects implements the inventory client interface.
func (l *Ledger) ListObjects(owner ledger.ID, cursor string) (*ledger.ObjectPage, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.ListCalls++
	all := l.owned(owner, func(*object) bool { return true })
	start, end, err := pageBounds(cursor, len(all), l.PageSize)
	if err != nil {
		return nil, err
	}
	p := &ledger.ObjectPage{HasNextPage: end < len(all)}
	if p.HasNextPage {
		p.NextCursor = strconv.Itoa(end)
	}
	for _, o := range all[start:end] {
		p.Objects = append(p.Objects, o.ref())
	}
	return p, nil
}

// GetObject returns the object state or ledger.ErrNotFound.
func (l *Ledger) GetObject(id ledger.ID) (*ledger.Object, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	o, ok := l.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, ledger.ErrNotFound)
	}
	ref := o.ref()
	return &ref, nil
}

// GetCoinMetadata returns metadata set with SetMetadata or ledger.ErrNotFound.
func (l *Ledger) GetCoinMetadata(typ ledger.AssetType) (*ledger.CoinMetadata, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.MetadataCalls++
	m, ok := l.meta[typ]
	if !ok {
		return nil, fmt.Errorf("metadata of %s: %w", typ, ledger.ErrNotFound)
	}
	return &m, nil
}

// Simulate applies the bundle to a copy of the state.
func (l *Ledger) Simulate(b *ledger.Bundle) (*ledger.Outcome, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.Simulated = append(l.Simulated, b)
	if l.SimulateHook != nil {
		if msg := l.SimulateHook(b); msg != "" {
			return &ledger.Outcome{Error: msg}, nil
		}
	}
	if err := l.clone().apply(b); err != nil {
		return &ledger.Outcome{Error: err.Error()}, nil
	}
	return &ledger.Outcome{Success: true, GasUsed: l.GasCost}, nil
}

// Commit applies the bundle to the state.
func (l *Ledger) Commit(b *ledger.Bundle, s ledger.Signer) (*ledger.TxResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if s.Address() != b.Sender {
		return nil, errors.New("signer doesn't match sender")
	}
	if l.CommitHook != nil {
		if err := l.CommitHook(b); err != nil {
			return nil, err
		}
	}
	l.digests++
	var res = &ledger.TxResult{}
	binary.BigEndian.PutUint64(res.Digest[:8], l.digests)
	c := l.clone()
	if err := c.apply(b); err != nil {
		res.Error = err.Error()
		return res, nil
	}
	l.objects, l.order, l.nextID = c.objects, c.order, c.nextID
	res.Success = true
	l.Committed = append(l.Committed, b)
	return res, nil
}

func (l *Ledger) clone() *Ledger {
	c := &Ledger{
		native:  l.native,
		objects: make(map[ledger.ID]*object, len(l.objects)),
		order:   append([]ledger.ID(nil), l.order...),
		nextID:  l.nextID,
		GasCost: l.GasCost,
	}
	for id, o := range l.objects {
		cp := *o
		c.objects[id] = &cp
	}
	return c
}

func (l *Ledger) ownedCoin(id, owner ledger.ID) (*object, error) {
	o, ok := l.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, ledger.ErrNotFound)
	}
	if o.owner != owner {
		return nil, fmt.Errorf("object %s is not owned by %s", id, owner)
	}
	if !o.isCoin {
		return nil, fmt.Errorf("object %s is not a coin", id)
	}
	return o, nil
}

// apply executes bundle commands, state is undefined on error, so it's only
// called on clones.
func (l *Ledger) apply(b *ledger.Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	gas, err := l.gasCoin(b)
	if err != nil {
		return err
	}
	for i := range b.Commands {
		if err := l.applyCommand(b.Sender, &b.Commands[i]); err != nil {
			return fmt.Errorf("command #%d (%s): %w", i, b.Commands[i].Kind, err)
		}
	}
	if gas != nil {
		if gas.quantity < l.GasCost {
			return errors.New("insufficient gas")
		}
		gas.quantity -= l.GasCost
		gas.version++
	}
	return nil
}

func (l *Ledger) gasCoin(b *ledger.Bundle) (*object, error) {
	if b.Commands[0].Kind == ledger.PayAllNative {
		return nil, nil // Paid from the merged coin.
	}
	if b.GasObject != nil {
		o, err := l.ownedCoin(*b.GasObject, b.Sender)
		if err != nil {
			return nil, fmt.Errorf("gas: %w", err)
		}
		if o.coinType != l.native {
			return nil, fmt.Errorf("gas object %s is not a native coin", o.id)
		}
		return o, nil
	}
	inputs := ledger.NewIDSet(b.Inputs()...)
	var best *object
	for _, o := range l.owned(b.Sender, func(o *object) bool {
		return o.isCoin && o.coinType == l.native && !inputs.Contains(o.id)
	}) {
		if best == nil || o.quantity > best.quantity {
			best = o
		}
	}
	if best == nil {
		return nil, errors.New("no gas coin available")
	}
	return best, nil
}

func argID(args []any, i int) (ledger.ID, error) {
	if i >= len(args) {
		return ledger.ID{}, fmt.Errorf("missing argument #%d", i)
	}
	switch v := args[i].(type) {
	case ledger.ID:
		return v, nil
	case string:
		return ledger.ParseID(v)
	default:
		return ledger.ID{}, fmt.Errorf("argument #%d: unexpected %T", i, args[i])
	}
}

func argStrings(args []any, i int) ([]string, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument #%d", i)
	}
	switch v := args[i].(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("argument #%d: unexpected %T", i, args[i])
	}
}

func argUints(args []any, i int) ([]uint64, error) {
	ss, err := argStrings(args, i)
	if err != nil {
		return nil, err
	}
	res := make([]uint64, len(ss))
	for j, s := range ss {
		res[j], err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (l *Ledger) applyCommand(sender ledger.ID, c *ledger.Command) error {
	switch {
	case c.Transfer != nil:
		o, ok := l.objects[*c.Transfer]
		if !ok {
			return fmt.Errorf("object %s: %w", *c.Transfer, ledger.ErrNotFound)
		}
		if o.owner != sender {
			return fmt.Errorf("object %s is not owned by %s", o.id, sender)
		}
		o.owner = c.Recipient
		o.version++
		return nil
	case c.PayAll != nil:
		first, err := l.ownedCoin(c.PayAll[0], sender)
		if err != nil {
			return err
		}
		for _, id := range c.PayAll[1:] {
			o, err := l.ownedCoin(id, sender)
			if err != nil {
				return err
			}
			if o.coinType != l.native || id == first.id {
				return fmt.Errorf("bad pay-all input %s", id)
			}
			first.quantity += o.quantity
			l.remove(id)
		}
		if first.coinType != l.native || first.quantity < l.GasCost {
			return errors.New("insufficient gas")
		}
		first.quantity -= l.GasCost
		first.owner = c.Recipient
		first.version++
		return nil
	case c.Call != nil:
		return l.applyCall(sender, c.Call)
	}
	return errors.New("empty command")
}

func (l *Ledger) applyCall(sender ledger.ID, call *ledger.MoveCall) error {
	target, err := argID(call.Arguments, 0)
	if err != nil {
		return err
	}
	coin, err := l.ownedCoin(target, sender)
	if err != nil {
		return err
	}
	if len(call.TypeArguments) != 1 || call.TypeArguments[0] != coin.coinType {
		return fmt.Errorf("type argument mismatch for %s", coin.id)
	}
	switch call.Function {
	case encoder.JoinVecFunction:
		ids, err := argStrings(call.Arguments, 1)
		if err != nil {
			return err
		}
		for _, s := range ids {
			id, err := ledger.ParseID(s)
			if err != nil {
				return err
			}
			o, err := l.ownedCoin(id, sender)
			if err != nil {
				return err
			}
			if o.coinType != coin.coinType || o.id == coin.id {
				return fmt.Errorf("can't merge %s into %s", o.id, coin.id)
			}
			coin.quantity += o.quantity
			l.remove(id)
		}
	case encoder.SplitVecFunction:
		amounts, err := argUints(call.Arguments, 1)
		if err != nil {
			return err
		}
		for _, a := range amounts {
			if err := l.splitOff(coin, a, sender); err != nil {
				return err
			}
		}
	case encoder.DivideAndKeepFunction:
		parts, err := argUints(call.Arguments, 1)
		if err != nil {
			return err
		}
		if len(parts) != 1 || parts[0] < 2 || coin.quantity < parts[0] {
			return errors.New("bad number of parts")
		}
		share := coin.quantity / parts[0]
		for i := uint64(1); i < parts[0]; i++ {
			if err := l.splitOff(coin, share, sender); err != nil {
				return err
			}
		}
	case encoder.SplitAndTransferFunction:
		amounts, err := argUints(call.Arguments, 1)
		if err != nil {
			return err
		}
		to, err := argID(call.Arguments, 2)
		if err != nil {
			return err
		}
		if len(amounts) != 1 {
			return errors.New("one amount expected")
		}
		if err := l.splitOff(coin, amounts[0], to); err != nil {
			return err
		}
	case encoder.DestroyZeroFunction:
		if coin.quantity != 0 {
			return fmt.Errorf("coin %s has non-zero balance", coin.id)
		}
		l.remove(coin.id)
		return nil
	default:
		return fmt.Errorf("unknown function %s::%s", call.Module, call.Function)
	}
	coin.version++
	return nil
}

func (l *Ledger) splitOff(coin *object, amount uint64, owner ledger.ID) error {
	if amount > coin.quantity {
		return fmt.Errorf("coin %s has %d, can't split %d", coin.id, coin.quantity, amount)
	}
	coin.quantity -= amount
	id := l.newID()
	l.put(&object{
		id:       id,
		owner:    owner,
		typ:      coin.typ,
		coinType: coin.coinType,
		isCoin:   true,
		quantity: amount,
		version:  1,
	})
	return nil
}

// Signer is a fake signer.
type Signer ledger.ID

// Address implements the ledger.Signer interface.
func (s Signer) Address() ledger.ID {
	return ledger.ID(s)
}

// SignTransaction implements the ledger.Signer interface.
func (s Signer) SignTransaction(tx []byte) (string, error) {
	return "fake-signature", nil
}
