package migrate

import (
	"testing"

	"github.com/nspcc-dev/coinops/internal/fakeledger"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/encoder"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	owner     = ledger.MustParseID("0xa11ce")
	recipient = ledger.MustParseID("0xb0b")
	native    = ledger.MustParseAssetType(config.DefaultNativeCoinType)
	usdc      = ledger.MustParseAssetType("0xdba::usdc::USDC")
)

type testEnv struct {
	fl  *fakeledger.Ledger
	m   *Migrator
	gas ledger.ID
}

func newTestEnv(t *testing.T, modify func(*config.Config)) *testEnv {
	var (
		fl  = fakeledger.New(native)
		cfg = config.Default()
		log = zaptest.NewLogger(t)
	)
	if modify != nil {
		modify(&cfg)
	}
	env := &testEnv{fl: fl, gas: fl.AddCoin(owner, native, 1_000_000)}
	env.m = New(Params{
		Inventory:  inventory.New(fl, 0),
		Executor:   executor.New(fl, fakeledger.Signer(owner), executor.Options{Logger: log}),
		Encoder:    encoder.NewMove(cfg.Network),
		Network:    cfg.Network,
		Operations: cfg.Operations,
		Logger:     log,
	})
	return env
}

// fill creates 10 USDC coins, 5 items and 2 more native coins.
func (env *testEnv) fill() {
	for i := 0; i < 10; i++ {
		env.fl.AddCoin(owner, usdc, uint64(i+1))
	}
	for i := 0; i < 5; i++ {
		env.fl.AddObject(owner, "0x7::nft::Ticket")
	}
	env.fl.AddCoin(owner, native, 200)
	env.fl.AddCoin(owner, native, 300)
}

func TestParseClass(t *testing.T) {
	for in, c := range map[string]Class{"": ClassAll, "all": ClassAll, "Coin": ClassCoin, "item": ClassItem} {
		res, err := ParseClass(in)
		require.NoError(t, err)
		require.Equal(t, c, res)
	}
	_, err := ParseClass("nft")
	require.Error(t, err)
	require.Equal(t, "native", PhaseNative.String())
	require.Equal(t, "unknown(0)", Phase(0).String())
}

func TestPlanAndPreview(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fill()

	p, err := env.m.Plan(recipient, Options{BatchSize: 4})
	require.NoError(t, err)
	require.Len(t, p.Coins, 10)
	require.Len(t, p.Items, 5)
	require.Len(t, p.Native, 3)

	pv := env.m.Preview(p)
	require.Equal(t, []PhasePreview{
		{Phase: PhaseCoins, Items: 10, Bundles: 3},
		{Phase: PhaseItems, Items: 5, Bundles: 2},
		{Phase: PhaseNative, Items: 3, Bundles: 1},
	}, pv.Phases)
	require.Equal(t, 18, pv.Items)
	require.Equal(t, 6, pv.Bundles)
	require.Equal(t, uint64(6*config.DefaultGasBudget), pv.Fee)
	require.Empty(t, env.fl.Simulated)

	t.Run("class", func(t *testing.T) {
		p, err := env.m.Plan(recipient, Options{Class: ClassItem})
		require.NoError(t, err)
		require.Empty(t, p.Coins)
		require.Empty(t, p.Native)
		require.Len(t, p.Items, 5)

		p, err = env.m.Plan(recipient, Options{Class: ClassCoin})
		require.NoError(t, err)
		require.Len(t, p.Coins, 10)
		require.Empty(t, p.Items)
	})
	t.Run("exclude", func(t *testing.T) {
		p, err := env.m.Plan(recipient, Options{Exclude: []ledger.AssetType{
			usdc, ledger.MustParseAssetType("0x7::nft::Ticket"),
		}})
		require.NoError(t, err)
		require.Empty(t, p.Coins)
		require.Empty(t, p.Items)
		require.Len(t, p.Excluded, 10)
		require.Len(t, p.ExcludedItems, 5)
		require.Len(t, env.m.Preview(p).Phases, 1)
	})
	t.Run("bad recipient", func(t *testing.T) {
		_, err := env.m.Plan(owner, Options{})
		require.ErrorIs(t, err, ErrSelfMigration)
		_, err = env.m.Plan(ledger.ID{}, Options{})
		require.Error(t, err)
	})
	t.Run("bad gas", func(t *testing.T) {
		usdcCoin := env.fl.Coins(owner, usdc)[0].ID
		_, err := env.m.Plan(recipient, Options{TxOptions: executor.TxOptions{GasObject: &usdcCoin}})
		require.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fill()

	var phases []Phase
	res, err := env.m.Migrate(recipient, Options{
		BatchSize: 4,
		PhaseHook: func(p Phase, _ executor.Result) { phases = append(phases, p) },
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Err())
	require.Equal(t, 18, res.Submitted)
	require.Len(t, res.Digests, 6)
	require.Equal(t, PhaseOrder, phases)

	// Native coins are moved by the very last bundle.
	require.Len(t, env.fl.Committed, 6)
	for _, b := range env.fl.Committed[:5] {
		require.Equal(t, ledger.Transfer, b.Commands[0].Kind)
	}
	require.Equal(t, ledger.PayAllNative, env.fl.Committed[5].Commands[0].Kind)

	require.Empty(t, env.fl.Coins(owner, ""))
	require.Len(t, env.fl.Coins(recipient, usdc), 10)
	nat := env.fl.Coins(recipient, native)
	require.Len(t, nat, 1)
	require.Equal(t, uint64(1_000_500-6*fakeledger.DefaultGasCost), nat[0].Quantity)
	objects, err := inventory.New(env.fl, 0).ListItems(recipient)
	require.NoError(t, err)
	require.Len(t, objects, 5)
}

func TestMigratePartialFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fill()

	var usdcCoins = env.fl.Coins(owner, usdc)
	env.fl.SimulateHook = func(b *ledger.Bundle) string {
		for _, id := range b.Items {
			if id == usdcCoins[5].ID {
				return "injected"
			}
		}
		return ""
	}
	var phaseResults = make(map[Phase]executor.Result)
	res, err := env.m.Migrate(recipient, Options{
		BatchSize: 4,
		PhaseHook: func(p Phase, r executor.Result) { phaseResults[p] = r },
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 4, res.Failed)
	require.Equal(t, 14, res.Submitted)
	require.Equal(t, 18, res.Total())
	require.Contains(t, res.FailedItems, usdcCoins[5].ID)
	require.ErrorIs(t, res.Err(), executor.ErrSimulationFailure)

	require.Equal(t, 4, phaseResults[PhaseCoins].Failed)
	require.True(t, phaseResults[PhaseItems].Success)
	require.True(t, phaseResults[PhaseNative].Success)
	require.Len(t, env.fl.Coins(owner, usdc), 4)
	require.Empty(t, env.fl.Coins(owner, native))
}

func TestMigrateNativePremerge(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Network.MaxArgsPerCall = 2 })
	for _, q := range []uint64{500_000, 10, 20, 30} {
		env.fl.AddCoin(owner, native, q)
	}

	p, err := env.m.Plan(recipient, Options{})
	require.NoError(t, err)
	pv := env.m.Preview(p)
	require.Equal(t, []PhasePreview{{Phase: PhaseNative, Items: 5, Bundles: 3}}, pv.Phases)

	res, err := env.m.Migrate(recipient, Options{})
	require.NoError(t, err)
	require.True(t, res.Success, res.Err())
	require.Equal(t, 5, res.Submitted)
	require.Len(t, res.Digests, 3)

	require.Empty(t, env.fl.Coins(owner, native))
	nat := env.fl.Coins(recipient, native)
	require.Len(t, nat, 1)
	require.Equal(t, env.gas, nat[0].ID)
	require.Equal(t, uint64(1_500_060-3*fakeledger.DefaultGasCost), nat[0].Quantity)

	for _, b := range env.fl.Committed[:2] {
		require.Equal(t, ledger.Merge, b.Commands[0].Kind)
		require.NotNil(t, b.GasObject)
	}
}

func TestMigrateNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.m.Migrate(recipient, Options{Class: ClassItem})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 0, res.Total())
	require.Empty(t, env.fl.Simulated)
}
