package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/coinops/cli/input"
	"github.com/nspcc-dev/coinops/cli/options"
	"github.com/nspcc-dev/coinops/internal/fakeledger"
	"github.com/nspcc-dev/coinops/pkg/keys"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

var (
	native = ledger.MustParseAssetType("0x2::sui::SUI")
	tokenA = ledger.MustParseAssetType("0x3::a::A")
)

const testConfig = `Network:
  Name: unittest
  RPCEndpoint: http://127.0.0.1:1
  InterBundleDelay: 0s
Application:
  LogLevel: error
Prices:
  "0x3::a::A": "1"
`

type executor struct {
	t      *testing.T
	ledger *fakeledger.Ledger
	key    *keys.PrivateKey
	out    *bytes.Buffer
	common []string
}

func newExecutor(t *testing.T) *executor {
	key, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)

	dir := t.TempDir()
	ksPath := filepath.Join(dir, "test.keystore")
	require.NoError(t, (&keys.Keystore{Keys: []*keys.PrivateKey{key}}).Save(ksPath))
	cfgPath := filepath.Join(dir, "coinops.unittest.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o644))

	l := fakeledger.New(native)
	oldLedger, oldExiter, oldErrWriter := options.NewLedger, cli.OsExiter, cli.ErrWriter
	options.NewLedger = func(context.Context, string) (options.Ledger, func(), error) {
		return l, nil, nil
	}
	cli.OsExiter = func(int) {}
	cli.ErrWriter = io.Discard
	t.Cleanup(func() {
		options.NewLedger, cli.OsExiter, cli.ErrWriter = oldLedger, oldExiter, oldErrWriter
	})
	return &executor{
		t:      t,
		ledger: l,
		key:    key,
		out:    &bytes.Buffer{},
		common: []string{"--config-file", cfgPath, "--keystore", ksPath},
	}
}

func (e *executor) run(cmd []string, args ...string) error {
	e.out.Reset()
	ctl := New()
	ctl.Writer = e.out
	ctl.ErrWriter = e.out
	full := append([]string{"coinops"}, cmd...)
	full = append(full, e.common...)
	return ctl.Run(append(full, args...))
}

func (e *executor) owner() ledger.ID {
	return e.key.Address()
}

func TestDestroyZero(t *testing.T) {
	e := newExecutor(t)
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	for i := 0; i < 3; i++ {
		e.ledger.AddCoin(e.owner(), tokenA, 0)
	}
	e.ledger.AddCoin(e.owner(), tokenA, 7)

	t.Run("dry run", func(t *testing.T) {
		require.NoError(t, e.run([]string{"clean", "destroy-zero"}, "--dry-run"))
		require.Contains(t, e.out.String(), "destroy-zero 0x3::a::A: 3 coins, 1 bundles")
		require.Empty(t, e.ledger.Committed)
	})
	t.Run("no terminal", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		input.Stdin = r
		t.Cleanup(func() {
			input.Stdin = os.Stdin
			_ = r.Close()
			_ = w.Close()
		})
		err = e.run([]string{"clean", "destroy-zero"})
		require.ErrorContains(t, err, input.ErrNotTerminal.Error())
		require.Empty(t, e.ledger.Committed)
	})
	t.Run("refused", func(t *testing.T) {
		var prompt bytes.Buffer
		input.Terminal = term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{bytes.NewBufferString("n\r"), &prompt}, "")
		t.Cleanup(func() { input.Terminal = nil })
		require.NoError(t, e.run([]string{"clean", "destroy-zero"}))
		require.Contains(t, prompt.String(), "Destroy 3 coins in 1 bundles.")
		require.Empty(t, e.ledger.Committed)
	})
	t.Run("confirmed", func(t *testing.T) {
		input.Terminal = term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{bytes.NewBufferString("y\r"), io.Discard}, "")
		t.Cleanup(func() { input.Terminal = nil })
		require.NoError(t, e.run([]string{"clean", "destroy-zero"}))
		require.Contains(t, e.out.String(), "Submitted: 3")
		require.Equal(t, 1, len(e.ledger.Coins(e.owner(), tokenA)))
	})
	t.Run("nothing to do", func(t *testing.T) {
		require.NoError(t, e.run([]string{"clean", "destroy-zero"}, "--force"))
		require.Contains(t, e.out.String(), "Nothing to do.")
	})
	t.Run("arguments", func(t *testing.T) {
		require.Error(t, e.run([]string{"clean", "destroy-zero", "extra"}))
	})
}

func TestMerge(t *testing.T) {
	e := newExecutor(t)
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	for i := 0; i < 4; i++ {
		e.ledger.AddCoin(e.owner(), tokenA, uint64(i+1))
	}
	require.NoError(t, e.run([]string{"clean", "merge"}, "-t", tokenA.String(), "--force"))
	coins := e.ledger.Coins(e.owner(), tokenA)
	require.Equal(t, 1, len(coins))
	require.EqualValues(t, 10, coins[0].Quantity)

	require.Error(t, e.run([]string{"clean", "merge"}, "-t", "0x3::bad", "--force"))
}

func TestDust(t *testing.T) {
	e := newExecutor(t)
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	e.ledger.SetMetadata(tokenA, ledger.CoinMetadata{Decimals: 2, Symbol: "A"})
	e.ledger.AddCoin(e.owner(), tokenA, 0)
	e.ledger.AddCoin(e.owner(), tokenA, 1)
	e.ledger.AddCoin(e.owner(), tokenA, 500)

	require.NoError(t, e.run([]string{"clean", "dust"}, "--threshold", "0.05", "--force"))
	out := e.out.String()
	require.Contains(t, out, "Dust threshold: 0.05")
	require.Contains(t, out, "Zero-balance: 1, non-zero: 1")
	require.Equal(t, 2, len(e.ledger.Coins(e.owner(), tokenA)))

	require.Error(t, e.run([]string{"clean", "dust"}, "--threshold", "x"))
}

func TestTransfer(t *testing.T) {
	e := newExecutor(t)
	to := ledger.MustParseID("0xabc")
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	e.ledger.AddCoin(e.owner(), tokenA, 100)
	e.ledger.AddCoin(e.owner(), tokenA, 100)
	e.ledger.SetMetadata(tokenA, ledger.CoinMetadata{Decimals: 2, Symbol: "A"})

	require.NoError(t, e.run([]string{"manage", "transfer"},
		"-t", tokenA.String(), "--amount", "1.5", "--to", to.String(), "--force"))
	require.EqualValues(t, 150, e.ledger.Balance(to, tokenA))
	require.EqualValues(t, 50, e.ledger.Balance(e.owner(), tokenA))

	require.NoError(t, e.run([]string{"manage", "transfer"},
		"-t", tokenA.String(), "--amount", "20", "--base-units", "--to", to.String(), "--force"))
	require.EqualValues(t, 170, e.ledger.Balance(to, tokenA))

	require.Error(t, e.run([]string{"manage", "transfer"}, "-t", tokenA.String(), "--amount", "1", "--force"))
	require.Error(t, e.run([]string{"manage", "transfer"}, "--amount", "1", "--to", to.String(), "--force"))
	require.Error(t, e.run([]string{"manage", "transfer"},
		"-t", tokenA.String(), "--amount", "0.001", "--to", to.String(), "--force"))
	require.Error(t, e.run([]string{"manage", "transfer"},
		"-t", tokenA.String(), "--amount", "100", "--to", to.String(), "--force"))
}

func TestTransferObjects(t *testing.T) {
	e := newExecutor(t)
	to := ledger.MustParseID("0xabc")
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	nft := e.ledger.AddObject(e.owner(), "0x5::nft::NFT")

	require.NoError(t, e.run([]string{"manage", "transfer-objects"}, "--to", to.String(), "--force", nft.String()))
	owner, ok := e.ledger.Owner(nft)
	require.True(t, ok)
	require.Equal(t, to, owner)

	err := e.run([]string{"manage", "transfer-objects"}, "--to", to.String(), "--force", nft.String())
	require.Error(t, err)
	require.Error(t, e.run([]string{"manage", "transfer-objects"}, "--to", to.String(), "--force"))
}

func TestSplit(t *testing.T) {
	e := newExecutor(t)
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	coin := e.ledger.AddCoin(e.owner(), tokenA, 100)

	require.NoError(t, e.run([]string{"manage", "split"}, "-t", tokenA.String(), "--base-units", "--force", "10", "20"))
	require.Equal(t, 3, len(e.ledger.Coins(e.owner(), tokenA)))

	require.NoError(t, e.run([]string{"manage", "split-equal"}, "--coin", coin.String(), "--parts", "5", "--force"))
	require.Equal(t, 7, len(e.ledger.Coins(e.owner(), tokenA)))
	require.EqualValues(t, 100, e.ledger.Balance(e.owner(), tokenA))

	require.Error(t, e.run([]string{"manage", "split-equal"}, "--coin", coin.String(), "--parts", "1", "--force"))
	require.Error(t, e.run([]string{"manage", "split"}, "-t", tokenA.String(), "--base-units", "--force"))
}

func TestMigrate(t *testing.T) {
	e := newExecutor(t)
	to := ledger.MustParseID("0xabc")
	tokenB := ledger.MustParseAssetType("0x4::b::B")
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	e.ledger.AddCoin(e.owner(), native, 2_000_000_000)
	e.ledger.AddCoin(e.owner(), tokenA, 5)
	e.ledger.AddCoin(e.owner(), tokenB, 6)
	e.ledger.AddObject(e.owner(), "0x5::nft::NFT")

	t.Run("preview", func(t *testing.T) {
		require.NoError(t, e.run([]string{"manage", "migrate"}, "--to", to.String(), "--dry-run"))
		out := e.out.String()
		require.Contains(t, out, "Phase coins: 2 objects, 1 bundles")
		require.Contains(t, out, "Phase items: 1 objects, 1 bundles")
		require.Contains(t, out, "Phase native: 2 objects, 1 bundles")
		require.Contains(t, out, "fee ceiling 150,000,000")
		require.Empty(t, e.ledger.Committed)
	})
	t.Run("self", func(t *testing.T) {
		require.Error(t, e.run([]string{"manage", "migrate"}, "--to", e.owner().String(), "--force"))
	})
	t.Run("bad class", func(t *testing.T) {
		require.Error(t, e.run([]string{"manage", "migrate"}, "--to", to.String(), "--class", "nope", "--force"))
	})
	t.Run("excluded", func(t *testing.T) {
		require.NoError(t, e.run([]string{"manage", "migrate"},
			"--to", to.String(), "--class", "coin", "--exclude-type", tokenB.String(), "--force"))
		out := e.out.String()
		require.Contains(t, out, "Excluded: 1 objects")
		require.Contains(t, out, "Phase native done")
		require.EqualValues(t, 6, e.ledger.Balance(e.owner(), tokenB))
		require.EqualValues(t, 5, e.ledger.Balance(to, tokenA))
		require.Empty(t, e.ledger.Coins(e.owner(), native))
		require.NotEmpty(t, e.ledger.Coins(to, native))
	})
}

func TestQuery(t *testing.T) {
	e := newExecutor(t)
	e.ledger.AddCoin(e.owner(), native, 1_000_000_000)
	e.ledger.SetMetadata(tokenA, ledger.CoinMetadata{Decimals: 2, Symbol: "A"})
	e.ledger.AddCoin(e.owner(), tokenA, 150)
	e.ledger.AddCoin(e.owner(), tokenA, 1)
	nft := e.ledger.AddObject(e.owner(), "0x5::nft::NFT")

	require.NoError(t, e.run([]string{"query", "holdings"}, "-v"))
	out := e.out.String()
	require.Contains(t, out, fmt.Sprintf("Account: %s", e.owner()))
	require.Contains(t, out, tokenA.String()+": 1.51 A (2 coins)")
	require.Contains(t, out, native.String()+": 1000000000 (1 coins)")

	require.NoError(t, e.run([]string{"query", "items"}))
	require.Contains(t, e.out.String(), nft.String()+": 0x5::nft::NFT")
}

func TestConfigErrors(t *testing.T) {
	e := newExecutor(t)
	ctl := New()
	ctl.Writer, ctl.ErrWriter = io.Discard, io.Discard
	require.Error(t, ctl.Run([]string{"coinops", "query", "holdings", "--config-file", "/nonexistent"}))
	require.Error(t, ctl.Run([]string{"coinops", "query", "holdings", e.common[0], e.common[1], "--keystore", "/nonexistent"}))
}
