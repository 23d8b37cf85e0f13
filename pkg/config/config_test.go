package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ledger.MustParseID("0x2"), cfg.Network.FrameworkPackage)
	require.Equal(t, ledger.MustParseAssetType("0x2::sui::SUI"), cfg.Network.NativeCoinType)
	require.Equal(t, DefaultMaxArgsPerCall, cfg.Network.BundleCapacity())
	require.Equal(t, DefaultDestroyBatchSize, cfg.Operations.DestroyBatchSize)
}

func TestDecode(t *testing.T) {
	cfg, err := Decode([]byte(`
Network:
  Name: testnet
  RPCEndpoint: https://node.example:443
  NativeCoinType: 0x0002::sui::SUI
  MaxArgsPerCall: 50
  MaxGroupsPerBundle: 3
  InterBundleDelay: 2s
Application:
  LogLevel: debug
  Prometheus:
    Enabled: true
    Addresses: [":2112"]
Operations:
  MigrateBatchSize: 4
Prices:
  "0x2::sui::SUI": "1.25"
`))
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.Network.Name)
	require.Equal(t, ledger.MustParseAssetType("0x2::sui::SUI"), cfg.Network.NativeCoinType)
	require.Equal(t, 150, cfg.Network.BundleCapacity())
	require.Equal(t, 2*time.Second, cfg.Network.InterBundleDelay)
	require.Equal(t, uint64(DefaultGasBudget), cfg.Network.GasBudget)
	require.Equal(t, "debug", cfg.Application.LogLevel)
	require.True(t, cfg.Application.Prometheus.Enabled)
	require.Equal(t, 4, cfg.Operations.MigrateBatchSize)
	require.Equal(t, DefaultDestroyBatchSize, cfg.Operations.DestroyBatchSize)
	require.Equal(t, "1.25", cfg.Prices["0x2::sui::SUI"])
}

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string]string{
		"bad yaml":       "Network: [",
		"bad type":       "Network:\n  NativeCoinType: SUI\n",
		"primitive type": "Network:\n  NativeCoinType: u64\n",
		"bad package":    "Network:\n  FrameworkPackage: 0xzz\n",
		"zero limit":     "Network:\n  MaxArgsPerCall: 0\n",
		"zero budget":    "Network:\n  GasBudget: 0\n",
		"negative delay": "Network:\n  InterBundleDelay: -1s\n",
		"zero batch":     "Operations:\n  DestroyBatchSize: 0\n",
		"bad threshold":  "Operations:\n  DustThreshold: cheap\n",
		"neg threshold":  "Operations:\n  DustThreshold: \"-1\"\n",
		"zero cache":     "Operations:\n  MetadataCacheSize: 0\n",
		"bad price":      "Prices:\n  \"0x2::sui::SUI\": free\n",
		"negative price": "Prices:\n  \"0x2::sui::SUI\": \"-2\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coinops.devnet.yml"), []byte("Network:\n  Name: devnet\n"), 0o644))

	cfg, err := Load(dir, "devnet")
	require.NoError(t, err)
	require.Equal(t, "devnet", cfg.Network.Name)

	_, err = Load(dir, "mainnet")
	require.Error(t, err)
	_, err = Load(dir, "")
	require.Error(t, err)
}

func TestShippedConfigs(t *testing.T) {
	for _, net := range []string{"mainnet", "testnet", "devnet", "localnet"} {
		cfg, err := Load("../../config", net)
		require.NoError(t, err, net)
		require.Equal(t, net, cfg.Network.Name)
		require.NotEmpty(t, cfg.Network.RPCEndpoint)
	}
}

func TestItemsPerBundle(t *testing.T) {
	n := DefaultNetworkConfig()
	require.Equal(t, 10, n.ItemsPerBundle(10))
	require.Equal(t, DefaultMaxCommandsPerBundle, n.ItemsPerBundle(0))
	require.Equal(t, DefaultMaxCommandsPerBundle, n.ItemsPerBundle(5000))
}
