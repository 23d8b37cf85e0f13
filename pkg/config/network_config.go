package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// NetworkConfig describes the ledger network operated on. It's resolved once
// at startup and injected into components needing network-specific
// addresses and limits.
type NetworkConfig struct {
	// Name is a human-readable network name (mainnet, testnet, ...).
	Name string `yaml:"Name"`
	// RPCEndpoint is the default JSON-RPC node address.
	RPCEndpoint string `yaml:"RPCEndpoint"`
	// FrameworkPackage is the address of the package providing coin and pay
	// modules.
	FrameworkPackage ledger.ID `yaml:"FrameworkPackage"`
	// NativeCoinType is the type of the native currency used to pay fees.
	NativeCoinType ledger.AssetType `yaml:"NativeCoinType"`
	// MaxArgsPerCall limits the number of objects passed to a single call.
	MaxArgsPerCall int `yaml:"MaxArgsPerCall"`
	// MaxGroupsPerBundle limits the number of vector calls in a bundle.
	MaxGroupsPerBundle int `yaml:"MaxGroupsPerBundle"`
	// MaxCommandsPerBundle limits the number of commands in a bundle.
	MaxCommandsPerBundle int `yaml:"MaxCommandsPerBundle"`
	// GasBudget is the default fee ceiling for a single bundle.
	GasBudget uint64 `yaml:"GasBudget"`
	// InterBundleDelay is a pause made between bundles of a single operation.
	InterBundleDelay time.Duration `yaml:"InterBundleDelay"`
}

// DefaultNetworkConfig returns NetworkConfig with default values.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		FrameworkPackage:     ledger.MustParseID(DefaultFrameworkPackage),
		NativeCoinType:       ledger.MustParseAssetType(DefaultNativeCoinType),
		MaxArgsPerCall:       DefaultMaxArgsPerCall,
		MaxGroupsPerBundle:   DefaultMaxGroupsPerBundle,
		MaxCommandsPerBundle: DefaultMaxCommandsPerBundle,
		GasBudget:            DefaultGasBudget,
		InterBundleDelay:     DefaultInterBundleDelay,
	}
}

// Validate checks NetworkConfig values.
func (n NetworkConfig) Validate() error {
	if n.FrameworkPackage.IsZero() {
		return errors.New("no framework package")
	}
	if n.NativeCoinType == "" {
		return errors.New("no native coin type")
	}
	if !n.NativeCoinType.IsStruct() {
		return fmt.Errorf("native coin type %s is not a struct type", n.NativeCoinType)
	}
	if n.MaxArgsPerCall <= 0 || n.MaxGroupsPerBundle <= 0 || n.MaxCommandsPerBundle <= 0 {
		return fmt.Errorf("bundle limits must be positive: %d args per call, %d groups, %d commands per bundle",
			n.MaxArgsPerCall, n.MaxGroupsPerBundle, n.MaxCommandsPerBundle)
	}
	if n.GasBudget == 0 {
		return errors.New("zero gas budget")
	}
	if n.InterBundleDelay < 0 {
		return errors.New("negative inter-bundle delay")
	}
	return nil
}

// BundleCapacity returns the maximum number of objects that can be merged
// in a single bundle.
func (n NetworkConfig) BundleCapacity() int {
	return n.MaxArgsPerCall * n.MaxGroupsPerBundle
}

// ItemsPerBundle caps the requested number of one-command-per-item
// operations (destruction, transfers) by bundle command limit.
func (n NetworkConfig) ItemsPerBundle(requested int) int {
	if requested <= 0 || requested > n.MaxCommandsPerBundle {
		return n.MaxCommandsPerBundle
	}
	return requested
}
