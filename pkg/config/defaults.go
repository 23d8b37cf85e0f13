package config

import "time"

// Defaults used when the configuration doesn't specify a value.
const (
	DefaultFrameworkPackage     = "0x2"
	DefaultNativeCoinType       = "0x2::sui::SUI"
	DefaultMaxArgsPerCall       = 500
	DefaultMaxGroupsPerBundle   = 1
	DefaultMaxCommandsPerBundle = 1024
	// DefaultGasBudget is 0.05 of the native coin (9 decimals).
	DefaultGasBudget        = 50_000_000
	DefaultInterBundleDelay = 500 * time.Millisecond

	DefaultDestroyBatchSize = 400
	DefaultMigrateBatchSize = 50
	DefaultDustThreshold    = "0.01"
	DefaultMetadataCache    = 256
)
