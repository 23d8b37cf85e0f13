package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OperationsConfig contains per-operation defaults.
type OperationsConfig struct {
	// DestroyBatchSize is the number of zero-balance coins destroyed per bundle.
	DestroyBatchSize int `yaml:"DestroyBatchSize"`
	// MigrateBatchSize is the number of objects transferred per bundle.
	MigrateBatchSize int `yaml:"MigrateBatchSize"`
	// DustThreshold is the market value under which holdings are dust.
	DustThreshold string `yaml:"DustThreshold"`
	// MetadataCacheSize is the number of asset types metadata is cached for.
	MetadataCacheSize int `yaml:"MetadataCacheSize"`
}

// DefaultOperationsConfig returns OperationsConfig with default values.
func DefaultOperationsConfig() OperationsConfig {
	return OperationsConfig{
		DestroyBatchSize:  DefaultDestroyBatchSize,
		MigrateBatchSize:  DefaultMigrateBatchSize,
		DustThreshold:     DefaultDustThreshold,
		MetadataCacheSize: DefaultMetadataCache,
	}
}

// Validate checks OperationsConfig values.
func (o OperationsConfig) Validate() error {
	if o.DestroyBatchSize <= 0 || o.MigrateBatchSize <= 0 {
		return fmt.Errorf("batch sizes must be positive: destroy %d, migrate %d", o.DestroyBatchSize, o.MigrateBatchSize)
	}
	if o.MetadataCacheSize <= 0 {
		return fmt.Errorf("metadata cache size must be positive: %d", o.MetadataCacheSize)
	}
	_, err := o.Threshold()
	return err
}

// Threshold returns parsed DustThreshold.
func (o OperationsConfig) Threshold() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(o.DustThreshold)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad dust threshold %q: %w", o.DustThreshold, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative dust threshold %q", o.DustThreshold)
	}
	return d, nil
}
