package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Version is the version of the tool, set at build time.
var Version string

// FileNameFormat is the format of per-network configuration file names.
const FileNameFormat = "coinops.%s.yml"

// Config is the top-level configuration structure.
type Config struct {
	Network     NetworkConfig            `yaml:"Network"`
	Application ApplicationConfiguration `yaml:"Application"`
	Operations  OperationsConfig         `yaml:"Operations"`
	// Prices maps asset types to their quote currency price, it's used by
	// dust detection. Types missing here have no price.
	Prices map[string]string `yaml:"Prices"`
}

// Default returns configuration with all defaults set.
func Default() Config {
	return Config{
		Network:    DefaultNetworkConfig(),
		Operations: DefaultOperationsConfig(),
	}
}

// Load attempts to load the config for the given network from the
// directory specified.
func Load(path string, network string) (Config, error) {
	if network == "" {
		return Config{}, errors.New("no network specified")
	}
	return LoadFile(filepath.Join(path, fmt.Sprintf(FileNameFormat, network)))
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(configData)
}

// Decode parses YAML configuration applying defaults for everything that is
// not specified, the result is validated.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("invalid network configuration: %w", err)
	}
	if err := c.Operations.Validate(); err != nil {
		return fmt.Errorf("invalid operations configuration: %w", err)
	}
	for typ, p := range c.Prices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return fmt.Errorf("bad price for %s: %w", typ, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("negative price for %s", typ)
		}
	}
	return nil
}
