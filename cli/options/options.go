/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/coinops/cli/flags"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/keys"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout for the whole operation.
const DefaultTimeout = 10 * time.Minute

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// DefaultKeystore is the keystore path used when no --keystore is given,
// it's relative to the user home directory.
const DefaultKeystore = ".sui/sui_config/sui.keystore"

// Network is a set of flags for choosing the network configuration.
var Network = []cli.Flag{
	cli.StringFlag{
		Name:  "network, n",
		Value: "mainnet",
		Usage: "network configuration to use (if --config-file option is not specified)",
	},
	cli.StringFlag{
		Name:  "config-path",
		Usage: "path to directory with per-network configuration files (may be overridden by --config-file option for the configuration file)",
	},
	cli.StringFlag{
		Name:  "config-file",
		Usage: "path to the configuration file (overrides --config-path option)",
	},
}

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides configured one)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Account is a set of flags used to get the signing key.
var Account = []cli.Flag{
	cli.StringFlag{
		Name:  "keystore, k",
		Usage: "keystore file to get the key for transaction signing from (~/" + DefaultKeystore + " by default)",
	},
	flags.IDFlag{
		Name:  "address, a",
		Usage: "account address to use (the first keystore key by default)",
	},
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// Tx is a set of flags controlling generated bundles.
var Tx = []cli.Flag{
	cli.Uint64Flag{
		Name:  "gas-budget",
		Usage: "fee ceiling for every bundle (configured one by default)",
	},
	flags.IDFlag{
		Name:  "gas-object",
		Usage: "native coin to pay fees with for every bundle",
	},
	cli.BoolFlag{
		Name:  "dry-run",
		Usage: "only plan and print the operation, don't submit anything",
	},
	cli.BoolFlag{
		Name:  "force",
		Usage: "don't ask for confirmation",
	},
}

// BatchSize is a flag overriding configured batch size.
var BatchSize = cli.IntFlag{
	Name:  "batch-size",
	Usage: "number of items per call or bundle (configured one by default)",
}

// ExcludeType is a flag listing asset types to leave untouched.
var ExcludeType = flags.AssetTypesFlag{
	Name:  "exclude-type",
	Usage: "asset type to skip, may be repeated or comma-separated",
}

// Common returns the flags every ledger-accessing command has.
func Common() []cli.Flag {
	var res []cli.Flag
	res = append(res, Network...)
	res = append(res, RPC...)
	res = append(res, Account...)
	return append(res, Debug)
}

// Mutating returns the flags of commands submitting bundles.
func Mutating(extra ...cli.Flag) []cli.Flag {
	res := Common()
	res = append(res, Tx...)
	return append(res, extra...)
}

var errNoEndpoint = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or configure it")

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext looks at the path and the network flags in the given
// context and returns an appropriate config.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	var configPath = "./config"
	if argCp := ctx.String("config-path"); argCp != "" {
		configPath = argCp
	}
	network := ctx.String("network")
	if network == "" {
		network = "mainnet"
	}
	return config.Load(configPath, network)
}

// GetEndpoint returns RPC endpoint from flags or configuration.
func GetEndpoint(ctx *cli.Context, cfg config.Config) (string, error) {
	if endpoint := ctx.String(RPCEndpointFlag); endpoint != "" {
		return endpoint, nil
	}
	if cfg.Network.RPCEndpoint != "" {
		return cfg.Network.RPCEndpoint, nil
	}
	return "", errNoEndpoint
}

// GetSigner reads the keystore and returns the key for the address given
// (or the first one).
func GetSigner(ctx *cli.Context) (*keys.PrivateKey, error) {
	path := ctx.String("keystore")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("can't find keystore: %w", err)
		}
		path = filepath.Join(home, DefaultKeystore)
	}
	ks, err := keys.NewKeystoreFromFile(path)
	if err != nil {
		return nil, err
	}
	var addr ledger.ID
	if a := flags.GetID(ctx, "address"); a != nil {
		addr = *a
	}
	return ks.Get(addr)
}

// GetTxOptions returns bundle options from the context, unset ones are to be
// filled with configured defaults.
func GetTxOptions(ctx *cli.Context) executor.TxOptions {
	return executor.TxOptions{
		GasBudget: ctx.Uint64("gas-budget"),
		GasObject: flags.GetID(ctx, "gas-object"),
	}
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}
