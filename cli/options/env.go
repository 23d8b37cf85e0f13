package options

import (
	"context"
	"errors"

	"github.com/nspcc-dev/coinops/pkg/cleanup"
	"github.com/nspcc-dev/coinops/pkg/config"
	"github.com/nspcc-dev/coinops/pkg/encoder"
	"github.com/nspcc-dev/coinops/pkg/executor"
	"github.com/nspcc-dev/coinops/pkg/inventory"
	"github.com/nspcc-dev/coinops/pkg/keys"
	"github.com/nspcc-dev/coinops/pkg/manage"
	"github.com/nspcc-dev/coinops/pkg/migrate"
	"github.com/nspcc-dev/coinops/pkg/price"
	"github.com/nspcc-dev/coinops/pkg/rpcclient"
	"github.com/nspcc-dev/coinops/pkg/services/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// Ledger is the ledger client used by commands.
type Ledger interface {
	inventory.RPCInventory
	executor.RPCExecutor
	manage.RPCObjects
}

// NewLedger creates a ledger client for the endpoint, it can be replaced
// to run commands against another implementation.
var NewLedger = func(ctx context.Context, endpoint string) (Ledger, func(), error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// Env is everything a command needs to operate on the ledger.
type Env struct {
	Config    config.Config
	Log       *zap.Logger
	Ledger    Ledger
	Signer    *keys.PrivateKey
	Inventory *inventory.Inventory
	Executor  *executor.Executor
	Encoder   *encoder.Move
	Prices    price.Static

	cancel  func()
	close   func()
	metrics *metrics.Service
}

// NewEnv reads configuration and keys, configures logging and connects to
// the ledger. Env must be closed after use.
func NewEnv(ctx *cli.Context) (*Env, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Application)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	prices, err := price.NewStatic(cfg.Prices)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	signer, err := GetSigner(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	endpoint, err := GetEndpoint(ctx, cfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	gctx, cancel := GetTimeoutContext(ctx)
	l, closer, err := NewLedger(gctx, endpoint)
	if err != nil {
		cancel()
		return nil, cli.NewExitError(err, 1)
	}

	reg := prometheus.NewRegistry()
	e := &Env{
		Config:    cfg,
		Log:       log,
		Ledger:    l,
		Signer:    signer,
		Inventory: inventory.New(l, cfg.Operations.MetadataCacheSize),
		Executor: executor.New(l, signer, executor.Options{
			Delay:   cfg.Network.InterBundleDelay,
			Logger:  log,
			Metrics: executor.NewMetrics(reg),
		}),
		Encoder: encoder.NewMove(cfg.Network),
		Prices:  prices,
		cancel:  cancel,
		close:   closer,
		metrics: metrics.NewPrometheusService(cfg.Application.Prometheus, reg, log),
	}
	if err := e.metrics.Start(); err != nil {
		e.Close()
		return nil, cli.NewExitError(err, 1)
	}
	log.Debug("environment ready",
		zap.String("network", cfg.Network.Name),
		zap.String("endpoint", endpoint),
		zap.Stringer("account", signer.Address()))
	return e, nil
}

// Close releases Env resources.
func (e *Env) Close() {
	if e.metrics != nil {
		e.metrics.ShutDown()
	}
	if e.close != nil {
		e.close()
	}
	e.cancel()
	_ = e.Log.Sync()
}

// Cleaner returns a cleanup engine.
func (e *Env) Cleaner() *cleanup.Cleaner {
	return cleanup.New(cleanup.Params{
		Inventory:  e.Inventory,
		Executor:   e.Executor,
		Encoder:    e.Encoder,
		Network:    e.Config.Network,
		Operations: e.Config.Operations,
		Prices:     e.Prices,
		Logger:     e.Log,
	})
}

// Migrator returns a migration orchestrator.
func (e *Env) Migrator() *migrate.Migrator {
	return migrate.New(migrate.Params{
		Inventory:  e.Inventory,
		Executor:   e.Executor,
		Encoder:    e.Encoder,
		Network:    e.Config.Network,
		Operations: e.Config.Operations,
		Logger:     e.Log,
	})
}

// Manager returns a transfer/split manager.
func (e *Env) Manager() *manage.Manager {
	return manage.New(manage.Params{
		Inventory: e.Inventory,
		Objects:   e.Ledger,
		Executor:  e.Executor,
		Encoder:   e.Encoder,
		Network:   e.Config.Network,
		Logger:    e.Log,
	})
}

// ErrNothingSubmitted is returned when an operation failed entirely.
var ErrNothingSubmitted = errors.New("nothing was submitted")

// ResultExit prints the result and returns an error if nothing was
// submitted while something failed. Partial failures are not errors.
func ResultExit(ctx *cli.Context, res executor.Result) error {
	PrintResult(ctx, res)
	if res.Submitted == 0 && res.Failed > 0 {
		if err := res.Err(); err != nil {
			return cli.NewExitError(errors.Join(ErrNothingSubmitted, err), 1)
		}
		return cli.NewExitError(ErrNothingSubmitted, 1)
	}
	return nil
}
