/*
Package executor implements simulate-then-commit bundle execution.

Every bundle is dry-run first and is only submitted for commitment if the
dry-run succeeds. Failures are local to bundles, they're accounted for in
the Result and never abort multi-bundle runs.
*/
package executor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nspcc-dev/coinops/pkg/batch"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"go.uber.org/zap"
)

// RPCExecutor is a set of ledger client methods required to execute
// bundles.
type RPCExecutor interface {
	Simulate(b *ledger.Bundle) (*ledger.Outcome, error)
	Commit(b *ledger.Bundle, s ledger.Signer) (*ledger.TxResult, error)
}

// BuildFunc creates a bundle for the planned command groups. Planned items
// are used as bundle Items if it has none.
type BuildFunc func(groups batch.Bundle[ledger.ID]) (*ledger.Bundle, error)

// Options are executor parameters.
type Options struct {
	// Delay is a pause between bundles of one run.
	Delay time.Duration
	// Logger is used for per-bundle logging, no logging is done if it's nil.
	Logger *zap.Logger
	// Metrics are updated for every bundle if not nil.
	Metrics *Metrics
}

// Executor runs bundles on behalf of a single signer.
type Executor struct {
	client  RPCExecutor
	signer  ledger.Signer
	delay   time.Duration
	log     *zap.Logger
	metrics *Metrics
	sleep   func(time.Duration)
}

// New creates an Executor.
func New(client RPCExecutor, signer ledger.Signer, opts Options) *Executor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		client:  client,
		signer:  signer,
		delay:   opts.Delay,
		log:     log,
		metrics: opts.Metrics,
		sleep:   time.Sleep,
	}
}

// Sender returns the address bundles are executed from.
func (e *Executor) Sender() ledger.ID {
	return e.signer.Address()
}

// Execute validates, simulates and commits a single bundle.
func (e *Executor) Execute(b *ledger.Bundle) Result {
	return e.execute(e.log, b)
}

func (e *Executor) execute(log *zap.Logger, b *ledger.Bundle) Result {
	var res = NewResult()

	if err := b.Validate(); err != nil {
		e.fail(&res, "", err, b.Items)
		log.Error("invalid bundle", zap.Int("items", len(b.Items)), zap.Error(err))
		return res
	}
	out, err := e.client.Simulate(b)
	if err == nil && out == nil {
		err = errNoOutcome
	}
	if err != nil || !out.Success {
		var serr = &SimulationError{Err: err}
		if out != nil {
			serr.Reason = out.Error
		}
		e.fail(&res, StatusSimulationFailed, serr, b.Items)
		log.Warn("bundle simulation failed, skipping",
			zap.Int("items", len(b.Items)), zap.Error(serr))
		return res
	}
	e.metrics.bundle(StatusSimulated)

	tx, err := e.client.Commit(b, e.signer)
	if err == nil && tx == nil {
		err = errNoResult
	}
	if err != nil || !tx.Success {
		var cerr = &CommitError{Err: err}
		if tx != nil && err == nil {
			d := tx.Digest
			cerr.Digest, cerr.Reason = &d, tx.Error
		}
		e.fail(&res, StatusCommitFailed, cerr, b.Items)
		log.Error("bundle commit failed",
			zap.Int("items", len(b.Items)), zap.Error(cerr))
		return res
	}
	e.metrics.bundle(StatusCommitted)
	e.metrics.item(StatusSubmitted, len(b.Items))
	res.Submitted = len(b.Items)
	res.Digests = append(res.Digests, tx.Digest)
	log.Info("bundle committed",
		zap.Stringer("digest", tx.Digest),
		zap.Int("commands", len(b.Commands)),
		zap.Int("items", len(b.Items)),
		zap.Uint64("gas used", out.GasUsed))
	return res
}

func (e *Executor) fail(res *Result, status string, err error, items []ledger.ID) {
	if status != "" {
		e.metrics.bundle(status)
	}
	e.metrics.item(StatusFailed, len(items))
	res.Fail(err, items...)
}

// Run builds and executes planned bundles one by one pausing between them.
// Bundles that can't be built have their items failed.
func (e *Executor) Run(plan batch.Plan[ledger.ID], build BuildFunc) Result {
	var (
		res = NewResult()
		log = e.log.With(zap.String("run", uuid.NewString()))
	)
	if plan.IsEmpty() {
		return res
	}
	log.Debug("starting run", zap.Int("bundles", plan.BundleCount()), zap.Int("items", len(plan.Items())))
	for i, pb := range plan.Bundles {
		var items = pb.Items()
		b, err := build(pb)
		if err != nil {
			err = fmt.Errorf("bundle #%d: %w", i, err)
			e.fail(&res, "", err, items)
			log.Error("can't build bundle", zap.Int("bundle", i), zap.Error(err))
			continue
		}
		if len(b.Items) == 0 {
			b.Items = items
		}
		res.Merge(e.execute(log.With(zap.Int("bundle", i)), b))
		if i < len(plan.Bundles)-1 && e.delay > 0 {
			e.sleep(e.delay)
		}
	}
	log.Info("run finished",
		zap.Int("submitted", res.Submitted),
		zap.Int("failed", res.Failed),
		zap.Int("bundles", len(res.Digests)))
	return res
}

// ExecuteAll executes prebuilt bundles in order pausing between them.
func (e *Executor) ExecuteAll(bs []*ledger.Bundle) Result {
	var (
		res = NewResult()
		log = e.log.With(zap.String("run", uuid.NewString()))
	)
	for i, b := range bs {
		res.Merge(e.execute(log.With(zap.Int("bundle", i)), b))
		if i < len(bs)-1 && e.delay > 0 {
			e.sleep(e.delay)
		}
	}
	return res
}
