package executor

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// Result is an outcome of one or more executed bundles. Every item given
// to the executor ends up either in Submitted or in Failed count.
type Result struct {
	Success     bool            `json:"success"`
	Submitted   int             `json:"submitted"`
	Failed      int             `json:"failed"`
	Digests     []ledger.Digest `json:"digests,omitempty"`
	FailedItems []ledger.ID     `json:"failedItems,omitempty"`
	Errors      []error         `json:"-"`
}

// NewResult returns an empty successful result.
func NewResult() Result {
	return Result{Success: true}
}

// Total returns the number of items accounted for in the result.
func (r Result) Total() int {
	return r.Submitted + r.Failed
}

// Merge adds o to r.
func (r *Result) Merge(o Result) {
	r.Submitted += o.Submitted
	r.Failed += o.Failed
	r.Digests = append(r.Digests, o.Digests...)
	r.FailedItems = append(r.FailedItems, o.FailedItems...)
	r.Errors = append(r.Errors, o.Errors...)
	r.Success = r.Failed == 0 && len(r.Errors) == 0
}

// Fail marks items as failed with the given error.
func (r *Result) Fail(err error, items ...ledger.ID) {
	r.Failed += len(items)
	r.FailedItems = append(r.FailedItems, items...)
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
	r.Success = false
}

// Err returns all result errors joined or nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}

// String implements fmt.Stringer.
func (r Result) String() string {
	return fmt.Sprintf("success: %t, submitted: %d, failed: %d, bundles: %d", r.Success, r.Submitted, r.Failed, len(r.Digests))
}

var (
	// ErrSimulationFailure is matched by errors of bundles that failed the
	// dry-run, such bundles are never submitted.
	ErrSimulationFailure = errors.New("simulation failed")
	// ErrCommitFailure is matched by errors of bundles that passed the
	// dry-run, but weren't successfully committed.
	ErrCommitFailure = errors.New("commit failed")

	errNoOutcome = errors.New("client returned no simulation outcome")
	errNoResult  = errors.New("client returned no transaction result")
)

// SimulationError describes a failed dry-run.
type SimulationError struct {
	// Reason is the ledger-provided failure description.
	Reason string
	// Err is the client error if dry-run couldn't be performed.
	Err error
}

func (e *SimulationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", ErrSimulationFailure, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSimulationFailure, e.Reason)
}

// Is matches ErrSimulationFailure.
func (e *SimulationError) Is(target error) bool {
	return target == ErrSimulationFailure
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// CommitError describes a failed commitment.
type CommitError struct {
	// Digest is set if the transaction was accepted, but failed.
	Digest *ledger.Digest
	Reason string
	Err    error
}

func (e *CommitError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", ErrCommitFailure, e.Err)
	case e.Digest != nil:
		return fmt.Sprintf("%s: transaction %s: %s", ErrCommitFailure, e.Digest, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrCommitFailure, e.Reason)
	}
}

// Is matches ErrCommitFailure.
func (e *CommitError) Is(target error) bool {
	return target == ErrCommitFailure
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
