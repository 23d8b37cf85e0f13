/*
Package batch packs arbitrary-length lists into size-bounded bundles.

Items are packed into groups of at most maxArgsPerCall (one group per
underlying call) and groups are packed into bundles of at most
maxGroupsPerBundle groups. Items keep their input order, the planner doesn't
reorder anything.
*/
package batch

import (
	"errors"
	"fmt"
)

// Group is a list of items passed to a single call.
type Group[T any] []T

// Bundle is a list of groups submitted together.
type Bundle[T any] []Group[T]

// Plan is an ordered list of bundles.
type Plan[T any] struct {
	Bundles []Bundle[T]
	// Target is the designated item threaded through every group (like the
	// coin everything else is merged into), it's never a part of Bundles.
	Target *T
}

// ErrBadLimits is returned for non-positive packing limits.
var ErrBadLimits = errors.New("packing limits must be positive")

// New packs items into a Plan. Zero items produce an empty plan, it's up to
// the caller to treat it as no-op.
func New[T any](items []T, maxArgsPerCall, maxGroupsPerBundle int) (Plan[T], error) {
	var p Plan[T]

	if maxArgsPerCall <= 0 || maxGroupsPerBundle <= 0 {
		return p, fmt.Errorf("%w: %d args per call, %d groups per bundle", ErrBadLimits, maxArgsPerCall, maxGroupsPerBundle)
	}
	var (
		perBundle = maxArgsPerCall * maxGroupsPerBundle
		n         = (len(items) + perBundle - 1) / perBundle
	)
	p.Bundles = make([]Bundle[T], 0, n)
	for start := 0; start < len(items); start += perBundle {
		end := min(start+perBundle, len(items))
		b := make(Bundle[T], 0, maxGroupsPerBundle)
		for gs := start; gs < end; gs += maxArgsPerCall {
			ge := min(gs+maxArgsPerCall, end)
			g := make(Group[T], ge-gs)
			copy(g, items[gs:ge])
			b = append(b, g)
		}
		p.Bundles = append(p.Bundles, b)
	}
	return p, nil
}

// NewWithTarget packs items except the one at targetIdx, which is recorded
// as the plan Target.
func NewWithTarget[T any](items []T, targetIdx int, maxArgsPerCall, maxGroupsPerBundle int) (Plan[T], error) {
	if targetIdx < 0 || targetIdx >= len(items) {
		return Plan[T]{}, fmt.Errorf("target index %d is out of range [0, %d)", targetIdx, len(items))
	}
	rest := make([]T, 0, len(items)-1)
	rest = append(rest, items[:targetIdx]...)
	rest = append(rest, items[targetIdx+1:]...)
	p, err := New(rest, maxArgsPerCall, maxGroupsPerBundle)
	if err != nil {
		return p, err
	}
	target := items[targetIdx]
	p.Target = &target
	return p, nil
}

// Len returns the number of packed items.
func (p Plan[T]) Len() int {
	var n int
	for _, b := range p.Bundles {
		n += b.Len()
	}
	return n
}

// BundleCount returns the number of bundles.
func (p Plan[T]) BundleCount() int {
	return len(p.Bundles)
}

// IsEmpty checks whether there is nothing to do.
func (p Plan[T]) IsEmpty() bool {
	return len(p.Bundles) == 0
}

// GroupCount returns the total number of groups.
func (p Plan[T]) GroupCount() int {
	var n int
	for _, b := range p.Bundles {
		n += len(b)
	}
	return n
}

// Items returns all packed items in order.
func (p Plan[T]) Items() []T {
	res := make([]T, 0, p.Len())
	for _, b := range p.Bundles {
		res = append(res, b.Items()...)
	}
	return res
}

// Len returns the number of items in the bundle.
func (b Bundle[T]) Len() int {
	var n int
	for _, g := range b {
		n += len(g)
	}
	return n
}

// Items returns all bundle items in order.
func (b Bundle[T]) Items() []T {
	res := make([]T, 0, b.Len())
	for _, g := range b {
		res = append(res, g...)
	}
	return res
}
