// Package checker implements an explicit-state model checker for finite
// transition systems. A model supplies a state type satisfying the State
// contract; the checker enumerates every state reachable from a set of
// initial states in breadth-first order, deduplicating by fingerprint, and
// reports a shortest-path counterexample trace when a state violates the
// model's invariant.
package checker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/visualzhou/go-model-checker/fingerprint"
)

// Checker owns the seen set, the frontier, and the run counters. All three
// are confined to the goroutine that calls Run; only Stats may be called
// concurrently.
type Checker[S State[S]] struct {
	out io.Writer

	seen     map[fingerprint.Fingerprint]S
	frontier []S
	stats    stats

	// violation holds the reconstructed trace once admission trips the
	// invariant, until Run converts it into the result.
	violation []S
}

// Option configures a Checker.
type Option func(*config)

type config struct {
	out io.Writer
}

// WithOutput redirects the checker's report, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// New constructs a checker for the given state type.
func New[S State[S]](opts ...Option) *Checker[S] {
	cfg := &config{out: os.Stdout}
	for _, o := range opts {
		o(cfg)
	}
	return &Checker[S]{
		out:  cfg.out,
		seen: make(map[fingerprint.Fingerprint]S),
	}
}

// Result is the outcome of one Run call.
type Result[S State[S]] struct {
	// Violated reports whether a reachable state failed the invariant.
	// A violation is the checker's intended finding, not an error.
	Violated bool
	// Trace is the shortest-path counterexample in discovery order,
	// ending in the violating state. Empty when Violated is false.
	Trace []S
	// Stats are the final run counters.
	Stats StatsSnapshot
}

// Run explores every state reachable from the initial states in
// breadth-first order. It returns a result describing either exhaustion of
// the constrained state space or an invariant violation with its trace.
// Errors are reserved for context cancellation and internal defects.
//
// Run consumes the checker's seen set and frontier; construct a fresh
// Checker for each run.
func (c *Checker[S]) Run(ctx context.Context, initial []S) (*Result[S], error) {
	log.WithField("initialStates", len(initial)).Info("Starting model checking")
	for _, s := range initial {
		s.SetPrevFingerprint(fingerprint.None)
		if err := c.onNewState(s); err != nil {
			return c.finish(err)
		}
	}
	for len(c.frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := c.frontier[0]
		c.frontier = c.frontier[1:]
		if err := c.expand(cur); err != nil {
			return c.finish(err)
		}
	}
	fmt.Fprintln(c.out, "Model checking finished.")
	fmt.Fprintln(c.out, c.Stats().String())
	return &Result[S]{Stats: c.Stats()}, nil
}

// expand generates every successor of cur by running the model's Generate
// on a working copy whose predecessor slot names cur.
func (c *Checker[S]) expand(cur S) error {
	h := cur.Fingerprint()
	work := cur.Copy()
	work.SetPrevFingerprint(h)

	// either implements one non-deterministic branch: snapshot the working
	// state, run the branch body, hand the result to admission, roll back.
	// Once admission reports a violation every remaining branch, enclosing
	// ones included, becomes a no-op; the run is ending, so the final
	// rollback is skipped.
	var failure error
	either := func(branch func()) {
		if failure != nil {
			return
		}
		snapshot := work.Copy()
		branch()
		if failure != nil {
			// A nested branch already tripped.
			return
		}
		if err := c.onNewState(work); err != nil {
			failure = err
			return
		}
		work.Restore(snapshot)
	}
	work.Generate(either)
	return failure
}

// onNewState admits one emitted state: count it, deduplicate it against the
// seen set, check the invariant, apply the constraint, and enqueue it.
// Duplicates return early, so a state is invariant-checked exactly once.
// The invariant runs after insertion so the violating state is present in
// the seen set when its trace is reconstructed.
func (c *Checker[S]) onNewState(s S) error {
	c.stats.addGenerated()
	fp := s.Fingerprint()
	if _, ok := c.seen[fp]; ok {
		return nil
	}
	stored := s.Copy()
	c.seen[fp] = stored
	c.stats.addUnique()

	if !s.SatisfyInvariant() {
		trace, err := c.trace(fp)
		if err != nil {
			return err
		}
		c.violation = trace
		c.printViolation(trace)
		return errInvariantViolated
	}
	if !s.SatisfyConstraint() {
		// Pruned, but kept in the seen set so it is never re-examined and
		// can still appear in predecessor chains.
		return nil
	}
	c.frontier = append(c.frontier, stored)
	return nil
}

func (c *Checker[S]) printViolation(trace []S) {
	fmt.Fprintln(c.out, "Violated invariant.")
	for i, s := range trace {
		fmt.Fprintf(c.out, "State: %d\n%s\n\n", i, s)
	}
	log.WithField("depth", len(trace)-1).Warn("Invariant violated")
}

// finish converts the sentinel carried out of the exploration loop into a
// result. Anything else is an internal failure surfaced to the caller.
func (c *Checker[S]) finish(err error) (*Result[S], error) {
	if err == errInvariantViolated {
		return &Result[S]{Violated: true, Trace: c.violation, Stats: c.Stats()}, nil
	}
	return nil, err
}

// Stats returns a snapshot of the run counters. Safe to call from any
// goroutine while Run executes.
func (c *Checker[S]) Stats() StatsSnapshot {
	return c.stats.snapshot()
}
