package checker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/visualzhou/go-model-checker/fingerprint"
	"github.com/visualzhou/go-model-checker/testing/assert"
	"github.com/visualzhou/go-model-checker/testing/require"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testState is a two-register state whose behavior is injected per test.
// The behavior funcs are run configuration, not state, so they stay out of
// the fingerprint.
type testState struct {
	a, b uint64
	prev fingerprint.Fingerprint

	gen        func(s *testState, either func(branch func()))
	invariant  func(s *testState) bool
	constraint func(s *testState) bool
}

func (s *testState) Fingerprint() fingerprint.Fingerprint {
	d := fingerprint.NewDigest()
	d.WriteUint64(s.a)
	d.WriteUint64(s.b)
	return d.Sum()
}

func (s *testState) Equal(other *testState) bool {
	return s.a == other.a && s.b == other.b
}

func (s *testState) Copy() *testState {
	c := *s
	return &c
}

func (s *testState) Restore(other *testState) {
	*s = *other
}

func (s *testState) PrevFingerprint() fingerprint.Fingerprint {
	return s.prev
}

func (s *testState) SetPrevFingerprint(fp fingerprint.Fingerprint) {
	s.prev = fp
}

func (s *testState) SatisfyInvariant() bool {
	if s.invariant == nil {
		return true
	}
	return s.invariant(s)
}

func (s *testState) SatisfyConstraint() bool {
	if s.constraint == nil {
		return true
	}
	return s.constraint(s)
}

func (s *testState) Generate(either func(branch func())) {
	if s.gen != nil {
		s.gen(s, either)
	}
}

func (s *testState) String() string {
	return fmt.Sprintf("a=%d b=%d", s.a, s.b)
}

func lineGen(s *testState, either func(branch func())) {
	either(func() { s.a++ })
}

func run(t *testing.T, initial *testState) (*Checker[*testState], *Result[*testState]) {
	c := New[*testState](WithOutput(&bytes.Buffer{}))
	res, err := c.Run(context.Background(), []*testState{initial})
	require.NoError(t, err)
	return c, res
}

func TestRun_EmptyInitialStates(t *testing.T) {
	buf := &bytes.Buffer{}
	c := New[*testState](WithOutput(buf))
	res, err := c.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.Violated)
	assert.Equal(t, uint64(0), res.Stats.Generated)
	assert.Equal(t, uint64(0), res.Stats.Unique)
	assert.Equal(t, "Model checking finished.\ngenerated: 0 unique: 0 hash table size: 0\n", buf.String())
}

func TestRun_SingleFixedPoint(t *testing.T) {
	_, res := run(t, &testState{})
	assert.Equal(t, false, res.Violated)
	assert.Equal(t, uint64(1), res.Stats.Generated)
	assert.Equal(t, uint64(1), res.Stats.Unique)
}

func TestRun_ShortestPathTrace(t *testing.T) {
	_, res := run(t, &testState{
		gen:       lineGen,
		invariant: func(s *testState) bool { return s.a != 3 },
	})
	require.Equal(t, true, res.Violated)
	require.Equal(t, 4, len(res.Trace), "Trace length must equal BFS depth plus one")
	for i, s := range res.Trace {
		assert.Equal(t, uint64(i), s.a)
	}
	assert.Equal(t, uint64(4), res.Stats.Generated)
	assert.Equal(t, uint64(4), res.Stats.Unique)
}

func TestRun_InitialStateViolation(t *testing.T) {
	_, res := run(t, &testState{
		invariant: func(s *testState) bool { return s.a != 0 },
	})
	require.Equal(t, true, res.Violated)
	require.Equal(t, 1, len(res.Trace))
	assert.Equal(t, fingerprint.None, res.Trace[0].PrevFingerprint())
}

func TestRun_ViolationOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	c := New[*testState](WithOutput(buf))
	res, err := c.Run(context.Background(), []*testState{{
		gen:       lineGen,
		invariant: func(s *testState) bool { return s.a != 1 },
	}})
	require.NoError(t, err)
	require.Equal(t, true, res.Violated)
	want := "Violated invariant.\n" +
		"State: 0\na=0 b=0\n\n" +
		"State: 1\na=1 b=0\n\n"
	assert.Equal(t, want, buf.String())
}

func TestRun_LogsViolation(t *testing.T) {
	hook := logTest.NewGlobal()
	defer hook.Reset()
	_, res := run(t, &testState{
		gen:       lineGen,
		invariant: func(s *testState) bool { return s.a != 2 },
	})
	require.Equal(t, true, res.Violated)
	require.LogsContain(t, hook, "Invariant violated")
}

func TestRun_DuplicateEmissionCountedOnce(t *testing.T) {
	// Both branches produce the identical successor. The duplicate bumps
	// generated but must not reach the seen set or the frontier again.
	_, res := run(t, &testState{
		gen: func(s *testState, either func(branch func())) {
			either(func() { s.b = 1 })
			either(func() { s.b = 1 })
		},
	})
	require.Equal(t, false, res.Violated)
	// Initial admission plus two emissions from each of the two unique states.
	assert.Equal(t, uint64(5), res.Stats.Generated)
	assert.Equal(t, uint64(2), res.Stats.Unique)
	assert.Equal(t, uint64(2), res.Stats.TableSize)
}

func TestRun_ConstraintPrunesExpansion(t *testing.T) {
	c, res := run(t, &testState{
		gen:        lineGen,
		constraint: func(s *testState) bool { return s.a < 2 },
	})
	require.Equal(t, false, res.Violated)
	// a=2 is admitted into the seen set but never expanded, so a=3 is never
	// generated.
	assert.Equal(t, uint64(3), res.Stats.Generated)
	assert.Equal(t, uint64(3), res.Stats.Unique)
	pruned := &testState{a: 2}
	_, ok := c.seen[pruned.Fingerprint()]
	assert.Equal(t, true, ok, "Pruned state missing from seen set")
}

func nestedGen(s *testState, either func(branch func())) {
	either(func() {
		s.a++
		either(func() { s.b++ })
	})
	either(func() { s.b += 10 })
}

func nestedConstraint(s *testState) bool {
	return s.a < 2 && s.b < 11
}

func TestRun_NestedEmitterDoesNotLeak(t *testing.T) {
	root := &testState{gen: nestedGen, constraint: nestedConstraint}
	rootFP := root.Fingerprint()
	c, res := run(t, root)
	require.Equal(t, false, res.Violated)

	// The root expands to exactly (1,1) innermost-first, then (1,0), then
	// (0,10): the inner branch's mutation must not leak into the second
	// outer branch, and the outer mutation must not leak past its restore.
	inner := &testState{a: 1, b: 1}
	outer := &testState{a: 1, b: 0}
	second := &testState{b: 10}
	for _, s := range []*testState{inner, outer, second} {
		got, ok := c.seen[s.Fingerprint()]
		require.Equal(t, true, ok, "Missing successor %s", s)
		assert.Equal(t, rootFP, got.PrevFingerprint(), "Successor %s not linked to the root", s)
	}
	leaked := &testState{a: 1, b: 10}
	if got, ok := c.seen[leaked.Fingerprint()]; ok {
		// Reachable later through (1,0), but never as a child of the root.
		assert.NotEqual(t, rootFP, got.PrevFingerprint(), "Outer branch mutation leaked into a sibling")
	}
}

func TestRun_SeenSetInvariants(t *testing.T) {
	c, res := run(t, &testState{gen: nestedGen, constraint: nestedConstraint})
	require.Equal(t, false, res.Violated)
	assert.Equal(t, true, res.Stats.Generated >= res.Stats.Unique)
	require.Equal(t, uint64(len(c.seen)), res.Stats.Unique)
	for fp, s := range c.seen {
		require.Equal(t, fp, s.Fingerprint(), "Seen set key out of sync with stored state")
		if s.PrevFingerprint() == fingerprint.None {
			continue
		}
		_, ok := c.seen[s.PrevFingerprint()]
		require.Equal(t, true, ok, "Predecessor of %s missing from seen set", s)
	}
}

func TestRun_Deterministic(t *testing.T) {
	runOnce := func() (StatsSnapshot, [][2]uint64) {
		_, res := run(t, &testState{
			gen:        nestedGen,
			constraint: nestedConstraint,
			invariant:  func(s *testState) bool { return s.b != 20 },
		})
		var states [][2]uint64
		for _, s := range res.Trace {
			states = append(states, [2]uint64{s.a, s.b})
		}
		return res.Stats, states
	}
	stats1, trace1 := runOnce()
	stats2, trace2 := runOnce()
	require.DeepEqual(t, stats1, stats2)
	require.DeepEqual(t, trace1, trace2)
	require.Equal(t, true, len(trace1) > 0, "Expected a violation trace")
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New[*testState](WithOutput(&bytes.Buffer{}))
	_, err := c.Run(ctx, []*testState{{gen: lineGen, constraint: func(s *testState) bool { return s.a < 5 }}})
	require.ErrorContains(t, "context canceled", err)
}

func TestTrace_MissingPredecessor(t *testing.T) {
	c := New[*testState]()
	s := &testState{a: 5}
	s.SetPrevFingerprint(fingerprint.Fingerprint(0xdead))
	c.seen[s.Fingerprint()] = s
	_, err := c.trace(s.Fingerprint())
	require.ErrorContains(t, "predecessor missing from seen set", err)
}
