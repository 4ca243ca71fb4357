// Package diehard models the classic two-jug measuring puzzle: a 5-gallon
// and a 3-gallon jug, six transitions (fill, empty, and pour in each
// direction), and an invariant asserting that the big jug never holds the
// forbidden volume. Checking the invariant "big != 4" makes the checker
// produce the well-known six-step solution as a counterexample trace.
package diehard

import (
	"fmt"

	"github.com/visualzhou/go-model-checker/fingerprint"
)

const (
	// BigCapacity is the volume of the big jug.
	BigCapacity uint64 = 5
	// SmallCapacity is the volume of the small jug.
	SmallCapacity uint64 = 3
)

// State is the content of both jugs. Forbidden configures the invariant and
// is excluded from state identity.
type State struct {
	Big   uint64
	Small uint64

	Forbidden uint64

	prev fingerprint.Fingerprint
}

// New returns the empty-jugs initial state whose invariant rejects the big
// jug holding forbidden gallons. Pass a volume above BigCapacity to check
// the full reachable space without a violation.
func New(forbidden uint64) *State {
	return &State{Forbidden: forbidden}
}

func (s *State) Fingerprint() fingerprint.Fingerprint {
	d := fingerprint.NewDigest()
	d.WriteUint64(s.Big)
	d.WriteUint64(s.Small)
	return d.Sum()
}

func (s *State) Equal(other *State) bool {
	return s.Big == other.Big && s.Small == other.Small
}

func (s *State) Copy() *State {
	c := *s
	return &c
}

func (s *State) Restore(other *State) {
	*s = *other
}

func (s *State) PrevFingerprint() fingerprint.Fingerprint {
	return s.prev
}

func (s *State) SetPrevFingerprint(fp fingerprint.Fingerprint) {
	s.prev = fp
}

func (s *State) SatisfyInvariant() bool {
	return s.Big != s.Forbidden
}

func (s *State) SatisfyConstraint() bool {
	return true
}

func (s *State) Generate(either func(branch func())) {
	either(func() { s.Big = BigCapacity })     // fill big
	either(func() { s.Small = SmallCapacity }) // fill small
	either(func() { s.Big = 0 })               // empty big
	either(func() { s.Small = 0 })             // empty small
	either(func() { s.pourBigToSmall() })
	either(func() { s.pourSmallToBig() })
}

func (s *State) pourBigToSmall() {
	amount := min(s.Big, SmallCapacity-s.Small)
	s.Big -= amount
	s.Small += amount
}

func (s *State) pourSmallToBig() {
	amount := min(s.Small, BigCapacity-s.Big)
	s.Small -= amount
	s.Big += amount
}

func (s *State) String() string {
	return fmt.Sprintf("big=%d small=%d", s.Big, s.Small)
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
