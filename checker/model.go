package checker

import "github.com/visualzhou/go-model-checker/fingerprint"

// State is the contract between the checker and a user model. A model is a
// plain-data type, addressed through a pointer, whose fields describe the
// modeled system at one instant.
//
// Fingerprint and Equal must agree with each other and must cover every
// semantically significant field. The predecessor fingerprint is engine
// metadata and must be excluded from both, so a logical state reached
// through different parents is stored once under its first-seen parent.
type State[S any] interface {
	// Fingerprint digests the semantically significant fields.
	Fingerprint() fingerprint.Fingerprint
	// Equal reports field-wise equality, consistent with Fingerprint.
	Equal(other S) bool
	// Copy returns an independent value copy of the state.
	Copy() S
	// Restore overwrites the receiver's fields with other's. The emitter
	// uses it to roll a working state back to a branch snapshot.
	Restore(other S)
	// PrevFingerprint reads the engine-owned predecessor slot;
	// fingerprint.None marks an initial state.
	PrevFingerprint() fingerprint.Fingerprint
	// SetPrevFingerprint writes the engine-owned predecessor slot.
	SetPrevFingerprint(fp fingerprint.Fingerprint)
	// SatisfyInvariant reports whether this state is acceptable. The first
	// admitted state for which it returns false stops the run with a trace.
	SatisfyInvariant() bool
	// SatisfyConstraint reports whether exploration should continue past
	// this state. Rejection prunes, it is not a finding.
	SatisfyConstraint() bool
	// Generate enumerates successor states by mutating the receiver inside
	// branch bodies wrapped in the supplied either callback. The receiver
	// is rolled back between branches, so straight-line code may try one
	// branch after another from the same pre-state. Branches nest.
	Generate(either func(branch func()))
	// String renders the state for reporting.
	String() string
}
