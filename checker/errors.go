package checker

import "github.com/pkg/errors"

var (
	// errInvariantViolated unwinds from admission through the emitter to the
	// exploration loop, where it is converted into a violation result.
	errInvariantViolated = errors.New("invariant violated")

	// errMissingPredecessor means a predecessor fingerprint was not found in
	// the seen set during trace reconstruction. The chain is maintained by
	// the checker itself, so this is an internal defect, not a model finding.
	errMissingPredecessor = errors.New("predecessor missing from seen set")
)
