package checker

import (
	"github.com/pkg/errors"

	"github.com/visualzhou/go-model-checker/fingerprint"
)

// trace reconstructs the discovery-order path from an initial state to the
// state stored under end by walking predecessor fingerprints through the
// seen set. Every admitted state's predecessor was admitted before it, so a
// missing link is an internal consistency failure.
func (c *Checker[S]) trace(end fingerprint.Fingerprint) ([]S, error) {
	cur, ok := c.seen[end]
	if !ok {
		return nil, errors.Wrapf(errMissingPredecessor, "end state %#x", end)
	}
	states := []S{cur}
	for cur.PrevFingerprint() != fingerprint.None {
		prev, ok := c.seen[cur.PrevFingerprint()]
		if !ok {
			return nil, errors.Wrapf(errMissingPredecessor, "fingerprint %#x", cur.PrevFingerprint())
		}
		states = append(states, prev)
		cur = prev
	}
	for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
		states[i], states[j] = states[j], states[i]
	}
	return states, nil
}
