// Package raft models a three-node Raft-style replicated log in the manner
// of MongoDB's pull-based replication. Nodes elect leaders by comparing log
// positions, pull missing entries from each other, and roll back divergent
// suffixes. The primary marks its last log entry committed once a majority
// holds it; a guard restricts that to entries from the primary's own term.
//
// The invariant states that a committed entry is never rollback-able.
// With the guard in place the bounded state space holds no violation.
// Allowing stale commits reproduces the scenario where a majority
// replicates an older-term entry on the primary while a diverged log with a
// higher last term can still roll it back.
package raft

import (
	"fmt"

	"github.com/visualzhou/go-model-checker/fingerprint"
)

const numNodes = 3

// quorum is the smallest majority of numNodes.
const quorum = numNodes/2 + 1

// State is one configuration of the replica set. Logs hold the term of each
// entry; the Raft log matching property makes (index, term) identify an
// entry across nodes. StaleCommits and the exploration bounds are run
// configuration and stay out of state identity.
type State struct {
	Logs    [numNodes][]uint64
	Term    uint64
	Primary int

	// CommittedIndex/CommittedTerm name the highest entry ever declared
	// committed; CommittedIndex is -1 until the first commit.
	CommittedIndex int
	CommittedTerm  uint64

	// StaleCommits drops the requirement that the primary only commits
	// entries of its own term.
	StaleCommits bool

	// MaxTerm and MaxLogLen bound exploration: states are not expanded once
	// the term exceeds MaxTerm or any log reaches MaxLogLen entries.
	MaxTerm   uint64
	MaxLogLen int

	prev fingerprint.Fingerprint
}

// New returns the initial state: empty logs, no primary, nothing committed.
func New(staleCommits bool) *State {
	return &State{
		Primary:        -1,
		CommittedIndex: -1,
		StaleCommits:   staleCommits,
		MaxTerm:        3,
		MaxLogLen:      3,
	}
}

func (s *State) Fingerprint() fingerprint.Fingerprint {
	d := fingerprint.NewDigest()
	d.WriteUint64(s.Term)
	d.WriteInt(s.Primary)
	d.WriteInt(s.CommittedIndex)
	d.WriteUint64(s.CommittedTerm)
	for i := range s.Logs {
		d.WriteUint64Slice(s.Logs[i])
	}
	return d.Sum()
}

func (s *State) Equal(other *State) bool {
	if s.Term != other.Term || s.Primary != other.Primary ||
		s.CommittedIndex != other.CommittedIndex || s.CommittedTerm != other.CommittedTerm {
		return false
	}
	for i := range s.Logs {
		if len(s.Logs[i]) != len(other.Logs[i]) {
			return false
		}
		for j := range s.Logs[i] {
			if s.Logs[i][j] != other.Logs[i][j] {
				return false
			}
		}
	}
	return true
}

func (s *State) Copy() *State {
	c := *s
	for i := range s.Logs {
		c.Logs[i] = append([]uint64(nil), s.Logs[i]...)
	}
	return &c
}

func (s *State) Restore(other *State) {
	*s = *other
	for i := range other.Logs {
		s.Logs[i] = append([]uint64(nil), other.Logs[i]...)
	}
}

func (s *State) PrevFingerprint() fingerprint.Fingerprint {
	return s.prev
}

func (s *State) SetPrevFingerprint(fp fingerprint.Fingerprint) {
	s.prev = fp
}

// SatisfyInvariant reports that no node holding the committed entry as its
// last entry has an enabled rollback against any peer.
func (s *State) SatisfyInvariant() bool {
	if s.CommittedIndex < 0 {
		return true
	}
	for i := 0; i < numNodes; i++ {
		last := len(s.Logs[i]) - 1
		if last != s.CommittedIndex || s.Logs[i][last] != s.CommittedTerm {
			continue
		}
		for j := 0; j < numNodes; j++ {
			if i != j && s.canRollback(i, j) {
				return false
			}
		}
	}
	return true
}

// SatisfyConstraint bounds the explored space by term and log length.
func (s *State) SatisfyConstraint() bool {
	if s.Term > s.MaxTerm {
		return false
	}
	for i := range s.Logs {
		if len(s.Logs[i]) >= s.MaxLogLen {
			return false
		}
	}
	return true
}

func (s *State) Generate(either func(branch func())) {
	// Elections. The candidate votes for itself, so with three nodes one
	// granted vote yields a majority.
	for i := 0; i < numNodes; i++ {
		i := i
		for j := 0; j < numNodes; j++ {
			j := j
			if i != j && s.grantsVote(j, i) {
				either(func() { s.becomeLeader(i) })
			}
		}
	}
	if s.Primary >= 0 {
		either(func() { s.clientWrite() })
	}
	for i := 0; i < numNodes; i++ {
		i := i
		for j := 0; j < numNodes; j++ {
			j := j
			if i == j {
				continue
			}
			if s.isStrictPrefix(i, j) {
				either(func() { s.replicate(i, j) })
			}
			if s.canRollback(i, j) {
				either(func() { s.rollback(i) })
			}
		}
	}
	if s.canCommitLast() {
		either(func() { s.commitLast() })
	}
}

// grantsVote reports whether voter grants candidate its vote: the
// candidate's log position must not be behind the voter's, comparing last
// term first and length second.
func (s *State) grantsVote(voter, candidate int) bool {
	vTerm, cTerm := s.lastTerm(voter), s.lastTerm(candidate)
	if cTerm != vTerm {
		return cTerm > vTerm
	}
	return len(s.Logs[candidate]) >= len(s.Logs[voter])
}

func (s *State) becomeLeader(i int) {
	s.Term++
	s.Primary = i
}

func (s *State) clientWrite() {
	s.Logs[s.Primary] = append(s.Logs[s.Primary], s.Term)
}

// isStrictPrefix reports whether node i's log is a proper prefix of node
// j's, which is the pull-replication condition for i to fetch j's next
// entry.
func (s *State) isStrictPrefix(i, j int) bool {
	if len(s.Logs[i]) >= len(s.Logs[j]) {
		return false
	}
	for k := range s.Logs[i] {
		if s.Logs[i][k] != s.Logs[j][k] {
			return false
		}
	}
	return true
}

func (s *State) replicate(i, j int) {
	s.Logs[i] = append(s.Logs[i], s.Logs[j][len(s.Logs[i])])
}

// canRollback reports whether node i must undo its last entry when syncing
// from node j: j's log ends in a higher term and i's log has diverged from
// it.
func (s *State) canRollback(i, j int) bool {
	if len(s.Logs[i]) == 0 || len(s.Logs[j]) == 0 {
		return false
	}
	if s.lastTerm(j) <= s.lastTerm(i) {
		return false
	}
	return !s.isPrefix(i, j)
}

func (s *State) rollback(i int) {
	s.Logs[i] = s.Logs[i][:len(s.Logs[i])-1]
}

func (s *State) isPrefix(i, j int) bool {
	if len(s.Logs[i]) > len(s.Logs[j]) {
		return false
	}
	for k := range s.Logs[i] {
		if s.Logs[i][k] != s.Logs[j][k] {
			return false
		}
	}
	return true
}

// canCommitLast reports whether the primary may declare its last entry
// committed: a majority must hold the entry and, unless stale commits are
// allowed, its term must match the current term.
func (s *State) canCommitLast() bool {
	p := s.Primary
	if p < 0 || len(s.Logs[p]) == 0 {
		return false
	}
	index := len(s.Logs[p]) - 1
	term := s.Logs[p][index]
	if !s.StaleCommits && term != s.Term {
		return false
	}
	holders := 0
	for j := 0; j < numNodes; j++ {
		if len(s.Logs[j]) > index && s.Logs[j][index] == term {
			holders++
		}
	}
	return holders >= quorum
}

func (s *State) commitLast() {
	p := s.Primary
	s.CommittedIndex = len(s.Logs[p]) - 1
	s.CommittedTerm = s.Logs[p][s.CommittedIndex]
}

func (s *State) lastTerm(i int) uint64 {
	if len(s.Logs[i]) == 0 {
		return 0
	}
	return s.Logs[i][len(s.Logs[i])-1]
}

func (s *State) String() string {
	return fmt.Sprintf("term=%d primary=%d committed=(%d,t%d) logs=%v",
		s.Term, s.Primary, s.CommittedIndex, s.CommittedTerm, s.Logs)
}
