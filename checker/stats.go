package checker

import (
	"fmt"
	"sync/atomic"
)

// stats holds the run counters. The exploration loop is the only writer;
// reads go through atomic loads so a concurrent reporter observes
// monotonically non-decreasing values.
type stats struct {
	generated uint64
	unique    uint64
	tableSize uint64
}

func (s *stats) addGenerated() {
	atomic.AddUint64(&s.generated, 1)
	statesGeneratedTotal.Inc()
}

func (s *stats) addUnique() {
	atomic.AddUint64(&s.unique, 1)
	atomic.AddUint64(&s.tableSize, 1)
	statesUniqueTotal.Inc()
	seenStates.Inc()
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Generated: atomic.LoadUint64(&s.generated),
		Unique:    atomic.LoadUint64(&s.unique),
		TableSize: atomic.LoadUint64(&s.tableSize),
	}
}

// StatsSnapshot is a point-in-time copy of the run counters. Generated
// counts every emission including duplicates, Unique counts successful
// seen-set inserts, and TableSize mirrors the seen-set size.
type StatsSnapshot struct {
	Generated uint64
	Unique    uint64
	TableSize uint64
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("generated: %d unique: %d hash table size: %d", s.Generated, s.Unique, s.TableSize)
}

// StatsProvider supplies counter snapshots to an observer.
type StatsProvider interface {
	Stats() StatsSnapshot
}
