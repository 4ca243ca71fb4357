package checker

import (
	"testing"

	"github.com/visualzhou/go-model-checker/testing/assert"
)

func TestStatsSnapshot_String(t *testing.T) {
	s := StatsSnapshot{Generated: 97, Unique: 16, TableSize: 16}
	assert.Equal(t, "generated: 97 unique: 16 hash table size: 16", s.String())
}

func TestStats_SnapshotIsMonotonic(t *testing.T) {
	s := &stats{}
	s.addGenerated()
	s.addUnique()
	first := s.snapshot()
	s.addGenerated()
	second := s.snapshot()
	assert.Equal(t, true, second.Generated > first.Generated)
	assert.Equal(t, first.Unique, second.Unique)
	assert.Equal(t, first.Unique, first.TableSize)
}
