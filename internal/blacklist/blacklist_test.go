package blacklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve_NoEntriesIsNotBlacklisted(t *testing.T) {
	assert.False(t, Resolve(nil))
}

func TestResolve_SingleNeverAllowEntryBlocks(t *testing.T) {
	entries := []Entry{{NeverAllow: true, CreatedAt: time.Now()}}
	assert.True(t, Resolve(entries))
}

func TestResolve_LaterSupersedingEntryUnblocks(t *testing.T) {
	base := time.Now()
	entries := []Entry{
		{NeverAllow: true, CreatedAt: base},
		{NeverAllow: false, CreatedAt: base.Add(time.Hour)},
	}
	assert.False(t, Resolve(entries))
}

func TestResolve_LatestEntryWinsRegardlessOfInputOrder(t *testing.T) {
	base := time.Now()
	entries := []Entry{
		{NeverAllow: false, CreatedAt: base.Add(2 * time.Hour)}, // latest: unblocked
		{NeverAllow: true, CreatedAt: base},
		{NeverAllow: true, CreatedAt: base.Add(time.Hour)},
	}
	assert.False(t, Resolve(entries))

	entries[0].NeverAllow = true // latest now re-blocks
	assert.True(t, Resolve(entries))
}
