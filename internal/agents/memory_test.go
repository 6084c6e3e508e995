package agents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_TrimsToMostRecent(t *testing.T) {
	m := NewMemory(100, 50)

	for i := 0; i < 101; i++ {
		m.Remember("user", fmt.Sprintf("entry %d", i))
	}

	// Crossing the limit trims down to the 50 most recent entries
	assert.Equal(t, 50, m.Len())

	recent := m.Recent(0)
	require.Len(t, recent, 50)
	assert.Equal(t, "entry 51", recent[0].Content)
	assert.Equal(t, "entry 100", recent[49].Content)
}

func TestMemory_RecentReturnsCopy(t *testing.T) {
	m := NewMemory(10, 5)
	m.Remember("user", "original")

	recent := m.Recent(1)
	recent[0].Content = "mutated"

	assert.Equal(t, "original", m.Recent(1)[0].Content)
}

func TestMemory_RecentBounds(t *testing.T) {
	m := NewMemory(10, 5)
	m.Remember("user", "a")
	m.Remember("assistant", "b")

	assert.Len(t, m.Recent(10), 2)
	assert.Len(t, m.Recent(1), 1)
	assert.Equal(t, "b", m.Recent(1)[0].Content)
}

func TestNewMemory_Defaults(t *testing.T) {
	m := NewMemory(0, 0)
	for i := 0; i < 101; i++ {
		m.Remember("user", "x")
	}
	assert.Equal(t, 50, m.Len())
}
