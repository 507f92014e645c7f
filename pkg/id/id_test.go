package id

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndSorted(t *testing.T) {
	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New())
	}

	seen := map[string]bool{}
	for _, s := range ids {
		assert.Len(t, s, 26)
		assert.False(t, seen[s], "duplicate id %s", s)
		seen[s] = true
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestNewAtRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 2, 9, 35, 0, 0, time.UTC)
	s := NewAt(at)

	u, err := ulid.ParseStrict(s)
	require.NoError(t, err)
	assert.True(t, ulid.Time(u.Time()).Equal(at))

	later := NewAt(at.Add(5 * time.Minute))
	assert.Less(t, s, later)
}
