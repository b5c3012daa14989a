package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/wtd"
)

var monday = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestCache_GetPutInvalidate(t *testing.T) {
	c := NewCache(2)
	k := KeyFor(7, monday)
	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Put(k, wtd.ComplianceAnalysis{DailyWorkingTime: 4})
	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, 4.0, got.DailyWorkingTime)

	c.Invalidate(k)
	_, ok = c.Get(k)
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Put(KeyFor(1, monday), wtd.ComplianceAnalysis{})
	c.Put(KeyFor(2, monday), wtd.ComplianceAnalysis{})
	c.Get(KeyFor(1, monday))
	c.Put(KeyFor(3, monday), wtd.ComplianceAnalysis{})

	_, ok := c.Get(KeyFor(2, monday))
	assert.False(t, ok)
	_, ok = c.Get(KeyFor(1, monday))
	assert.True(t, ok)
}

func TestCache_InvalidateDriver(t *testing.T) {
	c := NewCache(8)
	c.Put(KeyFor(1, monday), wtd.ComplianceAnalysis{})
	c.Put(KeyFor(1, monday.AddDate(0, 0, 1)), wtd.ComplianceAnalysis{})
	c.Put(KeyFor(2, monday), wtd.ComplianceAnalysis{})

	c.InvalidateDriver(1)
	assert.Equal(t, 1, c.Len())
}

func TestRegistry_ForReusesCache(t *testing.T) {
	r := NewRegistry(4)
	exp := monday.Add(time.Hour)
	r.now = func() time.Time { return monday }

	a := r.For("s1", exp)
	b := r.For("s1", exp)
	assert.Same(t, a, b)
	assert.NotSame(t, a, r.For("s2", exp))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_DiscardAndExpiry(t *testing.T) {
	r := NewRegistry(4)
	r.now = func() time.Time { return monday }
	first := r.For("s1", monday.Add(time.Minute))
	first.Put(KeyFor(1, monday), wtd.ComplianceAnalysis{})

	r.Discard("s1")
	assert.Equal(t, 0, r.Len())
	assert.NotSame(t, first, r.For("s1", monday.Add(time.Minute)))

	r.now = func() time.Time { return monday.Add(2 * time.Minute) }
	r.For("s2", monday.Add(time.Hour))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_InvalidateDayReachesEverySession(t *testing.T) {
	r := NewRegistry(4)
	a := r.For("driver", time.Time{})
	b := r.For("manager", time.Time{})
	a.Put(KeyFor(1, monday), wtd.ComplianceAnalysis{})
	b.Put(KeyFor(1, monday), wtd.ComplianceAnalysis{})
	b.Put(KeyFor(1, monday.AddDate(0, 0, -1)), wtd.ComplianceAnalysis{})

	r.InvalidateDay(1, monday.Add(3*time.Hour))
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 1, b.Len())
}
