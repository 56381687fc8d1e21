package entry_test

import (
	"testing"
	"time"

	"github.com/minisource/chronos/internal/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withNextFire(e *entry.Entry, t time.Time) *entry.Entry {
	e.NextFire = &t
	return e
}

func TestHeap_PopsInNextFireOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &entry.Heap{}

	h.PushEntry(withNextFire(entry.NewEntry("c", nil, nil, entry.Unlimited), base.Add(3*time.Second)))
	h.PushEntry(withNextFire(entry.NewEntry("a", nil, nil, entry.Unlimited), base.Add(1*time.Second)))
	h.PushEntry(withNextFire(entry.NewEntry("b", nil, nil, entry.Unlimited), base.Add(2*time.Second)))

	require.Equal(t, 3, h.Len())
	assert.Equal(t, "a", h.PopEarliest().ID)
	assert.Equal(t, "b", h.PopEarliest().ID)
	assert.Equal(t, "c", h.PopEarliest().ID)
	assert.Equal(t, 0, h.Len())
}

func TestHeap_TiesBreakByIDAscending(t *testing.T) {
	same := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &entry.Heap{}

	h.PushEntry(withNextFire(entry.NewEntry("z", nil, nil, entry.Unlimited), same))
	h.PushEntry(withNextFire(entry.NewEntry("a", nil, nil, entry.Unlimited), same))
	h.PushEntry(withNextFire(entry.NewEntry("m", nil, nil, entry.Unlimited), same))

	assert.Equal(t, "a", h.PopEarliest().ID)
	assert.Equal(t, "m", h.PopEarliest().ID)
	assert.Equal(t, "z", h.PopEarliest().ID)
}

func TestHeap_RootAlwaysEqualsMinimum(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &entry.Heap{}

	times := []int{5, 1, 9, 3, 7, 2}
	for i, sec := range times {
		h.PushEntry(withNextFire(entry.NewEntry(string(rune('a'+i)), nil, nil, entry.Unlimited), base.Add(time.Duration(sec)*time.Second)))

		min := base.Add(time.Hour)
		for _, e := range *h {
			if e.NextFire.Before(min) {
				min = *e.NextFire
			}
		}
		assert.Equal(t, min, *h.Peek().NextFire)
	}
}

func TestHeap_RemoveArbitraryEntryMaintainsInvariant(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &entry.Heap{}

	a := withNextFire(entry.NewEntry("a", nil, nil, entry.Unlimited), base.Add(1*time.Second))
	b := withNextFire(entry.NewEntry("b", nil, nil, entry.Unlimited), base.Add(2*time.Second))
	c := withNextFire(entry.NewEntry("c", nil, nil, entry.Unlimited), base.Add(3*time.Second))

	h.PushEntry(a)
	h.PushEntry(b)
	h.PushEntry(c)

	h.Remove(b)
	require.Equal(t, 2, h.Len())
	assert.Equal(t, -1, b.HeapIndex)

	assert.Equal(t, "a", h.PopEarliest().ID)
	assert.Equal(t, "c", h.PopEarliest().ID)
}

func TestHeap_FixReordersAfterNextFireChanges(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &entry.Heap{}

	a := withNextFire(entry.NewEntry("a", nil, nil, entry.Unlimited), base.Add(1*time.Second))
	b := withNextFire(entry.NewEntry("b", nil, nil, entry.Unlimited), base.Add(2*time.Second))

	h.PushEntry(a)
	h.PushEntry(b)

	later := base.Add(10 * time.Second)
	a.NextFire = &later
	h.Fix(a)

	assert.Equal(t, "b", h.Peek().ID)
}
