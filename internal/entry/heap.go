package entry

import "container/heap"

// Heap orders *Entry values by (NextFire, ID) ascending, implementing
// container/heap.Interface so the scheduler gets O(log n) insertion,
// O(log n) "pop the earliest" and, via HeapIndex, O(log n) arbitrary
// removal (pause, delete, reschedule of an entry that isn't the root).
//
// Entries with a nil NextFire must never be pushed onto the heap — they
// belong to terminal entries. Paused entries keep their NextFire but are
// likewise kept off the heap and tracked only in the scheduler's id map.
type Heap []*Entry

var _ heap.Interface = (*Heap)(nil)

func (h Heap) Len() int { return len(h) }

func (h Heap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.NextFire.Equal(*b.NextFire) {
		return a.ID < b.ID
	}
	return a.NextFire.Before(*b.NextFire)
}

func (h Heap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].HeapIndex = i
	h[j].HeapIndex = j
}

func (h *Heap) Push(x any) {
	e := x.(*Entry)
	e.HeapIndex = len(*h)
	*h = append(*h, e)
}

func (h *Heap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.HeapIndex = -1
	*h = old[:n-1]
	return e
}

// PushEntry inserts e into the heap, maintaining the heap invariant.
func (h *Heap) PushEntry(e *Entry) {
	heap.Push(h, e)
}

// PopEarliest removes and returns the entry with the smallest (NextFire, ID).
func (h *Heap) PopEarliest() *Entry {
	return heap.Pop(h).(*Entry)
}

// Peek returns the entry with the smallest (NextFire, ID) without removing
// it, or nil if the heap is empty.
func (h Heap) Peek() *Entry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// Remove removes e from the heap given its current HeapIndex, maintaining
// the heap invariant. No-op if e is not currently in the heap.
func (h *Heap) Remove(e *Entry) {
	if e.HeapIndex < 0 || e.HeapIndex >= len(*h) {
		return
	}
	heap.Remove(h, e.HeapIndex)
}

// Fix re-establishes the heap invariant for e after its NextFire changed in
// place (e.g. reschedule), given its current HeapIndex.
func (h *Heap) Fix(e *Entry) {
	if e.HeapIndex < 0 || e.HeapIndex >= len(*h) {
		return
	}
	heap.Fix(h, e.HeapIndex)
}
