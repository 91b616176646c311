// Package queue provides the binary heap used for top-K selection.
package queue

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Node     uint32  // Node is the value of the item, which can be arbitrary.
	Distance float64 // Distance is the priority of the item in the queue.
	Seq      uint64  // Seq orders items of equal Distance by insertion.
}

// PriorityQueue is a max-heap of PriorityQueueItems. Items with equal
// Distance are ordered by Seq, so the heap order is total.
type PriorityQueue struct {
	items []PriorityQueueItem
	seq   uint64
}

// NewMax initializes a new priority queue with maximum priority.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]PriorityQueueItem, 0, capacity)}
}

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (PriorityQueueItem, bool) {
	if len(pq.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return pq.items[0], true
}

// PushNext inserts node with the next insertion sequence number.
func (pq *PriorityQueue) PushNext(node uint32, distance float64) {
	pq.items = append(pq.items, PriorityQueueItem{Node: node, Distance: distance, Seq: pq.seq})
	pq.seq++
	pq.siftUp(len(pq.items) - 1)
}

// PopItem removes and returns the top element while maintaining the heap invariant.
func (pq *PriorityQueue) PopItem() (PriorityQueueItem, bool) {
	n := len(pq.items)
	if n == 0 {
		return PriorityQueueItem{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
	pq.seq = 0
}

// above reports whether a sits closer to the root than b: larger
// distances first, later insertions first among equals.
func above(a, b PriorityQueueItem) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Seq > b.Seq
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !above(pq.items[i], pq.items[p]) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && above(pq.items[r], pq.items[l]) {
			best = r
		}
		if !above(pq.items[best], pq.items[i]) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}

// TopK keeps the k smallest items seen. Equal distances keep the earlier
// insertions.
type TopK struct {
	k  int
	pq *PriorityQueue
}

// NewTopK returns a selector for the k best items.
func NewTopK(k int) *TopK {
	return &TopK{k: k, pq: NewMax(k + 1)}
}

// Offer considers node. It reports whether node is currently retained.
func (t *TopK) Offer(node uint32, distance float64) bool {
	if t.k <= 0 {
		return false
	}
	if t.pq.Len() < t.k {
		t.pq.PushNext(node, distance)
		return true
	}
	worst, _ := t.pq.TopItem()
	// A later item needs a strictly smaller distance to displace the worst.
	if distance >= worst.Distance {
		t.pq.seq++
		return false
	}
	t.pq.PopItem()
	t.pq.PushNext(node, distance)
	return true
}

// Full reports whether k items are retained.
func (t *TopK) Full() bool { return t.pq.Len() >= t.k }

// Drain returns the retained items in ascending order and resets the
// selector.
func (t *TopK) Drain(dst []PriorityQueueItem) []PriorityQueueItem {
	n := t.pq.Len()
	start := len(dst)
	for i := 0; i < n; i++ {
		dst = append(dst, PriorityQueueItem{})
	}
	for i := n - 1; i >= 0; i-- {
		item, _ := t.pq.PopItem()
		dst[start+i] = item
	}
	t.pq.Reset()
	return dst
}
