package worker

import "container/heap"

// commandHeap is the container/heap backing store for the worker's
// priority queue, ordered by priorityLess (kind ordinal, then distance).
type commandHeap []*Command

func (h commandHeap) Len() int            { return len(h) }
func (h commandHeap) Less(i, j int) bool  { return priorityLess(h[i], h[j]) }
func (h commandHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *commandHeap) Push(x interface{}) { *h = append(*h, x.(*Command)) }
func (h *commandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	cmd := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return cmd
}

// commandQueue wraps commandHeap with the push/pop operations the
// worker goroutine actually needs, hiding the container/heap calls
// behind names that read like the domain.
type commandQueue struct {
	h commandHeap
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{}
	heap.Init(&q.h)
	return q
}

func (q *commandQueue) push(cmd *Command) {
	heap.Push(&q.h, cmd)
}

func (q *commandQueue) pop() (*Command, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&q.h).(*Command), true
}

func (q *commandQueue) len() int {
	return q.h.Len()
}
