package route

import "container/heap"

type item struct {
	label string
	f, g  float64
	seq   int
}

// frontier is a min-heap on f; ties go to the earlier push.
type frontier []*item

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x any)   { *q = append(*q, x.(*item)) }
func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

func (q *frontier) push(it *item) { heap.Push(q, it) }
func (q *frontier) pop() *item    { return heap.Pop(q).(*item) }
