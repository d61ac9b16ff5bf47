// Package pqueue is a bounded priority queue kept sorted by ascending priority.
// With a capacity set, pushing beyond it drops the lowest ranked item, which
// makes it a k-best collector for neighbour searches.
package pqueue

import (
	"sort"
)

func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type Option func(*Queue)

type item struct {
	value interface{}
	prior float64
}

func New(opts ...Option) *Queue {
	p := &Queue{cap: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Queue struct {
	cap   int
	items []item
}

// Push inserts val keeping the queue ordered. Items with equal priority keep
// insertion order.
func (q *Queue) Push(val interface{}, priority float64) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return priority < q.items[i].prior
	})
	if q.cap >= 0 && idx >= q.cap {
		return
	}
	q.items = append(q.items, item{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item{value: val, prior: priority}
	if q.cap >= 0 && len(q.items) > q.cap {
		q.items = q.items[:q.cap]
	}
}

func (q *Queue) Seek(idx int) (interface{}, float64) {
	it := q.items[idx]
	return it.value, it.prior
}

func (q *Queue) Len() int { return len(q.items) }

// Full reports whether a capped queue holds cap items.
func (q *Queue) Full() bool { return q.cap >= 0 && len(q.items) >= q.cap }
