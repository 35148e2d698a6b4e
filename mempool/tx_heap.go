// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"container/heap"

	"github.com/ava-labs/spacesvm/chain"
)

// entry is owned by the mempool arena and indexed by both heaps.
type entry struct {
	tx  *chain.Transaction
	// order in which the entry was added, larger is more recent
	seq uint64

	minIndex int
	maxIndex int
}

var _ heap.Interface = &txHeap{}

// txHeap orders entries by recency. Each entry records its own position so
// it can be removed from the middle of the heap.
type txHeap struct {
	isMinHeap bool
	items     []*entry
}

func newTxHeap(isMinHeap bool, size int) *txHeap {
	return &txHeap{
		isMinHeap: isMinHeap,
		items:     make([]*entry, 0, size),
	}
}

func (th *txHeap) Len() int { return len(th.items) }

func (th *txHeap) Less(i, j int) bool {
	if th.isMinHeap {
		return th.items[i].seq < th.items[j].seq
	}
	return th.items[i].seq > th.items[j].seq
}

func (th *txHeap) Swap(i, j int) {
	th.items[i], th.items[j] = th.items[j], th.items[i]
	th.setIndex(i)
	th.setIndex(j)
}

func (th *txHeap) setIndex(i int) {
	if th.isMinHeap {
		th.items[i].minIndex = i
		return
	}
	th.items[i].maxIndex = i
}

func (th *txHeap) index(e *entry) int {
	if th.isMinHeap {
		return e.minIndex
	}
	return e.maxIndex
}

func (th *txHeap) Push(x interface{}) {
	e := x.(*entry)
	th.items = append(th.items, e)
	th.setIndex(len(th.items) - 1)
}

func (th *txHeap) Pop() interface{} {
	n := len(th.items)
	e := th.items[n-1]
	th.items[n-1] = nil
	th.items = th.items[:n-1]
	return e
}

func (th *txHeap) peek() *entry {
	if len(th.items) == 0 {
		return nil
	}
	return th.items[0]
}

func (th *txHeap) remove(e *entry) {
	heap.Remove(th, th.index(e))
}
