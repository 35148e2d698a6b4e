// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/spacesvm/chain"
)

const DefaultSize = 1024

// Mempool holds transactions waiting to be included in a block. Every
// transaction appears at most once and is reachable from both the oldest
// and the newest end.
type Mempool struct {
	mu sync.RWMutex

	maxSize int
	nextSeq uint64
	entries map[ids.ID]*entry
	minHeap *txHeap
	maxHeap *txHeap

	// transactions not yet handed out by NewTxs
	newTxs []*chain.Transaction

	// pending has room for a single signal so a burst of additions wakes the
	// consumer once
	pending chan struct{}

	metrics *metrics
}

// New returns an empty mempool holding at most [maxSize] transactions. A nil
// [registerer] disables metrics registration.
func New(maxSize int, registerer prometheus.Registerer) (*Mempool, error) {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Mempool{
		maxSize: maxSize,
		entries: make(map[ids.ID]*entry, maxSize),
		minHeap: newTxHeap(true, maxSize),
		maxHeap: newTxHeap(false, maxSize),
		pending: make(chan struct{}, 1),
		metrics: m,
	}, nil
}

// Add inserts [tx] and reports whether it was new. When the mempool is full
// the oldest transaction is dropped.
func (m *Mempool) Add(tx *chain.Transaction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.insert(tx) {
		return false
	}
	m.newTxs = append(m.newTxs, tx)
	m.metrics.added.Inc()
	m.signal()
	return true
}

// Requeue puts back transactions that were taken out of the mempool. They
// are not reported again by NewTxs.
func (m *Mempool) Requeue(txs []*chain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := false
	for _, tx := range txs {
		if m.insert(tx) {
			added = true
		}
	}
	if added {
		m.signal()
	}
}

func (m *Mempool) insert(tx *chain.Transaction) bool {
	txID := tx.ID()
	if _, ok := m.entries[txID]; ok {
		return false
	}
	e := &entry{tx: tx, seq: m.nextSeq}
	m.nextSeq++
	m.entries[txID] = e
	heap.Push(m.minHeap, e)
	heap.Push(m.maxHeap, e)

	for len(m.entries) > m.maxSize {
		oldest := m.minHeap.peek()
		m.remove(oldest)
		m.metrics.evicted.Inc()
		log.Debug("evicted transaction from full mempool", "txID", oldest.tx.ID())
	}
	m.metrics.size.Set(float64(len(m.entries)))
	return true
}

func (m *Mempool) remove(e *entry) {
	m.minHeap.remove(e)
	m.maxHeap.remove(e)
	delete(m.entries, e.tx.ID())
}

func (m *Mempool) signal() {
	select {
	case m.pending <- struct{}{}:
	default:
	}
}

// Pending is signaled after transactions are added.
func (m *Mempool) Pending() <-chan struct{} {
	return m.pending
}

func (m *Mempool) Get(txID ids.ID) (*chain.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[txID]
	if !ok {
		return nil, false
	}
	return e.tx, true
}

func (m *Mempool) Has(txID ids.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[txID]
	return ok
}

func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// PopMin removes and returns the oldest transaction.
func (m *Mempool) PopMin() (*chain.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pop(m.minHeap)
}

// PopBack removes and returns the most recent transaction.
func (m *Mempool) PopBack() (*chain.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pop(m.maxHeap)
}

func (m *Mempool) pop(h *txHeap) (*chain.Transaction, bool) {
	e := h.peek()
	if e == nil {
		return nil, false
	}
	m.remove(e)
	m.metrics.size.Set(float64(len(m.entries)))
	return e.tx, true
}

// Remove drops [txIDs] that are still in the mempool.
func (m *Mempool) Remove(txIDs []ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, txID := range txIDs {
		if e, ok := m.entries[txID]; ok {
			m.remove(e)
		}
	}
	m.metrics.size.Set(float64(len(m.entries)))
}

// Prune drops every transaction [keep] returns false for.
func (m *Mempool) Prune(keep func(*chain.Transaction) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []*entry
	for _, e := range m.entries {
		if !keep(e.tx) {
			stale = append(stale, e)
		}
	}
	for _, e := range stale {
		m.remove(e)
	}
	m.metrics.size.Set(float64(len(m.entries)))
	return len(stale)
}

// NewTxs returns transactions added since the last call, up to [maxUnits]
// in total. At least one transaction is returned when any is new.
// Transactions that do not fit are returned by the next call.
func (m *Mempool) NewTxs(maxUnits uint64) []*chain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		selected []*chain.Transaction
		units    uint64
		i        int
	)
	for ; i < len(m.newTxs); i++ {
		tx := m.newTxs[i]
		if _, ok := m.entries[tx.ID()]; !ok {
			continue
		}
		if len(selected) > 0 && units+tx.Units() > maxUnits {
			break
		}
		units += tx.Units()
		selected = append(selected, tx)
	}
	m.newTxs = m.newTxs[i:]
	return selected
}

// Txs returns a snapshot of every transaction, oldest first.
func (m *Mempool) Txs() []*chain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	txs := make([]*chain.Transaction, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}
	return txs
}
