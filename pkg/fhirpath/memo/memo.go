// Package memo provides a bounded LRU cache for sub-expression results
// within a single evaluation. It mirrors the eviction strategy of the
// engine's cross-call expression cache (container/list plus a map) but is
// keyed by (AST fingerprint, environment digest) instead of source text,
// and is scoped to one evaluation rather than shared process-wide.
package memo

import (
	"container/list"
	"sync"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// DefaultCapacity is the number of entries kept before the oldest is
// evicted.
const DefaultCapacity = 1000

// Key identifies a memoized sub-expression evaluation: the subtree's
// structural fingerprint plus a digest of the environment it ran under
// (focus, $index and bound variables all participate in a result, so two
// evaluations of the same subtree under different environments must not
// collide).
type Key struct {
	Fingerprint uint64
	EnvDigest   string
}

type entry struct {
	key     Key
	value   types.Collection
	element *list.Element
}

// Memoizer is a bounded, per-evaluation cache. A fresh Memoizer is
// constructed for each top-level Evaluate call; it is never a package-level
// singleton, so concurrent evaluations never share or lock against each
// other's cache state.
type Memoizer struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	order    *list.List
	capacity int
}

// New creates a Memoizer with the given capacity. A capacity of 0 falls
// back to DefaultCapacity; a negative capacity disables caching entirely
// (Get always misses, Put is a no-op).
func New(capacity int) *Memoizer {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	return &Memoizer{
		entries:  make(map[Key]*entry),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get returns the cached result for key, promoting it to most-recently-used.
func (m *Memoizer) Get(key Key) (types.Collection, bool) {
	if m == nil || m.capacity < 0 {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(e.element)
	return e.value, true
}

// Put stores result under key, evicting the least-recently-used entry if
// the cache is at capacity.
func (m *Memoizer) Put(key Key, result types.Collection) {
	if m == nil || m.capacity < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		e.value = result
		m.order.MoveToFront(e.element)
		return
	}
	if len(m.entries) >= m.capacity {
		oldest := m.order.Back()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*entry).key)
		}
	}
	e := &entry{key: key, value: result}
	e.element = m.order.PushFront(e)
	m.entries[key] = e
}

// Len reports the number of cached entries.
func (m *Memoizer) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
