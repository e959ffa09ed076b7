package types

import "sync"

// Preallocated singleton/empty collections and small-value caches,
// shared so the hot path through the evaluator (every literal, every
// boolean operator result) doesn't allocate.

// EmptyCollection is the shared representative of FHIRPath's empty
// collection; callers should never mutate it.
var EmptyCollection = Collection{}

var (
	cachedTrue  = Boolean{value: true}
	cachedFalse = Boolean{value: false}
)

// TrueCollection is a singleton collection wrapping the cached true.
var TrueCollection = Collection{cachedTrue}

// FalseCollection is a singleton collection wrapping the cached false.
var FalseCollection = Collection{cachedFalse}

// GetBoolean returns one of the two cached Boolean values instead of
// constructing a fresh one.
func GetBoolean(b bool) Boolean {
	if b {
		return cachedTrue
	}
	return cachedFalse
}

// smallIntegers caches Integer wrappers for the range [-128, 127], the
// span small-number literals and loop counters fall into most often.
var smallIntegers [256]Integer

func init() {
	for i := range smallIntegers {
		smallIntegers[i] = Integer{value: int64(i - 128)}
	}
}

// GetInteger returns a cached Integer when n is in [-128, 127],
// otherwise allocates one directly.
func GetInteger(n int64) Integer {
	if n >= -128 && n <= 127 {
		return smallIntegers[n+128]
	}
	return Integer{value: n}
}

// SingletonCollection wraps a single Value as a one-element Collection.
func SingletonCollection(v Value) Collection {
	return Collection{v}
}

// NewCollectionWithCap preallocates a zero-length Collection with the
// given capacity, for callers that know the expected result size.
func NewCollectionWithCap(capacity int) Collection {
	return make(Collection, 0, capacity)
}

// collectionSlicePool recycles the backing arrays of short-lived
// Collection values built up during evaluation (e.g. per-call argument
// buffers) rather than letting the GC reclaim and reallocate them.
var collectionSlicePool = sync.Pool{
	New: func() interface{} {
		c := make(Collection, 0, 4)
		return &c
	},
}

// GetCollection borrows a zero-length Collection from the pool; its
// capacity is unspecified but typically small.
func GetCollection() *Collection {
	return collectionSlicePool.Get().(*Collection)
}

// PutCollection returns c to the pool after truncating it to length 0.
// A nil c is a no-op.
func PutCollection(c *Collection) {
	if c == nil {
		return
	}
	*c = (*c)[:0]
	collectionSlicePool.Put(c)
}
