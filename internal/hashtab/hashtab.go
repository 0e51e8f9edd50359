// Package hashtab provides the hash table used to index schema types,
// structs and chunk addresses.
//
// Entries live in two parallel slices (keys and values) in insertion order.
// Buckets hold the index of the first entry of a chain and next links the
// remaining entries, so lookups never touch the values slice. The bucket
// count is always a power of two.
package hashtab

// NotFound is returned by Find when the key is absent.
const NotFound = -1

const minBuckets = 16

// Hasher is implemented by key types stored in a Table.
type Hasher interface {
	comparable
	Hash() uint64
}

// Table is an insertion-ordered hash table. The zero value is ready to use.
type Table[K Hasher, V any] struct {
	keys    []K
	values  []V
	buckets []int
	next    []int
}

// New returns a table sized for n entries.
func New[K Hasher, V any](n int) *Table[K, V] {
	t := &Table[K, V]{}
	t.Reserve(n)
	return t
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int { return len(t.keys) }

// Insert adds key with value. It returns false and leaves the table
// unchanged when key already exists.
func (t *Table[K, V]) Insert(key K, value V) bool {
	if t.Find(key) != NotFound {
		return false
	}
	if len(t.keys)+1 > len(t.buckets) {
		t.rehash(nextPow2(2 * (len(t.keys) + 1)))
	}
	idx := len(t.keys)
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
	b := t.bucket(key)
	t.next = append(t.next, t.buckets[b])
	t.buckets[b] = idx
	return true
}

// Find returns the entry index of key, or NotFound.
func (t *Table[K, V]) Find(key K) int {
	if len(t.buckets) == 0 {
		return NotFound
	}
	for i := t.buckets[t.bucket(key)]; i != NotFound; i = t.next[i] {
		if t.keys[i] == key {
			return i
		}
	}
	return NotFound
}

// Get returns the value stored for key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	i := t.Find(key)
	if i == NotFound {
		var zero V
		return zero, false
	}
	return t.values[i], true
}

// At returns the entry at index i as reported by Find.
func (t *Table[K, V]) At(i int) (K, V) {
	return t.keys[i], t.values[i]
}

// Remove deletes key. The last entry is moved into the freed slot, so
// indices previously returned by Find may change.
func (t *Table[K, V]) Remove(key K) bool {
	idx := t.Find(key)
	if idx == NotFound {
		return false
	}
	t.unlink(idx)

	last := len(t.keys) - 1
	if idx != last {
		t.unlink(last)
		t.keys[idx] = t.keys[last]
		t.values[idx] = t.values[last]
		b := t.bucket(t.keys[idx])
		t.next[idx] = t.buckets[b]
		t.buckets[b] = idx
	}

	var zeroK K
	var zeroV V
	t.keys[last] = zeroK
	t.values[last] = zeroV
	t.keys = t.keys[:last]
	t.values = t.values[:last]
	t.next = t.next[:last]
	return true
}

// Reserve grows the table so that n entries fit without rehashing.
func (t *Table[K, V]) Reserve(n int) {
	if n <= len(t.buckets) {
		return
	}
	if cap(t.keys) < n {
		keys := make([]K, len(t.keys), n)
		copy(keys, t.keys)
		t.keys = keys
		values := make([]V, len(t.values), n)
		copy(values, t.values)
		t.values = values
	}
	t.rehash(nextPow2(n))
}

// Each calls fn for every entry in insertion order until fn returns false.
func (t *Table[K, V]) Each(fn func(K, V) bool) {
	for i := range t.keys {
		if !fn(t.keys[i], t.values[i]) {
			return
		}
	}
}

func (t *Table[K, V]) bucket(key K) int {
	return int(key.Hash() & uint64(len(t.buckets)-1))
}

// unlink removes entry i from its bucket chain without touching the slices.
func (t *Table[K, V]) unlink(i int) {
	b := t.bucket(t.keys[i])
	if t.buckets[b] == i {
		t.buckets[b] = t.next[i]
		return
	}
	for p := t.buckets[b]; p != NotFound; p = t.next[p] {
		if t.next[p] == i {
			t.next[p] = t.next[i]
			return
		}
	}
}

func (t *Table[K, V]) rehash(n int) {
	if n < minBuckets {
		n = minBuckets
	}
	t.buckets = make([]int, n)
	for i := range t.buckets {
		t.buckets[i] = NotFound
	}
	if cap(t.next) < len(t.keys) {
		t.next = make([]int, len(t.keys), cap(t.keys))
	}
	t.next = t.next[:len(t.keys)]
	for i, k := range t.keys {
		b := t.bucket(k)
		t.next[i] = t.buckets[b]
		t.buckets[b] = i
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
