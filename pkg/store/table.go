package store

import (
	"bytes"
	"fmt"
)

// node is one link of a bucket chain
type node struct {
	key   []byte
	value []byte
	next  *node
}

// Entry is a key-value pair as seen by Walk
type Entry struct {
	Key   []byte
	Value []byte
}

// Table is a fixed-size chained hash table over opaque byte keys and values.
//
// Table is not safe for concurrent use. It is owned by a single writer, the
// server poll loop, and every mutation happens on that goroutine.
type Table struct {
	buckets []*node
	count   int
}

// NewTable creates an empty table with config.Size buckets
func NewTable(config TableConfig) (*Table, error) {
	if config.Size < 1 || config.Size > MaxTableSize {
		return nil, fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidTableSize, config.Size, MaxTableSize)
	}

	return &Table{
		buckets: make([]*node, config.Size),
	}, nil
}

// index returns the bucket for key
func (t *Table) index(key []byte) int {
	return Hash(key, len(t.buckets))
}

// Insert stores value under key. An existing entry with an equal key has its
// value replaced in place; otherwise a new entry is prepended to the bucket.
// Both key and value are copied.
func (t *Table) Insert(key, value []byte) {
	i := t.index(key)

	for n := t.buckets[i]; n != nil; n = n.next {
		if bytes.Equal(n.key, key) {
			n.value = clone(value)
			return
		}
	}

	t.buckets[i] = &node{
		key:   clone(key),
		value: clone(value),
		next:  t.buckets[i],
	}
	t.count++
}

// Get returns a copy of the value stored under key
func (t *Table) Get(key []byte) ([]byte, bool) {
	for n := t.buckets[t.index(key)]; n != nil; n = n.next {
		if bytes.Equal(n.key, key) {
			return clone(n.value), true
		}
	}
	return nil, false
}

// Delete unlinks the entry for key. Deleting an absent key is a no-op and
// reports false.
func (t *Table) Delete(key []byte) bool {
	i := t.index(key)

	for link := &t.buckets[i]; *link != nil; link = &(*link).next {
		if bytes.Equal((*link).key, key) {
			*link = (*link).next
			t.count--
			return true
		}
	}
	return false
}

// Len returns the number of entries in the table
func (t *Table) Len() int {
	return t.count
}

// Size returns the bucket count
func (t *Table) Size() int {
	return len(t.buckets)
}

// ChainLen returns the number of entries in bucket i
func (t *Table) ChainLen(i int) int {
	n := 0
	for cur := t.buckets[i]; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// Walk calls fn once per bucket, in bucket order, with the bucket's entries
// front to back. Empty buckets are passed a nil chain. The entries alias
// table memory and must not be modified or retained.
func (t *Table) Walk(fn func(bucket int, chain []Entry)) {
	for i, head := range t.buckets {
		var chain []Entry
		for n := head; n != nil; n = n.next {
			chain = append(chain, Entry{Key: n.key, Value: n.value})
		}
		fn(i, chain)
	}
}

// Clear releases every entry. The table stays usable with the same size.
func (t *Table) Clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.count = 0
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
