package repository

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultIndexSize bounds the number of entities whose open row is cached
const DefaultIndexSize = 1024

// rowRef locates the open interval of one entity
type rowRef struct {
	RowID int64
	From  uint32
}

// lastRowIndex maps entity -> rowid of its most recently inserted interval.
// A miss is never an error: callers fall back to the table lookup.
type lastRowIndex struct {
	cache *lru.Cache[string, rowRef]
}

func newLastRowIndex(size int) *lastRowIndex {
	if size <= 0 {
		size = DefaultIndexSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, rowRef](size)
	return &lastRowIndex{cache: cache}
}

func (i *lastRowIndex) get(entity string) (rowRef, bool) {
	return i.cache.Get(entity)
}

func (i *lastRowIndex) put(entity string, ref rowRef) {
	i.cache.Add(entity, ref)
}

func (i *lastRowIndex) forget(entity string) {
	i.cache.Remove(entity)
}

func (i *lastRowIndex) len() int {
	return i.cache.Len()
}

// pendingIndex buffers index updates made inside a transaction so they
// become visible to other callers only after commit
type pendingIndex struct {
	shared  *lastRowIndex
	updates map[string]rowRef
}

func newPendingIndex(shared *lastRowIndex) *pendingIndex {
	return &pendingIndex{shared: shared, updates: make(map[string]rowRef)}
}

func (p *pendingIndex) get(entity string) (rowRef, bool) {
	if ref, ok := p.updates[entity]; ok {
		return ref, true
	}
	return p.shared.get(entity)
}

func (p *pendingIndex) put(entity string, ref rowRef) {
	p.updates[entity] = ref
}

func (p *pendingIndex) forget(entity string) {
	delete(p.updates, entity)
	p.shared.forget(entity)
}

func (p *pendingIndex) publish() {
	for entity, ref := range p.updates {
		p.shared.put(entity, ref)
	}
	clear(p.updates)
}
