package libstore

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/fine-structures/edgestore-go/edgestore"
)

// memStore is an in-memory Backend: a red-black tree ordered by
// (edge type, layout), so Keys() enumerates deterministically.
//
// Reads run concurrently; writes are serialized, last-writer-wins.
type memStore struct {
	mu   sync.RWMutex
	tree *redblacktree.Tree
}

// NewMemStore returns an empty in-memory Backend.
func NewMemStore() edgestore.Backend {
	return &memStore{
		tree: redblacktree.NewWith(func(a, b interface{}) int {
			ka := a.(edgestore.EdgeKey)
			kb := b.(edgestore.EdgeKey)
			if ka.EdgeType != kb.EdgeType {
				if ka.EdgeType < kb.EdgeType {
					return -1
				}
				return 1
			}
			return int(ka.Layout) - int(kb.Layout)
		}),
	}
}

func (ms *memStore) PutEdgeIndex(tensor *edgestore.EdgeTensor, key edgestore.EdgeKey) error {
	ms.mu.Lock()
	ms.tree.Put(key, tensor)
	ms.mu.Unlock()
	return nil
}

func (ms *memStore) GetEdgeIndex(key edgestore.EdgeKey) (*edgestore.EdgeTensor, bool) {
	ms.mu.RLock()
	val, found := ms.tree.Get(key)
	ms.mu.RUnlock()
	if !found {
		return nil, false
	}
	return val.(*edgestore.EdgeTensor), true
}

func (ms *memStore) HasEdgeIndex(key edgestore.EdgeKey) bool {
	ms.mu.RLock()
	_, found := ms.tree.Get(key)
	ms.mu.RUnlock()
	return found
}

func (ms *memStore) Keys() []edgestore.EdgeKey {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keys := make([]edgestore.EdgeKey, 0, ms.tree.Size())
	for _, k := range ms.tree.Keys() {
		keys = append(keys, k.(edgestore.EdgeKey))
	}
	return keys
}

// Snapshot walks the tree under one read lock, so the returned entries are
// a consistent cut of the store.
func (ms *memStore) Snapshot() []edgestore.StoredEntry {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	snap := make([]edgestore.StoredEntry, 0, ms.tree.Size())
	it := ms.tree.Iterator()
	for it.Next() {
		snap = append(snap, edgestore.StoredEntry{
			Key:    it.Key().(edgestore.EdgeKey),
			Tensor: it.Value().(*edgestore.EdgeTensor),
		})
	}
	return snap
}

func (ms *memStore) Close() error {
	ms.mu.Lock()
	ms.tree.Clear()
	ms.mu.Unlock()
	return nil
}
