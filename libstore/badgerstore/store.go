// Package badgerstore persists edge indices in a badger LSM.
//
// Database format:
//
//	gStoreStateKey => storeState (version + put counter)
//
//	layout (byte), edgeType bytes, NUL, NUL => tensor LSM encoding
//
// The layout byte leads so data keys never collide with the reserved
// state key, and entries for one edge type sort adjacently per layout.
package badgerstore

import (
	"bytes"
	"encoding/binary"
	"runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/edgestore-go/edgestore"
	"github.com/fine-structures/edgestore-go/libstore/sparse"
)

var gStoreStateKey = []byte{0x00, 0x00, 0x01}

const (
	kMajorVers = 2024
	kMinorVers = 1
)

type storeState struct {
	MajorVers int64
	MinorVers int64
	NumPuts   int64
}

type badgerStore struct {
	readOnly   bool
	stateDirty bool
	state      storeState
	db         *badger.DB
}

// OpenStore opens a new or existing badger-backed edge index store.
// An empty DbPathName opens an in-memory (non-persistent) db.
func OpenStore(opts edgestore.StoreOpts) (edgestore.Backend, error) {
	bs := &badgerStore{
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single logical writer, not needed
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(edgestore.ErrBadStoreParam, "DbPathName must be specified for a read-only store")
		}
		dbOpts.InMemory = true
	}

	var err error
	bs.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = bs.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		bs.stateDirty = true
		bs.state.MajorVers = kMajorVers
		bs.state.MinorVers = kMinorVers
	}

	if err == nil && (bs.state.MajorVers != kMajorVers || bs.state.MinorVers != kMinorVers) {
		err = edgestore.ErrStoreVersion
	}

	if err != nil {
		bs.db.Close()
		return nil, err
	}

	if len(opts.DbPathName) == 0 {
		klog.Infof("opened in-memory edge store")
	} else {
		klog.Infof("opened edge store at %q (readOnly=%v)", opts.DbPathName, bs.readOnly)
	}
	return bs, nil
}

func (bs *badgerStore) PutEdgeIndex(tensor *edgestore.EdgeTensor, key edgestore.EdgeKey) error {
	if bs.readOnly {
		return edgestore.ErrStoreReadOnly
	}

	var keyBuf, valBuf [256]byte
	lsmKey, err := formStoreKey(keyBuf[:0], key)
	if err != nil {
		return err
	}
	lsmVal, err := sparse.AppendTensorLSM(valBuf[:0], tensor)
	if err != nil {
		return err
	}

	err = bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lsmKey, lsmVal)
	})
	if err != nil {
		return err
	}

	bs.state.NumPuts++
	bs.stateDirty = true
	return nil
}

func (bs *badgerStore) GetEdgeIndex(key edgestore.EdgeKey) (*edgestore.EdgeTensor, bool) {
	var keyBuf [256]byte
	lsmKey, err := formStoreKey(keyBuf[:0], key)
	if err != nil {
		return nil, false
	}

	var tensor *edgestore.EdgeTensor
	err = bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lsmKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tensor, err = sparse.TensorFromLSM(val)
			return err
		})
	})
	if err != nil {
		return nil, false
	}
	return tensor, true
}

func (bs *badgerStore) HasEdgeIndex(key edgestore.EdgeKey) bool {
	var keyBuf [256]byte
	lsmKey, err := formStoreKey(keyBuf[:0], key)
	if err != nil {
		return false
	}

	err = bs.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(lsmKey)
		return err
	})
	return err == nil
}

// Keys walks the LSM and decodes every data key.  Badger iterates in byte
// order, so enumeration groups by layout and then edge type.
func (bs *badgerStore) Keys() []edgestore.EdgeKey {
	var keys []edgestore.EdgeKey

	bs.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key, ok := readStoreKey(it.Item().Key())
			if ok {
				keys = append(keys, key)
			}
		}
		return nil
	})
	return keys
}

// Snapshot reads every data entry inside one View transaction, so the
// returned entries reflect a single badger read version.
func (bs *badgerStore) Snapshot() []edgestore.StoredEntry {
	var snap []edgestore.StoredEntry

	bs.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key, ok := readStoreKey(item.Key())
			if !ok {
				continue
			}
			item.Value(func(val []byte) error {
				tensor, err := sparse.TensorFromLSM(val)
				if err == nil {
					snap = append(snap, edgestore.StoredEntry{
						Key:    key,
						Tensor: tensor,
					})
				}
				return err
			})
		}
		return nil
	})
	return snap
}

func (bs *badgerStore) Close() error {
	if bs.db == nil {
		return nil
	}
	if err := bs.flushState(); err != nil {
		return err
	}
	err := bs.db.Close()
	bs.db = nil
	klog.Infof("closed edge store")
	return err
}

func (bs *badgerStore) loadState() error {
	return bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gStoreStateKey)
		if err == nil {
			item.Value(func(val []byte) error {
				return bs.state.unmarshal(val)
			})
		}
		return err
	})
}

func (bs *badgerStore) flushState() error {
	if !bs.stateDirty || bs.readOnly {
		return nil
	}
	err := bs.db.Update(func(txn *badger.Txn) error {
		var scrap [64]byte
		return txn.Set(gStoreStateKey, bs.state.marshal(scrap[:0]))
	})
	if err == nil {
		bs.stateDirty = false
	}
	return err
}

func (state *storeState) marshal(out []byte) []byte {
	var scrap [12]byte
	for _, v := range [...]int64{state.MajorVers, state.MinorVers, state.NumPuts} {
		n := binary.PutVarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	return out
}

func (state *storeState) unmarshal(val []byte) error {
	rdr := bytes.NewReader(val)
	for _, dst := range [...]*int64{&state.MajorVers, &state.MinorVers, &state.NumPuts} {
		v, err := binary.ReadVarint(rdr)
		if err != nil {
			return errors.Wrap(err, "bad store state record")
		}
		*dst = v
	}
	return nil
}

// formStoreKey appends the LSM key for the given (fully specified) EdgeKey:
// layout byte, edge type bytes, double NUL.
func formStoreKey(out []byte, key edgestore.EdgeKey) ([]byte, error) {
	if key.Layout == edgestore.LayoutNil {
		return nil, edgestore.ErrMissingLayout
	}
	if bytes.IndexByte([]byte(key.EdgeType), 0) >= 0 {
		return nil, errors.Wrap(edgestore.ErrBadStoreParam, "edge type must not contain NUL")
	}

	out = append(out, byte(key.Layout))
	out = append(out, key.EdgeType...)
	out = append(out, 0, 0)
	return out, nil
}

// readStoreKey decodes an LSM data key, returning ok == false for
// reserved (state) keys.
func readStoreKey(lsmKey []byte) (edgestore.EdgeKey, bool) {
	n := len(lsmKey)
	if n < 3 || lsmKey[n-2] != 0 || lsmKey[n-1] != 0 {
		return edgestore.EdgeKey{}, false
	}
	layout := edgestore.EdgeLayout(lsmKey[0])
	if layout == edgestore.LayoutNil || layout > edgestore.LayoutLIL {
		return edgestore.EdgeKey{}, false
	}
	return edgestore.FormEdgeKey(layout, edgestore.EdgeType(lsmKey[1:n-2])), true
}
