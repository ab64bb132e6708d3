// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides revertible keyed storage for native contracts.
package state

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/kv"
	"github.com/companion-network/cnu/stackedmap"
)

const readCacheSize = 2048

// StorageKey locates a storage slot of a contract.
type StorageKey struct {
	Addr cnu.Address
	Slot cnu.Bytes32
}

// persistentKey derives the backing kv key of a storage slot.
func (k StorageKey) persistentKey() []byte {
	return cnu.Blake2b(k.Addr.Bytes(), k.Slot.Bytes()).Bytes()
}

// State manages contract storage with checkpoint/revert semantics.
// All mutations stay in memory until Commit.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap[StorageKey, []byte]
	cache *lru.Cache // raw values read from store
}

// New creates a state backed by the given kv store.
func New(store kv.GetPutter) *State {
	cache, _ := lru.New(readCacheSize)
	st := &State{store: store, cache: cache}
	st.sm = stackedmap.New[StorageKey, []byte](st.load)
	st.sm.Push() // base level, never popped
	return st
}

func (st *State) load(key StorageKey) ([]byte, bool, error) {
	pk := key.persistentKey()
	if v, ok := st.cache.Get(string(pk)); ok {
		return v.([]byte), true, nil
	}
	v, err := st.store.Get(pk)
	if err != nil {
		if st.store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "state load")
	}
	st.cache.Add(string(pk), v)
	return v, true, nil
}

// GetRaw returns the raw value stored at (addr, slot).
// A nil or empty slice means the slot is unset.
func (st *State) GetRaw(addr cnu.Address, slot cnu.Bytes32) ([]byte, error) {
	v, _, err := st.sm.Get(StorageKey{addr, slot})
	return v, err
}

// SetRaw stores the raw value at (addr, slot). Empty value clears the slot.
func (st *State) SetRaw(addr cnu.Address, slot cnu.Bytes32, val []byte) {
	st.sm.Put(StorageKey{addr, slot}, val)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (st *State) NewCheckpoint() int {
	return st.sm.Push()
}

// RevertTo reverts state to given revision.
func (st *State) RevertTo(revision int) {
	st.sm.PopTo(revision)
}

// Commit writes all changes into the backing store through a batch
// and resets the in-memory journal. The state stays usable afterwards.
func (st *State) Commit() error {
	batch := st.store.NewBatch()
	// last-wins replay of the journal
	final := make(map[StorageKey][]byte)
	st.sm.Journal(func(key StorageKey, val []byte) bool {
		final[key] = val
		return true
	})
	for key, val := range final {
		pk := key.persistentKey()
		if len(val) == 0 {
			if err := batch.Delete(pk); err != nil {
				return errors.Wrap(err, "state commit")
			}
			continue
		}
		if err := batch.Put(pk, val); err != nil {
			return errors.Wrap(err, "state commit")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "state commit")
	}
	// refresh the read cache only once the batch has landed, a failed
	// write must leave cached reads matching the store
	for key, val := range final {
		pk := string(key.persistentKey())
		if len(val) == 0 {
			st.cache.Remove(pk)
		} else {
			st.cache.Add(pk, val)
		}
	}
	// changes are persisted, start over with an empty journal
	st.sm = stackedmap.New[StorageKey, []byte](st.load)
	st.sm.Push()
	return nil
}
