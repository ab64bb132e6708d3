// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/kv"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/state"
)

// brokenStore fails every batch write while reads keep working.
type brokenStore struct {
	kv.GetPutter
}

func (s *brokenStore) NewBatch() kv.Batch {
	return &brokenBatch{s.GetPutter.NewBatch()}
}

type brokenBatch struct {
	kv.Batch
}

func (b *brokenBatch) Write() error {
	return assert.AnError
}

func TestStateCheckpointRevert(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	st := state.New(db)
	addr := cnu.BytesToAddress([]byte("contract"))
	slot := cnu.BytesToBytes32([]byte("slot"))

	st.SetRaw(addr, slot, []byte("v1"))

	rev := st.NewCheckpoint()
	st.SetRaw(addr, slot, []byte("v2"))

	v, err := st.GetRaw(addr, slot)
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), v)

	st.RevertTo(rev)
	v, _ = st.GetRaw(addr, slot)
	assert.Equal(t, []byte("v1"), v)
}

func TestStateCommitAndReload(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	addr := cnu.BytesToAddress([]byte("contract"))
	slotA := cnu.BytesToBytes32([]byte("a"))
	slotB := cnu.BytesToBytes32([]byte("b"))

	st := state.New(db)
	st.SetRaw(addr, slotA, []byte("keep"))
	st.SetRaw(addr, slotB, []byte("drop"))
	st.SetRaw(addr, slotB, nil) // cleared before commit
	require.Nil(t, st.Commit())

	// fresh state over the same store
	st2 := state.New(db)
	v, err := st2.GetRaw(addr, slotA)
	assert.Nil(t, err)
	assert.Equal(t, []byte("keep"), v)

	v, err = st2.GetRaw(addr, slotB)
	assert.Nil(t, err)
	assert.Empty(t, v)
}

func TestStateRevertedChangesNotCommitted(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	addr := cnu.BytesToAddress([]byte("contract"))
	slot := cnu.BytesToBytes32([]byte("slot"))

	st := state.New(db)
	st.SetRaw(addr, slot, []byte("committed"))

	rev := st.NewCheckpoint()
	st.SetRaw(addr, slot, []byte("aborted"))
	st.RevertTo(rev)

	require.Nil(t, st.Commit())

	st2 := state.New(db)
	v, _ := st2.GetRaw(addr, slot)
	assert.Equal(t, []byte("committed"), v)
}

func TestStateFailedCommitKeepsReadsConsistent(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	addr := cnu.BytesToAddress([]byte("contract"))
	slot := cnu.BytesToBytes32([]byte("slot"))

	seed := state.New(db)
	seed.SetRaw(addr, slot, []byte("old"))
	require.Nil(t, seed.Commit())

	st := state.New(&brokenStore{db})
	rev := st.NewCheckpoint()
	st.SetRaw(addr, slot, []byte("new"))
	assert.Error(t, st.Commit())

	// the caller aborts the attempt, reads must fall back to the store
	st.RevertTo(rev)
	v, err := st.GetRaw(addr, slot)
	assert.Nil(t, err)
	assert.Equal(t, []byte("old"), v)
}
