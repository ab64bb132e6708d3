// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/companion-network/cnu/cnu"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// Uint64Key adapts an integer index into a mapping key.
type Uint64Key uint64

// Bytes implements Key.
func (k Uint64Key) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Mapping is a key/value storage abstraction for built-in contracts,
// similar to the mapping in Solidity.
type Mapping[K Key, V any] struct {
	context *Context
	basePos cnu.Bytes32
}

// NewMapping declares a mapping rooted at the named slot.
func NewMapping[K Key, V any](context *Context, name string) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: NameToSlot(name)}
}

func (m *Mapping[K, V]) position(key K) cnu.Bytes32 {
	return cnu.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get loads the value stored under key. An unset entry yields the zero value.
func (m *Mapping[K, V]) Get(key K) (V, error) {
	raw, err := m.context.state.GetRaw(m.context.address, m.position(key))
	if err != nil {
		var zero V
		return zero, err
	}
	return decode[V](raw)
}

// Has reports whether key holds a non-empty entry.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.state.GetRaw(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Set stores the value under key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.context.state.SetRaw(m.context.address, m.position(key), raw)
	return nil
}

// Clear unsets the entry under key.
func (m *Mapping[K, V]) Clear(key K) {
	m.context.state.SetRaw(m.context.address, m.position(key), nil)
}
