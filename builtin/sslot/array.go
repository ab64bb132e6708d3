// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"github.com/pkg/errors"
)

// ErrIndexOutOfRange is returned when an array access exceeds the length.
var ErrIndexOutOfRange = errors.New("index out of range")

// Array is an append-only-friendly dynamic array over storage slots.
// Length lives at the named slot, elements in a derived mapping.
type Array[V any] struct {
	length   *Value[uint64]
	elements *Mapping[Uint64Key, V]
}

// NewArray declares a dynamic array rooted at the named slot.
func NewArray[V any](context *Context, name string) *Array[V] {
	return &Array[V]{
		length:   NewValue[uint64](context, name+".length"),
		elements: NewMapping[Uint64Key, V](context, name+".elements"),
	}
}

// Len returns the number of elements.
func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

// Get loads the element at index.
func (a *Array[V]) Get(index uint64) (V, error) {
	var zero V
	n, err := a.length.Get()
	if err != nil {
		return zero, err
	}
	if index >= n {
		return zero, ErrIndexOutOfRange
	}
	return a.elements.Get(Uint64Key(index))
}

// Set overwrites the element at index.
func (a *Array[V]) Set(index uint64, value V) error {
	n, err := a.length.Get()
	if err != nil {
		return err
	}
	if index >= n {
		return ErrIndexOutOfRange
	}
	return a.elements.Set(Uint64Key(index), value)
}

// Append adds a new element at the tail and returns its index.
func (a *Array[V]) Append(value V) (uint64, error) {
	n, err := a.length.Get()
	if err != nil {
		return 0, err
	}
	if err := a.elements.Set(Uint64Key(n), value); err != nil {
		return 0, err
	}
	return n, a.length.Set(n + 1)
}

// Pop removes the tail element and returns it.
func (a *Array[V]) Pop() (V, error) {
	var zero V
	n, err := a.length.Get()
	if err != nil {
		return zero, err
	}
	if n == 0 {
		return zero, ErrIndexOutOfRange
	}
	v, err := a.elements.Get(Uint64Key(n - 1))
	if err != nil {
		return zero, err
	}
	a.elements.Clear(Uint64Key(n - 1))
	return v, a.length.Set(n - 1)
}

// All loads every element in order.
func (a *Array[V]) All() ([]V, error) {
	n, err := a.length.Get()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := a.elements.Get(Uint64Key(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
