// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/companion-network/cnu/cnu"
)

// Value is a single RLP-encoded storage variable.
type Value[V any] struct {
	context *Context
	slot    cnu.Bytes32
}

// NewValue declares a storage variable with the given name.
func NewValue[V any](context *Context, name string) *Value[V] {
	return &Value[V]{context: context, slot: NameToSlot(name)}
}

// Get loads the variable. An unset slot yields the zero value.
func (v *Value[V]) Get() (value V, err error) {
	raw, err := v.context.state.GetRaw(v.context.address, v.slot)
	if err != nil {
		return value, err
	}
	return decode[V](raw)
}

// Set stores the variable.
func (v *Value[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	v.context.state.SetRaw(v.context.address, v.slot, raw)
	return nil
}

// Clear unsets the slot.
func (v *Value[V]) Clear() {
	v.context.state.SetRaw(v.context.address, v.slot, nil)
}

func decode[V any](raw []byte) (value V, err error) {
	if reflect.ValueOf(value).Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	if len(raw) == 0 {
		return value, nil
	}
	err = rlp.DecodeBytes(raw, &value)
	return
}
