// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sslot provides typed storage-slot abstractions for built-in
// contracts, similar to storage variables in Solidity.
package sslot

import (
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/state"
)

// Context binds slot accessors to a contract address and its state.
type Context struct {
	address cnu.Address
	state   *state.State
}

// NewContext creates a slot context for the contract at the given address.
func NewContext(address cnu.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// Address returns the bound contract address.
func (c *Context) Address() cnu.Address {
	return c.address
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// NameToSlot derives a storage slot position from a variable name.
func NameToSlot(name string) cnu.Bytes32 {
	return cnu.BytesToBytes32([]byte(name))
}
