// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store interfaces the state layer runs on.
package kv

// Getter reads kvs.
type Getter interface {
	// Get returns the value for the given key.
	// An error is returned if the key is not found. Check it via IsNotFound.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool
}

// Putter writes kvs.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error

	NewBatch() Batch
}

// GetPutter reads and writes kvs.
type GetPutter interface {
	Getter
	Putter
}

// GetPutCloser is a GetPutter that must be closed after use.
type GetPutCloser interface {
	GetPutter
	Close() error
}

// Batch accumulates write ops to be applied atomically.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error

	Len() int
	Write() error
}
