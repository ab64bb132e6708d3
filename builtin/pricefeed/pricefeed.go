// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pricefeed defines the token/USD price oracle surface and a
// settable feed used for development and tests.
package pricefeed

import (
	"math/big"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/state"
)

// Feed reports the token price in USD with 18 decimals.
// Consumers must reject non-positive prices themselves.
type Feed interface {
	LatestPrice() (*big.Int, error)
}

// priceRecord carries the sign separately so negative quotes survive encoding.
type priceRecord struct {
	Neg bool
	Abs *big.Int
}

// Settable is a state-backed feed whose price can be set at will.
type Settable struct {
	addr  cnu.Address
	price *sslot.Value[*priceRecord]
	set   *sslot.Value[bool]
}

var _ Feed = (*Settable)(nil)

// New creates a settable feed bound to its address and state.
func New(addr cnu.Address, st *state.State) *Settable {
	ctx := sslot.NewContext(addr, st)
	return &Settable{
		addr:  addr,
		price: sslot.NewValue[*priceRecord](ctx, "price"),
		set:   sslot.NewValue[bool](ctx, "price-set"),
	}
}

// Address returns the feed address.
func (f *Settable) Address() cnu.Address {
	return f.addr
}

// SetPrice stores a quote. Zero and negative values are stored as-is so
// consumer-side validation can be exercised.
func (f *Settable) SetPrice(price *big.Int) error {
	rec := &priceRecord{Neg: price.Sign() < 0, Abs: new(big.Int).Abs(price)}
	if err := f.price.Set(rec); err != nil {
		return err
	}
	return f.set.Set(true)
}

// LatestPrice returns the stored quote.
func (f *Settable) LatestPrice() (*big.Int, error) {
	rec, err := f.price.Get()
	if err != nil {
		return nil, err
	}
	if rec.Abs == nil {
		rec.Abs = new(big.Int)
	}
	price := new(big.Int).Set(rec.Abs)
	if rec.Neg {
		price.Neg(price)
	}
	return price, nil
}

// HasPrice reports whether a quote has ever been stored.
func (f *Settable) HasPrice() (bool, error) {
	return f.set.Get()
}
