// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pricefeed

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/state"
)

func newTestFeed(t *testing.T) *Settable {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(cnu.BytesToAddress([]byte("feed")), state.New(db))
}

func TestUnsetFeed(t *testing.T) {
	feed := newTestFeed(t)

	has, err := feed.HasPrice()
	require.NoError(t, err)
	assert.False(t, has)

	price, err := feed.LatestPrice()
	require.NoError(t, err)
	assert.Equal(t, int64(0), price.Int64())
}

func TestSetPriceRoundTrip(t *testing.T) {
	feed := newTestFeed(t)

	for _, quote := range []*big.Int{
		big.NewInt(1),
		cnu.WeiPerToken,
		big.NewInt(0),
		big.NewInt(-42),
	} {
		require.NoError(t, feed.SetPrice(quote))
		got, err := feed.LatestPrice()
		require.NoError(t, err)
		assert.Equal(t, quote.String(), got.String())
	}

	has, err := feed.HasPrice()
	require.NoError(t, err)
	assert.True(t, has)
}
