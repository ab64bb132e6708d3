// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accessgating

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companion-network/cnu/builtin/pricefeed"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var (
	gateAddr  = cnu.BytesToAddress([]byte("gate"))
	ownerAddr = cnu.BytesToAddress([]byte("owner"))
	userAddr  = cnu.BytesToAddress([]byte("user"))
	vaultA    = cnu.BytesToAddress([]byte("staking-1"))
	vaultB    = cnu.BytesToAddress([]byte("staking-2"))
)

type fakeToken struct {
	balances map[cnu.Address]*big.Int
	history  []cnu.Address
}

func (f *fakeToken) BalanceOf(addr cnu.Address) (*big.Int, error) {
	if b, ok := f.balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeToken) StakingVaultHistory() ([]cnu.Address, error) {
	return f.history, nil
}

type fakeFeed struct {
	price *big.Int
}

func (f *fakeFeed) LatestPrice() (*big.Int, error) {
	return new(big.Int).Set(f.price), nil
}

type fakeStakingView struct {
	owed map[cnu.Address]*big.Int
}

func (f *fakeStakingView) GetUserOwed(user cnu.Address) (*big.Int, error) {
	if o, ok := f.owed[user]; ok {
		return new(big.Int).Set(o), nil
	}
	return new(big.Int), nil
}

func usd(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), cnu.WeiPerToken)
}

type testGate struct {
	rt    *runtime.Runtime
	gate  *AccessGating
	token *fakeToken
	feed  *fakeFeed
	views map[cnu.Address]*fakeStakingView
	feeds map[cnu.Address]*fakeFeed
}

func newTestGate(t *testing.T) (*runtime.Runtime, *AccessGating, *fakeToken, *fakeFeed, map[cnu.Address]*fakeStakingView) {
	g := newTestGateFull(t)
	return g.rt, g.gate, g.token, g.feed, g.views
}

func newTestGateFull(t *testing.T) *testGate {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	rt := runtime.New(st)
	gate := New(gateAddr, st)

	token := &fakeToken{
		balances: make(map[cnu.Address]*big.Int),
		history:  []cnu.Address{vaultA},
	}
	feed := &fakeFeed{price: new(big.Int).Set(cnu.WeiPerToken)} // $1
	views := map[cnu.Address]*fakeStakingView{
		vaultA: {owed: make(map[cnu.Address]*big.Int)},
	}
	feeds := make(map[cnu.Address]*fakeFeed)
	gate.Wire(token, feed, func(addr cnu.Address) (StakingView, bool) {
		v, ok := views[addr]
		return v, ok
	}, func(addr cnu.Address) (pricefeed.Feed, bool) {
		f, ok := feeds[addr]
		return f, ok
	})
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return gate.Initialize(env, ownerAddr)
	}))
	return &testGate{rt: rt, gate: gate, token: token, feed: feed, views: views, feeds: feeds}
}

func TestDefaultThresholds(t *testing.T) {
	_, gate, _, _, _ := newTestGate(t)

	expected := map[uint8]*big.Int{
		1: big.NewInt(1),
		2: usd(100),
		3: usd(500),
		4: usd(1000),
		5: usd(10000),
	}
	for tier, want := range expected {
		got, err := gate.Threshold(tier)
		require.NoError(t, err)
		assert.Equal(t, 0, want.Cmp(got), "tier %d", tier)
	}

	_, err := gate.Threshold(0)
	assert.ErrorIs(t, err, ErrInvalidTier)
	_, err = gate.Threshold(6)
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestSetThreshold(t *testing.T) {
	rt, gate, _, _, _ := newTestGate(t)

	err := rt.Execute(func(env *runtime.Env) error {
		return gate.SetThreshold(env, userAddr, 3, usd(600))
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// tier 1 is fixed, tier 0 does not exist
	for _, tier := range []uint8{0, 1, 6} {
		err = rt.Execute(func(env *runtime.Env) error {
			return gate.SetThreshold(env, ownerAddr, tier, usd(50))
		})
		assert.ErrorIs(t, err, ErrInvalidTier)
	}

	// must stay strictly between the neighbor tiers
	err = rt.Execute(func(env *runtime.Env) error {
		return gate.SetThreshold(env, ownerAddr, 3, usd(100))
	})
	assert.ErrorIs(t, err, ErrThresholdTooLow)
	err = rt.Execute(func(env *runtime.Env) error {
		return gate.SetThreshold(env, ownerAddr, 3, usd(1000))
	})
	assert.ErrorIs(t, err, ErrThresholdTooHigh)

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return gate.SetThreshold(env, ownerAddr, 3, usd(750))
	}))
	got, err := gate.Threshold(3)
	require.NoError(t, err)
	assert.Equal(t, 0, usd(750).Cmp(got))

	// the top tier has no upper neighbor
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return gate.SetThreshold(env, ownerAddr, 5, usd(50000))
	}))
}

func TestGetUSD(t *testing.T) {
	_, gate, _, feed, _ := newTestGate(t)

	// $2 per token
	feed.price = new(big.Int).Mul(big.NewInt(2), cnu.WeiPerToken)
	value, err := gate.GetUSD(cnu.ToWei(50))
	require.NoError(t, err)
	assert.Equal(t, 0, usd(100).Cmp(value))

	feed.price = big.NewInt(0)
	_, err = gate.GetUSD(cnu.ToWei(50))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	feed.price = big.NewInt(-5)
	_, err = gate.GetUSD(cnu.ToWei(50))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestGetTierBoundaries(t *testing.T) {
	_, gate, token, _, _ := newTestGate(t)

	// empty wallet is tier 0
	tier, err := gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), tier)

	// a single wei of value admits tier 1
	token.balances[userAddr] = big.NewInt(1)
	tier, err = gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), tier)

	// exactly $100 reaches tier 2
	token.balances[userAddr] = cnu.ToWei(100)
	tier, err = gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), tier)

	// a wei short of $500 stays tier 2
	token.balances[userAddr] = new(big.Int).Sub(cnu.ToWei(500), big.NewInt(1))
	tier, err = gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), tier)

	token.balances[userAddr] = cnu.ToWei(10000)
	tier, err = gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), tier)
}

func TestStakedHoldingsCount(t *testing.T) {
	_, gate, token, _, views := newTestGate(t)

	token.balances[userAddr] = cnu.ToWei(50)
	views[vaultA].owed[userAddr] = cnu.ToWei(60)

	// $50 wallet plus $60 owed by the vault crosses the $100 tier
	value, err := gate.GetUserUSD(userAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, usd(110).Cmp(value))

	tier, err := gate.GetTier(userAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), tier)
}

func TestStakedOwedAcrossHistory(t *testing.T) {
	_, gate, token, _, views := newTestGate(t)

	views[vaultB] = &fakeStakingView{owed: map[cnu.Address]*big.Int{
		userAddr: cnu.ToWei(300),
	}}
	views[vaultA].owed[userAddr] = cnu.ToWei(200)

	// a vault rotated out and back in counts once
	token.history = []cnu.Address{vaultA, vaultB, vaultA}

	owed, err := gate.GetUserStakedOwed(userAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, cnu.ToWei(500).Cmp(owed))

	// unknown vaults in the history are skipped
	token.history = append(token.history, cnu.BytesToAddress([]byte("gone")))
	owed, err = gate.GetUserStakedOwed(userAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, cnu.ToWei(500).Cmp(owed))
}

func TestSetPriceFeed(t *testing.T) {
	g := newTestGateFull(t)
	g.token.balances[userAddr] = cnu.ToWei(100)

	feedAddr := cnu.BytesToAddress([]byte("feed-2"))
	// $5 per token on the replacement feed
	g.feeds[feedAddr] = &fakeFeed{price: new(big.Int).Mul(big.NewInt(5), cnu.WeiPerToken)}

	err := g.rt.Execute(func(env *runtime.Env) error {
		return g.gate.SetPriceFeed(env, userAddr, feedAddr)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = g.rt.Execute(func(env *runtime.Env) error {
		return g.gate.SetPriceFeed(env, ownerAddr, cnu.Address{})
	})
	assert.ErrorIs(t, err, ErrInvalidFeed)

	err = g.rt.Execute(func(env *runtime.Env) error {
		return g.gate.SetPriceFeed(env, ownerAddr, cnu.BytesToAddress([]byte("nowhere")))
	})
	assert.ErrorIs(t, err, ErrInvalidFeed)

	// until the owner points elsewhere the wired default quotes $1
	value, err := g.gate.GetUserUSD(userAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, usd(100).Cmp(value))

	require.NoError(t, g.rt.Execute(func(env *runtime.Env) error {
		return g.gate.SetPriceFeed(env, ownerAddr, feedAddr)
	}))
	stored, err := g.gate.PriceFeed()
	require.NoError(t, err)
	assert.Equal(t, feedAddr, stored)

	value, err = g.gate.GetUserUSD(userAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, usd(500).Cmp(value))
}

func TestHasAccess(t *testing.T) {
	_, gate, token, _, _ := newTestGate(t)
	token.balances[userAddr] = cnu.ToWei(600)

	granted, err := gate.HasAccess(userAddr, 3)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = gate.HasAccess(userAddr, 4)
	require.NoError(t, err)
	assert.False(t, granted)
}
