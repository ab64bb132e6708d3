// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package splitbuy

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var (
	splitAddr    = cnu.BytesToAddress([]byte("split-buy"))
	ownerAddr    = cnu.BytesToAddress([]byte("owner"))
	devAddr      = cnu.BytesToAddress([]byte("dev"))
	holdingsAddr = cnu.BytesToAddress([]byte("holdings"))
	assetAddr    = cnu.BytesToAddress([]byte("token"))
	payerAddr    = cnu.BytesToAddress([]byte("payer"))
)

type fakeLedger struct {
	balances map[cnu.Address]*big.Int
	onPay    func(env *runtime.Env) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[cnu.Address]*big.Int)}
}

func (l *fakeLedger) balance(addr cnu.Address) *big.Int {
	if b, ok := l.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (l *fakeLedger) credit(addr cnu.Address, amount *big.Int) {
	l.balances[addr] = new(big.Int).Add(l.balance(addr), amount)
}

func (l *fakeLedger) Transfer(env *runtime.Env, from, to cnu.Address, amount *big.Int) error {
	if l.onPay != nil {
		return l.onPay(env)
	}
	if l.balance(from).Cmp(amount) < 0 {
		return assert.AnError
	}
	l.balances[from] = new(big.Int).Sub(l.balance(from), amount)
	l.credit(to, amount)
	return nil
}

func newTestSplit(t *testing.T) (*runtime.Runtime, *SplitBuy, *fakeLedger) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	rt := runtime.New(st)
	split := New(splitAddr, st)
	ledger := newFakeLedger()
	split.SetAssetResolver(func(asset cnu.Address) (Ledger, bool) {
		if asset == assetAddr {
			return ledger, true
		}
		return nil, false
	})
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		if err := split.Initialize(env, ownerAddr, devAddr, holdingsAddr); err != nil {
			return err
		}
		return split.SetAllowedAsset(env, ownerAddr, assetAddr, true)
	}))
	return rt, split, ledger
}

func TestPaySplitsShares(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	ledger.credit(payerAddr, big.NewInt(10000))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(10000))
	}))

	assert.Equal(t, int64(2000), ledger.balance(devAddr).Int64())
	assert.Equal(t, int64(8000), ledger.balance(holdingsAddr).Int64())

	count, err := split.PaymentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestPayRoundingDustToHoldings(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	ledger.credit(payerAddr, big.NewInt(9))

	// 20% of 9 rounds down to 1, the 8 remainder goes to holdings
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(9))
	}))
	assert.Equal(t, int64(1), ledger.balance(devAddr).Int64())
	assert.Equal(t, int64(8), ledger.balance(holdingsAddr).Int64())
}

func TestPayRejections(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	ledger.credit(payerAddr, big.NewInt(100))

	err := rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(0))
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	other := cnu.BytesToAddress([]byte("other-asset"))
	err = rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", other, big.NewInt(100))
	})
	assert.ErrorIs(t, err, ErrAssetNotAllowed)

	// delisted asset is rejected again
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return split.SetAllowedAsset(env, ownerAddr, assetAddr, false)
	}))
	err = rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(100))
	})
	assert.ErrorIs(t, err, ErrAssetNotAllowed)
}

func TestPayTransferFailure(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	// payer has nothing, the dev share transfer fails
	err := rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(10000))
	})
	assert.ErrorIs(t, err, ErrDevTransferFailed)

	// the payment count increment was rolled back with the rest
	count, err := split.PaymentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, int64(0), ledger.balance(devAddr).Int64())
}

func TestInitializeOnce(t *testing.T) {
	rt, split, _ := newTestSplit(t)

	err := rt.Execute(func(env *runtime.Env) error {
		return split.Initialize(env, payerAddr, devAddr, holdingsAddr)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	owner, err := split.Owner()
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, owner)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	rt2 := runtime.New(st)
	fresh := New(splitAddr, st)
	err = rt2.Execute(func(env *runtime.Env) error {
		return fresh.Initialize(env, ownerAddr, cnu.Address{}, holdingsAddr)
	})
	assert.ErrorIs(t, err, ErrInvalidDevWallet)
	err = rt2.Execute(func(env *runtime.Env) error {
		return fresh.Initialize(env, ownerAddr, devAddr, cnu.Address{})
	})
	assert.ErrorIs(t, err, ErrInvalidHoldingsWallet)
}

func TestPayReentrancy(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	ledger.credit(payerAddr, big.NewInt(10000))
	var nested error
	ledger.onPay = func(env *runtime.Env) error {
		nested = split.Pay(env, payerAddr, "nested", assetAddr, big.NewInt(1))
		return nested
	}

	err := rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(10000))
	})
	assert.ErrorIs(t, nested, ErrReentrancy)
	assert.ErrorIs(t, err, ErrDevTransferFailed)
}

func TestSetRecipients(t *testing.T) {
	rt, split, ledger := newTestSplit(t)
	ledger.credit(payerAddr, big.NewInt(10000))

	err := rt.Execute(func(env *runtime.Env) error {
		return split.SetRecipients(env, payerAddr, devAddr, holdingsAddr)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = rt.Execute(func(env *runtime.Env) error {
		return split.SetRecipients(env, ownerAddr, cnu.Address{}, holdingsAddr)
	})
	assert.ErrorIs(t, err, ErrInvalidDevWallet)

	dev2 := cnu.BytesToAddress([]byte("dev-2"))
	holdings2 := cnu.BytesToAddress([]byte("holdings-2"))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return split.SetRecipients(env, ownerAddr, dev2, holdings2)
	}))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return split.Pay(env, payerAddr, "order-1", assetAddr, big.NewInt(10000))
	}))
	assert.Equal(t, int64(2000), ledger.balance(dev2).Int64())
	assert.Equal(t, int64(8000), ledger.balance(holdings2).Int64())
	assert.Equal(t, int64(0), ledger.balance(devAddr).Int64())
}
