// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingvault

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
	vaultAddr   = cnu.BytesToAddress([]byte("staking-vault"))
	tokenAddr   = cnu.BytesToAddress([]byte("token"))
	ownerAddr   = cnu.BytesToAddress([]byte("owner"))
	charityAddr = cnu.BytesToAddress([]byte("charity"))
	userA       = cnu.BytesToAddress([]byte("user-a"))
	userB       = cnu.BytesToAddress([]byte("user-b"))
	userC       = cnu.BytesToAddress([]byte("user-c"))
)

// fakeLedger is an in-memory token ledger.
type fakeLedger struct {
	balances map[cnu.Address]*big.Int
	charity  cnu.Address
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[cnu.Address]*big.Int),
		charity:  charityAddr,
	}
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

func (l *fakeLedger) BalanceOf(addr cnu.Address) (*big.Int, error) {
	return new(big.Int).Set(l.balance(addr)), nil
}

func (l *fakeLedger) Transfer(_ *runtime.Env, from, to cnu.Address, amount *big.Int) error {
	if l.balance(from).Cmp(amount) < 0 {
		return assert.AnError
	}
	l.balances[from] = new(big.Int).Sub(l.balance(from), amount)
	l.credit(to, amount)
	return nil
}

func (l *fakeLedger) Address() cnu.Address {
	return tokenAddr
}

func (l *fakeLedger) CharityVault() (cnu.Address, error) {
	return l.charity, nil
}

type testClock struct {
	now uint64
}

func (c *testClock) advance(d uint64) { c.now += d }

func newTestVault(t *testing.T) (*runtime.Runtime, *StakingVault, *fakeLedger, *testClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	clock := &testClock{now: 1000}
	rt := runtime.New(st, runtime.WithClock(func() uint64 { return clock.now }))
	vault := New(vaultAddr, st)
	ledger := newFakeLedger()
	vault.SetLedger(ledger)
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Initialize(env, ownerAddr)
	}))
	return rt, vault, ledger, clock
}

func TestStakeAndClaim(t *testing.T) {
	rt, vault, ledger, clock := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))
	// rewards float for payouts
	ledger.credit(vaultAddr, big.NewInt(1000))

	var id uint64
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		var err error
		id, err = vault.Stake(env, userA, big.NewInt(10000), 1)
		return err
	}))
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, int64(0), ledger.balance(userA).Int64())
	assert.Equal(t, int64(11000), ledger.balance(vaultAddr).Int64())

	totalStaked, err := vault.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, int64(10000), totalStaked.Int64())

	// tier 1 obligation is principal plus 100 bps
	liabilities, err := vault.GetTotalLiabilities()
	require.NoError(t, err)
	assert.Equal(t, int64(10100), liabilities.Int64())

	// nothing earned one second before the unlock boundary
	earned, err := vault.Earned(userA, id, clock.now+30*cnu.Day-1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), earned.Int64())
	earned, err = vault.Earned(userA, id, clock.now+30*cnu.Day)
	require.NoError(t, err)
	assert.Equal(t, int64(100), earned.Int64())

	err = rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, id)
	})
	assert.ErrorIs(t, err, ErrStillLocked)

	clock.advance(30 * cnu.Day)
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, id)
	}))
	assert.Equal(t, int64(10100), ledger.balance(userA).Int64())

	liabilities, err = vault.GetTotalLiabilities()
	require.NoError(t, err)
	assert.Equal(t, int64(0), liabilities.Int64())

	err = rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, id)
	})
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestStakeRejections(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(1000))

	err := rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(0), 1)
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	for _, tier := range []Tier{0, MaxTier + 1} {
		err = rt.Execute(func(env *runtime.Env) error {
			_, err := vault.Stake(env, userA, big.NewInt(100), tier)
			return err
		})
		assert.ErrorIs(t, err, ErrInvalidTier)
	}

	err = rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, 7)
	})
	assert.ErrorIs(t, err, ErrInvalidStakeID)
}

func TestEarlyWithdraw(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))

	var id uint64
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		var err error
		id, err = vault.Stake(env, userA, big.NewInt(10000), 4)
		return err
	}))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.EarlyWithdraw(env, userA, id)
	}))

	// 10% penalty to charity, the rest refunded
	assert.Equal(t, int64(9000), ledger.balance(userA).Int64())
	assert.Equal(t, int64(1000), ledger.balance(charityAddr).Int64())
	assert.Equal(t, int64(0), ledger.balance(vaultAddr).Int64())

	// the stake is settled, a repeat attempt reads as claimed
	err := rt.Execute(func(env *runtime.Env) error {
		return vault.EarlyWithdraw(env, userA, id)
	})
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	err = rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, id)
	})
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestEarlyWithdrawAfterUnlock(t *testing.T) {
	rt, vault, ledger, clock := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))
	ledger.credit(vaultAddr, big.NewInt(100))

	var id uint64
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		var err error
		id, err = vault.Stake(env, userA, big.NewInt(10000), 1)
		return err
	}))

	// an elapsed lock cannot be exited at a penalty anymore
	clock.advance(31 * cnu.Day)
	err := rt.Execute(func(env *runtime.Env) error {
		return vault.EarlyWithdraw(env, userA, id)
	})
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	assert.Equal(t, int64(0), ledger.balance(userA).Int64())
	assert.Equal(t, int64(0), ledger.balance(charityAddr).Int64())

	// it claims the full payout instead
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, id)
	}))
	assert.Equal(t, int64(10100), ledger.balance(userA).Int64())
}

func TestEarlyWithdrawFinalized(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))
	// float that would have paid the reward
	ledger.credit(vaultAddr, big.NewInt(1500))

	var id uint64
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		var err error
		id, err = vault.Stake(env, userA, big.NewInt(10000), 4)
		return err
	}))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Finalize(env, tokenAddr)
	}))

	// staking a finalized vault is rejected
	ledger.credit(userB, big.NewInt(100))
	err := rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userB, big.NewInt(100), 1)
		return err
	})
	assert.ErrorIs(t, err, ErrVaultFinalized)

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.EarlyWithdraw(env, userA, id)
	}))

	// penalty plus the freed tier 4 reward go to charity
	assert.Equal(t, int64(9000), ledger.balance(userA).Int64())
	assert.Equal(t, int64(1000+1500), ledger.balance(charityAddr).Int64())
	assert.Equal(t, int64(0), ledger.balance(vaultAddr).Int64())
}

func TestStakerSet(t *testing.T) {
	rt, vault, ledger, clock := newTestVault(t)
	for _, user := range []cnu.Address{userA, userB, userC} {
		ledger.credit(user, big.NewInt(1000))
		require.NoError(t, rt.Execute(func(env *runtime.Env) error {
			_, err := vault.Stake(env, user, big.NewInt(1000), 1)
			return err
		}))
	}
	ledger.credit(vaultAddr, big.NewInt(100))

	stakers, err := vault.AllStakers()
	require.NoError(t, err)
	assert.Equal(t, []cnu.Address{userA, userB, userC}, stakers)

	// second stake by an existing staker does not duplicate the entry
	ledger.credit(userA, big.NewInt(500))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(500), 2)
		return err
	}))
	count, err := vault.StakerCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// userB exits fully, the tail entry takes its slot
	clock.advance(30 * cnu.Day)
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userB, 0)
	}))
	stakers, err = vault.AllStakers()
	require.NoError(t, err)
	assert.Equal(t, []cnu.Address{userA, userC}, stakers)

	isStaker, err := vault.IsStaker(userB)
	require.NoError(t, err)
	assert.False(t, isStaker)
	isStaker, err = vault.IsStaker(userC)
	require.NoError(t, err)
	assert.True(t, isStaker)

	// userA still holds an active tier 2 stake after claiming the first
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Claim(env, userA, 0)
	}))
	isStaker, err = vault.IsStaker(userA)
	require.NoError(t, err)
	assert.True(t, isStaker)
}

func TestUserSummary(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(30000))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		if _, err := vault.Stake(env, userA, big.NewInt(10000), 1); err != nil {
			return err
		}
		_, err := vault.Stake(env, userA, big.NewInt(20000), 3)
		return err
	}))

	summary, err := vault.GetUserSummary(userA)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), summary.Staked.Int64())
	// 100 bps of 10000 plus 700 bps of 20000, owed in full from day one
	assert.Equal(t, int64(100+1400), summary.Rewards.Int64())

	owed, err := vault.GetUserOwed(userA)
	require.NoError(t, err)
	assert.Equal(t, int64(31500), owed.Int64())

	// an exited stake drops out of the summary
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.EarlyWithdraw(env, userA, 0)
	}))
	summary, err = vault.GetUserSummary(userA)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), summary.Staked.Int64())
	assert.Equal(t, int64(1400), summary.Rewards.Int64())
}

func TestPauseAndUnpause(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(1000))

	err := rt.Execute(func(env *runtime.Env) error {
		return vault.Pause(env, userA)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Pause(env, ownerAddr)
	}))
	err = rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(1000), 1)
		return err
	})
	assert.ErrorIs(t, err, ErrStakingPaused)

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.Unpause(env, ownerAddr)
	}))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(1000), 1)
		return err
	}))
}

func TestMigrateRetainsLiabilities(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(10000), 2)
		return err
	}))
	// rewards float beyond what active stakes are owed
	ledger.credit(vaultAddr, big.NewInt(1000))

	newVault := cnu.BytesToAddress([]byte("staking-vault-2"))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.MigrateTo(env, tokenAddr, newVault)
	}))

	// principal 10000 plus 300 bps reward stays, only the 700 surplus moves
	assert.Equal(t, int64(10300), ledger.balance(vaultAddr).Int64())
	assert.Equal(t, int64(700), ledger.balance(newVault).Int64())
}

func TestMigrateNoSurplus(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(userA, big.NewInt(10000))

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		_, err := vault.Stake(env, userA, big.NewInt(10000), 2)
		return err
	}))

	newVault := cnu.BytesToAddress([]byte("staking-vault-2"))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.MigrateTo(env, tokenAddr, newVault)
	}))

	// balance is short of liabilities, nothing moves
	assert.Equal(t, int64(10000), ledger.balance(vaultAddr).Int64())
	assert.Equal(t, int64(0), ledger.balance(newVault).Int64())
}

func TestRewardsReceived(t *testing.T) {
	rt, vault, _, _ := newTestVault(t)

	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.ReceiveFee(env, tokenAddr, big.NewInt(500))
	}))
	require.NoError(t, rt.Execute(func(env *runtime.Env) error {
		return vault.ReceiveFee(env, tokenAddr, big.NewInt(300))
	}))

	received, err := vault.RewardsReceived()
	require.NoError(t, err)
	assert.Equal(t, int64(800), received.Int64())
}

func TestTokenOnlyHooks(t *testing.T) {
	rt, vault, ledger, _ := newTestVault(t)
	ledger.credit(vaultAddr, big.NewInt(5000))
	attacker := cnu.BytesToAddress([]byte("attacker"))

	err := rt.Execute(func(env *runtime.Env) error {
		return vault.ReceiveFee(env, attacker, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = rt.Execute(func(env *runtime.Env) error {
		return vault.MigrateTo(env, attacker, attacker)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(5000), ledger.balance(vaultAddr).Int64())
	assert.Equal(t, int64(0), ledger.balance(attacker).Int64())

	// the vault owner is not the token either
	err = rt.Execute(func(env *runtime.Env) error {
		return vault.Finalize(env, ownerAddr)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	finalized, err := vault.Finalized()
	require.NoError(t, err)
	assert.False(t, finalized)
}
