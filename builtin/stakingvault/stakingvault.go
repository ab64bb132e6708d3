// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakingvault implements tiered token lock-ups. Stakers commit an
// amount for a tier's duration and collect the tier reward after the lock
// elapses, funded by the fee stream the token routes into the vault.
package stakingvault

import (
	"math/big"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var (
	logger = log.WithContext("pkg", "stakingvault")

	metricStakes    = metrics.LazyLoadCounterVec("stakes_total", []string{"tier"})
	metricExits     = metrics.LazyLoadCounterVec("stake_exits_total", []string{"kind"})
	metricStakerSet = metrics.LazyLoadGauge("stakers")
)

// Ledger is the slice of the token the vault moves funds through.
type Ledger interface {
	Address() cnu.Address
	BalanceOf(addr cnu.Address) (*big.Int, error)
	Transfer(env *runtime.Env, from, to cnu.Address, amount *big.Int) error
	CharityVault() (cnu.Address, error)
}

// StakingVault is a native staking vault instance.
type StakingVault struct {
	addr   cnu.Address
	store  *storage
	ledger Ledger
}

// New creates a staking vault bound to its address and state.
func New(addr cnu.Address, st *state.State) *StakingVault {
	return &StakingVault{
		addr:  addr,
		store: newStorage(sslot.NewContext(addr, st)),
	}
}

// Address returns the vault address.
func (v *StakingVault) Address() cnu.Address {
	return v.addr
}

// SetLedger wires the token ledger. Must be set before any fund movement.
func (v *StakingVault) SetLedger(l Ledger) {
	v.ledger = l
}

// Initialize sets the vault owner. It can only run once.
func (v *StakingVault) Initialize(env *runtime.Env, owner cnu.Address) error {
	current, err := v.store.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrUnauthorized
	}
	return v.store.owner.Set(owner)
}

// checkToken admits only the token contract the vault is wired to.
func (v *StakingVault) checkToken(caller cnu.Address) error {
	if v.ledger == nil || caller != v.ledger.Address() {
		return ErrUnauthorized
	}
	return nil
}

func (v *StakingVault) checkOwner(caller cnu.Address) error {
	owner, err := v.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// Stake locks amount for the given tier and returns the new stake id.
func (v *StakingVault) Stake(env *runtime.Env, caller cnu.Address, amount *big.Int, tier Tier) (uint64, error) {
	if paused, err := v.store.paused.Get(); err != nil {
		return 0, err
	} else if paused {
		return 0, ErrStakingPaused
	}
	if finalized, err := v.store.finalized.Get(); err != nil {
		return 0, err
	} else if finalized {
		return 0, ErrVaultFinalized
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	params, err := TierParamsOf(tier)
	if err != nil {
		return 0, err
	}

	// pull the principal in first
	if err := v.ledger.Transfer(env, caller, v.addr, amount); err != nil {
		return 0, err
	}

	stake := &Stake{
		Amount:       new(big.Int).Set(amount),
		Tier:         tier,
		Start:        env.Now(),
		LockDuration: params.LockDuration,
		RateBps:      params.RateBps,
	}
	id, err := v.appendStake(caller, stake)
	if err != nil {
		return 0, err
	}

	if err := v.addBig(v.store.totalStaked, amount); err != nil {
		return 0, err
	}
	if err := v.addBig(v.store.liabilities, stake.Obligation()); err != nil {
		return 0, err
	}

	metricStakes().AddWithLabel(1, map[string]string{"tier": tierLabel(tier)})
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "Staked",
		Args: []runtime.Arg{
			runtime.AddressArg("user", caller),
			runtime.UintArg("stakeId", id),
			runtime.AmountArg("amount", amount),
			runtime.UintArg("lockDuration", params.LockDuration),
			runtime.UintArg("rateBps", uint64(params.RateBps)),
		},
	})
	logger.Debug("staked", "user", caller, "id", id, "amount", amount, "tier", tier)
	return id, nil
}

func tierLabel(tier Tier) string {
	return string('0' + rune(tier))
}

func (v *StakingVault) appendStake(user cnu.Address, stake *Stake) (uint64, error) {
	count, err := v.store.stakeCounts.Get(user)
	if err != nil {
		return 0, err
	}
	if err := v.store.stakes.Set(stakeKey{user, count}, stake); err != nil {
		return 0, err
	}
	if err := v.store.stakeCounts.Set(user, count+1); err != nil {
		return 0, err
	}

	active, err := v.store.activeCounts.Get(user)
	if err != nil {
		return 0, err
	}
	if err := v.store.activeCounts.Set(user, active+1); err != nil {
		return 0, err
	}
	if active == 0 {
		if err := v.addStaker(user); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (v *StakingVault) addStaker(user cnu.Address) error {
	idx, err := v.store.stakerIndex.Get(user)
	if err != nil || idx != 0 {
		return err
	}
	i, err := v.store.stakers.Append(user)
	if err != nil {
		return err
	}
	metricStakerSet().Add(1)
	return v.store.stakerIndex.Set(user, i+1)
}

// removeStaker drops user from the staker set with a swap-and-pop.
func (v *StakingVault) removeStaker(user cnu.Address) error {
	idx, err := v.store.stakerIndex.Get(user)
	if err != nil {
		return err
	}
	if idx == 0 {
		return nil
	}
	last, err := v.store.stakers.Pop()
	if err != nil {
		return err
	}
	if last != user {
		if err := v.store.stakers.Set(idx-1, last); err != nil {
			return err
		}
		if err := v.store.stakerIndex.Set(last, idx); err != nil {
			return err
		}
	}
	v.store.stakerIndex.Clear(user)
	metricStakerSet().Add(-1)
	return nil
}

func (v *StakingVault) getStake(user cnu.Address, id uint64) (*Stake, error) {
	count, err := v.store.stakeCounts.Get(user)
	if err != nil {
		return nil, err
	}
	if id >= count {
		return nil, ErrInvalidStakeID
	}
	return v.store.stakes.Get(stakeKey{user, id})
}

// settle books the end of an active stake.
func (v *StakingVault) settle(user cnu.Address, id uint64, stake *Stake) error {
	if err := v.store.stakes.Set(stakeKey{user, id}, stake); err != nil {
		return err
	}
	if err := v.subBig(v.store.totalStaked, stake.Amount); err != nil {
		return err
	}
	if err := v.subBig(v.store.liabilities, stake.Obligation()); err != nil {
		return err
	}
	active, err := v.store.activeCounts.Get(user)
	if err != nil {
		return err
	}
	active--
	if err := v.store.activeCounts.Set(user, active); err != nil {
		return err
	}
	if active == 0 {
		return v.removeStaker(user)
	}
	return nil
}

// Claim pays out principal plus reward of an elapsed stake.
func (v *StakingVault) Claim(env *runtime.Env, caller cnu.Address, id uint64) error {
	stake, err := v.getStake(caller, id)
	if err != nil {
		return err
	}
	if stake.Claimed {
		return ErrAlreadyClaimed
	}
	if stake.Unlocked {
		return ErrAlreadyUnlocked
	}
	if env.Now() < stake.UnlockTime() {
		return ErrStillLocked
	}

	reward := stake.Reward()
	payout := new(big.Int).Add(stake.Amount, reward)

	stake.Claimed = true
	if err := v.settle(caller, id, stake); err != nil {
		return err
	}
	if err := v.ledger.Transfer(env, v.addr, caller, payout); err != nil {
		return err
	}

	metricExits().AddWithLabel(1, map[string]string{"kind": "claim"})
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "Claimed",
		Args: []runtime.Arg{
			runtime.AddressArg("user", caller),
			runtime.UintArg("stakeId", id),
			runtime.AmountArg("amount", stake.Amount),
			runtime.AmountArg("reward", reward),
		},
	})
	logger.Debug("claimed", "user", caller, "id", id, "payout", payout)
	return nil
}

// EarlyWithdraw exits a stake before its unlock, forfeiting the reward and a
// penalty slice of the principal. Penalty and, once the vault is finalized,
// the forfeited reward go to the charity vault.
func (v *StakingVault) EarlyWithdraw(env *runtime.Env, caller cnu.Address, id uint64) error {
	stake, err := v.getStake(caller, id)
	if err != nil {
		return err
	}
	if stake.Claimed {
		return ErrAlreadyClaimed
	}
	if stake.Unlocked {
		return ErrAlreadyUnlocked
	}
	// an elapsed lock must go through Claim
	if env.Now() >= stake.UnlockTime() {
		return ErrAlreadyUnlocked
	}

	penalty := new(big.Int).Mul(stake.Amount, big.NewInt(int64(EarlyWithdrawPenaltyBps)))
	penalty.Div(penalty, big.NewInt(cnu.BpsDenominator))
	refund := new(big.Int).Sub(stake.Amount, penalty)

	stake.Claimed = true
	stake.Unlocked = true
	if err := v.settle(caller, id, stake); err != nil {
		return err
	}

	charity, err := v.ledger.CharityVault()
	if err != nil {
		return err
	}
	if err := v.ledger.Transfer(env, v.addr, caller, refund); err != nil {
		return err
	}
	charityCut := penalty
	finalized, err := v.store.finalized.Get()
	if err != nil {
		return err
	}
	if finalized {
		// a finalized vault keeps no float, the freed reward leaves too
		charityCut = new(big.Int).Add(penalty, stake.Reward())
	}
	if charityCut.Sign() > 0 && !charity.IsZero() {
		if err := v.ledger.Transfer(env, v.addr, charity, charityCut); err != nil {
			return err
		}
	}

	metricExits().AddWithLabel(1, map[string]string{"kind": "early"})
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "EarlyWithdrawn",
		Args: []runtime.Arg{
			runtime.AddressArg("user", caller),
			runtime.UintArg("stakeId", id),
			runtime.AmountArg("refund", refund),
			runtime.AmountArg("penalty", penalty),
		},
	})
	logger.Debug("early withdraw", "user", caller, "id", id, "refund", refund, "penalty", penalty)
	return nil
}

// Pause suspends new stakes. Owner only.
func (v *StakingVault) Pause(env *runtime.Env, caller cnu.Address) error {
	if err := v.checkOwner(caller); err != nil {
		return err
	}
	if err := v.store.paused.Set(true); err != nil {
		return err
	}
	env.Emit(runtime.Event{Contract: v.addr, Name: "StakingPaused"})
	logger.Info("staking paused")
	return nil
}

// Unpause resumes new stakes. Owner only.
func (v *StakingVault) Unpause(env *runtime.Env, caller cnu.Address) error {
	if err := v.checkOwner(caller); err != nil {
		return err
	}
	if err := v.store.paused.Set(false); err != nil {
		return err
	}
	env.Emit(runtime.Event{Contract: v.addr, Name: "StakingUnpaused"})
	logger.Info("staking unpaused")
	return nil
}

// ReceiveFee records the rewards float credited by the token.
// Only the token may call it.
func (v *StakingVault) ReceiveFee(env *runtime.Env, caller cnu.Address, amount *big.Int) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	if err := v.addBig(v.store.rewardsReceived, amount); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "FeeReceived",
		Args:     []runtime.Arg{runtime.AmountArg("amount", amount)},
	})
	return nil
}

// MigrateTo hands the surplus over liabilities to the successor vault.
// The balance covering unclaimed stakes stays behind. Only the token may call it.
func (v *StakingVault) MigrateTo(env *runtime.Env, caller, newVault cnu.Address) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	balance, err := v.ledger.BalanceOf(v.addr)
	if err != nil {
		return err
	}
	liabilities, err := v.store.liabilities.Get()
	if err != nil {
		return err
	}
	surplus := new(big.Int).Sub(balance, liabilities)
	if surplus.Sign() > 0 {
		if err := v.ledger.Transfer(env, v.addr, newVault, surplus); err != nil {
			return err
		}
	} else {
		surplus = new(big.Int)
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "Migrated",
		Args: []runtime.Arg{
			runtime.AddressArg("newVault", newVault),
			runtime.AmountArg("amount", surplus),
		},
	})
	logger.Info("staking vault migrated", "new", newVault, "moved", surplus, "retained", liabilities)
	return nil
}

// Finalize seals the vault after rotation. Only the token may call it.
func (v *StakingVault) Finalize(env *runtime.Env, caller cnu.Address) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	if err := v.store.finalized.Set(true); err != nil {
		return err
	}
	env.Emit(runtime.Event{Contract: v.addr, Name: "Finalized"})
	return nil
}

func (v *StakingVault) addBig(slot *sslot.Value[*big.Int], delta *big.Int) error {
	cur, err := slot.Get()
	if err != nil {
		return err
	}
	return slot.Set(new(big.Int).Add(cur, delta))
}

func (v *StakingVault) subBig(slot *sslot.Value[*big.Int], delta *big.Int) error {
	cur, err := slot.Get()
	if err != nil {
		return err
	}
	return slot.Set(new(big.Int).Sub(cur, delta))
}
