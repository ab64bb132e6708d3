// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingvault

import (
	"math/big"

	"github.com/companion-network/cnu/cnu"
)

// Tier is a lock-up tier identifier, 1 through MaxTier.
type Tier = uint8

// MaxTier the highest valid tier.
const MaxTier Tier = 4

// EarlyWithdrawPenaltyBps penalty charged on the principal when exiting early.
const EarlyWithdrawPenaltyBps uint32 = 1000

// TierParams are the lock duration and reward rate of a tier.
type TierParams struct {
	LockDuration uint64 // seconds
	RateBps      uint32
}

var tierTable = map[Tier]TierParams{
	1: {LockDuration: 30 * cnu.Day, RateBps: 100},
	2: {LockDuration: 90 * cnu.Day, RateBps: 300},
	3: {LockDuration: 180 * cnu.Day, RateBps: 700},
	4: {LockDuration: 365 * cnu.Day, RateBps: 1500},
}

// TierParamsOf returns the parameters of a tier. Tier 0 is invalid.
func TierParamsOf(tier Tier) (TierParams, error) {
	p, ok := tierTable[tier]
	if !ok {
		return TierParams{}, ErrInvalidTier
	}
	return p, nil
}

// Stake is a single lock-up position.
type Stake struct {
	Amount       *big.Int
	Tier         Tier
	Start        uint64 // unix seconds
	LockDuration uint64 // snapshot of the tier's duration
	RateBps      uint32 // snapshot of the tier's rate
	Claimed      bool
	Unlocked     bool // exited early
}

// Active reports whether the stake still binds vault funds.
func (s *Stake) Active() bool {
	return !s.Claimed && !s.Unlocked
}

// UnlockTime returns the first moment the stake can be claimed.
func (s *Stake) UnlockTime() uint64 {
	return s.Start + s.LockDuration
}

// Reward returns the full tier reward of the stake.
func (s *Stake) Reward() *big.Int {
	r := new(big.Int).Mul(s.Amount, big.NewInt(int64(s.RateBps)))
	return r.Div(r, big.NewInt(cnu.BpsDenominator))
}

// Earned returns the reward accrued by now: all before the unlock boundary is
// zero, everything after is the full reward.
func (s *Stake) Earned(now uint64) *big.Int {
	if now < s.UnlockTime() {
		return new(big.Int)
	}
	return s.Reward()
}

// Obligation returns principal plus full reward, what the vault owes while
// the stake is active.
func (s *Stake) Obligation() *big.Int {
	return new(big.Int).Add(s.Amount, s.Reward())
}
