// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingvault

import (
	"math/big"

	"github.com/companion-network/cnu/cnu"
)

// UserSummary aggregates a user's active positions.
type UserSummary struct {
	Staked  *big.Int // principal of active stakes
	Rewards *big.Int // full rewards owed on active stakes
}

// Owed returns principal plus rewards.
func (s UserSummary) Owed() *big.Int {
	return new(big.Int).Add(s.Staked, s.Rewards)
}

// GetStake returns the stake at id for user.
func (v *StakingVault) GetStake(user cnu.Address, id uint64) (*Stake, error) {
	return v.getStake(user, id)
}

// GetStakeCount returns how many stakes user has ever opened here.
func (v *StakingVault) GetStakeCount(user cnu.Address) (uint64, error) {
	return v.store.stakeCounts.Get(user)
}

// Earned returns the reward accrued on a stake as of now.
func (v *StakingVault) Earned(user cnu.Address, id uint64, now uint64) (*big.Int, error) {
	stake, err := v.getStake(user, id)
	if err != nil {
		return nil, err
	}
	if !stake.Active() {
		return new(big.Int), nil
	}
	return stake.Earned(now), nil
}

// IsStaker reports whether user holds an active stake.
func (v *StakingVault) IsStaker(user cnu.Address) (bool, error) {
	idx, err := v.store.stakerIndex.Get(user)
	return idx != 0, err
}

// AllStakers returns every address with an active stake.
func (v *StakingVault) AllStakers() ([]cnu.Address, error) {
	return v.store.stakers.All()
}

// StakerCount returns the size of the active staker set.
func (v *StakingVault) StakerCount() (uint64, error) {
	return v.store.stakers.Len()
}

// GetUserSummary sums the user's active stakes. The full tier reward counts
// as owed no matter how much of the lock has elapsed.
func (v *StakingVault) GetUserSummary(user cnu.Address) (UserSummary, error) {
	summary := UserSummary{Staked: new(big.Int), Rewards: new(big.Int)}
	count, err := v.store.stakeCounts.Get(user)
	if err != nil {
		return summary, err
	}
	for id := uint64(0); id < count; id++ {
		stake, err := v.store.stakes.Get(stakeKey{user, id})
		if err != nil {
			return summary, err
		}
		if !stake.Active() {
			continue
		}
		summary.Staked.Add(summary.Staked, stake.Amount)
		summary.Rewards.Add(summary.Rewards, stake.Reward())
	}
	return summary, nil
}

// GetUserOwed returns everything the vault owes the user right now.
func (v *StakingVault) GetUserOwed(user cnu.Address) (*big.Int, error) {
	summary, err := v.GetUserSummary(user)
	if err != nil {
		return nil, err
	}
	return summary.Owed(), nil
}

// TotalStaked returns the principal bound in active stakes.
func (v *StakingVault) TotalStaked() (*big.Int, error) {
	return v.store.totalStaked.Get()
}

// GetTotalLiabilities returns principal plus full rewards owed on all
// active stakes.
func (v *StakingVault) GetTotalLiabilities() (*big.Int, error) {
	return v.store.liabilities.Get()
}

// RewardsReceived returns the cumulative fee float credited by the token.
func (v *StakingVault) RewardsReceived() (*big.Int, error) {
	return v.store.rewardsReceived.Get()
}

// Paused reports the stake pause switch.
func (v *StakingVault) Paused() (bool, error) {
	return v.store.paused.Get()
}

// Finalized reports whether the vault has been rotated out.
func (v *StakingVault) Finalized() (bool, error) {
	return v.store.finalized.Get()
}
