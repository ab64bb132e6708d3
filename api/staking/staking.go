// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/builtin/stakingvault"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

// VaultStatus sums up the current staking vault.
type VaultStatus struct {
	Address          cnu.Address          `json:"address"`
	Paused           bool                 `json:"paused"`
	Finalized        bool                 `json:"finalized"`
	TotalStaked      math.HexOrDecimal256 `json:"totalStaked"`
	TotalLiabilities math.HexOrDecimal256 `json:"totalLiabilities"`
	RewardsReceived  math.HexOrDecimal256 `json:"rewardsReceived"`
	StakerCount      uint64               `json:"stakerCount"`
}

// StakeInfo is one stake position of a user.
type StakeInfo struct {
	ID           uint64               `json:"id"`
	Amount       math.HexOrDecimal256 `json:"amount"`
	Tier         uint8                `json:"tier"`
	Start        uint64               `json:"start"`
	LockDuration uint64               `json:"lockDuration"`
	UnlockTime   uint64               `json:"unlockTime"`
	RateBps      uint32               `json:"rateBps"`
	Reward       math.HexOrDecimal256 `json:"reward"`
	Earned       math.HexOrDecimal256 `json:"earned"`
	Claimed      bool                 `json:"claimed"`
	Unlocked     bool                 `json:"unlocked"`
}

// UserSummary aggregates the active positions of a user.
type UserSummary struct {
	Staked  math.HexOrDecimal256 `json:"staked"`
	Rewards math.HexOrDecimal256 `json:"rewards"`
	Owed    math.HexOrDecimal256 `json:"owed"`
	Stakes  []StakeInfo          `json:"stakes"`
}

type Staking struct {
	rt  *runtime.Runtime
	eco *builtin.Ecosystem
}

func New(rt *runtime.Runtime, eco *builtin.Ecosystem) *Staking {
	return &Staking{rt, eco}
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	var status VaultStatus
	if err := s.rt.View(func(_ *runtime.Env) error {
		vault, err := s.eco.CurrentStakingVault()
		if err != nil {
			return err
		}
		paused, err := vault.Paused()
		if err != nil {
			return err
		}
		finalized, err := vault.Finalized()
		if err != nil {
			return err
		}
		totalStaked, err := vault.TotalStaked()
		if err != nil {
			return err
		}
		liabilities, err := vault.GetTotalLiabilities()
		if err != nil {
			return err
		}
		rewards, err := vault.RewardsReceived()
		if err != nil {
			return err
		}
		stakers, err := vault.StakerCount()
		if err != nil {
			return err
		}
		status = VaultStatus{
			Address:          vault.Address(),
			Paused:           paused,
			Finalized:        finalized,
			TotalStaked:      math.HexOrDecimal256(*totalStaked),
			TotalLiabilities: math.HexOrDecimal256(*liabilities),
			RewardsReceived:  math.HexOrDecimal256(*rewards),
			StakerCount:      stakers,
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &status)
}

func (s *Staking) handleGetStakers(w http.ResponseWriter, _ *http.Request) error {
	var stakers []cnu.Address
	if err := s.rt.View(func(_ *runtime.Env) error {
		vault, err := s.eco.CurrentStakingVault()
		if err != nil {
			return err
		}
		stakers, err = vault.AllStakers()
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, stakers)
}

func newStakeInfo(id uint64, stake *stakingvault.Stake, now uint64) StakeInfo {
	reward := stake.Reward()
	earned := stake.Earned(now)
	return StakeInfo{
		ID:           id,
		Amount:       math.HexOrDecimal256(*stake.Amount),
		Tier:         stake.Tier,
		Start:        stake.Start,
		LockDuration: stake.LockDuration,
		UnlockTime:   stake.UnlockTime(),
		RateBps:      stake.RateBps,
		Reward:       math.HexOrDecimal256(*reward),
		Earned:       math.HexOrDecimal256(*earned),
		Claimed:      stake.Claimed,
		Unlocked:     stake.Unlocked,
	}
}

func (s *Staking) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	addr, err := cnu.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var summary UserSummary
	if err := s.rt.View(func(env *runtime.Env) error {
		vault, err := s.eco.CurrentStakingVault()
		if err != nil {
			return err
		}
		agg, err := vault.GetUserSummary(*addr)
		if err != nil {
			return err
		}
		count, err := vault.GetStakeCount(*addr)
		if err != nil {
			return err
		}
		stakes := make([]StakeInfo, 0, count)
		for id := uint64(0); id < count; id++ {
			stake, err := vault.GetStake(*addr, id)
			if err != nil {
				return err
			}
			stakes = append(stakes, newStakeInfo(id, stake, env.Now()))
		}
		summary = UserSummary{
			Staked:  math.HexOrDecimal256(*agg.Staked),
			Rewards: math.HexOrDecimal256(*agg.Rewards),
			Owed:    math.HexOrDecimal256(*agg.Owed()),
			Stakes:  stakes,
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &summary)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("/stakers").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakers))
	sub.Path("/users/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetUser))
}
