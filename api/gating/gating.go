// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gating

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/builtin/accessgating"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

// Thresholds lists the USD value required per tier, indexed 1 through 5.
// Pointer values so the textual big-number marshaling applies to map entries.
type Thresholds struct {
	Tiers map[uint8]*math.HexOrDecimal256 `json:"tiers"`
}

// UserStatus is the gating view of one user.
type UserStatus struct {
	Balance    math.HexOrDecimal256 `json:"balance"`
	StakedOwed math.HexOrDecimal256 `json:"stakedOwed"`
	ValueUSD   math.HexOrDecimal256 `json:"valueUSD"`
	Tier       uint8                `json:"tier"`
}

// Access is the outcome of an access check.
type Access struct {
	Tier         uint8 `json:"tier"`
	RequiredTier uint8 `json:"requiredTier"`
	Granted      bool  `json:"granted"`
}

type Gating struct {
	rt  *runtime.Runtime
	eco *builtin.Ecosystem
}

func New(rt *runtime.Runtime, eco *builtin.Ecosystem) *Gating {
	return &Gating{rt, eco}
}

func (g *Gating) handleGetThresholds(w http.ResponseWriter, _ *http.Request) error {
	tiers := make(map[uint8]*math.HexOrDecimal256, accessgating.MaxTier)
	if err := g.rt.View(func(_ *runtime.Env) error {
		for tier := uint8(1); tier <= accessgating.MaxTier; tier++ {
			value, err := g.eco.Gate.Threshold(tier)
			if err != nil {
				return err
			}
			tiers[tier] = (*math.HexOrDecimal256)(value)
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Thresholds{Tiers: tiers})
}

func (g *Gating) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	addr, err := cnu.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var status UserStatus
	if err := g.rt.View(func(_ *runtime.Env) error {
		balance, err := g.eco.Token.BalanceOf(*addr)
		if err != nil {
			return err
		}
		stakedOwed, err := g.eco.Gate.GetUserStakedOwed(*addr)
		if err != nil {
			return err
		}
		valueUSD, err := g.eco.Gate.GetUserUSD(*addr)
		if err != nil {
			return err
		}
		tier, err := g.eco.Gate.GetTier(*addr)
		if err != nil {
			return err
		}
		status = UserStatus{
			Balance:    math.HexOrDecimal256(*balance),
			StakedOwed: math.HexOrDecimal256(*stakedOwed),
			ValueUSD:   math.HexOrDecimal256(*valueUSD),
			Tier:       tier,
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &status)
}

func (g *Gating) handleCheckAccess(w http.ResponseWriter, req *http.Request) error {
	addr, err := cnu.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	required, err := strconv.ParseUint(mux.Vars(req)["tier"], 10, 8)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tier"))
	}
	var access Access
	if err := g.rt.View(func(_ *runtime.Env) error {
		tier, err := g.eco.Gate.GetTier(*addr)
		if err != nil {
			return err
		}
		granted, err := g.eco.Gate.HasAccess(*addr, uint8(required))
		if err != nil {
			return err
		}
		access = Access{Tier: tier, RequiredTier: uint8(required), Granted: granted}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &access)
}

func (g *Gating) handleGetPrice(w http.ResponseWriter, _ *http.Request) error {
	var price math.HexOrDecimal256
	if err := g.rt.View(func(_ *runtime.Env) error {
		p, err := g.eco.Feed.LatestPrice()
		if err != nil {
			return err
		}
		price = math.HexOrDecimal256(*p)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"price": &price})
}

func (g *Gating) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/thresholds").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetThresholds))
	sub.Path("/price").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetPrice))
	sub.Path("/users/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetUser))
	sub.Path("/users/{address}/access/{tier}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleCheckAccess))
}
