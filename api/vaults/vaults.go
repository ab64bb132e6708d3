// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

// CharityStatus sums up the current charity vault.
type CharityStatus struct {
	Address       cnu.Address          `json:"address"`
	Balance       math.HexOrDecimal256 `json:"balance"`
	ReceivedTotal math.HexOrDecimal256 `json:"receivedTotal"`
	SpentTotal    math.HexOrDecimal256 `json:"spentTotal"`
}

// TreasuryStatus sums up the current treasury vault.
type TreasuryStatus struct {
	Address        cnu.Address          `json:"address"`
	Balance        math.HexOrDecimal256 `json:"balance"`
	FundedTotal    math.HexOrDecimal256 `json:"fundedTotal"`
	ClaimsTotal    math.HexOrDecimal256 `json:"claimsTotal"`
	WithdrawnTotal math.HexOrDecimal256 `json:"withdrawnTotal"`
}

type Vaults struct {
	rt  *runtime.Runtime
	eco *builtin.Ecosystem
}

func New(rt *runtime.Runtime, eco *builtin.Ecosystem) *Vaults {
	return &Vaults{rt, eco}
}

func (v *Vaults) handleGetCharity(w http.ResponseWriter, _ *http.Request) error {
	var status CharityStatus
	if err := v.rt.View(func(_ *runtime.Env) error {
		vault, err := v.eco.CurrentCharityVault()
		if err != nil {
			return err
		}
		balance, err := v.eco.Token.BalanceOf(vault.Address())
		if err != nil {
			return err
		}
		received, err := vault.ReceivedTotal()
		if err != nil {
			return err
		}
		spent, err := vault.SpentTotal()
		if err != nil {
			return err
		}
		status = CharityStatus{
			Address:       vault.Address(),
			Balance:       math.HexOrDecimal256(*balance),
			ReceivedTotal: math.HexOrDecimal256(*received),
			SpentTotal:    math.HexOrDecimal256(*spent),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &status)
}

func (v *Vaults) handleGetTreasury(w http.ResponseWriter, _ *http.Request) error {
	var status TreasuryStatus
	if err := v.rt.View(func(_ *runtime.Env) error {
		vault, err := v.eco.CurrentTreasuryVault()
		if err != nil {
			return err
		}
		balance, err := v.eco.Token.BalanceOf(vault.Address())
		if err != nil {
			return err
		}
		funded, err := vault.FundedTotal()
		if err != nil {
			return err
		}
		claims, err := vault.ClaimsTotal()
		if err != nil {
			return err
		}
		withdrawn, err := vault.WithdrawnTotal()
		if err != nil {
			return err
		}
		status = TreasuryStatus{
			Address:        vault.Address(),
			Balance:        math.HexOrDecimal256(*balance),
			FundedTotal:    math.HexOrDecimal256(*funded),
			ClaimsTotal:    math.HexOrDecimal256(*claims),
			WithdrawnTotal: math.HexOrDecimal256(*withdrawn),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &status)
}

func (v *Vaults) handleGetTVL(w http.ResponseWriter, _ *http.Request) error {
	var tvl math.HexOrDecimal256
	if err := v.rt.View(func(_ *runtime.Env) error {
		total, err := v.eco.TotalValueLocked()
		if err != nil {
			return err
		}
		tvl = math.HexOrDecimal256(*total)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"totalValueLocked": &tvl})
}

func (v *Vaults) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/charity").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(v.handleGetCharity))
	sub.Path("/treasury").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(v.handleGetTreasury))
	sub.Path("/tvl").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(v.handleGetTVL))
}
