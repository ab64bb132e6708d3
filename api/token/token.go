// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/builtin/feetoken"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

type Token struct {
	rt  *runtime.Runtime
	eco *builtin.Ecosystem
}

func New(rt *runtime.Runtime, eco *builtin.Ecosystem) *Token {
	return &Token{rt, eco}
}

func (t *Token) handleGetInfo(w http.ResponseWriter, _ *http.Request) error {
	var info TokenInfo
	if err := t.rt.View(func(_ *runtime.Env) error {
		tok := t.eco.Token
		supply, err := tok.TotalSupply()
		if err != nil {
			return err
		}
		burned, err := tok.TotalBurned()
		if err != nil {
			return err
		}
		charity, err := tok.TotalCharityDistributed()
		if err != nil {
			return err
		}
		rewards, err := tok.TotalRewardsDistributed()
		if err != nil {
			return err
		}
		paused, err := tok.Paused()
		if err != nil {
			return err
		}
		fees, err := tok.Fees()
		if err != nil {
			return err
		}
		maxTx, err := tok.MaxTxSize()
		if err != nil {
			return err
		}
		maxWallet, err := tok.MaxWalletSize()
		if err != nil {
			return err
		}
		info = TokenInfo{
			Name:                    feetoken.Name,
			Symbol:                  feetoken.Symbol,
			Decimals:                feetoken.Decimals,
			TotalSupply:             math.HexOrDecimal256(*supply),
			TotalBurned:             math.HexOrDecimal256(*burned),
			TotalCharityDistributed: math.HexOrDecimal256(*charity),
			TotalRewardsDistributed: math.HexOrDecimal256(*rewards),
			Paused:                  paused,
			Fees: FeeConfig{
				BurnBps:    fees.BurnBps,
				CharityBps: fees.CharityBps,
				RewardsBps: fees.RewardsBps,
			},
			MaxTxSize:     math.HexOrDecimal256(*maxTx),
			MaxWalletSize: math.HexOrDecimal256(*maxWallet),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &info)
}

func (t *Token) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := cnu.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var acc Account
	if err := t.rt.View(func(_ *runtime.Env) error {
		tok := t.eco.Token
		balance, err := tok.BalanceOf(*addr)
		if err != nil {
			return err
		}
		feeExempt, err := tok.FeeExempt(*addr)
		if err != nil {
			return err
		}
		limitExempt, err := tok.LimitExempt(*addr)
		if err != nil {
			return err
		}
		acc = Account{
			Balance:     math.HexOrDecimal256(*balance),
			FeeExempt:   feeExempt,
			LimitExempt: limitExempt,
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &acc)
}

func (t *Token) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	owner, err := cnu.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	spender, err := cnu.ParseAddress(mux.Vars(req)["spender"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "spender"))
	}
	var allowance Allowance
	if err := t.rt.View(func(_ *runtime.Env) error {
		remaining, err := t.eco.Token.Allowance(*owner, *spender)
		if err != nil {
			return err
		}
		allowance = Allowance{Remaining: math.HexOrDecimal256(*remaining)}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &allowance)
}

func (t *Token) handleGetVaults(w http.ResponseWriter, _ *http.Request) error {
	var vaults Vaults
	if err := t.rt.View(func(_ *runtime.Env) error {
		tok := t.eco.Token
		staking, err := tok.StakingVault()
		if err != nil {
			return err
		}
		charity, err := tok.CharityVault()
		if err != nil {
			return err
		}
		treasury, err := tok.TreasuryVault()
		if err != nil {
			return err
		}
		vaults = Vaults{Staking: staking, Charity: charity, Treasury: treasury}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &vaults)
}

func parseVaultKind(s string) (feetoken.VaultKind, error) {
	switch s {
	case "staking":
		return feetoken.VaultStaking, nil
	case "charity":
		return feetoken.VaultCharity, nil
	case "treasury":
		return feetoken.VaultTreasury, nil
	}
	return 0, errors.New("unknown vault kind")
}

func (t *Token) handleGetVaultHistory(w http.ResponseWriter, req *http.Request) error {
	kindStr := mux.Vars(req)["kind"]
	kind, err := parseVaultKind(kindStr)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "kind"))
	}
	var history []cnu.Address
	if err := t.rt.View(func(_ *runtime.Env) error {
		history, err = t.eco.Token.VaultHistory(kind)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &VaultHistory{Kind: kindStr, History: history})
}

func (t *Token) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetInfo))
	sub.Path("/vaults").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetVaults))
	sub.Path("/vaults/{kind}/history").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetVaultHistory))
	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetAccount))
	sub.Path("/accounts/{address}/allowances/{spender}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(t.handleGetAllowance))
}
