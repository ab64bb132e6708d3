// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/companion-network/cnu/cnu"
)

// TokenInfo sums up the token wide counters and settings.
type TokenInfo struct {
	Name                    string                  `json:"name"`
	Symbol                  string                  `json:"symbol"`
	Decimals                uint8                   `json:"decimals"`
	TotalSupply             math.HexOrDecimal256    `json:"totalSupply"`
	TotalBurned             math.HexOrDecimal256    `json:"totalBurned"`
	TotalCharityDistributed math.HexOrDecimal256    `json:"totalCharityDistributed"`
	TotalRewardsDistributed math.HexOrDecimal256    `json:"totalRewardsDistributed"`
	Paused                  bool                    `json:"paused"`
	Fees                    FeeConfig               `json:"fees"`
	MaxTxSize               math.HexOrDecimal256    `json:"maxTxSize"`
	MaxWalletSize           math.HexOrDecimal256    `json:"maxWalletSize"`
}

// FeeConfig is the transfer fee split in basis points.
type FeeConfig struct {
	BurnBps    uint32 `json:"burnBps"`
	CharityBps uint32 `json:"charityBps"`
	RewardsBps uint32 `json:"rewardsBps"`
}

// Account is the token view of a single address.
type Account struct {
	Balance     math.HexOrDecimal256 `json:"balance"`
	FeeExempt   bool                 `json:"feeExempt"`
	LimitExempt bool                 `json:"limitExempt"`
}

// Allowance is a spender allowance of an account.
type Allowance struct {
	Remaining math.HexOrDecimal256 `json:"remaining"`
}

// Vaults lists the current vault pointers.
type Vaults struct {
	Staking  cnu.Address `json:"staking"`
	Charity  cnu.Address `json:"charity"`
	Treasury cnu.Address `json:"treasury"`
}

// VaultHistory is the rotation history of one vault kind, oldest first.
type VaultHistory struct {
	Kind    string        `json:"kind"`
	History []cnu.Address `json:"history"`
}
