// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cnu

import "math/big"

// Constants of the token ecosystem.
const (
	// TokenDecimals decimal places of CNU token amounts.
	TokenDecimals = 18

	// BpsDenominator denominator for basis-point rates (fees, rewards, penalties).
	BpsDenominator = 10000

	// Day seconds per day, the unit of staking lock durations.
	Day uint64 = 24 * 60 * 60
)

var (
	// WeiPerToken 10^18, the smallest-unit scale of one whole token.
	WeiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

	// InitialSupply 10^12 whole tokens, minted to the owner at genesis.
	InitialSupply = new(big.Int).Mul(big.NewInt(1e12), WeiPerToken)

	// InitialMaxWalletSize 10^10 whole tokens.
	InitialMaxWalletSize = new(big.Int).Mul(big.NewInt(1e10), WeiPerToken)

	// InitialMaxTxSize 10^9 whole tokens.
	InitialMaxTxSize = new(big.Int).Mul(big.NewInt(1e9), WeiPerToken)

	// MinLimitSize floor for both wallet and tx size limits, 10^6 whole tokens.
	MinLimitSize = new(big.Int).Mul(big.NewInt(1e6), WeiPerToken)
)

// ToWei scales a whole-token count to the smallest unit.
func ToWei(tokens int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tokens), WeiPerToken)
}
