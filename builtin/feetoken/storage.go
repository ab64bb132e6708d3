// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feetoken

import (
	"math/big"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
)

// FeeConfig holds the three fee rates in basis points.
type FeeConfig struct {
	BurnBps    uint32
	CharityBps uint32
	RewardsBps uint32
}

// Total returns the combined rate.
func (f FeeConfig) Total() uint32 {
	return f.BurnBps + f.CharityBps + f.RewardsBps
}

// accountPair keys the allowance mapping.
type accountPair struct {
	owner   cnu.Address
	spender cnu.Address
}

func (p accountPair) Bytes() []byte {
	b := make([]byte, 0, cnu.AddressLength*2)
	b = append(b, p.owner.Bytes()...)
	return append(b, p.spender.Bytes()...)
}

type storage struct {
	owner  *sslot.Value[cnu.Address]
	paused *sslot.Value[bool]

	totalSupply *sslot.Value[*big.Int]
	totalBurned *sslot.Value[*big.Int]
	balances    *sslot.Mapping[cnu.Address, *big.Int]
	allowances  *sslot.Mapping[accountPair, *big.Int]

	fees          *sslot.Value[FeeConfig]
	maxTxSize     *sslot.Value[*big.Int]
	maxWalletSize *sslot.Value[*big.Int]
	feeExempt     *sslot.Mapping[cnu.Address, bool]
	limitExempt   *sslot.Mapping[cnu.Address, bool]

	stakingVault  *sslot.Value[cnu.Address]
	charityVault  *sslot.Value[cnu.Address]
	treasuryVault *sslot.Value[cnu.Address]

	stakingHistory  *sslot.Array[cnu.Address]
	charityHistory  *sslot.Array[cnu.Address]
	treasuryHistory *sslot.Array[cnu.Address]

	totalCharityDistributed *sslot.Value[*big.Int]
	totalRewardsDistributed *sslot.Value[*big.Int]
}

func newStorage(ctx *sslot.Context) *storage {
	return &storage{
		owner:  sslot.NewValue[cnu.Address](ctx, "owner"),
		paused: sslot.NewValue[bool](ctx, "paused"),

		totalSupply: sslot.NewValue[*big.Int](ctx, "total-supply"),
		totalBurned: sslot.NewValue[*big.Int](ctx, "total-burned"),
		balances:    sslot.NewMapping[cnu.Address, *big.Int](ctx, "balances"),
		allowances:  sslot.NewMapping[accountPair, *big.Int](ctx, "allowances"),

		fees:          sslot.NewValue[FeeConfig](ctx, "fees"),
		maxTxSize:     sslot.NewValue[*big.Int](ctx, "max-tx-size"),
		maxWalletSize: sslot.NewValue[*big.Int](ctx, "max-wallet-size"),
		feeExempt:     sslot.NewMapping[cnu.Address, bool](ctx, "fee-exempt"),
		limitExempt:   sslot.NewMapping[cnu.Address, bool](ctx, "limit-exempt"),

		stakingVault:  sslot.NewValue[cnu.Address](ctx, "staking-vault"),
		charityVault:  sslot.NewValue[cnu.Address](ctx, "charity-vault"),
		treasuryVault: sslot.NewValue[cnu.Address](ctx, "treasury-vault"),

		stakingHistory:  sslot.NewArray[cnu.Address](ctx, "staking-vault-history"),
		charityHistory:  sslot.NewArray[cnu.Address](ctx, "charity-vault-history"),
		treasuryHistory: sslot.NewArray[cnu.Address](ctx, "treasury-vault-history"),

		totalCharityDistributed: sslot.NewValue[*big.Int](ctx, "total-charity-distributed"),
		totalRewardsDistributed: sslot.NewValue[*big.Int](ctx, "total-rewards-distributed"),
	}
}
