// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var ownerAddr = cnu.BytesToAddress([]byte("genesis-owner"))

func newTestEcosystem(t *testing.T) (*runtime.Runtime, *builtin.Ecosystem) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	return runtime.New(st), builtin.New(st)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	content := `
owner: "0x0000000000000000000000000000000000000001"
stakingVault: "0x0000000000000000000000000000000000000002"
charityVault: "0x0000000000000000000000000000000000000003"
treasuryVault: "0x0000000000000000000000000000000000000004"
devWallet: "0x0000000000000000000000000000000000000005"
holdingsWallet: "0x0000000000000000000000000000000000000006"
price: "2000000000000000000"
allocations:
  - address: "0x0000000000000000000000000000000000000007"
    amount: "1000000000000000000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", cfg.Owner)
	assert.Equal(t, "0x0000000000000000000000000000000000000004", cfg.TreasuryVault)
	assert.Equal(t, "2000000000000000000", cfg.Price)
	require.Len(t, cfg.Allocations, 1)
	assert.Equal(t, "1000000000000000000", cfg.Allocations[0].Amount)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("owner: [unclosed"), 0600))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(ownerAddr)

	assert.Equal(t, ownerAddr.String(), cfg.Owner)
	for _, s := range []string{cfg.StakingVault, cfg.CharityVault, cfg.TreasuryVault, cfg.DevWallet, cfg.HoldingsWallet} {
		addr, err := cnu.ParseAddress(s)
		require.NoError(t, err)
		assert.False(t, addr.IsZero())
	}
	assert.Equal(t, cnu.WeiPerToken.String(), cfg.Price)
}

func TestBuild(t *testing.T) {
	rt, eco := newTestEcosystem(t)
	alloc := cnu.BytesToAddress([]byte("early-backer"))

	cfg := DefaultConfig(ownerAddr)
	cfg.Allocations = []Allocation{
		{Address: alloc.String(), Amount: cnu.ToWei(1000).String()},
	}
	require.NoError(t, Build(rt, eco, cfg))

	owner, err := eco.Token.Owner()
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, owner)

	supply, err := eco.Token.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, cnu.InitialSupply, supply)

	// the owner is fee exempt so the allocation arrives whole
	bal, err := eco.Token.BalanceOf(alloc)
	require.NoError(t, err)
	assert.Equal(t, cnu.ToWei(1000), bal)

	ownerBal, err := eco.Token.BalanceOf(ownerAddr)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Sub(cnu.InitialSupply, cnu.ToWei(1000)), ownerBal)

	vault, err := eco.CurrentStakingVault()
	require.NoError(t, err)
	paused, err := vault.Paused()
	require.NoError(t, err)
	assert.False(t, paused)

	allowed, err := eco.Split.AssetAllowed(builtin.TokenAddress)
	require.NoError(t, err)
	assert.True(t, allowed)

	hasPrice, err := eco.Feed.HasPrice()
	require.NoError(t, err)
	assert.True(t, hasPrice)
	price, err := eco.Feed.LatestPrice()
	require.NoError(t, err)
	assert.Equal(t, cnu.WeiPerToken, price)

	gateOwner, err := eco.Gate.Owner()
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, gateOwner)
}

func TestBuildWithOverrides(t *testing.T) {
	rt, eco := newTestEcosystem(t)

	cfg := DefaultConfig(ownerAddr)
	cfg.Fees = &Fees{BurnBps: 50, CharityBps: 100, RewardsBps: 300}
	cfg.MaxTxSize = cnu.ToWei(2_000_000_000).String()
	cfg.Thresholds = map[uint8]string{
		4: new(big.Int).Mul(big.NewInt(2000), cnu.WeiPerToken).String(),
		5: new(big.Int).Mul(big.NewInt(50000), cnu.WeiPerToken).String(),
	}
	require.NoError(t, Build(rt, eco, cfg))

	fees, err := eco.Token.Fees()
	require.NoError(t, err)
	assert.Equal(t, uint32(50), fees.BurnBps)
	assert.Equal(t, uint32(450), fees.Total())

	maxTx, err := eco.Token.MaxTxSize()
	require.NoError(t, err)
	assert.Equal(t, cnu.ToWei(2_000_000_000), maxTx)

	threshold, err := eco.Gate.Threshold(4)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(2000), cnu.WeiPerToken), threshold)

	// the fee cap still guards genesis overrides
	rt2, eco2 := newTestEcosystem(t)
	cfg = DefaultConfig(ownerAddr)
	cfg.Fees = &Fees{BurnBps: 300, CharityBps: 300, RewardsBps: 300}
	assert.Error(t, Build(rt2, eco2, cfg))
}

func TestBuildNoPrice(t *testing.T) {
	rt, eco := newTestEcosystem(t)

	cfg := DefaultConfig(ownerAddr)
	cfg.Price = ""
	require.NoError(t, Build(rt, eco, cfg))

	hasPrice, err := eco.Feed.HasPrice()
	require.NoError(t, err)
	assert.False(t, hasPrice)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	rt, eco := newTestEcosystem(t)

	cfg := DefaultConfig(ownerAddr)
	cfg.CharityVault = ""
	assert.ErrorContains(t, Build(rt, eco, cfg), "charityVault")

	cfg = DefaultConfig(ownerAddr)
	cfg.Owner = "not-an-address"
	assert.ErrorContains(t, Build(rt, eco, cfg), "owner")

	cfg = DefaultConfig(ownerAddr)
	cfg.Allocations = []Allocation{{Address: ownerAddr.String(), Amount: "12x"}}
	assert.ErrorContains(t, Build(rt, eco, cfg), "allocation")

	// a failed build leaves the state untouched
	owner, err := eco.Token.Owner()
	require.NoError(t, err)
	assert.True(t, owner.IsZero())
}
