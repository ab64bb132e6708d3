// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the native contracts of the token ecosystem
// together: the token, its vault instances, the access gate, the price
// feed and the payment splitter.
package builtin

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/accessgating"
	"github.com/companion-network/cnu/builtin/charityvault"
	"github.com/companion-network/cnu/builtin/feetoken"
	"github.com/companion-network/cnu/builtin/pricefeed"
	"github.com/companion-network/cnu/builtin/splitbuy"
	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/builtin/stakingvault"
	"github.com/companion-network/cnu/builtin/treasuryvault"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

// Well-known contract addresses.
var (
	TokenAddress    = cnu.BytesToAddress([]byte("cnu-fee-token"))
	GateAddress     = cnu.BytesToAddress([]byte("cnu-access-gating"))
	FeedAddress     = cnu.BytesToAddress([]byte("cnu-price-feed"))
	SplitBuyAddress = cnu.BytesToAddress([]byte("cnu-split-buy"))
	registryAddress = cnu.BytesToAddress([]byte("cnu-vault-registry"))
)

// vault kinds persisted in the registry, zero means unknown address
const (
	kindNone uint8 = iota
	kindStaking
	kindCharity
	kindTreasury
)

// ErrUnknownVault the address is not a deployed vault.
var ErrUnknownVault = errors.New("unknown vault")

// Ecosystem wires the native contracts over a shared state.
type Ecosystem struct {
	Token *feetoken.FeeToken
	Gate  *accessgating.AccessGating
	Feed  *pricefeed.Settable
	Split *splitbuy.SplitBuy

	st    *state.State
	kinds *sslot.Mapping[cnu.Address, uint8]

	staking    map[cnu.Address]*stakingvault.StakingVault
	charities  map[cnu.Address]*charityvault.CharityVault
	treasuries map[cnu.Address]*treasuryvault.TreasuryVault
}

// New wires an ecosystem over the given state. Vault instances are created
// lazily from the persisted registry, so a restarted process sees the same
// ecosystem.
func New(st *state.State) *Ecosystem {
	eco := &Ecosystem{
		Token: feetoken.New(TokenAddress, st),
		Gate:  accessgating.New(GateAddress, st),
		Feed:  pricefeed.New(FeedAddress, st),
		Split: splitbuy.New(SplitBuyAddress, st),

		st:    st,
		kinds: sslot.NewMapping[cnu.Address, uint8](sslot.NewContext(registryAddress, st), "kinds"),

		staking:    make(map[cnu.Address]*stakingvault.StakingVault),
		charities:  make(map[cnu.Address]*charityvault.CharityVault),
		treasuries: make(map[cnu.Address]*treasuryvault.TreasuryVault),
	}

	eco.Token.SetVaultResolver(eco.resolveVaultHook)
	eco.Gate.Wire(eco.Token, eco.Feed, eco.resolveStakingView, eco.resolveFeed)
	eco.Split.SetAssetResolver(eco.resolveAsset)
	return eco
}

func (e *Ecosystem) kindOf(addr cnu.Address) (uint8, error) {
	return e.kinds.Get(addr)
}

// StakingVaultAt returns the staking vault instance at addr.
func (e *Ecosystem) StakingVaultAt(addr cnu.Address) (*stakingvault.StakingVault, error) {
	if v, ok := e.staking[addr]; ok {
		return v, nil
	}
	kind, err := e.kindOf(addr)
	if err != nil {
		return nil, err
	}
	if kind != kindStaking {
		return nil, ErrUnknownVault
	}
	v := stakingvault.New(addr, e.st)
	v.SetLedger(e.Token)
	e.staking[addr] = v
	return v, nil
}

// CharityVaultAt returns the charity vault instance at addr.
func (e *Ecosystem) CharityVaultAt(addr cnu.Address) (*charityvault.CharityVault, error) {
	if v, ok := e.charities[addr]; ok {
		return v, nil
	}
	kind, err := e.kindOf(addr)
	if err != nil {
		return nil, err
	}
	if kind != kindCharity {
		return nil, ErrUnknownVault
	}
	v := charityvault.New(addr, e.st)
	v.SetLedger(e.Token)
	e.charities[addr] = v
	return v, nil
}

// TreasuryVaultAt returns the treasury vault instance at addr.
func (e *Ecosystem) TreasuryVaultAt(addr cnu.Address) (*treasuryvault.TreasuryVault, error) {
	if v, ok := e.treasuries[addr]; ok {
		return v, nil
	}
	kind, err := e.kindOf(addr)
	if err != nil {
		return nil, err
	}
	if kind != kindTreasury {
		return nil, ErrUnknownVault
	}
	v := treasuryvault.New(addr, e.st)
	v.SetLedger(e.Token)
	e.treasuries[addr] = v
	return v, nil
}

// DeployStakingVault registers and initializes a staking vault at addr.
func (e *Ecosystem) DeployStakingVault(env *runtime.Env, addr, owner cnu.Address) (*stakingvault.StakingVault, error) {
	if err := e.register(addr, kindStaking); err != nil {
		return nil, err
	}
	v, err := e.StakingVaultAt(addr)
	if err != nil {
		return nil, err
	}
	return v, v.Initialize(env, owner)
}

// DeployCharityVault registers and initializes a charity vault at addr.
func (e *Ecosystem) DeployCharityVault(env *runtime.Env, addr, owner cnu.Address) (*charityvault.CharityVault, error) {
	if err := e.register(addr, kindCharity); err != nil {
		return nil, err
	}
	v, err := e.CharityVaultAt(addr)
	if err != nil {
		return nil, err
	}
	return v, v.Initialize(env, owner)
}

// DeployTreasuryVault registers and initializes a treasury vault at addr.
func (e *Ecosystem) DeployTreasuryVault(env *runtime.Env, addr, owner cnu.Address) (*treasuryvault.TreasuryVault, error) {
	if err := e.register(addr, kindTreasury); err != nil {
		return nil, err
	}
	v, err := e.TreasuryVaultAt(addr)
	if err != nil {
		return nil, err
	}
	return v, v.Initialize(env, owner)
}

func (e *Ecosystem) register(addr cnu.Address, kind uint8) error {
	if addr.IsZero() {
		return ErrUnknownVault
	}
	existing, err := e.kindOf(addr)
	if err != nil {
		return err
	}
	if existing != kindNone && existing != kind {
		return errors.Wrap(ErrUnknownVault, "address already registered with another kind")
	}
	return e.kinds.Set(addr, kind)
}

// CurrentStakingVault returns the staking vault the token points at.
func (e *Ecosystem) CurrentStakingVault() (*stakingvault.StakingVault, error) {
	addr, err := e.Token.StakingVault()
	if err != nil {
		return nil, err
	}
	return e.StakingVaultAt(addr)
}

// CurrentCharityVault returns the charity vault the token points at.
func (e *Ecosystem) CurrentCharityVault() (*charityvault.CharityVault, error) {
	addr, err := e.Token.CharityVault()
	if err != nil {
		return nil, err
	}
	return e.CharityVaultAt(addr)
}

// CurrentTreasuryVault returns the treasury vault the token points at.
func (e *Ecosystem) CurrentTreasuryVault() (*treasuryvault.TreasuryVault, error) {
	addr, err := e.Token.TreasuryVault()
	if err != nil {
		return nil, err
	}
	return e.TreasuryVaultAt(addr)
}

func (e *Ecosystem) resolveVaultHook(addr cnu.Address) (feetoken.Vault, bool) {
	kind, err := e.kindOf(addr)
	if err != nil {
		return nil, false
	}
	switch kind {
	case kindStaking:
		v, err := e.StakingVaultAt(addr)
		return v, err == nil
	case kindCharity:
		v, err := e.CharityVaultAt(addr)
		return v, err == nil
	case kindTreasury:
		v, err := e.TreasuryVaultAt(addr)
		return v, err == nil
	}
	return nil, false
}

func (e *Ecosystem) resolveStakingView(addr cnu.Address) (accessgating.StakingView, bool) {
	v, err := e.StakingVaultAt(addr)
	return v, err == nil
}

// resolveFeed returns the settable feed living at addr. Feeds are state
// backed, so any address the gate owner points at works across restarts.
func (e *Ecosystem) resolveFeed(addr cnu.Address) (pricefeed.Feed, bool) {
	if addr == FeedAddress {
		return e.Feed, true
	}
	return pricefeed.New(addr, e.st), true
}

func (e *Ecosystem) resolveAsset(asset cnu.Address) (splitbuy.Ledger, bool) {
	if asset == TokenAddress {
		return e.Token, true
	}
	return nil, false
}

// TotalValueLocked sums the balances of the current vaults.
func (e *Ecosystem) TotalValueLocked() (*big.Int, error) {
	total := new(big.Int)
	for _, get := range []func() (cnu.Address, error){
		e.Token.StakingVault, e.Token.CharityVault, e.Token.TreasuryVault,
	} {
		addr, err := get()
		if err != nil {
			return nil, err
		}
		if addr.IsZero() {
			continue
		}
		bal, err := e.Token.BalanceOf(addr)
		if err != nil {
			return nil, err
		}
		total.Add(total, bal)
	}
	return total, nil
}
