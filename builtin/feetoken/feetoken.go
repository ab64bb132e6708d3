// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package feetoken implements the CNU token, a fee-splitting deflationary
// ledger. Every non-exempt transfer burns a slice of the amount and routes
// further slices to the charity and staking vaults.
package feetoken

import (
	"math/big"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

const (
	// Name token name.
	Name = "Companion Network Unit"
	// Symbol token symbol.
	Symbol = "CNU"
	// Decimals token decimal places.
	Decimals = cnu.TokenDecimals

	// MaxTotalFeeBps ceiling for the combined fee rate.
	MaxTotalFeeBps = 500
)

// DefaultFees fee rates applied at initialization.
var DefaultFees = FeeConfig{BurnBps: 100, CharityBps: 100, RewardsBps: 150}

var (
	logger = log.WithContext("pkg", "feetoken")

	metricTransfers = metrics.LazyLoadCounterVec("token_transfers_total", []string{"fee"})
	metricBurned    = metrics.LazyLoadCounter("token_burns_total")
)

// Vault is the hook surface the token drives on fee receipt and rotation.
// The token passes its own address as the caller so vaults can reject
// anyone else invoking the hooks directly.
type Vault interface {
	// ReceiveFee is called after fee amounts have been credited to the vault.
	ReceiveFee(env *runtime.Env, caller cnu.Address, amount *big.Int) error
	// MigrateTo hands the vault's holdings over to its successor.
	MigrateTo(env *runtime.Env, caller, newVault cnu.Address) error
}

// Finalizable is implemented by vaults that are sealed when rotated out.
type Finalizable interface {
	Finalize(env *runtime.Env, caller cnu.Address) error
}

// VaultResolver looks up the vault hook registered at an address.
type VaultResolver func(addr cnu.Address) (Vault, bool)

// VaultKind designates one of the token's vault pointers.
type VaultKind = uint8

const (
	VaultStaking VaultKind = iota
	VaultCharity
	VaultTreasury
)

// FeeToken is the native CNU token contract.
type FeeToken struct {
	addr    cnu.Address
	store   *storage
	resolve VaultResolver
	entered bool
}

// New creates the token bound to its address and state.
func New(addr cnu.Address, st *state.State) *FeeToken {
	return &FeeToken{
		addr:  addr,
		store: newStorage(sslot.NewContext(addr, st)),
	}
}

// Address returns the contract address.
func (t *FeeToken) Address() cnu.Address {
	return t.addr
}

// SetVaultResolver wires the vault hook lookup. Must be set before transfers
// charge fees or vaults rotate.
func (t *FeeToken) SetVaultResolver(r VaultResolver) {
	t.resolve = r
}

// Initialize mints the initial supply to owner and seeds config and vault
// pointers. It can only run once.
func (t *FeeToken) Initialize(env *runtime.Env, owner, staking, charity, treasury cnu.Address) error {
	current, err := t.store.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrUnauthorized
	}
	if owner.IsZero() || staking.IsZero() || charity.IsZero() || treasury.IsZero() {
		return ErrInvalidVault
	}

	if err := t.store.owner.Set(owner); err != nil {
		return err
	}
	if err := t.store.fees.Set(DefaultFees); err != nil {
		return err
	}
	if err := t.store.maxTxSize.Set(cnu.InitialMaxTxSize); err != nil {
		return err
	}
	if err := t.store.maxWalletSize.Set(cnu.InitialMaxWalletSize); err != nil {
		return err
	}
	if err := t.store.totalSupply.Set(cnu.InitialSupply); err != nil {
		return err
	}
	if err := t.store.balances.Set(owner, cnu.InitialSupply); err != nil {
		return err
	}
	for _, addr := range []cnu.Address{owner, staking, charity, treasury} {
		if err := t.store.feeExempt.Set(addr, true); err != nil {
			return err
		}
		if err := t.store.limitExempt.Set(addr, true); err != nil {
			return err
		}
	}
	if err := t.setVaultPointer(VaultStaking, staking); err != nil {
		return err
	}
	if err := t.setVaultPointer(VaultCharity, charity); err != nil {
		return err
	}
	if err := t.setVaultPointer(VaultTreasury, treasury); err != nil {
		return err
	}

	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "Transfer",
		Args: []runtime.Arg{
			runtime.AddressArg("from", cnu.Address{}),
			runtime.AddressArg("to", owner),
			runtime.AmountArg("value", cnu.InitialSupply),
		},
	})
	logger.Info("token initialized", "owner", owner, "supply", cnu.InitialSupply)
	return nil
}

// Owner returns the owner address.
func (t *FeeToken) Owner() (cnu.Address, error) {
	return t.store.owner.Get()
}

func (t *FeeToken) checkOwner(caller cnu.Address) error {
	owner, err := t.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// TotalSupply returns the live supply, shrunk by burns.
func (t *FeeToken) TotalSupply() (*big.Int, error) {
	return t.store.totalSupply.Get()
}

// TotalBurned returns the cumulative burned amount.
func (t *FeeToken) TotalBurned() (*big.Int, error) {
	return t.store.totalBurned.Get()
}

// BalanceOf returns the balance of addr.
func (t *FeeToken) BalanceOf(addr cnu.Address) (*big.Int, error) {
	return t.store.balances.Get(addr)
}

// Allowance returns the remaining allowance of spender over owner's balance.
func (t *FeeToken) Allowance(owner, spender cnu.Address) (*big.Int, error) {
	return t.store.allowances.Get(accountPair{owner, spender})
}

// Paused reports the transfer pause switch.
func (t *FeeToken) Paused() (bool, error) {
	return t.store.paused.Get()
}

// Fees returns the current fee rates.
func (t *FeeToken) Fees() (FeeConfig, error) {
	return t.store.fees.Get()
}

// MaxTxSize returns the per-transfer size limit.
func (t *FeeToken) MaxTxSize() (*big.Int, error) {
	return t.store.maxTxSize.Get()
}

// MaxWalletSize returns the per-wallet holding limit.
func (t *FeeToken) MaxWalletSize() (*big.Int, error) {
	return t.store.maxWalletSize.Get()
}

// FeeExempt reports whether addr bypasses fees.
func (t *FeeToken) FeeExempt(addr cnu.Address) (bool, error) {
	return t.store.feeExempt.Get(addr)
}

// LimitExempt reports whether addr bypasses size limits.
func (t *FeeToken) LimitExempt(addr cnu.Address) (bool, error) {
	return t.store.limitExempt.Get(addr)
}

// TotalCharityDistributed returns the cumulative fee amount routed to charity vaults.
func (t *FeeToken) TotalCharityDistributed() (*big.Int, error) {
	return t.store.totalCharityDistributed.Get()
}

// TotalRewardsDistributed returns the cumulative fee amount routed to staking vaults.
func (t *FeeToken) TotalRewardsDistributed() (*big.Int, error) {
	return t.store.totalRewardsDistributed.Get()
}

// Approve sets spender's allowance over caller's balance.
func (t *FeeToken) Approve(env *runtime.Env, caller, spender cnu.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if spender.IsZero() {
		return ErrInvalidRecipient
	}
	if err := t.store.allowances.Set(accountPair{caller, spender}, amount); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "Approval",
		Args: []runtime.Arg{
			runtime.AddressArg("owner", caller),
			runtime.AddressArg("spender", spender),
			runtime.AmountArg("value", amount),
		},
	})
	return nil
}

// Transfer moves amount from caller to recipient, applying fees and limits.
func (t *FeeToken) Transfer(env *runtime.Env, caller, to cnu.Address, amount *big.Int) error {
	return t.transfer(env, caller, to, amount)
}

// TransferFrom moves amount from `from` to `to` consuming caller's allowance.
func (t *FeeToken) TransferFrom(env *runtime.Env, caller, from, to cnu.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	key := accountPair{from, caller}
	allowance, err := t.store.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.transfer(env, from, to, amount); err != nil {
		return err
	}
	return t.store.allowances.Set(key, new(big.Int).Sub(allowance, amount))
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t *FeeToken) balanceAdd(addr cnu.Address, delta *big.Int) error {
	bal, err := t.store.balances.Get(addr)
	if err != nil {
		return err
	}
	return t.store.balances.Set(addr, new(big.Int).Add(bal, delta))
}

// transfer applies the whole transfer pipeline: checks, fee split, balance
// effects, then vault notifications last.
func (t *FeeToken) transfer(env *runtime.Env, from, to cnu.Address, amount *big.Int) error {
	if t.entered {
		return ErrReentrancy
	}
	t.entered = true
	defer func() { t.entered = false }()

	if err := validAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}
	if paused, err := t.store.paused.Get(); err != nil {
		return err
	} else if paused {
		return ErrPaused
	}

	balance, err := t.store.balances.Get(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	if err := t.checkLimits(from, to, amount); err != nil {
		return err
	}

	feeFree, err := t.feeFree(from, to)
	if err != nil {
		return err
	}

	var burnAmt, charityAmt, rewardsAmt *big.Int
	net := amount
	if !feeFree {
		fees, err := t.store.fees.Get()
		if err != nil {
			return err
		}
		totalFee := bpsShare(amount, fees.Total())
		burnAmt = bpsShare(amount, fees.BurnBps)
		charityAmt = bpsShare(amount, fees.CharityBps)
		// rounding remainder sweeps into the rewards share
		rewardsAmt = new(big.Int).Sub(totalFee, new(big.Int).Add(burnAmt, charityAmt))
		net = new(big.Int).Sub(amount, totalFee)
	}

	// effects
	if err := t.store.balances.Set(from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	if err := t.balanceAdd(to, net); err != nil {
		return err
	}

	stakingVault, err := t.store.stakingVault.Get()
	if err != nil {
		return err
	}
	charityVault, err := t.store.charityVault.Get()
	if err != nil {
		return err
	}

	if burnAmt != nil && burnAmt.Sign() > 0 {
		supply, err := t.store.totalSupply.Get()
		if err != nil {
			return err
		}
		if err := t.store.totalSupply.Set(new(big.Int).Sub(supply, burnAmt)); err != nil {
			return err
		}
		burned, err := t.store.totalBurned.Get()
		if err != nil {
			return err
		}
		if err := t.store.totalBurned.Set(new(big.Int).Add(burned, burnAmt)); err != nil {
			return err
		}
		metricBurned().Add(1)
		env.Emit(runtime.Event{
			Contract: t.addr,
			Name:     "Burned",
			Args: []runtime.Arg{
				runtime.AddressArg("from", from),
				runtime.AmountArg("value", burnAmt),
			},
		})
	}
	if charityAmt != nil && charityAmt.Sign() > 0 {
		if charityVault.IsZero() {
			return ErrInvalidVault
		}
		if err := t.balanceAdd(charityVault, charityAmt); err != nil {
			return err
		}
		total, err := t.store.totalCharityDistributed.Get()
		if err != nil {
			return err
		}
		if err := t.store.totalCharityDistributed.Set(new(big.Int).Add(total, charityAmt)); err != nil {
			return err
		}
	}
	if rewardsAmt != nil && rewardsAmt.Sign() > 0 {
		if stakingVault.IsZero() {
			return ErrInvalidVault
		}
		if err := t.balanceAdd(stakingVault, rewardsAmt); err != nil {
			return err
		}
		total, err := t.store.totalRewardsDistributed.Get()
		if err != nil {
			return err
		}
		if err := t.store.totalRewardsDistributed.Set(new(big.Int).Add(total, rewardsAmt)); err != nil {
			return err
		}
	}

	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "Transfer",
		Args: []runtime.Arg{
			runtime.AddressArg("from", from),
			runtime.AddressArg("to", to),
			runtime.AmountArg("value", net),
		},
	})

	// interactions, after all balances settled
	if charityAmt != nil && charityAmt.Sign() > 0 {
		if err := t.notifyFee(env, charityVault, charityAmt); err != nil {
			return err
		}
	}
	if rewardsAmt != nil && rewardsAmt.Sign() > 0 {
		if err := t.notifyFee(env, stakingVault, rewardsAmt); err != nil {
			return err
		}
	}

	if feeFree {
		metricTransfers().AddWithLabel(1, map[string]string{"fee": "exempt"})
	} else {
		metricTransfers().AddWithLabel(1, map[string]string{"fee": "charged"})
	}
	logger.Trace("transfer", "from", from, "to", to, "amount", amount, "net", net)
	return nil
}

func (t *FeeToken) notifyFee(env *runtime.Env, vault cnu.Address, amount *big.Int) error {
	if t.resolve == nil {
		return nil
	}
	hook, ok := t.resolve(vault)
	if !ok {
		return nil
	}
	return hook.ReceiveFee(env, t.addr, amount)
}

func (t *FeeToken) feeFree(from, to cnu.Address) (bool, error) {
	exempt, err := t.store.feeExempt.Get(from)
	if err != nil || exempt {
		return exempt, err
	}
	return t.store.feeExempt.Get(to)
}

func (t *FeeToken) checkLimits(from, to cnu.Address, amount *big.Int) error {
	fromExempt, err := t.store.limitExempt.Get(from)
	if err != nil {
		return err
	}
	toExempt, err := t.store.limitExempt.Get(to)
	if err != nil {
		return err
	}
	// either side exempt lifts both limits
	if fromExempt || toExempt {
		return nil
	}
	maxTx, err := t.store.maxTxSize.Get()
	if err != nil {
		return err
	}
	if amount.Cmp(maxTx) > 0 {
		return ErrTxLimit
	}
	maxWallet, err := t.store.maxWalletSize.Get()
	if err != nil {
		return err
	}
	balance, err := t.store.balances.Get(to)
	if err != nil {
		return err
	}
	if new(big.Int).Add(balance, amount).Cmp(maxWallet) > 0 {
		return ErrWalletLimit
	}
	return nil
}

// bpsShare computes amount*bps/10000 rounded down.
func bpsShare(amount *big.Int, bps uint32) *big.Int {
	share := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return share.Div(share, big.NewInt(cnu.BpsDenominator))
}
