// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package treasuryvault implements the operational treasury. Anyone can fund
// it; the owner pays claims and withdraws with a memo trail.
package treasuryvault

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var logger = log.WithContext("pkg", "treasuryvault")

var (
	// ErrUnauthorized caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAmount amount is nil or not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance vault holds less than requested.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidRecipient recipient is the zero address.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// Ledger is the slice of the token the vault moves funds through.
type Ledger interface {
	Address() cnu.Address
	BalanceOf(addr cnu.Address) (*big.Int, error)
	Transfer(env *runtime.Env, from, to cnu.Address, amount *big.Int) error
}

// TreasuryVault is a native treasury vault instance.
type TreasuryVault struct {
	addr   cnu.Address
	store  *storage
	ledger Ledger
}

type storage struct {
	owner          *sslot.Value[cnu.Address]
	fundedTotal    *sslot.Value[*big.Int]
	claimsTotal    *sslot.Value[*big.Int]
	withdrawnTotal *sslot.Value[*big.Int]
}

// New creates a treasury vault bound to its address and state.
func New(addr cnu.Address, st *state.State) *TreasuryVault {
	ctx := sslot.NewContext(addr, st)
	return &TreasuryVault{
		addr: addr,
		store: &storage{
			owner:          sslot.NewValue[cnu.Address](ctx, "owner"),
			fundedTotal:    sslot.NewValue[*big.Int](ctx, "funded-total"),
			claimsTotal:    sslot.NewValue[*big.Int](ctx, "claims-total"),
			withdrawnTotal: sslot.NewValue[*big.Int](ctx, "withdrawn-total"),
		},
	}
}

// Address returns the vault address.
func (v *TreasuryVault) Address() cnu.Address {
	return v.addr
}

// SetLedger wires the token ledger.
func (v *TreasuryVault) SetLedger(l Ledger) {
	v.ledger = l
}

// Initialize sets the vault owner. It can only run once.
func (v *TreasuryVault) Initialize(env *runtime.Env, owner cnu.Address) error {
	current, err := v.store.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrUnauthorized
	}
	return v.store.owner.Set(owner)
}

// checkToken admits only the token contract the vault is wired to.
func (v *TreasuryVault) checkToken(caller cnu.Address) error {
	if v.ledger == nil || caller != v.ledger.Address() {
		return ErrUnauthorized
	}
	return nil
}

func (v *TreasuryVault) checkOwner(caller cnu.Address) error {
	owner, err := v.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// Fund moves amount from the caller into the treasury.
func (v *TreasuryVault) Fund(env *runtime.Env, caller cnu.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := v.ledger.Transfer(env, caller, v.addr, amount); err != nil {
		return err
	}
	funded, err := v.store.fundedTotal.Get()
	if err != nil {
		return err
	}
	if err := v.store.fundedTotal.Set(new(big.Int).Add(funded, amount)); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "TreasuryFunded",
		Args: []runtime.Arg{
			runtime.AddressArg("funder", caller),
			runtime.AmountArg("amount", amount),
		},
	})
	return nil
}

func (v *TreasuryVault) payOut(env *runtime.Env, caller, to cnu.Address, amount *big.Int, total *sslot.Value[*big.Int], eventName, memo string) error {
	if err := v.checkOwner(caller); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := v.ledger.BalanceOf(v.addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	cur, err := total.Get()
	if err != nil {
		return err
	}
	if err := total.Set(new(big.Int).Add(cur, amount)); err != nil {
		return err
	}
	if err := v.ledger.Transfer(env, v.addr, to, amount); err != nil {
		return err
	}

	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     eventName,
		Args: []runtime.Arg{
			runtime.AddressArg("to", to),
			runtime.AmountArg("amount", amount),
			runtime.StringArg("memo", memo),
		},
	})
	logger.Info("treasury payout", "kind", eventName, "to", to, "amount", amount, "memo", memo)
	return nil
}

// PayClaim settles a claim against the treasury. Owner only.
func (v *TreasuryVault) PayClaim(env *runtime.Env, caller, to cnu.Address, amount *big.Int, memo string) error {
	return v.payOut(env, caller, to, amount, v.store.claimsTotal, "ClaimPaid", memo)
}

// Withdraw moves funds out of the treasury. Owner only.
func (v *TreasuryVault) Withdraw(env *runtime.Env, caller, to cnu.Address, amount *big.Int, memo string) error {
	return v.payOut(env, caller, to, amount, v.store.withdrawnTotal, "TreasuryWithdrawn", memo)
}

// ReceiveFee records income credited by the token.
// Only the token may call it.
func (v *TreasuryVault) ReceiveFee(env *runtime.Env, caller cnu.Address, amount *big.Int) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	funded, err := v.store.fundedTotal.Get()
	if err != nil {
		return err
	}
	return v.store.fundedTotal.Set(new(big.Int).Add(funded, amount))
}

// MigrateTo hands the entire balance over to the successor vault.
// Only the token may call it.
func (v *TreasuryVault) MigrateTo(env *runtime.Env, caller, newVault cnu.Address) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	balance, err := v.ledger.BalanceOf(v.addr)
	if err != nil {
		return err
	}
	if balance.Sign() > 0 {
		if err := v.ledger.Transfer(env, v.addr, newVault, balance); err != nil {
			return err
		}
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "Migrated",
		Args: []runtime.Arg{
			runtime.AddressArg("newVault", newVault),
			runtime.AmountArg("amount", balance),
		},
	})
	logger.Info("treasury vault migrated", "new", newVault, "moved", balance)
	return nil
}

// FundedTotal returns cumulative inflows.
func (v *TreasuryVault) FundedTotal() (*big.Int, error) {
	return v.store.fundedTotal.Get()
}

// ClaimsTotal returns cumulative claim payouts.
func (v *TreasuryVault) ClaimsTotal() (*big.Int, error) {
	return v.store.claimsTotal.Get()
}

// WithdrawnTotal returns cumulative withdrawals.
func (v *TreasuryVault) WithdrawnTotal() (*big.Int, error) {
	return v.store.withdrawnTotal.Get()
}

// Owner returns the vault owner.
func (v *TreasuryVault) Owner() (cnu.Address, error) {
	return v.store.owner.Get()
}
