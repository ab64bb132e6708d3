// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package charityvault implements the donation pool fed by the token's
// charity fee. The owner disburses from it with a memo trail.
package charityvault

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var logger = log.WithContext("pkg", "charityvault")

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

// CharityVault is a native charity vault instance.
type CharityVault struct {
	addr   cnu.Address
	store  *storage
	ledger Ledger
}

type storage struct {
	owner         *sslot.Value[cnu.Address]
	receivedTotal *sslot.Value[*big.Int]
	spentTotal    *sslot.Value[*big.Int]
}

// New creates a charity vault bound to its address and state.
func New(addr cnu.Address, st *state.State) *CharityVault {
	ctx := sslot.NewContext(addr, st)
	return &CharityVault{
		addr: addr,
		store: &storage{
			owner:         sslot.NewValue[cnu.Address](ctx, "owner"),
			receivedTotal: sslot.NewValue[*big.Int](ctx, "received-total"),
			spentTotal:    sslot.NewValue[*big.Int](ctx, "spent-total"),
		},
	}
}

// Address returns the vault address.
func (v *CharityVault) Address() cnu.Address {
	return v.addr
}

// SetLedger wires the token ledger.
func (v *CharityVault) SetLedger(l Ledger) {
	v.ledger = l
}

// Initialize sets the vault owner. It can only run once.
func (v *CharityVault) Initialize(env *runtime.Env, owner cnu.Address) error {
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
func (v *CharityVault) checkToken(caller cnu.Address) error {
	if v.ledger == nil || caller != v.ledger.Address() {
		return ErrUnauthorized
	}
	return nil
}

func (v *CharityVault) checkOwner(caller cnu.Address) error {
	owner, err := v.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// FundVault moves amount from the caller into the vault.
func (v *CharityVault) FundVault(env *runtime.Env, caller cnu.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := v.ledger.Transfer(env, caller, v.addr, amount); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "CharityFunded",
		Args: []runtime.Arg{
			runtime.AddressArg("funder", caller),
			runtime.AmountArg("amount", amount),
		},
	})
	return nil
}

// Spend disburses amount to a recipient. Owner only.
func (v *CharityVault) Spend(env *runtime.Env, caller, to cnu.Address, amount *big.Int, memo string) error {
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

	spent, err := v.store.spentTotal.Get()
	if err != nil {
		return err
	}
	if err := v.store.spentTotal.Set(new(big.Int).Add(spent, amount)); err != nil {
		return err
	}
	if err := v.ledger.Transfer(env, v.addr, to, amount); err != nil {
		return err
	}

	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "CharitySpent",
		Args: []runtime.Arg{
			runtime.AddressArg("to", to),
			runtime.AmountArg("amount", amount),
			runtime.StringArg("memo", memo),
		},
	})
	logger.Info("charity spend", "to", to, "amount", amount, "memo", memo)
	return nil
}

// ReceiveFee records fee income credited by the token.
// Only the token may call it.
func (v *CharityVault) ReceiveFee(env *runtime.Env, caller cnu.Address, amount *big.Int) error {
	if err := v.checkToken(caller); err != nil {
		return err
	}
	received, err := v.store.receivedTotal.Get()
	if err != nil {
		return err
	}
	if err := v.store.receivedTotal.Set(new(big.Int).Add(received, amount)); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: v.addr,
		Name:     "FeeReceived",
		Args:     []runtime.Arg{runtime.AmountArg("amount", amount)},
	})
	return nil
}

// MigrateTo hands the entire balance over to the successor vault.
// Only the token may call it.
func (v *CharityVault) MigrateTo(env *runtime.Env, caller, newVault cnu.Address) error {
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
	logger.Info("charity vault migrated", "new", newVault, "moved", balance)
	return nil
}

// ReceivedTotal returns cumulative fee income.
func (v *CharityVault) ReceivedTotal() (*big.Int, error) {
	return v.store.receivedTotal.Get()
}

// SpentTotal returns cumulative disbursements.
func (v *CharityVault) SpentTotal() (*big.Int, error) {
	return v.store.spentTotal.Get()
}

// Owner returns the vault owner.
func (v *CharityVault) Owner() (cnu.Address, error) {
	return v.store.owner.Get()
}
