// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feetoken

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/runtime"
)

// SetFees replaces the fee rates. Owner only, total capped.
func (t *FeeToken) SetFees(env *runtime.Env, caller cnu.Address, fees FeeConfig) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if fees.Total() > MaxTotalFeeBps {
		return ErrFeeCapExceeded
	}
	if err := t.store.fees.Set(fees); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "FeesUpdated",
		Args: []runtime.Arg{
			runtime.UintArg("burnBps", uint64(fees.BurnBps)),
			runtime.UintArg("charityBps", uint64(fees.CharityBps)),
			runtime.UintArg("rewardsBps", uint64(fees.RewardsBps)),
		},
	})
	logger.Info("fees updated", "burn", fees.BurnBps, "charity", fees.CharityBps, "rewards", fees.RewardsBps)
	return nil
}

// SetMaxTxSize replaces the per-transfer limit. Owner only, floored.
func (t *FeeToken) SetMaxTxSize(env *runtime.Env, caller cnu.Address, size *big.Int) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if size == nil || size.Cmp(cnu.MinLimitSize) < 0 {
		return ErrMaxTxTooSmall
	}
	if err := t.store.maxTxSize.Set(size); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "MaxTxSizeUpdated",
		Args:     []runtime.Arg{runtime.AmountArg("size", size)},
	})
	return nil
}

// SetMaxWalletSize replaces the per-wallet limit. Owner only, floored.
func (t *FeeToken) SetMaxWalletSize(env *runtime.Env, caller cnu.Address, size *big.Int) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if size == nil || size.Cmp(cnu.MinLimitSize) < 0 {
		return ErrMaxWalletTooSmall
	}
	if err := t.store.maxWalletSize.Set(size); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "MaxWalletSizeUpdated",
		Args:     []runtime.Arg{runtime.AmountArg("size", size)},
	})
	return nil
}

// SetFeeExempt flips fee exemption for addr. Owner only.
func (t *FeeToken) SetFeeExempt(env *runtime.Env, caller, addr cnu.Address, exempt bool) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if err := t.store.feeExempt.Set(addr, exempt); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "FeeExemptionUpdated",
		Args: []runtime.Arg{
			runtime.AddressArg("account", addr),
			runtime.StringArg("exempt", boolArg(exempt)),
		},
	})
	return nil
}

// SetLimitExempt flips limit exemption for addr. Owner only.
func (t *FeeToken) SetLimitExempt(env *runtime.Env, caller, addr cnu.Address, exempt bool) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if err := t.store.limitExempt.Set(addr, exempt); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     "LimitExemptionUpdated",
		Args: []runtime.Arg{
			runtime.AddressArg("account", addr),
			runtime.StringArg("exempt", boolArg(exempt)),
		},
	})
	return nil
}

func boolArg(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Pause suspends transfers. Owner only.
func (t *FeeToken) Pause(env *runtime.Env, caller cnu.Address) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if err := t.store.paused.Set(true); err != nil {
		return err
	}
	env.Emit(runtime.Event{Contract: t.addr, Name: "Paused"})
	logger.Info("token paused")
	return nil
}

// Unpause resumes transfers. Owner only.
func (t *FeeToken) Unpause(env *runtime.Env, caller cnu.Address) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if err := t.store.paused.Set(false); err != nil {
		return err
	}
	env.Emit(runtime.Event{Contract: t.addr, Name: "Unpaused"})
	logger.Info("token unpaused")
	return nil
}

func (t *FeeToken) vaultSlots(kind VaultKind) (ptr *sslot.Value[cnu.Address], history *sslot.Array[cnu.Address], eventName string) {
	switch kind {
	case VaultStaking:
		return t.store.stakingVault, t.store.stakingHistory, "StakingVaultUpdated"
	case VaultCharity:
		return t.store.charityVault, t.store.charityHistory, "CharityVaultUpdated"
	default:
		return t.store.treasuryVault, t.store.treasuryHistory, "TreasuryVaultUpdated"
	}
}

// setVaultPointer updates a pointer and appends to its registry, skipping
// the append only when the tail already equals the new address.
func (t *FeeToken) setVaultPointer(kind VaultKind, addr cnu.Address) error {
	ptr, history, _ := t.vaultSlots(kind)
	if err := ptr.Set(addr); err != nil {
		return err
	}
	n, err := history.Len()
	if err != nil {
		return err
	}
	if n > 0 {
		tail, err := history.Get(n - 1)
		if err != nil {
			return err
		}
		if tail == addr {
			return nil
		}
	}
	_, err = history.Append(addr)
	return err
}

// SetVault rotates a vault pointer. The old vault migrates its holdings to
// the new one first; any migration failure aborts the rotation. A rotated-out
// staking vault is finalized.
func (t *FeeToken) SetVault(env *runtime.Env, caller cnu.Address, kind VaultKind, newVault cnu.Address) error {
	if err := t.checkOwner(caller); err != nil {
		return err
	}
	if newVault.IsZero() {
		return ErrInvalidVault
	}
	ptr, _, eventName := t.vaultSlots(kind)
	old, err := ptr.Get()
	if err != nil {
		return err
	}
	if old == newVault {
		return ErrSameVault
	}

	if !old.IsZero() && t.resolve != nil {
		hook, ok := t.resolve(old)
		if !ok {
			return ErrInvalidVault
		}
		if err := hook.MigrateTo(env, t.addr, newVault); err != nil {
			return errors.Wrap(ErrMigrationFailed, err.Error())
		}
		if kind == VaultStaking {
			if fin, ok := hook.(Finalizable); ok {
				if err := fin.Finalize(env, t.addr); err != nil {
					return err
				}
			}
		}
	}

	if err := t.setVaultPointer(kind, newVault); err != nil {
		return err
	}
	for _, fn := range []func(cnu.Address, bool) error{t.store.feeExempt.Set, t.store.limitExempt.Set} {
		if err := fn(newVault, true); err != nil {
			return err
		}
	}

	env.Emit(runtime.Event{
		Contract: t.addr,
		Name:     eventName,
		Args: []runtime.Arg{
			runtime.AddressArg("previous", old),
			runtime.AddressArg("current", newVault),
		},
	})
	logger.Info("vault rotated", "kind", kind, "old", old, "new", newVault)
	return nil
}

// SetStakingVault rotates the staking vault pointer.
func (t *FeeToken) SetStakingVault(env *runtime.Env, caller, newVault cnu.Address) error {
	return t.SetVault(env, caller, VaultStaking, newVault)
}

// SetCharityVault rotates the charity vault pointer.
func (t *FeeToken) SetCharityVault(env *runtime.Env, caller, newVault cnu.Address) error {
	return t.SetVault(env, caller, VaultCharity, newVault)
}

// SetTreasuryVault rotates the treasury vault pointer.
func (t *FeeToken) SetTreasuryVault(env *runtime.Env, caller, newVault cnu.Address) error {
	return t.SetVault(env, caller, VaultTreasury, newVault)
}

// StakingVault returns the current staking vault address.
func (t *FeeToken) StakingVault() (cnu.Address, error) {
	return t.store.stakingVault.Get()
}

// CharityVault returns the current charity vault address.
func (t *FeeToken) CharityVault() (cnu.Address, error) {
	return t.store.charityVault.Get()
}

// TreasuryVault returns the current treasury vault address.
func (t *FeeToken) TreasuryVault() (cnu.Address, error) {
	return t.store.treasuryVault.Get()
}

// VaultHistory returns every address a vault pointer has held, in order.
func (t *FeeToken) VaultHistory(kind VaultKind) ([]cnu.Address, error) {
	_, history, _ := t.vaultSlots(kind)
	return history.All()
}

// StakingVaultHistory returns the staking vault registry.
func (t *FeeToken) StakingVaultHistory() ([]cnu.Address, error) {
	return t.VaultHistory(VaultStaking)
}

// CharityVaultHistory returns the charity vault registry.
func (t *FeeToken) CharityVaultHistory() ([]cnu.Address, error) {
	return t.VaultHistory(VaultCharity)
}

// TreasuryVaultHistory returns the treasury vault registry.
func (t *FeeToken) TreasuryVaultHistory() ([]cnu.Address, error) {
	return t.VaultHistory(VaultTreasury)
}
