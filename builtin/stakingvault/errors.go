// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingvault

import "github.com/pkg/errors"

var (
	// ErrUnauthorized caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStakingPaused new stakes are suspended.
	ErrStakingPaused = errors.New("staking is paused")

	// ErrVaultFinalized the vault has been rotated out and takes no new stakes.
	ErrVaultFinalized = errors.New("vault is finalized")

	// ErrInvalidTier tier outside the configured table.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInvalidAmount amount is nil or not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidStakeID no stake at that index for the user.
	ErrInvalidStakeID = errors.New("invalid stake id")

	// ErrStillLocked the lock duration has not elapsed.
	ErrStillLocked = errors.New("still locked")

	// ErrAlreadyClaimed the stake was already paid out.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrAlreadyUnlocked the stake was already exited early.
	ErrAlreadyUnlocked = errors.New("already unlocked")
)
