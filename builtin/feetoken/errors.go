// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feetoken

import "github.com/pkg/errors"

var (
	// ErrUnauthorized caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPaused transfers are suspended.
	ErrPaused = errors.New("token is paused")

	// ErrInvalidAmount amount is nil or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance sender balance too low.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance spender allowance too low.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrTxLimit transfer exceeds the per-transaction size limit.
	ErrTxLimit = errors.New("exceeds max transaction size")

	// ErrWalletLimit transfer would push recipient over the wallet size limit.
	ErrWalletLimit = errors.New("exceeds max wallet size")

	// ErrFeeCapExceeded proposed rates sum above the fee ceiling.
	ErrFeeCapExceeded = errors.New("total fee exceeds limit")

	// ErrMaxTxTooSmall proposed tx size limit below the floor.
	ErrMaxTxTooSmall = errors.New("maximum transaction size too small")

	// ErrMaxWalletTooSmall proposed wallet size limit below the floor.
	ErrMaxWalletTooSmall = errors.New("maximum wallet size too small")

	// ErrSameVault rotation target equals the current vault.
	ErrSameVault = errors.New("same vault address")

	// ErrInvalidVault rotation target is the zero address or unknown.
	ErrInvalidVault = errors.New("invalid vault address")

	// ErrInvalidRecipient transfer recipient or approval spender is the
	// zero address.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrMigrationFailed old vault could not hand over to the new one.
	ErrMigrationFailed = errors.New("migration transfer failed")

	// ErrReentrancy transfer re-entered while one is in flight.
	ErrReentrancy = errors.New("reentrant call")
)
