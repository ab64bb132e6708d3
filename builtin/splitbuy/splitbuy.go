// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package splitbuy implements the payment splitter. Incoming payments in an
// allowed asset are divided between the dev wallet and the holdings wallet
// at a fixed share.
package splitbuy

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

// DevShareBps the dev wallet's share of every payment.
const DevShareBps uint32 = 2000

var (
	logger = log.WithContext("pkg", "splitbuy")

	metricPayments = metrics.LazyLoadCounter("payments_total")
)

var (
	// ErrUnauthorized caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidDevWallet dev wallet is the zero address.
	ErrInvalidDevWallet = errors.New("invalid dev wallet")

	// ErrInvalidHoldingsWallet holdings wallet is the zero address.
	ErrInvalidHoldingsWallet = errors.New("invalid holdings wallet")

	// ErrInvalidAmount amount must be positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrAssetNotAllowed payment asset is not on the allow list.
	ErrAssetNotAllowed = errors.New("asset not allowed")

	// ErrDevTransferFailed the dev share could not be delivered.
	ErrDevTransferFailed = errors.New("dev transfer failed")

	// ErrHoldingsTransferFailed the holdings share could not be delivered.
	ErrHoldingsTransferFailed = errors.New("holdings transfer failed")

	// ErrReentrancy a payment re-entered while one is in flight.
	ErrReentrancy = errors.New("reentrant call")
)

// Ledger moves an asset's balances.
type Ledger interface {
	Transfer(env *runtime.Env, from, to cnu.Address, amount *big.Int) error
}

// AssetResolver looks up the ledger backing an asset address.
type AssetResolver func(asset cnu.Address) (Ledger, bool)

// SplitBuy is the native payment splitter contract.
type SplitBuy struct {
	addr    cnu.Address
	store   *storage
	resolve AssetResolver
	entered bool
}

type storage struct {
	owner    *sslot.Value[cnu.Address]
	dev      *sslot.Value[cnu.Address]
	holdings *sslot.Value[cnu.Address]
	allowed  *sslot.Mapping[cnu.Address, bool]
	// payments processed, overall
	count *sslot.Value[uint64]
}

// New creates the splitter bound to its address and state.
func New(addr cnu.Address, st *state.State) *SplitBuy {
	ctx := sslot.NewContext(addr, st)
	return &SplitBuy{
		addr: addr,
		store: &storage{
			owner:    sslot.NewValue[cnu.Address](ctx, "owner"),
			dev:      sslot.NewValue[cnu.Address](ctx, "dev-wallet"),
			holdings: sslot.NewValue[cnu.Address](ctx, "holdings-wallet"),
			allowed:  sslot.NewMapping[cnu.Address, bool](ctx, "allowed-assets"),
			count:    sslot.NewValue[uint64](ctx, "payment-count"),
		},
	}
}

// Address returns the splitter address.
func (s *SplitBuy) Address() cnu.Address {
	return s.addr
}

// SetAssetResolver wires the asset ledger lookup.
func (s *SplitBuy) SetAssetResolver(r AssetResolver) {
	s.resolve = r
}

// Initialize sets owner and recipient wallets. It can only run once.
func (s *SplitBuy) Initialize(env *runtime.Env, owner, dev, holdings cnu.Address) error {
	current, err := s.store.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrUnauthorized
	}
	if dev.IsZero() {
		return ErrInvalidDevWallet
	}
	if holdings.IsZero() {
		return ErrInvalidHoldingsWallet
	}
	if err := s.store.owner.Set(owner); err != nil {
		return err
	}
	if err := s.store.dev.Set(dev); err != nil {
		return err
	}
	return s.store.holdings.Set(holdings)
}

func (s *SplitBuy) checkOwner(caller cnu.Address) error {
	owner, err := s.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// SetRecipients replaces the payout wallets. Owner only.
func (s *SplitBuy) SetRecipients(env *runtime.Env, caller, dev, holdings cnu.Address) error {
	if err := s.checkOwner(caller); err != nil {
		return err
	}
	if dev.IsZero() {
		return ErrInvalidDevWallet
	}
	if holdings.IsZero() {
		return ErrInvalidHoldingsWallet
	}
	if err := s.store.dev.Set(dev); err != nil {
		return err
	}
	if err := s.store.holdings.Set(holdings); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: s.addr,
		Name:     "RecipientsUpdated",
		Args: []runtime.Arg{
			runtime.AddressArg("dev", dev),
			runtime.AddressArg("holdings", holdings),
		},
	})
	return nil
}

// SetAllowedAsset flips an asset's allow-list entry. Owner only.
func (s *SplitBuy) SetAllowedAsset(env *runtime.Env, caller, asset cnu.Address, allowed bool) error {
	if err := s.checkOwner(caller); err != nil {
		return err
	}
	if err := s.store.allowed.Set(asset, allowed); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: s.addr,
		Name:     "AllowedAssetUpdated",
		Args: []runtime.Arg{
			runtime.AddressArg("asset", asset),
			runtime.StringArg("allowed", boolString(allowed)),
		},
	})
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Pay splits the payment between the dev and holdings wallets. The dev
// wallet takes DevShareBps, rounding dust goes to holdings.
func (s *SplitBuy) Pay(env *runtime.Env, caller cnu.Address, paymentID string, asset cnu.Address, amount *big.Int) error {
	if s.entered {
		return ErrReentrancy
	}
	s.entered = true
	defer func() { s.entered = false }()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowed, err := s.store.allowed.Get(asset)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAssetNotAllowed
	}
	ledger, ok := s.resolve(asset)
	if !ok {
		return ErrAssetNotAllowed
	}

	dev, err := s.store.dev.Get()
	if err != nil {
		return err
	}
	holdings, err := s.store.holdings.Get()
	if err != nil {
		return err
	}

	devShare := new(big.Int).Mul(amount, big.NewInt(int64(DevShareBps)))
	devShare.Div(devShare, big.NewInt(cnu.BpsDenominator))
	holdingsShare := new(big.Int).Sub(amount, devShare)

	count, err := s.store.count.Get()
	if err != nil {
		return err
	}
	if err := s.store.count.Set(count + 1); err != nil {
		return err
	}

	if devShare.Sign() > 0 {
		if err := ledger.Transfer(env, caller, dev, devShare); err != nil {
			return errors.Wrap(ErrDevTransferFailed, err.Error())
		}
	}
	if holdingsShare.Sign() > 0 {
		if err := ledger.Transfer(env, caller, holdings, holdingsShare); err != nil {
			return errors.Wrap(ErrHoldingsTransferFailed, err.Error())
		}
	}

	metricPayments().Add(1)
	env.Emit(runtime.Event{
		Contract: s.addr,
		Name:     "PaymentReceived",
		Args: []runtime.Arg{
			runtime.StringArg("paymentID", paymentID),
			runtime.AddressArg("payer", caller),
			runtime.AddressArg("asset", asset),
			runtime.AmountArg("amount", amount),
			runtime.AmountArg("devShare", devShare),
			runtime.AmountArg("holdingsShare", holdingsShare),
			runtime.AddressArg("dev", dev),
			runtime.AddressArg("holdings", holdings),
		},
	})
	logger.Debug("payment", "id", paymentID, "payer", caller, "amount", amount)
	return nil
}

// Recipients returns the payout wallets.
func (s *SplitBuy) Recipients() (dev, holdings cnu.Address, err error) {
	if dev, err = s.store.dev.Get(); err != nil {
		return
	}
	holdings, err = s.store.holdings.Get()
	return
}

// AssetAllowed reports whether asset is on the allow list.
func (s *SplitBuy) AssetAllowed(asset cnu.Address) (bool, error) {
	return s.store.allowed.Get(asset)
}

// PaymentCount returns how many payments have been processed.
func (s *SplitBuy) PaymentCount() (uint64, error) {
	return s.store.count.Get()
}

// Owner returns the splitter owner.
func (s *SplitBuy) Owner() (cnu.Address, error) {
	return s.store.owner.Get()
}
