// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accessgating maps a user's USD-denominated holdings, wallet
// balance plus everything owed by past and present staking vaults, onto
// access tiers with configurable thresholds.
package accessgating

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/companion-network/cnu/builtin/pricefeed"
	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var logger = log.WithContext("pkg", "accessgating")

var (
	// ErrUnauthorized caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTier tier outside the adjustable range.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInvalidPrice the oracle quote is zero or negative.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidFeed the feed address is zero or resolves to nothing.
	ErrInvalidFeed = errors.New("invalid price feed")

	// ErrThresholdTooLow new threshold does not exceed the lower tiers.
	ErrThresholdTooLow = errors.New("must be higher than lower tiers")

	// ErrThresholdTooHigh new threshold does not stay below the higher tiers.
	ErrThresholdTooHigh = errors.New("must be lower than higher tiers")
)

// MaxTier the highest access tier.
const MaxTier uint8 = 5

// Token is the slice of the token contract the gate reads.
type Token interface {
	BalanceOf(addr cnu.Address) (*big.Int, error)
	StakingVaultHistory() ([]cnu.Address, error)
}

// StakingView exposes what a staking vault owes a user.
type StakingView interface {
	GetUserOwed(user cnu.Address) (*big.Int, error)
}

// VaultResolver looks up the staking view registered at an address.
type VaultResolver func(addr cnu.Address) (StakingView, bool)

// FeedResolver looks up the price feed living at an address.
type FeedResolver func(addr cnu.Address) (pricefeed.Feed, bool)

// AccessGating is the native gate contract.
type AccessGating struct {
	addr    cnu.Address
	store   *storage
	token   Token
	feed    pricefeed.Feed
	resolve VaultResolver
	feeds   FeedResolver
}

type storage struct {
	owner      *sslot.Value[cnu.Address]
	feed       *sslot.Value[cnu.Address]
	thresholds *sslot.Mapping[sslot.Uint64Key, *big.Int]
}

// New creates the gate bound to its address and state.
func New(addr cnu.Address, st *state.State) *AccessGating {
	ctx := sslot.NewContext(addr, st)
	return &AccessGating{
		addr: addr,
		store: &storage{
			owner:      sslot.NewValue[cnu.Address](ctx, "owner"),
			feed:       sslot.NewValue[cnu.Address](ctx, "price-feed"),
			thresholds: sslot.NewMapping[sslot.Uint64Key, *big.Int](ctx, "thresholds"),
		},
	}
}

// Address returns the gate address.
func (g *AccessGating) Address() cnu.Address {
	return g.addr
}

// Wire connects the gate to the token, its lookups and the feed used until
// the owner points it elsewhere through SetPriceFeed.
func (g *AccessGating) Wire(token Token, feed pricefeed.Feed, resolve VaultResolver, feeds FeedResolver) {
	g.token = token
	g.feed = feed
	g.resolve = resolve
	g.feeds = feeds
}

// defaultThresholds USD values (18 decimals) per tier. Tier 1 admits any
// positive value.
func defaultThresholds() map[uint8]*big.Int {
	usd := func(n int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(n), cnu.WeiPerToken)
	}
	return map[uint8]*big.Int{
		1: big.NewInt(1),
		2: usd(100),
		3: usd(500),
		4: usd(1000),
		5: usd(10000),
	}
}

// Initialize sets the owner and the default tier thresholds. It can only run once.
func (g *AccessGating) Initialize(env *runtime.Env, owner cnu.Address) error {
	current, err := g.store.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrUnauthorized
	}
	if err := g.store.owner.Set(owner); err != nil {
		return err
	}
	for tier, value := range defaultThresholds() {
		if err := g.store.thresholds.Set(sslot.Uint64Key(tier), value); err != nil {
			return err
		}
	}
	return nil
}

// Threshold returns the USD threshold of a tier.
func (g *AccessGating) Threshold(tier uint8) (*big.Int, error) {
	if tier < 1 || tier > MaxTier {
		return nil, ErrInvalidTier
	}
	return g.store.thresholds.Get(sslot.Uint64Key(tier))
}

// SetThreshold replaces the USD threshold of a tier. Owner only. Tier 1 is
// fixed and tiers must stay strictly ordered.
func (g *AccessGating) SetThreshold(env *runtime.Env, caller cnu.Address, tier uint8, value *big.Int) error {
	owner, err := g.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	if tier < 2 || tier > MaxTier {
		return ErrInvalidTier
	}
	if value == nil || value.Sign() <= 0 {
		return ErrThresholdTooLow
	}

	lower, err := g.store.thresholds.Get(sslot.Uint64Key(tier - 1))
	if err != nil {
		return err
	}
	if value.Cmp(lower) <= 0 {
		return ErrThresholdTooLow
	}
	if tier < MaxTier {
		higher, err := g.store.thresholds.Get(sslot.Uint64Key(tier + 1))
		if err != nil {
			return err
		}
		if value.Cmp(higher) >= 0 {
			return ErrThresholdTooHigh
		}
	}

	if err := g.store.thresholds.Set(sslot.Uint64Key(tier), value); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: g.addr,
		Name:     "ThresholdUpdated",
		Args: []runtime.Arg{
			runtime.UintArg("tier", uint64(tier)),
			runtime.AmountArg("value", value),
		},
	})
	logger.Info("threshold updated", "tier", tier, "value", value)
	return nil
}

// MaxPrice returns the highest oracle quote the gate will work with.
func (g *AccessGating) MaxPrice() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	max.Sub(max, big.NewInt(1))
	return max.Div(max, cnu.WeiPerToken)
}

// SetPriceFeed points the gate at a new oracle. Owner only.
func (g *AccessGating) SetPriceFeed(env *runtime.Env, caller, feed cnu.Address) error {
	owner, err := g.store.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	if feed.IsZero() {
		return ErrInvalidFeed
	}
	if g.feeds != nil {
		if _, ok := g.feeds(feed); !ok {
			return ErrInvalidFeed
		}
	}
	previous, err := g.store.feed.Get()
	if err != nil {
		return err
	}
	if err := g.store.feed.Set(feed); err != nil {
		return err
	}
	env.Emit(runtime.Event{
		Contract: g.addr,
		Name:     "PriceFeedUpdated",
		Args: []runtime.Arg{
			runtime.AddressArg("previous", previous),
			runtime.AddressArg("current", feed),
		},
	})
	logger.Info("price feed updated", "previous", previous, "current", feed)
	return nil
}

// PriceFeed returns the stored feed address, zero while the wired default
// is still in use.
func (g *AccessGating) PriceFeed() (cnu.Address, error) {
	return g.store.feed.Get()
}

// activeFeed resolves the stored feed address, falling back to the wired
// default while none has been set.
func (g *AccessGating) activeFeed() (pricefeed.Feed, error) {
	addr, err := g.store.feed.Get()
	if err != nil {
		return nil, err
	}
	if addr.IsZero() || g.feeds == nil {
		return g.feed, nil
	}
	feed, ok := g.feeds(addr)
	if !ok {
		return nil, ErrInvalidFeed
	}
	return feed, nil
}

// GetUSD converts a token amount into its USD value using the oracle quote.
func (g *AccessGating) GetUSD(amount *big.Int) (*big.Int, error) {
	feed, err := g.activeFeed()
	if err != nil {
		return nil, err
	}
	price, err := feed.LatestPrice()
	if err != nil {
		return nil, err
	}
	if price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	value := new(big.Int).Mul(amount, price)
	return value.Div(value, cnu.WeiPerToken), nil
}

// GetUserStakedOwed sums what every staking vault the token has ever used
// owes the user. Each distinct vault counts once.
func (g *AccessGating) GetUserStakedOwed(user cnu.Address) (*big.Int, error) {
	history, err := g.token.StakingVaultHistory()
	if err != nil {
		return nil, err
	}
	owed := new(big.Int)
	seen := make(map[cnu.Address]bool, len(history))
	for _, addr := range history {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		vault, ok := g.resolve(addr)
		if !ok {
			continue
		}
		v, err := vault.GetUserOwed(user)
		if err != nil {
			return nil, err
		}
		owed.Add(owed, v)
	}
	return owed, nil
}

// GetUserUSD values the user's wallet balance plus staked holdings in USD.
func (g *AccessGating) GetUserUSD(user cnu.Address) (*big.Int, error) {
	balance, err := g.token.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	staked, err := g.GetUserStakedOwed(user)
	if err != nil {
		return nil, err
	}
	return g.GetUSD(new(big.Int).Add(balance, staked))
}

// GetTier returns the highest tier whose threshold the user's USD value
// reaches, zero for none.
func (g *AccessGating) GetTier(user cnu.Address) (uint8, error) {
	value, err := g.GetUserUSD(user)
	if err != nil {
		return 0, err
	}
	for tier := MaxTier; tier >= 1; tier-- {
		threshold, err := g.store.thresholds.Get(sslot.Uint64Key(tier))
		if err != nil {
			return 0, err
		}
		if threshold.Sign() > 0 && threshold.Cmp(value) <= 0 {
			return tier, nil
		}
	}
	return 0, nil
}

// HasAccess reports whether the user's tier meets the requirement.
func (g *AccessGating) HasAccess(user cnu.Address, requiredTier uint8) (bool, error) {
	tier, err := g.GetTier(user)
	if err != nil {
		return false, err
	}
	return tier >= requiredTier, nil
}

// Owner returns the gate owner.
func (g *AccessGating) Owner() (cnu.Address, error) {
	return g.store.owner.Get()
}
