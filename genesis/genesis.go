// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis stands up a fresh token ecosystem from a config.
package genesis

import (
	"maps"
	"math/big"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/builtin/feetoken"
	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/runtime"
)

var logger = log.WithContext("pkg", "genesis")

// Allocation is an initial balance moved from the owner at genesis.
type Allocation struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"` // wei, decimal
}

// Fees overrides the default fee rates, in basis points.
type Fees struct {
	BurnBps    uint32 `yaml:"burnBps"`
	CharityBps uint32 `yaml:"charityBps"`
	RewardsBps uint32 `yaml:"rewardsBps"`
}

// Config describes the initial ecosystem.
type Config struct {
	Owner string `yaml:"owner"`

	StakingVault  string `yaml:"stakingVault"`
	CharityVault  string `yaml:"charityVault"`
	TreasuryVault string `yaml:"treasuryVault"`

	DevWallet      string `yaml:"devWallet"`
	HoldingsWallet string `yaml:"holdingsWallet"`

	// USD per whole token, 18 decimals, decimal string. Empty leaves the
	// feed unset.
	Price string `yaml:"price"`

	// Optional overrides, zero values keep the defaults.
	Fees          *Fees  `yaml:"fees,omitempty"`
	MaxTxSize     string `yaml:"maxTxSize,omitempty"`     // wei, decimal
	MaxWalletSize string `yaml:"maxWalletSize,omitempty"` // wei, decimal

	// Access tier thresholds in 18-decimal USD, keyed by tier number.
	// Applied low tier to high, tier 1 is fixed and cannot appear here.
	Thresholds map[uint8]string `yaml:"thresholds,omitempty"`

	Allocations []Allocation `yaml:"allocations"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse genesis config")
	}
	return &cfg, nil
}

// DefaultConfig returns a development setup with derived vault addresses
// and a one dollar price.
func DefaultConfig(owner cnu.Address) *Config {
	return &Config{
		Owner:          owner.String(),
		StakingVault:   cnu.BytesToAddress([]byte("cnu-staking-vault-1")).String(),
		CharityVault:   cnu.BytesToAddress([]byte("cnu-charity-vault-1")).String(),
		TreasuryVault:  cnu.BytesToAddress([]byte("cnu-treasury-vault-1")).String(),
		DevWallet:      cnu.BytesToAddress([]byte("cnu-dev-wallet")).String(),
		HoldingsWallet: cnu.BytesToAddress([]byte("cnu-holdings-wallet")).String(),
		Price:          cnu.WeiPerToken.String(),
	}
}

func (c *Config) address(field, s string) (cnu.Address, error) {
	if s == "" {
		return cnu.Address{}, errors.Errorf("genesis config: %s missing", field)
	}
	addr, err := cnu.ParseAddress(s)
	if err != nil {
		return cnu.Address{}, errors.Wrapf(err, "genesis config: %s", field)
	}
	return *addr, nil
}

// Build initializes all contracts within a single execution. The state must
// be empty, initialization is once-only.
func Build(rt *runtime.Runtime, eco *builtin.Ecosystem, cfg *Config) error {
	owner, err := cfg.address("owner", cfg.Owner)
	if err != nil {
		return err
	}
	staking, err := cfg.address("stakingVault", cfg.StakingVault)
	if err != nil {
		return err
	}
	charity, err := cfg.address("charityVault", cfg.CharityVault)
	if err != nil {
		return err
	}
	treasury, err := cfg.address("treasuryVault", cfg.TreasuryVault)
	if err != nil {
		return err
	}
	dev, err := cfg.address("devWallet", cfg.DevWallet)
	if err != nil {
		return err
	}
	holdings, err := cfg.address("holdingsWallet", cfg.HoldingsWallet)
	if err != nil {
		return err
	}

	return rt.Execute(func(env *runtime.Env) error {
		if _, err := eco.DeployStakingVault(env, staking, owner); err != nil {
			return err
		}
		if _, err := eco.DeployCharityVault(env, charity, owner); err != nil {
			return err
		}
		if _, err := eco.DeployTreasuryVault(env, treasury, owner); err != nil {
			return err
		}
		if err := eco.Token.Initialize(env, owner, staking, charity, treasury); err != nil {
			return err
		}
		if err := eco.Gate.Initialize(env, owner); err != nil {
			return err
		}
		if err := eco.Split.Initialize(env, owner, dev, holdings); err != nil {
			return err
		}
		if err := eco.Split.SetAllowedAsset(env, owner, builtin.TokenAddress, true); err != nil {
			return err
		}
		if cfg.Fees != nil {
			fees := feetoken.FeeConfig{
				BurnBps:    cfg.Fees.BurnBps,
				CharityBps: cfg.Fees.CharityBps,
				RewardsBps: cfg.Fees.RewardsBps,
			}
			if err := eco.Token.SetFees(env, owner, fees); err != nil {
				return err
			}
		}
		if cfg.MaxTxSize != "" {
			size, ok := new(big.Int).SetString(cfg.MaxTxSize, 10)
			if !ok {
				return errors.New("genesis config: bad maxTxSize")
			}
			if err := eco.Token.SetMaxTxSize(env, owner, size); err != nil {
				return err
			}
		}
		if cfg.MaxWalletSize != "" {
			size, ok := new(big.Int).SetString(cfg.MaxWalletSize, 10)
			if !ok {
				return errors.New("genesis config: bad maxWalletSize")
			}
			if err := eco.Token.SetMaxWalletSize(env, owner, size); err != nil {
				return err
			}
		}
		for _, tier := range slices.Sorted(maps.Keys(cfg.Thresholds)) {
			value, ok := new(big.Int).SetString(cfg.Thresholds[tier], 10)
			if !ok {
				return errors.Errorf("genesis config: bad threshold for tier %d", tier)
			}
			if err := eco.Gate.SetThreshold(env, owner, tier, value); err != nil {
				return errors.Wrapf(err, "genesis config: threshold tier %d", tier)
			}
		}
		if cfg.Price != "" {
			price, ok := new(big.Int).SetString(cfg.Price, 10)
			if !ok {
				return errors.New("genesis config: bad price")
			}
			if err := eco.Feed.SetPrice(price); err != nil {
				return err
			}
		}
		for _, alloc := range cfg.Allocations {
			to, err := cfg.address("allocation address", alloc.Address)
			if err != nil {
				return err
			}
			amount, ok := new(big.Int).SetString(alloc.Amount, 10)
			if !ok {
				return errors.Errorf("genesis config: bad allocation amount %q", alloc.Amount)
			}
			if err := eco.Token.Transfer(env, owner, to, amount); err != nil {
				return err
			}
		}
		logger.Info("genesis built", "owner", owner, "allocations", len(cfg.Allocations))
		return nil
	})
}
