// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingvault

import (
	"encoding/binary"
	"math/big"

	"github.com/companion-network/cnu/builtin/sslot"
	"github.com/companion-network/cnu/cnu"
)

// stakeKey addresses one stake of one user.
type stakeKey struct {
	user cnu.Address
	id   uint64
}

func (k stakeKey) Bytes() []byte {
	b := make([]byte, 0, cnu.AddressLength+8)
	b = append(b, k.user.Bytes()...)
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], k.id)
	return append(b, id[:]...)
}

type storage struct {
	owner     *sslot.Value[cnu.Address]
	paused    *sslot.Value[bool]
	finalized *sslot.Value[bool]

	stakes      *sslot.Mapping[stakeKey, *Stake]
	stakeCounts *sslot.Mapping[cnu.Address, uint64]
	// count of stakes per user that still bind funds
	activeCounts *sslot.Mapping[cnu.Address, uint64]

	stakers *sslot.Array[cnu.Address]
	// staker address -> index+1 in stakers, 0 means absent
	stakerIndex *sslot.Mapping[cnu.Address, uint64]

	totalStaked *sslot.Value[*big.Int]
	// principal plus full reward owed on all active stakes
	liabilities *sslot.Value[*big.Int]

	// rewards float credited by the token's fee pipeline
	rewardsReceived *sslot.Value[*big.Int]
}

func newStorage(ctx *sslot.Context) *storage {
	return &storage{
		owner:     sslot.NewValue[cnu.Address](ctx, "owner"),
		paused:    sslot.NewValue[bool](ctx, "paused"),
		finalized: sslot.NewValue[bool](ctx, "finalized"),

		stakes:       sslot.NewMapping[stakeKey, *Stake](ctx, "stakes"),
		stakeCounts:  sslot.NewMapping[cnu.Address, uint64](ctx, "stake-counts"),
		activeCounts: sslot.NewMapping[cnu.Address, uint64](ctx, "active-counts"),

		stakers:     sslot.NewArray[cnu.Address](ctx, "stakers"),
		stakerIndex: sslot.NewMapping[cnu.Address, uint64](ctx, "staker-index"),

		totalStaked: sslot.NewValue[*big.Int](ctx, "total-staked"),
		liabilities: sslot.NewValue[*big.Int](ctx, "liabilities"),

		rewardsReceived: sslot.NewValue[*big.Int](ctx, "rewards-received"),
	}
}
