// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/companion-network/cnu/cnu"
)

// Event is a structured record emitted by a contract during execution.
type Event struct {
	Contract cnu.Address
	Name     string
	Args     []Arg
}

// Arg is a named stringified event argument.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AddressArg stringifies an address argument.
func AddressArg(name string, addr cnu.Address) Arg {
	return Arg{Name: name, Value: addr.String()}
}

// AmountArg stringifies a big integer argument in decimal.
func AmountArg(name string, amount *big.Int) Arg {
	return Arg{Name: name, Value: amount.String()}
}

// UintArg stringifies an unsigned integer argument.
func UintArg(name string, v uint64) Arg {
	return Arg{Name: name, Value: new(big.Int).SetUint64(v).String()}
}

// StringArg wraps a plain string argument.
func StringArg(name, value string) Arg {
	return Arg{Name: name, Value: value}
}

// ArgValue returns the value of the named argument, empty if absent.
func (ev *Event) ArgValue(name string) string {
	for _, a := range ev.Args {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}
