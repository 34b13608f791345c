// Package gascost prices a byte sequence the way L1 calldata is priced.
package gascost

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Regime selects the per-byte pricing rule. The regimes are not interchangeable: the same payload
// yields a different cost, and therefore a different mint amount, under each one.
type Regime uint8

const (
	// Simple charges 4 per zero byte and 16 per non-zero byte.
	Simple Regime = iota + 1
	// Floor prices calldata per EIP-7623: max(4, 10) per token, where a zero byte is one token and
	// a non-zero byte is four.
	Floor
)

const (
	standardTokenCost      = params.TxDataZeroGas
	totalCostFloorPerToken = 10
	tokensPerNonZeroByte   = params.TxDataNonZeroGasEIP2028 / params.TxDataZeroGas

	// BridgedCostPerByte is charged for every byte of an envelope the ether bridge forwards,
	// zero or not, independent of the regime.
	BridgedCostPerByte = 8
)

func (r Regime) String() string {
	switch r {
	case Simple:
		return "simple"
	case Floor:
		return "floor"
	default:
		return fmt.Sprintf("Regime(%d)", uint8(r))
	}
}

// ParseRegime is the inverse of Regime.String.
func ParseRegime(s string) (Regime, error) {
	switch strings.ToLower(s) {
	case "simple":
		return Simple, nil
	case "floor":
		return Floor, nil
	default:
		return 0, fmt.Errorf("unknown cost regime %q", s)
	}
}

// Accountant computes the cost of a byte sequence under a fixed regime.
type Accountant struct {
	regime Regime
}

func NewAccountant(regime Regime) (*Accountant, error) {
	if regime != Simple && regime != Floor {
		return nil, fmt.Errorf("unknown cost regime %v", regime)
	}
	return &Accountant{regime: regime}, nil
}

func (a *Accountant) Regime() Regime {
	return a.regime
}

// Cost returns the non-negative cost of input.
func (a *Accountant) Cost(input []byte) *big.Int {
	zero, nonZero := count(input)
	if a.regime == Simple {
		return new(big.Int).SetUint64(zero*params.TxDataZeroGas + nonZero*params.TxDataNonZeroGasEIP2028)
	}

	tokens := new(big.Int).SetUint64(zero + nonZero*tokensPerNonZeroByte)
	standard := new(big.Int).Mul(tokens, new(big.Int).SetUint64(standardTokenCost))
	floor := new(big.Int).Mul(tokens, big.NewInt(totalCostFloorPerToken))
	if standard.Cmp(floor) > 0 {
		return standard
	}
	return floor
}

// BridgedCost is the cost of an envelope carried by a bridge-and-call.
func BridgedCost(envelope []byte) *big.Int {
	return new(big.Int).SetUint64(uint64(len(envelope)) * BridgedCostPerByte)
}

func count(input []byte) (zero, nonZero uint64) {
	for _, b := range input {
		if b == 0 {
			zero++
		} else {
			nonZero++
		}
	}
	return zero, nonZero
}
