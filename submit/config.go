package submit

import (
	"fmt"

	"github.com/polymerdao/facet/gascost"
)

type Config struct {
	// GasMultiplier scales the raw L1 gas estimate.
	GasMultiplier float64
	// BridgeGasLimit is the fixed L2 gas limit of bridge-and-call transactions.
	BridgeGasLimit uint64
	// Regime prices the inbox envelope when computing the mint.
	Regime gascost.Regime
}

func DefaultConfig() Config {
	return Config{
		GasMultiplier:  1.1,
		BridgeGasLimit: 50_000_000,
		Regime:         gascost.Floor,
	}
}

func (c Config) Validate() error {
	if c.GasMultiplier < 1 {
		return fmt.Errorf("gas multiplier must be at least 1, got %v", c.GasMultiplier)
	}
	if c.BridgeGasLimit == 0 {
		return fmt.Errorf("bridge gas limit must be positive")
	}
	if c.Regime != gascost.Simple && c.Regime != gascost.Floor {
		return fmt.Errorf("unknown cost regime %v", c.Regime)
	}
	return nil
}
