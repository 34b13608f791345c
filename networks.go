package facet

import (
	"fmt"

	"github.com/ethereum-optimism/optimism/op-bindings/predeploys"
	"github.com/ethereum/go-ethereum/common"
)

const (
	L1MainnetChainID ChainID = 1
	L1SepoliaChainID ChainID = 11_155_111

	MainnetChainID ChainID = 0xface7
	SepoliaChainID ChainID = 0xface7a
)

var (
	// InboxAddress is the L1 address whose calldata is interpreted as a facet transaction.
	InboxAddress = common.HexToAddress("0x00000000000000000000000000000000000FacE7")
	// L1BlockAddress is the L2 predeploy holding the L1 attributes, including the mint rate.
	L1BlockAddress = predeploys.L1BlockAddr
)

// ContractAddresses are the bridge contracts a network needs for value-carrying strategies.
// A zero address means the contract is not known for the network.
type ContractAddresses struct {
	// EtherBridge lives on L1.
	EtherBridge common.Address
	// BuddyFactory and WETH live on L2.
	BuddyFactory common.Address
	WETH         common.Address
}

// Merge returns a copy of c with every non-zero field of overrides applied.
func (c ContractAddresses) Merge(overrides ContractAddresses) ContractAddresses {
	if overrides.EtherBridge != (common.Address{}) {
		c.EtherBridge = overrides.EtherBridge
	}
	if overrides.BuddyFactory != (common.Address{}) {
		c.BuddyFactory = overrides.BuddyFactory
	}
	if overrides.WETH != (common.Address{}) {
		c.WETH = overrides.WETH
	}
	return c
}

// RequireBridge checks the addresses needed to bridge value in from L1.
func (c ContractAddresses) RequireBridge() error {
	if c.EtherBridge == (common.Address{}) || c.WETH == (common.Address{}) {
		return WrapError(ErrContractAddressesUnavailable, "ether bridge %s, weth %s", c.EtherBridge, c.WETH)
	}
	return nil
}

// RequireBuddy checks the addresses needed to route value through a buddy proxy.
func (c ContractAddresses) RequireBuddy() error {
	if c.BuddyFactory == (common.Address{}) {
		return WrapError(ErrContractAddressesUnavailable, "buddy factory is not configured")
	}
	return nil
}

// Network pairs an L1 chain with the L2 chain it feeds.
type Network struct {
	Name        string
	L1ChainID   ChainID
	L2ChainID   ChainID
	L2RPC       string
	ExplorerURL string
	Contracts   ContractAddresses
}

// ExplorerTxURL returns the block explorer page of an L2 transaction, or "" if the network has no explorer.
func (n *Network) ExplorerTxURL(hash common.Hash) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", n.ExplorerURL, hash.Hex())
}

// WithContracts returns a copy of the network with the given address overrides applied.
func (n Network) WithContracts(overrides ContractAddresses) *Network {
	n.Contracts = n.Contracts.Merge(overrides)
	return &n
}

var networks = []*Network{
	{
		Name:        "Facet Mainnet",
		L1ChainID:   L1MainnetChainID,
		L2ChainID:   MainnetChainID,
		L2RPC:       "https://mainnet.facet.org",
		ExplorerURL: "https://explorer.facet.org",
	},
	{
		Name:        "Facet Sepolia",
		L1ChainID:   L1SepoliaChainID,
		L2ChainID:   SepoliaChainID,
		L2RPC:       "https://sepolia.facet.org",
		ExplorerURL: "https://sepolia.explorer.facet.org",
	},
}

// NetworkForL1 returns the network fed by the given L1 chain.
func NetworkForL1(l1ChainID ChainID) (*Network, error) {
	for _, n := range networks {
		if n.L1ChainID == l1ChainID {
			cpy := *n
			return &cpy, nil
		}
	}
	return nil, WrapError(ErrInvalidChain, "l1 chain id %s", l1ChainID)
}

// NetworkForChain resolves a network from either its L1 or its L2 chain id.
func NetworkForChain(chainID ChainID) (*Network, error) {
	for _, n := range networks {
		if n.L1ChainID == chainID || n.L2ChainID == chainID {
			cpy := *n
			return &cpy, nil
		}
	}
	return nil, WrapError(ErrUnsupportedNetwork, "chain id %s", chainID)
}
