package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Well-known chain IDs for the two supported profiles.
const (
	MainnetChainID     uint64 = 1
	BaseChainID        uint64 = 8453
	SepoliaChainID     uint64 = 11155111
	BaseSepoliaChainID uint64 = 84532
)

// Network is one deployment profile: the destination chain that hosts the
// ENS contracts and the source chain funds are bridged from.
type Network struct {
	Name               string
	Testnet            bool
	DestinationChainID uint64
	SourceChainID      uint64
	Controller         common.Address // ETH registrar controller
	Registry           common.Address // ENS registry
	PublicResolver     common.Address
	// Wrapped native token on each side, used to describe the Across route.
	SourceWETH      common.Address
	DestinationWETH common.Address
}

// Validate checks that every address the sagas will call is set.
func (n Network) Validate() error {
	if n.DestinationChainID == 0 || n.SourceChainID == 0 {
		return fmt.Errorf("network %q: chain ids are required", n.Name)
	}
	if n.DestinationChainID == n.SourceChainID {
		return fmt.Errorf("network %q: source and destination must differ", n.Name)
	}
	zero := common.Address{}
	for field, a := range map[string]common.Address{
		"controller":       n.Controller,
		"registry":         n.Registry,
		"public_resolver":  n.PublicResolver,
		"source_weth":      n.SourceWETH,
		"destination_weth": n.DestinationWETH,
	} {
		if a == zero {
			return fmt.Errorf("network %q: %s address is required", n.Name, field)
		}
	}
	return nil
}
