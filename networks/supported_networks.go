package networks

import (
	"fmt"
	"sort"
)

// Insert more Network implementation here to support
// more chains
var supportedNetworks = []Network{
	EcodineTestnet,
	SapphireMainnet,
	SapphireTestnet,
	Localnet,
}

var globalSupportedNetworks = newSupportedNetworks()
var ErrNetworkNotFound = fmt.Errorf("network not found")

type networks struct {
	networks     map[string]Network
	networksByID map[uint64]Network
}

func (n *networks) getSupportedNetworkNames() []string {
	res := []string{}
	for name := range n.networks {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (n *networks) getNetworkByID(id uint64) (Network, error) {
	res, found := n.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d: %w", id, ErrNetworkNotFound)
	}
	return res, nil
}

func (n *networks) getNetwork(name string) (Network, error) {
	res, found := n.networks[name]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func newSupportedNetworks() *networks {
	result := networks{
		map[string]Network{},
		map[uint64]Network{},
	}
	for _, n := range supportedNetworks {
		names := append([]string{n.GetName()}, n.GetAlternativeNames()...)
		for _, name := range names {
			if _, found := result.networks[name]; found {
				panic(
					fmt.Errorf("network with name or alternative name of '%s' already exists", name),
				)
			}
			result.networks[name] = n
		}
		result.networksByID[n.GetChainID()] = n
	}
	return &result
}

func GetNetwork(name string) (Network, error) {
	return globalSupportedNetworks.getNetwork(name)
}

func GetNetworkByID(id uint64) (Network, error) {
	return globalSupportedNetworks.getNetworkByID(id)
}

func GetSupportedNetworkNames() []string {
	return globalSupportedNetworks.getSupportedNetworkNames()
}

// Default is the network the marketplace contract is deployed on.
func Default() Network {
	return EcodineTestnet
}
