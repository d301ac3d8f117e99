package networks

import (
	"os"
	"sort"
	"strings"

	"github.com/ecodine/ecodine/common"
)

type GenericNetworkConfig struct {
	Name              string            `json:"name"`
	DisplayName       string            `json:"display_name"`
	AlternativeNames  []string          `json:"alternative_names"`
	ChainID           uint64            `json:"chain_id"`
	NativeCurrency    NativeCurrency    `json:"native_currency"`
	NodeVariableName  string            `json:"node_variable_name"`
	DefaultNodes      map[string]string `json:"default_nodes"`
	BlockExplorerURLs []string          `json:"block_explorer_urls"`
}

// GenericNetwork implements Network from a static config.
type GenericNetwork struct {
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	return &GenericNetwork{config: config}
}

func (gn *GenericNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericNetwork) GetChainID() uint64 {
	return gn.config.ChainID
}

func (gn *GenericNetwork) GetChainIDHex() string {
	return common.ChainIDToHex(gn.config.ChainID)
}

func (gn *GenericNetwork) GetAlternativeNames() []string {
	return gn.config.AlternativeNames
}

func (gn *GenericNetwork) GetNativeCurrency() NativeCurrency {
	return gn.config.NativeCurrency
}

func (gn *GenericNetwork) GetNodeVariableName() string {
	return gn.config.NodeVariableName
}

// GetDefaultNodes returns the compiled-in nodes. A non empty env var named
// by GetNodeVariableName replaces them.
func (gn *GenericNetwork) GetDefaultNodes() map[string]string {
	if gn.config.NodeVariableName != "" {
		if url := strings.TrimSpace(os.Getenv(gn.config.NodeVariableName)); url != "" {
			return map[string]string{"custom-node": url}
		}
	}
	return gn.config.DefaultNodes
}

// GetRPCURLs returns the default node urls sorted by node name so the add
// chain payload is stable.
func (gn *GenericNetwork) GetRPCURLs() []string {
	nodes := gn.GetDefaultNodes()
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, nodes[name])
	}
	return urls
}

func (gn *GenericNetwork) GetBlockExplorerURLs() []string {
	return gn.config.BlockExplorerURLs
}

func (gn *GenericNetwork) AddChainParams() AddChainParams {
	name := gn.config.DisplayName
	if name == "" {
		name = gn.config.Name
	}
	return AddChainParams{
		ChainID:           gn.GetChainIDHex(),
		ChainName:         name,
		RPCURLs:           gn.GetRPCURLs(),
		NativeCurrency:    gn.config.NativeCurrency,
		BlockExplorerURLs: gn.config.BlockExplorerURLs,
	}
}
