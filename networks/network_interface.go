package networks

// Network is a compiled-in description of a chain the marketplace contract
// lives on. Values never change after construction.
type Network interface {
	GetName() string
	GetChainID() uint64
	GetChainIDHex() string
	GetAlternativeNames() []string
	GetNativeCurrency() NativeCurrency

	GetNodeVariableName() string
	GetDefaultNodes() map[string]string
	GetRPCURLs() []string
	GetBlockExplorerURLs() []string

	// AddChainParams is the wallet_addEthereumChain payload for the network.
	AddChainParams() AddChainParams
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}
