package networks

var EcodineTestnet Network = NewEcodineTestnet()

func NewEcodineTestnet() *GenericNetwork {
	return NewGenericNetwork(GenericNetworkConfig{
		Name:             "ecodine-testnet",
		DisplayName:      "EcoDine Testnet",
		AlternativeNames: []string{"testnet"},
		ChainID:          23413,
		NativeCurrency: NativeCurrency{
			Name:     "EcoDine Test Ether",
			Symbol:   "ETH",
			Decimals: 18,
		},
		NodeVariableName: "ECODINE_TESTNET_NODE",
		DefaultNodes: map[string]string{
			"ecodine-public": "https://rpc.testnet.ecodine.io",
		},
		BlockExplorerURLs: []string{"https://explorer.testnet.ecodine.io"},
	})
}
