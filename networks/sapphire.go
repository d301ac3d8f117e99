package networks

var SapphireMainnet Network = NewGenericNetwork(GenericNetworkConfig{
	Name:             "sapphire",
	DisplayName:      "Oasis Sapphire",
	AlternativeNames: []string{"sapphire-mainnet"},
	ChainID:          23294,
	NativeCurrency: NativeCurrency{
		Name:     "Rose",
		Symbol:   "ROSE",
		Decimals: 18,
	},
	NodeVariableName: "SAPPHIRE_MAINNET_NODE",
	DefaultNodes: map[string]string{
		"oasis-public": "https://sapphire.oasis.io",
	},
	BlockExplorerURLs: []string{"https://explorer.oasis.io/mainnet/sapphire"},
})

var SapphireTestnet Network = NewGenericNetwork(GenericNetworkConfig{
	Name:    "sapphire-testnet",
	ChainID: 23295,
	NativeCurrency: NativeCurrency{
		Name:     "Test Rose",
		Symbol:   "TEST",
		Decimals: 18,
	},
	NodeVariableName: "SAPPHIRE_TESTNET_NODE",
	DefaultNodes: map[string]string{
		"oasis-public": "https://testnet.sapphire.oasis.io",
	},
	BlockExplorerURLs: []string{"https://explorer.oasis.io/testnet/sapphire"},
})
