package networks

// Localnet targets a development node (anvil, hardhat) on the default port.
var Localnet Network = NewGenericNetwork(GenericNetworkConfig{
	Name:             "localnet",
	DisplayName:      "Local Devnet",
	AlternativeNames: []string{"local", "dev"},
	ChainID:          31337,
	NativeCurrency: NativeCurrency{
		Name:     "Ether",
		Symbol:   "ETH",
		Decimals: 18,
	},
	NodeVariableName: "LOCALNET_NODE",
	DefaultNodes: map[string]string{
		"localhost": "http://127.0.0.1:8545",
	},
})
