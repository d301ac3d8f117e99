package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/networks"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the networks ecodine knows how to add to a wallet",
	Run: func(cmd *cobra.Command, args []string) {
		rows := [][]string{}
		for _, name := range networks.GetSupportedNetworkNames() {
			n, err := networks.GetNetwork(name)
			if err != nil || n.GetName() != name {
				continue
			}
			marker := ""
			if n.GetName() == networks.Default().GetName() {
				marker = "*"
			}
			rows = append(rows, []string{
				marker + n.GetName(),
				strings.Join(n.GetAlternativeNames(), ", "),
				fmt.Sprintf("%d (%s)", n.GetChainID(), n.GetChainIDHex()),
				n.GetNativeCurrency().Symbol,
				strings.Join(n.GetRPCURLs(), " "),
			})
		}
		appUI.Table([]string{"NAME", "ALIASES", "CHAIN ID", "CURRENCY", "RPC"}, rows)
	},
}

func describeChain(chainID uint64, valid bool) string {
	name := "unknown network"
	if n, err := networks.GetNetworkByID(chainID); err == nil {
		name = n.GetName()
	}
	status := "wrong network"
	if valid {
		status = "ok"
	}
	return fmt.Sprintf("%d, %s (%s)", chainID, name, status)
}

func init() {
	rootCmd.AddCommand(networksCmd)
}
