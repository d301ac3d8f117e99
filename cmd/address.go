package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/config"
)

var showBalance bool

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Validate an address and show its checksummed and short forms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsValidAddress(args[0]) {
			return fmt.Errorf("%q is not a valid address", args[0])
		}
		addr := common.HexToAddress(args[0])
		rows := [][2]string{
			{"Checksummed", addr.Hex()},
			{"Short", common.FormatAddress(addr.Hex())},
		}
		if showBalance {
			s, err := openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Teardown()
			a := s.Adapter()
			if a == nil {
				appUI.Error("%s", userMessage(common.ErrExtensionMissing))
				return errReported
			}
			balance, err := a.Reader().GetBalance(cmd.Context(), addr)
			if err != nil {
				return fmt.Errorf("couldn't read balance: %w", err)
			}
			rows = append(rows, [2]string{"Balance", a.ToDisplay(balance, common.DefaultDisplayDecimals)})
		}
		appUI.KeyValue(rows)
		return nil
	},
}

func init() {
	addressCmd.Flags().BoolVarP(&showBalance, "balance", "b", false, fmt.Sprintf("also read the native balance through the wallet endpoint (see --%s).", config.FlagWallet))
	rootCmd.AddCommand(addressCmd)
}
