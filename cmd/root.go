// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/ui"
	"github.com/ecodine/ecodine/util/logging"
	"github.com/ecodine/ecodine/wallet"
)

var (
	appUI  ui.UI = ui.NewTerminalUI()
	logger       = zap.NewNop()
)

// errReported means the failure was already shown to the user.
var errReported = errors.New("reported")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecodine",
	Short: "Browse, buy and sell sustainable dishes from your terminal",
	Long: fmt.Sprintf(`ecodine talks to your wallet over JSON-RPC and to the EcoDine marketplace
contract on the network the contract is deployed on.

Diners can list dishes and restaurants, buy dishes, and follow the carbon
credits and reward tier they earned. Restaurants can register, add dishes,
update prices and take dishes off the menu.

The wallet endpoint is taken from --wallet, then %s, then the config file.
The contract address is taken from --contract, then %s, then the config file.
The config file defaults to %s.

Transactions are signed by the wallet. If the endpoint is a plain node that
doesn't manage accounts, pass --keystore or --private-key-env to sign locally.

Supported networks: %s.`,
		config.WalletURLEnv,
		config.ContractEnv,
		config.DefaultPath(),
		strings.Join(networks.GetSupportedNetworkNames(), ", "),
	),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&config.Network, config.FlagNetwork, "k", networks.Default().GetName(), "network the marketplace contract is deployed on.")
	f.StringVarP(&config.WalletURL, config.FlagWallet, "w", config.DefaultWalletURL, "wallet JSON-RPC endpoint.")
	f.StringVarP(&config.Contract, config.FlagContract, "c", "", "marketplace contract address.")
	f.StringVar(&config.Keystore, config.FlagKeystore, "", "keystore file used to sign when the endpoint doesn't manage accounts.")
	f.StringVar(&config.PrivateKeyEnv, config.FlagPrivateKeyEnv, "", "name of the env var holding a hex private key, same use as --keystore.")
	f.StringVar(&config.ConfigFile, config.FlagConfig, "", "config file path.")
	f.StringVar(&config.LogLevel, config.FlagLogLevel, config.DefaultLogLevel, "log level: debug, info, warn or error.")
	f.StringVar(&config.LogFile, config.FlagLogFile, "", "write JSON logs to this file instead of stderr.")
	f.DurationVar(&config.PollInterval, config.FlagPollInterval, wallet.DefaultPollInterval, "how often the wallet is polled for account and chain changes.")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.Resolve(cmd.Flags().Changed, os.Getenv); err != nil {
		return err
	}
	l, err := logging.New(config.LogLevel, config.LogFile)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			appUI.Error("%s", err)
		}
		os.Exit(1)
	}
}
