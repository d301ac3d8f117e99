package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wallet, network and contract status without connecting",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Teardown()
		showStatus(s)
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Ask the wallet for an account and show the resulting session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Teardown()
		showStatus(s)
		return nil
	},
}

var switchNetworkCmd = &cobra.Command{
	Use:   "switch-network",
	Short: "Ask the wallet to switch to the marketplace network, adding it if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Teardown()
		if !s.State().HasWallet {
			return errReported
		}
		if !s.SwitchNetwork(cmd.Context()) {
			return errReported
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect and follow account and network changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if config.WatchLimit > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, config.WatchLimit)
			defer cancel()
		}

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Teardown()

		showStatus(s)
		cancel := s.OnChange(func(st session.State) {
			if st.Loading {
				return
			}
			appUI.Info("[%s] %s", time.Now().Format("15:04:05"), st.Describe())
		})
		defer cancel()
		<-ctx.Done()
		return nil
	},
}

func showStatus(s *session.Session) {
	st := s.State()
	network := s.Guard().Required()
	rows := [][2]string{
		{"Session", st.ID},
		{"Wallet", yesNo(st.HasWallet)},
		{"Status", st.Status.String()},
		{"Required network", network.GetName()},
	}
	if st.Network.ChainID != nil {
		rows = append(rows, [2]string{"Wallet chain", describeChain(*st.Network.ChainID, st.Network.IsValid)})
	}
	if st.Account != nil {
		rows = append(rows, [2]string{"Account", st.Account.Hex()})
		rows = append(rows, [2]string{"Restaurant", yesNo(st.Role.IsRestaurant)})
	}
	if a := s.Adapter(); a != nil {
		rows = append(rows, [2]string{"Signer", a.Convention().String()})
		rows = append(rows, [2]string{"Contract", a.ContractAddress().Hex()})
	}
	appUI.KeyValue(rows)
}

func init() {
	watchCmd.Flags().DurationVar(&config.WatchLimit, "for", 0, "stop watching after this long. Zero watches until interrupted.")
	rootCmd.AddCommand(statusCmd, connectCmd, switchNetworkCmd, watchCmd)
}
