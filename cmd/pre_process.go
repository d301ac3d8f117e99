package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/marketplace"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/session"
	"github.com/ecodine/ecodine/util/account"
	"github.com/ecodine/ecodine/wallet"
)

// detectWallet overrides wallet detection. Nil means dial config.WalletURL.
var detectWallet func(ctx context.Context) (wallet.Provider, error)

func loadKey() (*account.Account, error) {
	switch {
	case config.Keystore != "":
		pw := appUI.Password(fmt.Sprintf("Password for %s", config.Keystore))
		acc, err := account.NewKeystoreAccount(config.Keystore, pw)
		if err != nil {
			return nil, fmt.Errorf("couldn't unlock keystore %s: %w", config.Keystore, err)
		}
		return acc, nil
	case config.PrivateKeyEnv != "":
		hex := strings.TrimSpace(os.Getenv(config.PrivateKeyEnv))
		if hex == "" {
			return nil, fmt.Errorf("env var %s is empty", config.PrivateKeyEnv)
		}
		return account.NewPrivateKeyAccount(hex)
	}
	return nil, nil
}

func contractAddress() (ethcommon.Address, error) {
	if config.Contract == "" {
		return ethcommon.Address{}, nil
	}
	if !common.IsValidAddress(config.Contract) {
		return ethcommon.Address{}, fmt.Errorf("%q is not a valid contract address", config.Contract)
	}
	return common.HexToAddress(config.Contract), nil
}

// openSession builds and initializes the wallet session. With connect set it
// also runs the connect flow and fails when the wallet didn't end up
// connected; the reason was already shown by the session.
func openSession(ctx context.Context, connect bool) (*session.Session, error) {
	network, err := networks.GetNetwork(config.Network)
	if err != nil {
		return nil, err
	}
	addr, err := contractAddress()
	if err != nil {
		return nil, err
	}
	key, err := loadKey()
	if err != nil {
		return nil, err
	}
	var nodes map[string]string
	if key != nil && detectWallet == nil {
		nodes = network.GetDefaultNodes()
	}
	s := session.New(session.Options{
		WalletURL:      config.WalletURL,
		Contract:       addr,
		Network:        network,
		Key:            key,
		PollInterval:   config.PollInterval,
		BroadcastNodes: nodes,
		UI:             appUI,
		Logger:         logger,
		Detect:         detectWallet,
	})
	s.Init(ctx)
	if !connect {
		return s, nil
	}
	s.Connect(ctx)
	if s.State().Status != session.Connected {
		s.Teardown()
		return nil, errReported
	}
	return s, nil
}

// withMarket runs fn against a connected session. Failures are shown to the
// user in the same words the session uses.
func withMarket(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session, svc *marketplace.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Teardown()
	if s.State().Contract == nil {
		appUI.Error("%s", common.UserMessage(common.ErrNetworkMismatch))
		return errReported
	}
	svc := marketplace.New(s, s.Adapter(), appUI, logger)
	if err := fn(ctx, s, svc); err != nil {
		appUI.Error("%s", userMessage(err))
		return errReported
	}
	return nil
}
