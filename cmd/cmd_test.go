package cmd

import (
	"context"
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/config"
	"github.com/ecodine/ecodine/contract/contracttest"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/ui"
	"github.com/ecodine/ecodine/wallet"
	"github.com/ecodine/ecodine/wallet/wallettest"
)

var (
	diner = ethcommon.HexToAddress("0x0000000000000000000000000000000000001111")
	chef  = ethcommon.HexToAddress("0x0000000000000000000000000000000000002222")
)

func newEnv(t *testing.T, acc ethcommon.Address) *contracttest.Env {
	t.Helper()
	env := contracttest.NewEnv(networks.EcodineTestnet.GetChainID(), acc)
	env.Market.RegisterRestaurant(chef, "Green Fork", 0, "farm next door")
	env.Market.AddDish(chef, "Pumpkin soup", "pumpkin", 12, common.ToBaseUnits("0.01"), true)
	env.Market.AddDish(chef, "Beef stew", "beef", 2, common.ToBaseUnits("0.2"), false)
	env.Market.AddDish(chef, "Lentil curry", "lentils", 9, common.ToBaseUnits("0.02"), true)
	return env
}

func run(t *testing.T, env *contracttest.Env, inputs []string, args ...string) (*ui.RecordingUI, error) {
	t.Helper()
	rec := ui.NewRecordingUI(inputs...)
	prevUI := appUI
	appUI = rec
	detectWallet = func(ctx context.Context) (wallet.Provider, error) {
		return env.Wallet.Provider(wallettest.ModeWallet), nil
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.ContractEnv, "")
	t.Cleanup(func() {
		appUI = prevUI
		detectWallet = nil
		config.Search = ""
		config.WithEth = false
		config.DishName = ""
		config.DishPrice = ""
	})
	rootCmd.SetArgs(append([]string{
		"--contract", contracttest.DefaultAddress.Hex(),
		"--poll-interval", "0s",
	}, args...))
	return rec, rootCmd.ExecuteContext(context.Background())
}

func TestStatusDoesNotConnect(t *testing.T) {
	env := newEnv(t, diner)
	rec, err := run(t, env, nil, "status")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("Status: disconnected"))
	assert.True(t, rec.HasMessage("Wallet chain: 23413, ecodine-testnet (ok)"))
	assert.Zero(t, env.Wallet.CountRequests("eth_requestAccounts"))
}

func TestDishesSearch(t *testing.T) {
	env := newEnv(t, diner)
	rec, err := run(t, env, nil, "dishes", "--search", "lentil")
	require.NoError(t, err)

	rows := []string{}
	for _, e := range rec.Entries() {
		if e.Method == "Table" {
			rows = append(rows, e.Value)
		}
	}
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "#3 | Lentil curry | lentils | 9 | 0.02")
}

func TestBuy(t *testing.T) {
	env := newEnv(t, diner)
	rec, err := run(t, env, nil, "buy", "#1")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("Paying 0.01 for Pumpkin soup"))
	assert.True(t, rec.HasMessage("purchaseDish confirmed in block"))
	assert.Equal(t, big.NewInt(12), env.Market.Credits(diner))
}

func TestBuyInactiveDish(t *testing.T) {
	env := newEnv(t, diner)
	rec, err := run(t, env, nil, "buy", "2")
	assert.ErrorIs(t, err, errReported)
	assert.True(t, rec.HasMessage("Dish is not available: #2."))
}

func TestBuyOnWrongNetwork(t *testing.T) {
	env := newEnv(t, diner)
	env.Wallet.SetChain(1)
	env.Wallet.RejectSwitch = true
	rec, err := run(t, env, nil, "buy", "1")
	assert.ErrorIs(t, err, errReported)
	assert.NotEmpty(t, rec.ErrorMessages())
	assert.Zero(t, env.Wallet.CountRequests("eth_sendTransaction"))
}

func TestRegisterInteractive(t *testing.T) {
	env := newEnv(t, diner)
	inputs := []string{
		"Crumb",        // name
		"3",            // supply source: Green Producer
		"solar oven",   // details
		"Sourdough",    // first dish
		"rye",          // main component
		"5",            // credits
		"0.015",        // price
		"y",            // confirm
	}
	rec, err := run(t, env, inputs, "register")
	require.NoError(t, err)
	assert.True(t, env.Market.IsRestaurant(diner))
	assert.True(t, rec.HasMessage("Crumb is now a registered restaurant."))
	assert.True(t, rec.HasMessage("15000000000000000 wei"))

	d, ok := env.Market.Dish(4)
	require.True(t, ok)
	assert.Equal(t, "Sourdough", d.Name)
	assert.Equal(t, common.ToBaseUnits("0.015"), d.Price)
}

func TestDishDeactivate(t *testing.T) {
	env := newEnv(t, chef)
	_, err := run(t, env, nil, "dish", "deactivate", "3")
	require.NoError(t, err)
	d, _ := env.Market.Dish(3)
	assert.False(t, d.IsActive)
}

func TestAddressCommand(t *testing.T) {
	env := newEnv(t, diner)
	rec, err := run(t, env, nil, "address", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	require.NoError(t, err)
	assert.True(t, rec.HasMessage("Checksummed: 0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	assert.True(t, rec.HasMessage("Short: 0x5FbD...0aa3"))

	_, err = run(t, env, nil, "address", "0x1234")
	assert.Error(t, err)
}

func TestParseDishID(t *testing.T) {
	id, err := parseDishID(" #7 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	for _, bad := range []string{"0", "-1", "soup", ""} {
		_, err := parseDishID(bad)
		assert.Error(t, err, bad)
	}
}
