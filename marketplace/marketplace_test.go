package marketplace_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/contract/contracttest"
	"github.com/ecodine/ecodine/marketplace"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/session"
	"github.com/ecodine/ecodine/ui"
	"github.com/ecodine/ecodine/wallet"
	"github.com/ecodine/ecodine/wallet/wallettest"
)

var (
	diner  = common.HexToAddress("0x0000000000000000000000000000000000001111")
	chef   = common.HexToAddress("0x0000000000000000000000000000000000002222")
	baker  = common.HexToAddress("0x0000000000000000000000000000000000003333")
	ghost  = common.HexToAddress("0x0000000000000000000000000000000000004444")
	cheap  = ecommon.ToBaseUnits("0.01")
	pricey = ecommon.ToBaseUnits("0.25")
)

type fixture struct {
	env *contracttest.Env
	ui  *ui.RecordingUI
	s   *session.Session
	svc *marketplace.Service
}

func newFixture(t *testing.T, connectAs common.Address) *fixture {
	t.Helper()
	f := &fixture{
		env: contracttest.NewEnv(networks.EcodineTestnet.GetChainID(), connectAs),
		ui:  ui.NewRecordingUI(),
	}
	p := f.env.Wallet.Provider(wallettest.ModeWallet)
	f.s = session.New(session.Options{
		Contract: contracttest.DefaultAddress,
		Network:  networks.EcodineTestnet,
		UI:       f.ui,
		Detect: func(ctx context.Context) (wallet.Provider, error) {
			return p, nil
		},
	})
	t.Cleanup(f.s.Teardown)
	f.s.Init(context.Background())
	require.NotNil(t, f.s.Adapter())
	f.svc = marketplace.New(f.s, f.s.Adapter(), f.ui, nil)
	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	f.s.Connect(context.Background())
	require.Equal(t, session.Connected, f.s.State().Status)
}

func (f *fixture) seed() (soup, stew, bread uint64) {
	m := f.env.Market
	m.RegisterRestaurant(chef, "Green Fork", 0, "farm next door")
	m.RegisterRestaurant(baker, "Crumb", 2, "solar oven")
	soup = m.AddDish(chef, "Pumpkin soup", "pumpkin", 12, cheap, true)
	stew = m.AddDish(chef, "Beef stew", "beef", 2, pricey, false)
	bread = m.AddDish(baker, "Sourdough", "rye", 5, cheap, true)
	return
}

func TestRequiresConnection(t *testing.T) {
	f := newFixture(t, diner)
	_, err := f.svc.Dishes(context.Background())
	assert.ErrorIs(t, err, ecommon.ErrNotConnected)
}

func TestDishes(t *testing.T) {
	f := newFixture(t, diner)
	soup, _, bread := f.seed()
	f.connect(t)

	dishes, err := f.svc.Dishes(context.Background())
	require.NoError(t, err)
	require.Len(t, dishes, 2)
	assert.Equal(t, soup, dishes[0].ID)
	assert.Equal(t, "0.01", dishes[0].PriceDisplay)
	assert.Equal(t, uint64(12), dishes[0].CarbonCredits)
	assert.True(t, dishes[0].IsVerified)
	assert.Equal(t, bread, dishes[1].ID)
	assert.Equal(t, baker, dishes[1].Restaurant)

	found := marketplace.Search(dishes, "pmpkn")
	require.Len(t, found, 1)
	assert.Equal(t, soup, found[0].ID)
	assert.Equal(t, dishes, marketplace.Search(dishes, " "))
	assert.Empty(t, marketplace.Search(dishes, "lobster"))
}

func TestRestaurants(t *testing.T) {
	f := newFixture(t, diner)
	f.seed()
	// active dish of an unverified owner
	f.env.Market.AddDish(ghost, "Mystery", "?", 1, cheap, true)
	f.connect(t)

	restaurants, err := f.svc.Restaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, restaurants, 2)
	assert.Equal(t, "Green Fork", restaurants[0].Name)
	assert.Equal(t, "Local Producer", restaurants[0].SupplySourceLabel())
	assert.Len(t, restaurants[0].Dishes, 1, "active dishes only")
	assert.Equal(t, "Crumb", restaurants[1].Name)
	assert.Equal(t, "Green Producer", restaurants[1].SupplySourceLabel())
}

func TestRestaurantPage(t *testing.T) {
	f := newFixture(t, diner)
	f.seed()
	f.connect(t)
	ctx := context.Background()

	r, err := f.svc.Restaurant(ctx, chef)
	require.NoError(t, err)
	assert.Equal(t, "farm next door", r.SupplyDetails)
	assert.Len(t, r.Dishes, 1)

	_, err = f.svc.Restaurant(ctx, ghost)
	assert.ErrorIs(t, err, marketplace.ErrRestaurantNotFound)
}

func TestMyRestaurantIncludesInactive(t *testing.T) {
	f := newFixture(t, chef)
	f.seed()
	f.connect(t)

	r, err := f.svc.MyRestaurant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Green Fork", r.Name)
	require.Len(t, r.Dishes, 2)
	assert.False(t, r.Dishes[1].IsActive)
}

func TestPurchaseThenProfileAndHistory(t *testing.T) {
	f := newFixture(t, diner)
	soup, _, bread := f.seed()
	f.connect(t)
	ctx := context.Background()

	_, err := f.svc.Purchase(ctx, soup)
	require.NoError(t, err)
	_, err = f.svc.PurchaseWithEth(ctx, bread)
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), profile.CarbonCredits)
	assert.Equal(t, uint64(2), profile.TransactionCount)
	assert.Equal(t, "Bronze", profile.TierLabel())
	assert.Equal(t, 1.0, profile.RewardMultiplier)

	history, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Sourdough", history[0].DishName, "newest first")
	assert.Equal(t, "Pumpkin soup", history[1].DishName)
	assert.Equal(t, "Rewarded", history[0].StatusLabel())
	assert.Equal(t, "0.01", history[0].Price)

	want := new(big.Int).Sub(wallettest.DefaultBalance, new(big.Int).Mul(cheap, big.NewInt(2)))
	assert.Equal(t, want, f.env.Wallet.Balance(diner))
	assert.Equal(t, 2, f.env.Wallet.CountRequests("eth_sendTransaction"))
}

func TestHistoryUnknownDish(t *testing.T) {
	f := newFixture(t, diner)
	f.env.Market.AppendTransaction(diner, contract.Transaction{
		DishId:        big.NewInt(99),
		Timestamp:     big.NewInt(1),
		CarbonCredits: big.NewInt(3),
		Price:         cheap,
		Status:        7,
	})
	f.env.Market.SetFailure("dishes", errors.New("gone"))
	f.connect(t)

	history, err := f.svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Unknown", history[0].DishName)
	assert.Equal(t, common.Address{}, history[0].Restaurant)
	assert.Equal(t, "Unknown", history[0].StatusLabel())
}

func TestPurchaseFailures(t *testing.T) {
	f := newFixture(t, diner)
	soup, stew, _ := f.seed()
	f.connect(t)
	ctx := context.Background()

	_, err := f.svc.Purchase(ctx, stew)
	assert.ErrorIs(t, err, marketplace.ErrDishUnavailable)

	f.env.Wallet.SetBalance(diner, big.NewInt(1))
	_, err = f.svc.Purchase(ctx, soup)
	assert.ErrorIs(t, err, ecommon.ErrInsufficientFunds)
	assert.ErrorIs(t, err, ecommon.ErrTransactionFailure)

	f.env.Wallet.SetBalance(diner, wallettest.DefaultBalance)
	f.env.Wallet.RejectSend = true
	_, err = f.svc.Purchase(ctx, soup)
	assert.ErrorIs(t, err, ecommon.ErrUserRejected)

	f.env.Wallet.RejectSend = false
	f.env.Market.SetFailure("purchaseDish", errors.New("paused"))
	_, err = f.svc.Purchase(ctx, soup)
	assert.ErrorIs(t, err, ecommon.ErrReverted)
}

func TestRegisterAndManageDishes(t *testing.T) {
	f := newFixture(t, chef)
	f.connect(t)
	ctx := context.Background()
	assert.False(t, f.s.State().Role.IsRestaurant)

	_, err := f.svc.Register(ctx, marketplace.RegistrationForm{Name: "Green Fork", DishName: "Soup", Price: "abc"})
	assert.ErrorIs(t, err, marketplace.ErrInvalidForm)

	_, err = f.svc.Register(ctx, marketplace.RegistrationForm{
		Name:          "Green Fork",
		SupplySource:  2,
		SupplyDetails: "rooftop garden",
		DishName:      "Pumpkin soup",
		MainComponent: "pumpkin",
		CarbonCredits: 12,
		Price:         "0.01",
	})
	require.NoError(t, err)
	assert.True(t, f.env.Market.IsRestaurant(chef))
	want := new(big.Int).Sub(wallettest.DefaultBalance, contracttest.DefaultEntryFee)
	assert.Equal(t, want, f.env.Wallet.Balance(chef), "entry fee paid")

	f.s.RefreshRole(ctx)
	assert.True(t, f.s.State().Role.IsRestaurant)

	_, err = f.svc.AddDish(ctx, marketplace.DishForm{Name: "Tofu", MainComponent: "soy", CarbonCredits: 8, Price: "0.02", IsActive: true})
	require.NoError(t, err)

	_, err = f.svc.UpdateDish(ctx, 2, "Smoked tofu", "0.03", true)
	require.NoError(t, err)
	d, ok := f.env.Market.Dish(2)
	require.True(t, ok)
	assert.Equal(t, "Smoked tofu", d.Name)
	assert.Equal(t, ecommon.ToBaseUnits("0.03"), d.Price)

	_, err = f.svc.DeactivateDish(ctx, 2)
	require.NoError(t, err)
	d, _ = f.env.Market.Dish(2)
	assert.False(t, d.IsActive)
	assert.Equal(t, "Smoked tofu", d.Name, "deactivation keeps the rest")

	assert.True(t, f.ui.HasMessage("Registration fee: 0.01"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Platinum", marketplace.TierLabel(3))
	assert.Equal(t, "Unknown", marketplace.TierLabel(4))
	assert.Equal(t, "Reward Failed", marketplace.StatusLabel(2))
	assert.Equal(t, "Other", marketplace.SupplySourceLabel(3))
	assert.Len(t, marketplace.SupplySources(), 4)
}
