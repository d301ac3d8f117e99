package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodine/ecodine/binding"
	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/contract/contracttest"
	"github.com/ecodine/ecodine/wallet/wallettest"
)

var (
	diner = common.HexToAddress("0x00000000000000000000000000000000000d1e55")
	chef  = common.HexToAddress("0x00000000000000000000000000000000000c4ef0")
)

func newMarket(t *testing.T, env *contracttest.Env, acc common.Address) *contract.Market {
	t.Helper()
	p := env.Wallet.Provider(wallettest.ModeWallet)
	t.Cleanup(p.Close)
	a, err := binding.New(context.Background(), p, binding.Options{Contract: contracttest.DefaultAddress})
	require.NoError(t, err)
	m, err := a.NewContract(acc)
	require.NoError(t, err)
	return m
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	env := contracttest.NewEnv(23413, diner)
	env.Market.RegisterRestaurant(chef, "Green Fork", 0, "farm next door")
	soup := env.Market.AddDish(chef, "Soup", "pumpkin", 12, big.NewInt(1000), true)
	env.Market.AddDish(chef, "Old stew", "beef", 3, big.NewInt(500), false)

	m := newMarket(t, env, diner)
	assert.Equal(t, diner, m.Account())

	r, err := m.Restaurants(ctx, chef)
	require.NoError(t, err)
	assert.True(t, r.IsVerified)
	assert.Equal(t, "Green Fork", r.Name)
	assert.Equal(t, "farm next door", r.SupplyDetails)

	unknown, err := m.Restaurants(ctx, diner)
	require.NoError(t, err)
	assert.False(t, unknown.IsVerified)

	ids, err := m.GetDishes(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, soup, ids[0].Uint64())

	details, err := m.GetDishDetails(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Soup", details.Name)
	assert.Equal(t, chef, details.Restaurant)
	assert.True(t, details.IsVerified)

	all, err := m.GetRestaurantInfo(ctx, chef, 0, 100, false)
	require.NoError(t, err)
	require.Len(t, all.DishIds, 2)
	assert.Equal(t, "Old stew", all.DishDetails[1].Name)
	assert.False(t, all.DishDetails[1].IsActive)

	active, err := m.GetRestaurantInfo(ctx, chef, 0, 100, true)
	require.NoError(t, err)
	assert.Len(t, active.DishDetails, 1)

	counter, err := m.DishCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counter.Int64())

	fee, err := m.EntryFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracttest.DefaultEntryFee, fee)
}

func TestReadFailureIsContractRead(t *testing.T) {
	env := contracttest.NewEnv(23413, diner)
	env.Market.SetFailure("restaurants", errors.New("boom"))
	m := newMarket(t, env, diner)

	_, err := m.Restaurants(context.Background(), chef)
	assert.ErrorIs(t, err, ecommon.ErrContractRead)
}

func TestPurchaseAndHistory(t *testing.T) {
	ctx := context.Background()
	env := contracttest.NewEnv(23413, diner)
	env.Market.RegisterRestaurant(chef, "Green Fork", 0, "")
	id := env.Market.AddDish(chef, "Soup", "pumpkin", 120, big.NewInt(1000), true)

	m := newMarket(t, env, diner)
	tx, err := m.PurchaseDish(ctx, new(big.Int).SetUint64(id), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "purchaseDish", tx.Method)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)

	count, err := m.UserTransactionCount(ctx, diner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Int64())

	txs, err := m.GetMyTransactions(ctx, 0, count.Uint64())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, id, txs[0].DishId.Uint64())
	assert.Equal(t, uint8(1), txs[0].Status)

	profile, err := m.GetMyProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), profile.CarbonCredits.Int64())
	assert.Equal(t, uint8(1), profile.Tier)
	assert.Equal(t, int64(110), profile.RewardMultiplier.Int64())
}

func TestRevertedWriteSurfaces(t *testing.T) {
	ctx := context.Background()
	env := contracttest.NewEnv(23413, diner)
	m := newMarket(t, env, diner)

	_, err := m.AddDish(ctx, contract.NewDish{Name: "Soup", MainComponent: "pumpkin", Price: big.NewInt(1)})
	require.Error(t, err)
	assert.ErrorIs(t, ecommon.ClassifyTxError(err), ecommon.ErrReverted)
}

func TestRegisterThenManage(t *testing.T) {
	ctx := context.Background()
	env := contracttest.NewEnv(23413, chef)
	m := newMarket(t, env, chef)

	fee, err := m.EntryFee(ctx)
	require.NoError(t, err)
	tx, err := m.RestaurantRegister(ctx, contract.Registration{
		Name:          "Green Fork",
		SupplySource:  2,
		SupplyDetails: "solar kitchen",
		DishName:      "Soup",
		MainComponent: "pumpkin",
		CarbonCredits: big.NewInt(10),
		Price:         big.NewInt(1000),
	}, fee)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, env.Market.IsRestaurant(chef))

	tx, err = m.ManageDish(ctx, big.NewInt(1), "", big.NewInt(0), false, true)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)
	d, ok := env.Market.Dish(1)
	require.True(t, ok)
	assert.False(t, d.IsActive)
	assert.Equal(t, "Soup", d.Name)
}
