// Package contract binds the marketplace ABI to an account. A Market is
// built for one (contract, account, signer) triple and never rebound.
package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/util/monitor"
	"github.com/ecodine/ecodine/util/reader"
)

// Transactor submits a transaction from a fixed account and returns its hash.
type Transactor interface {
	From() common.Address
	Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

type Market struct {
	address    common.Address
	account    common.Address
	abi        *abi.ABI
	reader     *reader.EthReader
	transactor Transactor
	monitor    *monitor.TxMonitor
}

func NewMarket(
	address common.Address,
	transactor Transactor,
	r *reader.EthReader,
	m *monitor.TxMonitor,
) (*Market, error) {
	a, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("couldn't parse marketplace abi: %w", err)
	}
	return &Market{
		address:    address,
		account:    transactor.From(),
		abi:        a,
		reader:     r,
		transactor: transactor,
		monitor:    m,
	}, nil
}

func (m *Market) Address() common.Address {
	return m.address
}

// Account is the account the handle reads as and signs for.
func (m *Market) Account() common.Address {
	return m.account
}

func (m *Market) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	out, err := m.reader.ReadContract(ctx, m.account, m.address, m.abi, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ecommon.ErrContractRead, method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data", ecommon.ErrContractRead, method)
	}
	return out, nil
}

func (m *Market) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := m.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (m *Market) Restaurants(ctx context.Context, restaurant common.Address) (Restaurant, error) {
	out, err := m.call(ctx, "restaurants", restaurant)
	if err != nil {
		return Restaurant{}, err
	}
	return Restaurant{
		IsVerified:            *abi.ConvertType(out[0], new(bool)).(*bool),
		Name:                  *abi.ConvertType(out[1], new(string)).(*string),
		SupplySource:          *abi.ConvertType(out[2], new(uint8)).(*uint8),
		SupplyDetails:         *abi.ConvertType(out[3], new(string)).(*string),
		RegistrationTimestamp: *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
	}, nil
}

func (m *Market) Dishes(ctx context.Context, dishID *big.Int) (Dish, error) {
	out, err := m.call(ctx, "dishes", dishID)
	if err != nil {
		return Dish{}, err
	}
	return Dish{
		Name:          *abi.ConvertType(out[0], new(string)).(*string),
		MainComponent: *abi.ConvertType(out[1], new(string)).(*string),
		CarbonCredits: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Price:         *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		Restaurant:    *abi.ConvertType(out[4], new(common.Address)).(*common.Address),
		IsActive:      *abi.ConvertType(out[5], new(bool)).(*bool),
	}, nil
}

func (m *Market) GetDishes(ctx context.Context) ([]*big.Int, error) {
	out, err := m.call(ctx, "getDishes")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (m *Market) GetDishDetails(ctx context.Context, dishID *big.Int) (DishDetails, error) {
	out, err := m.call(ctx, "getDishDetails", dishID)
	if err != nil {
		return DishDetails{}, err
	}
	return DishDetails{
		Dish: Dish{
			Name:          *abi.ConvertType(out[0], new(string)).(*string),
			MainComponent: *abi.ConvertType(out[1], new(string)).(*string),
			CarbonCredits: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
			Price:         *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
			Restaurant:    *abi.ConvertType(out[4], new(common.Address)).(*common.Address),
			IsActive:      *abi.ConvertType(out[5], new(bool)).(*bool),
		},
		IsVerified: *abi.ConvertType(out[6], new(bool)).(*bool),
	}, nil
}

func (m *Market) GetRestaurantInfo(
	ctx context.Context,
	restaurant common.Address,
	offset, limit uint64,
	activeOnly bool,
) (RestaurantDishes, error) {
	out, err := m.call(ctx, "getRestaurantInfo",
		restaurant,
		new(big.Int).SetUint64(offset),
		new(big.Int).SetUint64(limit),
		activeOnly,
	)
	if err != nil {
		return RestaurantDishes{}, err
	}
	if len(out) < 2 {
		return RestaurantDishes{}, fmt.Errorf("%w: getRestaurantInfo returned %d values", ecommon.ErrContractRead, len(out))
	}
	res := RestaurantDishes{
		DishIds:     *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int),
		DishDetails: *abi.ConvertType(out[1], new([]Dish)).(*[]Dish),
	}
	if len(res.DishIds) != len(res.DishDetails) {
		return RestaurantDishes{}, fmt.Errorf("%w: getRestaurantInfo returned %d ids for %d dishes",
			ecommon.ErrContractRead, len(res.DishIds), len(res.DishDetails))
	}
	return res, nil
}

// GetMyProfile reads the profile of the bound account.
func (m *Market) GetMyProfile(ctx context.Context) (Profile, error) {
	out, err := m.call(ctx, "getMyProfile")
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		CarbonCredits:    *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		TokenBalance:     *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		TransactionCount: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Tier:             *abi.ConvertType(out[3], new(uint8)).(*uint8),
		RewardMultiplier: *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
	}, nil
}

func (m *Market) UserTransactionCount(ctx context.Context, user common.Address) (*big.Int, error) {
	return m.callUint(ctx, "userTransactionCount", user)
}

func (m *Market) GetMyTransactions(ctx context.Context, offset, count uint64) ([]Transaction, error) {
	out, err := m.call(ctx, "getMyTransactions", new(big.Int).SetUint64(offset), new(big.Int).SetUint64(count))
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Transaction)).(*[]Transaction), nil
}

func (m *Market) DishCounter(ctx context.Context) (*big.Int, error) {
	return m.callUint(ctx, "dishCounter")
}

func (m *Market) EntryFee(ctx context.Context) (*big.Int, error) {
	return m.callUint(ctx, "ENTRY_FEE")
}

// PendingTx is a submitted write. Wait blocks until it is mined.
type PendingTx struct {
	Hash    common.Hash
	Method  string
	monitor *monitor.TxMonitor
}

// Wait returns the receipt once mined. A reverted tx yields an error
// wrapping common.ErrReverted.
func (p *PendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	return p.monitor.BlockingWait(ctx, p.Hash)
}

func (m *Market) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*PendingTx, error) {
	data, err := m.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't pack %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	hash, err := m.transactor.Transact(ctx, m.address, value, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return &PendingTx{Hash: hash, Method: method, monitor: m.monitor}, nil
}

func (m *Market) PurchaseDish(ctx context.Context, dishID *big.Int, value *big.Int) (*PendingTx, error) {
	return m.transact(ctx, value, "purchaseDish", dishID)
}

func (m *Market) PurchaseDishWithEth(ctx context.Context, dishID *big.Int, value *big.Int) (*PendingTx, error) {
	return m.transact(ctx, value, "purchaseDishWithEth", dishID)
}

func (m *Market) RestaurantRegister(ctx context.Context, r Registration, fee *big.Int) (*PendingTx, error) {
	return m.transact(ctx, fee, "restaurantRegister",
		r.Name,
		r.SupplySource,
		r.SupplyDetails,
		r.DishName,
		r.MainComponent,
		orZero(r.CarbonCredits),
		orZero(r.Price),
	)
}

func (m *Market) AddDish(ctx context.Context, d NewDish) (*PendingTx, error) {
	return m.transact(ctx, nil, "addDish",
		d.Name,
		d.MainComponent,
		orZero(d.CarbonCredits),
		orZero(d.Price),
		d.IsActive,
	)
}

func (m *Market) ManageDish(
	ctx context.Context,
	dishID *big.Int,
	name string,
	price *big.Int,
	isActive bool,
	deactivateOnly bool,
) (*PendingTx, error) {
	return m.transact(ctx, nil, "manageDish", dishID, name, orZero(price), isActive, deactivateOnly)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
