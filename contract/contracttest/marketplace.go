// Package contracttest provides an in-memory marketplace contract that plugs
// into wallettest.MockWallet, so handles, sessions and services can be
// exercised against real ABI encoding.
package contracttest

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/wallet/wallettest"
)

var (
	DefaultAddress  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	DefaultEntryFee = big.NewInt(10_000_000_000_000_000) // 0.01
)

// Marketplace mimics the deployed contract closely enough for client tests.
type Marketplace struct {
	mu sync.Mutex

	address     common.Address
	abi         *abi.ABI
	entryFee    *big.Int
	restaurants map[common.Address]*contract.Restaurant
	dishes      map[uint64]*contract.Dish
	counter     uint64
	txs         map[common.Address][]contract.Transaction
	credits     map[common.Address]*big.Int
	now         uint64

	// Fail makes calls to the named method revert with the given error.
	Fail map[string]error
}

func NewMarketplace(address common.Address) *Marketplace {
	a, err := contract.ParsedABI()
	if err != nil {
		panic(err)
	}
	return &Marketplace{
		address:     address,
		abi:         a,
		entryFee:    new(big.Int).Set(DefaultEntryFee),
		restaurants: map[common.Address]*contract.Restaurant{},
		dishes:      map[uint64]*contract.Dish{},
		txs:         map[common.Address][]contract.Transaction{},
		credits:     map[common.Address]*big.Int{},
		now:         1_700_000_000,
		Fail:        map[string]error{},
	}
}

func (m *Marketplace) Address() common.Address {
	return m.address
}

func (m *Marketplace) SetFailure(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Fail, method)
		return
	}
	m.Fail[method] = err
}

// RegisterRestaurant seeds a verified restaurant without a transaction.
func (m *Marketplace) RegisterRestaurant(owner common.Address, name string, source uint8, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerLocked(owner, name, source, details)
}

func (m *Marketplace) registerLocked(owner common.Address, name string, source uint8, details string) {
	m.now++
	m.restaurants[owner] = &contract.Restaurant{
		IsVerified:            true,
		Name:                  name,
		SupplySource:          source,
		SupplyDetails:         details,
		RegistrationTimestamp: new(big.Int).SetUint64(m.now),
	}
}

// AddDish seeds a dish and returns its id.
func (m *Marketplace) AddDish(owner common.Address, name, component string, credits int64, price *big.Int, active bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addDishLocked(owner, name, component, big.NewInt(credits), price, active)
}

func (m *Marketplace) addDishLocked(owner common.Address, name, component string, credits, price *big.Int, active bool) uint64 {
	m.counter++
	m.dishes[m.counter] = &contract.Dish{
		Name:          name,
		MainComponent: component,
		CarbonCredits: new(big.Int).Set(credits),
		Price:         new(big.Int).Set(price),
		Restaurant:    owner,
		IsActive:      active,
	}
	return m.counter
}

// Dish returns a copy of the stored dish.
func (m *Marketplace) Dish(id uint64) (contract.Dish, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[id]
	if !ok {
		return contract.Dish{}, false
	}
	return *d, true
}

func (m *Marketplace) IsRestaurant(addr common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[addr]
	return ok && r.IsVerified
}

func (m *Marketplace) Credits(addr common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.creditsLocked(addr))
}

func (m *Marketplace) creditsLocked(addr common.Address) *big.Int {
	c, ok := m.credits[addr]
	if !ok {
		c = new(big.Int)
		m.credits[addr] = c
	}
	return c
}

// AppendTransaction seeds a purchase record for user.
func (m *Marketplace) AppendTransaction(user common.Address, tx contract.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[user] = append(m.txs[user], tx)
}

func (m *Marketplace) Code(addr common.Address) []byte {
	if addr != m.address {
		return nil
	}
	return common.FromHex("0x6080604052348015600f57600080fd5b50")
}

func (m *Marketplace) method(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("missing selector")
	}
	method, err := m.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("bad %s arguments: %w", method.Name, err)
	}
	return method, args, nil
}

func (m *Marketplace) Call(from, to common.Address, data []byte) ([]byte, error) {
	if to != m.address {
		return nil, nil
	}
	method, args, err := m.method(data)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[method.Name]; err != nil {
		return nil, err
	}
	out, err := m.read(from, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (m *Marketplace) read(from common.Address, name string, args []interface{}) ([]interface{}, error) {
	switch name {
	case "restaurants":
		r, ok := m.restaurants[args[0].(common.Address)]
		if !ok {
			return []interface{}{false, "", uint8(0), "", new(big.Int)}, nil
		}
		return []interface{}{r.IsVerified, r.Name, r.SupplySource, r.SupplyDetails, r.RegistrationTimestamp}, nil

	case "dishes":
		d, ok := m.dishes[args[0].(*big.Int).Uint64()]
		if !ok {
			return []interface{}{"", "", new(big.Int), new(big.Int), common.Address{}, false}, nil
		}
		return []interface{}{d.Name, d.MainComponent, d.CarbonCredits, d.Price, d.Restaurant, d.IsActive}, nil

	case "getDishes":
		ids := []*big.Int{}
		for _, id := range m.sortedIDs() {
			if m.dishes[id].IsActive {
				ids = append(ids, new(big.Int).SetUint64(id))
			}
		}
		return []interface{}{ids}, nil

	case "getDishDetails":
		d, ok := m.dishes[args[0].(*big.Int).Uint64()]
		if !ok {
			return nil, errors.New("dish does not exist")
		}
		verified := false
		if r, ok := m.restaurants[d.Restaurant]; ok {
			verified = r.IsVerified
		}
		return []interface{}{d.Name, d.MainComponent, d.CarbonCredits, d.Price, d.Restaurant, d.IsActive, verified}, nil

	case "getRestaurantInfo":
		owner := args[0].(common.Address)
		offset := args[1].(*big.Int).Uint64()
		limit := args[2].(*big.Int).Uint64()
		activeOnly := args[3].(bool)
		ids := []*big.Int{}
		details := []contract.Dish{}
		skipped := uint64(0)
		for _, id := range m.sortedIDs() {
			d := m.dishes[id]
			if d.Restaurant != owner || (activeOnly && !d.IsActive) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if uint64(len(ids)) >= limit {
				break
			}
			ids = append(ids, new(big.Int).SetUint64(id))
			details = append(details, *d)
		}
		return []interface{}{ids, details}, nil

	case "getMyProfile":
		credits := m.creditsLocked(from)
		tier, multiplier := tierOf(credits)
		balance := new(big.Int).Mul(credits, big.NewInt(1e18))
		return []interface{}{
			new(big.Int).Set(credits),
			balance,
			big.NewInt(int64(len(m.txs[from]))),
			tier,
			big.NewInt(multiplier),
		}, nil

	case "userTransactionCount":
		return []interface{}{big.NewInt(int64(len(m.txs[args[0].(common.Address)])))}, nil

	case "getMyTransactions":
		offset := args[0].(*big.Int).Uint64()
		count := args[1].(*big.Int).Uint64()
		all := m.txs[from]
		res := []contract.Transaction{}
		for i := offset; i < offset+count && i < uint64(len(all)); i++ {
			res = append(res, all[i])
		}
		return []interface{}{res}, nil

	case "dishCounter":
		return []interface{}{new(big.Int).SetUint64(m.counter)}, nil

	case "ENTRY_FEE":
		return []interface{}{new(big.Int).Set(m.entryFee)}, nil
	}
	return nil, fmt.Errorf("%s is not a view", name)
}

func (m *Marketplace) Transact(from, to common.Address, value *big.Int, data []byte) error {
	if to != m.address {
		return nil
	}
	method, args, err := m.method(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[method.Name]; err != nil {
		return err
	}

	switch method.Name {
	case "purchaseDish", "purchaseDishWithEth":
		id := args[0].(*big.Int).Uint64()
		d, ok := m.dishes[id]
		if !ok || !d.IsActive {
			return errors.New("dish not available")
		}
		if value.Cmp(d.Price) < 0 {
			return errors.New("insufficient payment")
		}
		credits := m.creditsLocked(from)
		credits.Add(credits, d.CarbonCredits)
		m.now++
		m.txs[from] = append(m.txs[from], contract.Transaction{
			DishId:        new(big.Int).SetUint64(id),
			Timestamp:     new(big.Int).SetUint64(m.now),
			CarbonCredits: new(big.Int).Set(d.CarbonCredits),
			Price:         new(big.Int).Set(d.Price),
			Status:        1,
		})
		return nil

	case "restaurantRegister":
		if r, ok := m.restaurants[from]; ok && r.IsVerified {
			return errors.New("already registered")
		}
		if value.Cmp(m.entryFee) < 0 {
			return errors.New("entry fee required")
		}
		m.registerLocked(from, args[0].(string), args[1].(uint8), args[2].(string))
		m.addDishLocked(from, args[3].(string), args[4].(string), args[5].(*big.Int), args[6].(*big.Int), true)
		return nil

	case "addDish":
		if r, ok := m.restaurants[from]; !ok || !r.IsVerified {
			return errors.New("not a registered restaurant")
		}
		m.addDishLocked(from, args[0].(string), args[1].(string), args[2].(*big.Int), args[3].(*big.Int), args[4].(bool))
		return nil

	case "manageDish":
		d, ok := m.dishes[args[0].(*big.Int).Uint64()]
		if !ok {
			return errors.New("dish does not exist")
		}
		if d.Restaurant != from {
			return errors.New("not the dish owner")
		}
		if args[4].(bool) {
			d.IsActive = false
			return nil
		}
		d.Name = args[1].(string)
		d.Price = new(big.Int).Set(args[2].(*big.Int))
		d.IsActive = args[3].(bool)
		return nil
	}
	return fmt.Errorf("%s is not a write", method.Name)
}

func (m *Marketplace) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(m.dishes))
	for id := range m.dishes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func tierOf(credits *big.Int) (uint8, int64) {
	switch {
	case credits.Cmp(big.NewInt(1000)) >= 0:
		return 3, 150
	case credits.Cmp(big.NewInt(500)) >= 0:
		return 2, 125
	case credits.Cmp(big.NewInt(100)) >= 0:
		return 1, 110
	}
	return 0, 100
}

var _ wallettest.Backend = (*Marketplace)(nil)

// Env is a mock wallet with the marketplace deployed at DefaultAddress.
type Env struct {
	Wallet *wallettest.MockWallet
	Market *Marketplace
}

func NewEnv(chainID uint64, accounts ...common.Address) *Env {
	w := wallettest.New(chainID, accounts...)
	m := NewMarketplace(DefaultAddress)
	w.SetBackend(m)
	return &Env{Wallet: w, Market: m}
}
