// Package marketplace holds the diner and restaurant workflows. Every
// exported method is a boundary: read failures come back wrapping
// common.ErrContractRead and write failures are classified with
// common.ClassifyTxError.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/session"
	"github.com/ecodine/ecodine/ui"
	"github.com/ecodine/ecodine/util/logging"
)

const (
	restaurantPreviewDishes = 10
	restaurantPageDishes    = 100
)

var (
	ErrDishUnavailable    = errors.New("dish is not available")
	ErrRestaurantNotFound = errors.New("restaurant not found or not verified")
	ErrInvalidForm        = errors.New("invalid form")
)

// Amounts converts between base units and display strings.
type Amounts interface {
	ToDisplay(amount *big.Int, decimalPlaces int) string
	ToBaseUnits(s string) *big.Int
}

type Dish struct {
	ID            uint64
	Name          string
	MainComponent string
	CarbonCredits uint64
	Price         *big.Int
	PriceDisplay  string
	Restaurant    ethcommon.Address
	IsActive      bool
	IsVerified    bool
}

type Restaurant struct {
	Address       ethcommon.Address
	Name          string
	IsVerified    bool
	SupplySource  uint8
	SupplyDetails string
	RegisteredAt  time.Time
	Dishes        []Dish
}

func (r Restaurant) SupplySourceLabel() string {
	return SupplySourceLabel(r.SupplySource)
}

type Profile struct {
	CarbonCredits    uint64
	TokenBalance     string
	TransactionCount uint64
	Tier             uint8
	RewardMultiplier float64
}

func (p Profile) TierLabel() string {
	return TierLabel(p.Tier)
}

type HistoryEntry struct {
	Index         int
	DishID        uint64
	DishName      string
	Restaurant    ethcommon.Address
	Timestamp     time.Time
	CarbonCredits uint64
	Price         string
	Status        uint8
}

func (h HistoryEntry) StatusLabel() string {
	return StatusLabel(h.Status)
}

type RegistrationForm struct {
	Name          string
	SupplySource  uint8
	SupplyDetails string
	DishName      string
	MainComponent string
	CarbonCredits uint64
	// Price is a display amount, e.g. "0.01".
	Price string
}

type DishForm struct {
	Name          string
	MainComponent string
	CarbonCredits uint64
	Price         string
	IsActive      bool
}

type Receipt struct {
	Method      string
	TxHash      ethcommon.Hash
	BlockNumber uint64
}

// Session is the read-only view of the wallet session the services need.
type Session interface {
	State() session.State
}

type Service struct {
	session Session
	amounts Amounts
	ui      ui.UI
	l       *zap.Logger
}

func New(s Session, amounts Amounts, u ui.UI, l *zap.Logger) *Service {
	return &Service{
		session: s,
		amounts: amounts,
		ui:      u,
		l:       logging.OrNop(l).Named("marketplace"),
	}
}

func (s *Service) handle() (*contract.Market, error) {
	st := s.session.State()
	if st.Status != session.Connected || st.Account == nil {
		return nil, common.ErrNotConnected
	}
	if st.Contract == nil {
		return nil, common.ErrNetworkMismatch
	}
	return st.Contract, nil
}

func (s *Service) display(amount *big.Int) string {
	return s.amounts.ToDisplay(amount, common.DefaultDisplayDecimals)
}

func toUint64(v *big.Int) uint64 {
	if v == nil || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

func toTime(v *big.Int) time.Time {
	return time.Unix(int64(toUint64(v)), 0).UTC()
}

func (s *Service) dish(id uint64, d contract.Dish, verified bool) Dish {
	return Dish{
		ID:            id,
		Name:          d.Name,
		MainComponent: d.MainComponent,
		CarbonCredits: toUint64(d.CarbonCredits),
		Price:         d.Price,
		PriceDisplay:  s.display(d.Price),
		Restaurant:    d.Restaurant,
		IsActive:      d.IsActive,
		IsVerified:    verified,
	}
}

func (s *Service) restaurantDishes(rd contract.RestaurantDishes) []Dish {
	dishes := make([]Dish, 0, len(rd.DishIds))
	for i, id := range rd.DishIds {
		dishes = append(dishes, s.dish(toUint64(id), rd.DishDetails[i], true))
	}
	return dishes
}

// Dishes lists active dishes by id. Dishes whose details can't be read are
// skipped.
func (s *Service) Dishes(ctx context.Context) ([]Dish, error) {
	m, err := s.handle()
	if err != nil {
		return nil, err
	}
	ids, err := m.GetDishes(ctx)
	if err != nil {
		return nil, err
	}
	details, errs := common.ParallelMap(ids, func(id *big.Int) (contract.DishDetails, error) {
		return m.GetDishDetails(ctx, id)
	})
	dishes := []Dish{}
	for i, d := range details {
		if errs[i] != nil {
			s.l.Warn("skipping dish", zap.Stringer("id", ids[i]), zap.Error(errs[i]))
			continue
		}
		if !d.IsActive {
			continue
		}
		dishes = append(dishes, s.dish(toUint64(ids[i]), d.Dish, d.IsVerified))
	}
	sort.Slice(dishes, func(i, j int) bool { return dishes[i].ID < dishes[j].ID })
	return dishes, nil
}

// Restaurants scans dish ids 1..dishCounter for verified restaurants with at
// least one active dish, in order of first appearance.
func (s *Service) Restaurants(ctx context.Context) ([]Restaurant, error) {
	m, err := s.handle()
	if err != nil {
		return nil, err
	}
	counter, err := m.DishCounter(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[ethcommon.Address]bool{}
	result := []Restaurant{}
	for i := uint64(1); i <= toUint64(counter); i++ {
		d, err := m.Dishes(ctx, new(big.Int).SetUint64(i))
		if err != nil {
			s.l.Warn("skipping dish", zap.Uint64("id", i), zap.Error(err))
			continue
		}
		if common.IsZeroAddress(d.Restaurant) || !d.IsActive || seen[d.Restaurant] {
			continue
		}
		seen[d.Restaurant] = true
		r, err := s.restaurant(ctx, m, d.Restaurant, restaurantPreviewDishes, true)
		if err != nil {
			s.l.Warn("skipping restaurant", zap.Stringer("restaurant", d.Restaurant), zap.Error(err))
			continue
		}
		if r.IsVerified {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *Service) restaurant(ctx context.Context, m *contract.Market, addr ethcommon.Address, limit uint64, activeOnly bool) (Restaurant, error) {
	info, err := m.Restaurants(ctx, addr)
	if err != nil {
		return Restaurant{}, err
	}
	r := Restaurant{
		Address:       addr,
		Name:          info.Name,
		IsVerified:    info.IsVerified,
		SupplySource:  info.SupplySource,
		SupplyDetails: info.SupplyDetails,
		RegisteredAt:  toTime(info.RegistrationTimestamp),
	}
	if !r.IsVerified {
		return r, nil
	}
	rd, err := m.GetRestaurantInfo(ctx, addr, 0, limit, activeOnly)
	if err != nil {
		return Restaurant{}, err
	}
	r.Dishes = s.restaurantDishes(rd)
	return r, nil
}

// Restaurant is the public page of a verified restaurant with its active
// dishes.
func (s *Service) Restaurant(ctx context.Context, addr ethcommon.Address) (Restaurant, error) {
	m, err := s.handle()
	if err != nil {
		return Restaurant{}, err
	}
	r, err := s.restaurant(ctx, m, addr, restaurantPageDishes, true)
	if err != nil {
		return Restaurant{}, err
	}
	if !r.IsVerified {
		return Restaurant{}, fmt.Errorf("%w: %s", ErrRestaurantNotFound, addr.Hex())
	}
	return r, nil
}

// MyRestaurant includes inactive dishes.
func (s *Service) MyRestaurant(ctx context.Context) (Restaurant, error) {
	m, err := s.handle()
	if err != nil {
		return Restaurant{}, err
	}
	return s.restaurant(ctx, m, m.Account(), restaurantPageDishes, false)
}

func (s *Service) Profile(ctx context.Context) (Profile, error) {
	m, err := s.handle()
	if err != nil {
		return Profile{}, err
	}
	p, err := m.GetMyProfile(ctx)
	if err != nil {
		return Profile{}, err
	}
	multiplier, _ := new(big.Float).Quo(new(big.Float).SetInt(orZero(p.RewardMultiplier)), big.NewFloat(100)).Float64()
	return Profile{
		CarbonCredits:    toUint64(p.CarbonCredits),
		TokenBalance:     s.display(p.TokenBalance),
		TransactionCount: toUint64(p.TransactionCount),
		Tier:             p.Tier,
		RewardMultiplier: multiplier,
	}, nil
}

// History lists the account's purchases, newest first. Entries whose dish
// can't be read keep the "Unknown" name and the zero address.
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	m, err := s.handle()
	if err != nil {
		return nil, err
	}
	count, err := m.UserTransactionCount(ctx, m.Account())
	if err != nil {
		return nil, err
	}
	n := toUint64(count)
	if n == 0 {
		return []HistoryEntry{}, nil
	}
	txs, err := m.GetMyTransactions(ctx, 0, n)
	if err != nil {
		return nil, err
	}
	indexes := make([]int, len(txs))
	for i := range indexes {
		indexes[i] = i
	}
	entries, _ := common.ParallelMap(indexes, func(i int) (HistoryEntry, error) {
		tx := txs[i]
		e := HistoryEntry{
			Index:         i,
			DishID:        toUint64(tx.DishId),
			DishName:      unknownLabel,
			Timestamp:     toTime(tx.Timestamp),
			CarbonCredits: toUint64(tx.CarbonCredits),
			Price:         s.display(tx.Price),
			Status:        tx.Status,
		}
		d, err := m.Dishes(ctx, orZero(tx.DishId))
		if err != nil {
			s.l.Warn("couldn't resolve dish of transaction", zap.Int("index", i), zap.Error(err))
			return e, nil
		}
		e.DishName = d.Name
		e.Restaurant = d.Restaurant
		return e, nil
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func (s *Service) wait(ctx context.Context, tx *contract.PendingTx) (Receipt, error) {
	s.ui.Info("Submitted %s: %s", tx.Method, tx.Hash.Hex())
	stop := s.ui.Spinner("Waiting for confirmation...")
	receipt, err := tx.Wait(ctx)
	stop()
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	s.l.Info("tx mined", zap.String("method", tx.Method), zap.Stringer("hash", tx.Hash))
	return Receipt{
		Method:      tx.Method,
		TxHash:      tx.Hash,
		BlockNumber: toUint64(receipt.BlockNumber),
	}, nil
}

func (s *Service) Purchase(ctx context.Context, dishID uint64) (Receipt, error) {
	return s.purchase(ctx, dishID, false)
}

func (s *Service) PurchaseWithEth(ctx context.Context, dishID uint64) (Receipt, error) {
	return s.purchase(ctx, dishID, true)
}

// purchase pays exactly the listed price of the dish.
func (s *Service) purchase(ctx context.Context, dishID uint64, withEth bool) (Receipt, error) {
	m, err := s.handle()
	if err != nil {
		return Receipt{}, err
	}
	id := new(big.Int).SetUint64(dishID)
	d, err := m.Dishes(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	if common.IsZeroAddress(d.Restaurant) || !d.IsActive {
		return Receipt{}, fmt.Errorf("%w: #%d", ErrDishUnavailable, dishID)
	}
	s.ui.Critical("Paying %s for %s", s.display(d.Price), d.Name)

	var tx *contract.PendingTx
	if withEth {
		tx, err = m.PurchaseDishWithEth(ctx, id, d.Price)
	} else {
		tx, err = m.PurchaseDish(ctx, id, d.Price)
	}
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	return s.wait(ctx, tx)
}

func (s *Service) price(raw string) (*big.Int, error) {
	price := s.amounts.ToBaseUnits(raw)
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price %q must be a positive amount", ErrInvalidForm, raw)
	}
	return price, nil
}

func validateForm(f RegistrationForm) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return fmt.Errorf("%w: restaurant name is required", ErrInvalidForm)
	case int(f.SupplySource) >= len(supplySources):
		return fmt.Errorf("%w: unknown supply source %d", ErrInvalidForm, f.SupplySource)
	case strings.TrimSpace(f.DishName) == "":
		return fmt.Errorf("%w: first dish name is required", ErrInvalidForm)
	}
	return nil
}

// Register pays ENTRY_FEE and registers the account as a restaurant with
// its first dish.
func (s *Service) Register(ctx context.Context, f RegistrationForm) (Receipt, error) {
	if err := validateForm(f); err != nil {
		return Receipt{}, err
	}
	price, err := s.price(f.Price)
	if err != nil {
		return Receipt{}, err
	}
	m, err := s.handle()
	if err != nil {
		return Receipt{}, err
	}
	fee, err := m.EntryFee(ctx)
	if err != nil {
		return Receipt{}, err
	}
	s.ui.Critical("Registration fee: %s", s.display(fee))
	tx, err := m.RestaurantRegister(ctx, contract.Registration{
		Name:          f.Name,
		SupplySource:  f.SupplySource,
		SupplyDetails: f.SupplyDetails,
		DishName:      f.DishName,
		MainComponent: f.MainComponent,
		CarbonCredits: new(big.Int).SetUint64(f.CarbonCredits),
		Price:         price,
	}, fee)
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	return s.wait(ctx, tx)
}

func (s *Service) AddDish(ctx context.Context, f DishForm) (Receipt, error) {
	if strings.TrimSpace(f.Name) == "" {
		return Receipt{}, fmt.Errorf("%w: dish name is required", ErrInvalidForm)
	}
	price, err := s.price(f.Price)
	if err != nil {
		return Receipt{}, err
	}
	m, err := s.handle()
	if err != nil {
		return Receipt{}, err
	}
	tx, err := m.AddDish(ctx, contract.NewDish{
		Name:          f.Name,
		MainComponent: f.MainComponent,
		CarbonCredits: new(big.Int).SetUint64(f.CarbonCredits),
		Price:         price,
		IsActive:      f.IsActive,
	})
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	return s.wait(ctx, tx)
}

func (s *Service) UpdateDish(ctx context.Context, dishID uint64, name string, price string, isActive bool) (Receipt, error) {
	if strings.TrimSpace(name) == "" {
		return Receipt{}, fmt.Errorf("%w: dish name is required", ErrInvalidForm)
	}
	p, err := s.price(price)
	if err != nil {
		return Receipt{}, err
	}
	m, err := s.handle()
	if err != nil {
		return Receipt{}, err
	}
	tx, err := m.ManageDish(ctx, new(big.Int).SetUint64(dishID), name, p, isActive, false)
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	return s.wait(ctx, tx)
}

func (s *Service) DeactivateDish(ctx context.Context, dishID uint64) (Receipt, error) {
	m, err := s.handle()
	if err != nil {
		return Receipt{}, err
	}
	tx, err := m.ManageDish(ctx, new(big.Int).SetUint64(dishID), "", new(big.Int), false, true)
	if err != nil {
		return Receipt{}, common.ClassifyTxError(err)
	}
	return s.wait(ctx, tx)
}
