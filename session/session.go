// Package session owns the wallet connection: which account is connected,
// the contract handle bound to it and whether the wallet sits on the
// required network. Consumers read State copies and never mutate it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecodine/ecodine/binding"
	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/ui"
	"github.com/ecodine/ecodine/util/account"
	"github.com/ecodine/ecodine/util/logging"
	"github.com/ecodine/ecodine/wallet"
)

type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

type Role struct {
	IsRestaurant bool
}

// State is a snapshot. Status is Connected iff Account is set, and Contract
// is only set while connected on the required network.
type State struct {
	ID       string
	Account  *ethcommon.Address
	Contract *contract.Market
	Role     Role
	Status   Status
	Network  Network
	Loading  bool
	// HasWallet is false when no wallet provider was detected.
	HasWallet bool
}

const roleTimeout = 15 * time.Second

type Options struct {
	WalletURL    string
	Contract     ethcommon.Address
	Network      networks.Network
	Key          *account.Account
	PollInterval time.Duration
	// BroadcastNodes are node urls by name that locally signed transactions
	// are also sent to.
	BroadcastNodes map[string]string
	UI             ui.UI
	Logger         *zap.Logger
	// Detect replaces wallet.Detect, tests use it to inject a mock wallet.
	Detect func(ctx context.Context) (wallet.Provider, error)
}

type Session struct {
	id    string
	opts  Options
	ui    ui.UI
	l     *zap.Logger
	guard *NetworkGuard

	mu          sync.Mutex
	provider    wallet.Provider
	adapter     *binding.Adapter
	adapterErr  error
	account     *ethcommon.Address
	handle      *contract.Market
	role        Role
	status      Status
	loading     bool
	subs        []wallet.Subscription
	nodes       map[string]*rpc.Client
	accountsSub bool
	initialized bool
	tornDown    bool

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]func(State)
}

func New(opts Options) *Session {
	if opts.Network == nil {
		opts.Network = networks.Default()
	}
	if opts.UI == nil {
		opts.UI = ui.NewTerminalUI()
	}
	id := uuid.NewString()
	l := logging.OrNop(opts.Logger).Named("session").With(zap.String("session", id))
	s := &Session{
		id:        id,
		opts:      opts,
		ui:        opts.UI,
		l:         l,
		guard:     NewNetworkGuard(opts.Network, l),
		observers: map[int]func(State){},
	}
	s.guard.setNotify(s.onNetworkChanged)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Guard() *NetworkGuard {
	return s.guard
}

// Adapter is nil until Init found a wallet with a usable signer.
func (s *Session) Adapter() *binding.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter
}

func (s *Session) State() State {
	s.mu.Lock()
	st := s.snapshotLocked()
	s.mu.Unlock()
	st.Network = s.guard.State()
	return st
}

func (s *Session) snapshotLocked() State {
	st := State{
		ID:        s.id,
		Contract:  s.handle,
		Role:      s.role,
		Status:    s.status,
		Loading:   s.loading,
		HasWallet: s.provider != nil,
	}
	if s.account != nil {
		acc := *s.account
		st.Account = &acc
	}
	return st
}

// OnChange calls fn with a fresh snapshot after every transition. The
// returned func stops delivery.
func (s *Session) OnChange(fn func(State)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) changed() {
	st := s.State()
	s.obsMu.Lock()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Init detects the wallet, resolves the signer convention, reads the chain
// once and starts following chain changes. A missing wallet is recorded,
// not fatal.
func (s *Session) Init(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.l.Warn("session already initialized")
		return
	}
	s.initialized = true
	s.mu.Unlock()

	p, err := s.detect(ctx)
	if err != nil {
		s.l.Info("no wallet provider", zap.Error(err))
		s.changed()
		return
	}

	nodes := s.dialNodes(ctx)
	adapter, adapterErr := binding.New(ctx, p, binding.Options{
		Contract:     s.opts.Contract,
		Key:          s.opts.Key,
		Nodes:        nodes,
		PollInterval: s.opts.PollInterval,
		Logger:       s.opts.Logger,
	})
	if adapterErr != nil {
		s.l.Error("no usable signer", zap.Error(adapterErr))
	}

	s.mu.Lock()
	s.provider = p
	s.nodes = nodes
	s.adapter = adapter
	s.adapterErr = adapterErr
	s.mu.Unlock()

	s.guard.Bind(p)
	if err := s.guard.Refresh(ctx); err != nil {
		s.l.Warn("couldn't read chain id", zap.Error(err))
	}
	sub := p.OnChainChanged(s.guard.OnChainReported)
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.probeContract(ctx, adapter)
	s.changed()
}

func (s *Session) detect(ctx context.Context) (wallet.Provider, error) {
	if s.opts.Detect != nil {
		return s.opts.Detect(ctx)
	}
	p, err := wallet.Detect(ctx, s.opts.WalletURL, wallet.Options{
		PollInterval: s.opts.PollInterval,
		Logger:       s.opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// dialNodes connects the broadcast nodes. They only matter when a local key
// signs, unreachable ones are skipped.
func (s *Session) dialNodes(ctx context.Context) map[string]*rpc.Client {
	if s.opts.Key == nil || len(s.opts.BroadcastNodes) == 0 {
		return nil
	}
	nodes := map[string]*rpc.Client{}
	for name, url := range s.opts.BroadcastNodes {
		c, err := rpc.DialContext(ctx, url)
		if err != nil {
			s.l.Warn("skipping broadcast node", zap.String("node", name), zap.Error(err))
			continue
		}
		nodes[name] = c
	}
	return nodes
}

// probeContract only logs, an unreachable contract never blocks Init.
func (s *Session) probeContract(ctx context.Context, adapter *binding.Adapter) {
	if adapter == nil || common.IsZeroAddress(s.opts.Contract) {
		return
	}
	code, err := adapter.Reader().GetCode(ctx, s.opts.Contract)
	switch {
	case err != nil:
		s.l.Warn("contract probe failed", zap.Stringer("contract", s.opts.Contract), zap.Error(err))
	case len(code) == 0:
		s.l.Warn("no code at contract address", zap.Stringer("contract", s.opts.Contract))
	default:
		s.l.Info("contract reachable", zap.Stringer("contract", s.opts.Contract), zap.Int("codeSize", len(code)))
	}
}

// Connect requests account access and binds a contract handle. Failures
// end in Disconnected with a message on the UI, nothing is returned.
func (s *Session) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.status == Connecting {
		s.mu.Unlock()
		s.l.Warn("connect already in progress")
		return
	}
	if s.provider == nil {
		s.mu.Unlock()
		s.l.Info("connect without wallet")
		s.ui.Warn("%s", common.UserMessage(common.ErrExtensionMissing))
		return
	}
	if s.adapter == nil {
		err := s.adapterErr
		s.mu.Unlock()
		s.l.Error("connect without usable signer", zap.Error(err))
		s.ui.Error("%s", common.UserMessage(err))
		return
	}
	adapter := s.adapter
	s.clearLocked()
	s.status = Connecting
	s.loading = true
	s.mu.Unlock()
	s.changed()

	if !s.guard.IsValid() {
		required := s.guard.Required()
		s.ui.Info("Switching wallet to %s...", required.GetName())
		if !s.guard.RequestSwitch(ctx) {
			s.fail(fmt.Errorf("%w: please switch to %s", common.ErrNetworkMismatch, required.GetName()))
			return
		}
	}

	accounts, err := adapter.RequestAccounts(ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if len(accounts) == 0 || !common.IsValidAddress(accounts[0]) {
		s.fail(errors.New("wallet returned no usable account"))
		return
	}
	acc := ethcommon.HexToAddress(accounts[0])

	var handle *contract.Market
	if s.guard.IsValid() {
		handle, err = adapter.NewContract(acc)
		if err != nil {
			s.fail(err)
			return
		}
	}
	role := s.lookupRole(ctx, handle, acc)

	s.mu.Lock()
	s.account = &acc
	// the chain may have moved while we waited on the wallet
	if s.guard.IsValid() {
		s.handle = handle
		s.role = role
	} else {
		s.handle = nil
		s.role = Role{}
	}
	s.status = Connected
	s.loading = false
	subscribe := !s.accountsSub && !s.tornDown
	if subscribe {
		s.accountsSub = true
	}
	provider := s.provider
	s.mu.Unlock()

	if subscribe {
		sub := provider.OnAccountsChanged(s.onAccountsChanged)
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}

	s.l.Info("connected",
		zap.Stringer("account", acc),
		zap.Bool("restaurant", role.IsRestaurant),
		zap.Stringer("convention", adapter.Convention()),
	)
	s.ui.Success("Connected %s", common.FormatAddress(acc.Hex()))
	s.changed()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.clearLocked()
	s.loading = false
	s.mu.Unlock()
	s.l.Warn("connect failed", zap.Error(err))
	if common.IsUserRejected(err) {
		s.ui.Error("Connection request was rejected.")
	} else {
		s.ui.Error("%s", common.UserMessage(err))
	}
	s.changed()
}

func (s *Session) clearLocked() {
	s.account = nil
	s.handle = nil
	s.role = Role{}
	s.status = Disconnected
}

// Disconnect forgets the account, handle and role. Calling it again is a
// no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	wasClear := s.account == nil && s.handle == nil && !s.role.IsRestaurant && s.status == Disconnected
	s.clearLocked()
	s.mu.Unlock()
	if wasClear {
		return
	}
	s.l.Info("disconnected")
	s.changed()
}

// lookupRole treats every failure as not a restaurant. The lookup is bounded
// by roleTimeout and by ctx, whichever ends first.
func (s *Session) lookupRole(ctx context.Context, handle *contract.Market, acc ethcommon.Address) Role {
	if handle == nil || ctx.Err() != nil {
		return Role{}
	}
	ctx, cancel := context.WithTimeout(ctx, roleTimeout)
	defer cancel()
	r, err := handle.Restaurants(ctx, acc)
	if err != nil {
		s.l.Warn("restaurant lookup failed", zap.Stringer("account", acc), zap.Error(err))
		return Role{}
	}
	return Role{IsRestaurant: r.IsVerified}
}

func (s *Session) onAccountsChanged(accounts []string) {
	s.mu.Lock()
	status := s.status
	adapter := s.adapter
	s.mu.Unlock()
	if status != Connected {
		s.l.Debug("accounts changed while not connected", zap.Strings("accounts", accounts))
		return
	}
	if len(accounts) == 0 {
		s.Disconnect()
		return
	}
	if !common.IsValidAddress(accounts[0]) {
		s.l.Warn("wallet reported an invalid account", zap.String("account", accounts[0]))
		return
	}
	acc := ethcommon.HexToAddress(accounts[0])
	s.rebind(context.Background(), adapter, acc)
	s.ui.Info("Account changed to %s", common.FormatAddress(acc.Hex()))
}

func (s *Session) onNetworkChanged(valid bool) {
	s.mu.Lock()
	status := s.status
	adapter := s.adapter
	var acc *ethcommon.Address
	if s.account != nil {
		a := *s.account
		acc = &a
	}
	hadHandle := s.handle != nil
	if !valid {
		s.handle = nil
		s.role = Role{}
	}
	s.mu.Unlock()

	switch {
	case !valid && status == Connected:
		if hadHandle {
			s.l.Info("contract handle cleared, wrong network")
		}
		s.ui.Warn("Wallet is on the wrong network, switch to %s", s.guard.Required().GetName())
	case valid && status == Connected && acc != nil:
		s.rebind(context.Background(), adapter, *acc)
	}
	s.changed()
}

// rebind builds a fresh handle for acc and recomputes the role. It only
// commits when the session is still connected.
func (s *Session) rebind(ctx context.Context, adapter *binding.Adapter, acc ethcommon.Address) {
	var handle *contract.Market
	if adapter != nil && s.guard.IsValid() {
		h, err := adapter.NewContract(acc)
		if err != nil {
			s.l.Warn("couldn't build contract handle", zap.Stringer("account", acc), zap.Error(err))
		} else {
			handle = h
		}
	}
	role := s.lookupRole(ctx, handle, acc)

	s.mu.Lock()
	if s.status != Connected {
		s.mu.Unlock()
		return
	}
	s.account = &acc
	if s.guard.IsValid() {
		s.handle = handle
		s.role = role
	} else {
		s.handle = nil
		s.role = Role{}
	}
	s.mu.Unlock()
	s.l.Info("account rebound", zap.Stringer("account", acc), zap.Bool("restaurant", role.IsRestaurant))
	s.changed()
}

// RefreshRole rebuilds the handle and re-reads the role of the connected
// account, e.g. after it registered as a restaurant. A cancelled ctx leaves
// the account connected without the restaurant role.
func (s *Session) RefreshRole(ctx context.Context) {
	s.mu.Lock()
	adapter := s.adapter
	var acc *ethcommon.Address
	if s.status == Connected && s.account != nil {
		a := *s.account
		acc = &a
	}
	s.mu.Unlock()
	if acc == nil {
		return
	}
	s.rebind(ctx, adapter, *acc)
}

// SwitchNetwork runs the guard's switch flow and reports the outcome.
func (s *Session) SwitchNetwork(ctx context.Context) bool {
	ok := s.guard.RequestSwitch(ctx)
	name := s.guard.Required().GetName()
	if ok {
		s.ui.Success("Wallet is on %s", name)
	} else {
		s.ui.Error("%s", common.UserMessage(fmt.Errorf("%w: couldn't switch to %s", common.ErrNetworkMismatch, name)))
	}
	return ok
}

// Teardown releases every wallet subscription and closes the provider.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	subs := s.subs
	s.subs = nil
	provider := s.provider
	nodes := s.nodes
	s.nodes = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	if provider != nil {
		provider.Close()
	}
	for _, c := range nodes {
		c.Close()
	}
	s.l.Debug("session torn down", zap.Int("subscriptions", len(subs)))
}

// Describe renders the state on one line for logs and the status command.
func (st State) Describe() string {
	parts := []string{st.Status.String()}
	if st.Account != nil {
		parts = append(parts, common.FormatAddress(st.Account.Hex()))
	}
	if st.Network.ChainID != nil {
		valid := "wrong network"
		if st.Network.IsValid {
			valid = "ok"
		}
		parts = append(parts, fmt.Sprintf("chain %d (%s)", *st.Network.ChainID, valid))
	}
	if st.Role.IsRestaurant {
		parts = append(parts, "restaurant")
	}
	return strings.Join(parts, ", ")
}
