package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/util/logging"
)

const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"

	DefaultPollInterval = 2 * time.Second
	requestTimeout      = 30 * time.Second
)

// Provider is the capability exposed by a wallet: EIP-1193 style requests
// plus ordered change events.
type Provider interface {
	Request(ctx context.Context, result interface{}, method string, params ...interface{}) error
	OnAccountsChanged(fn func(accounts []string)) Subscription
	OnChainChanged(fn func(chainIDHex string)) Subscription
	// Client exposes the transport for chain reads (ethclient).
	Client() *rpc.Client
	Close()
}

type Subscription interface {
	Unsubscribe()
}

type Options struct {
	// PollInterval drives change detection. Zero disables the background
	// poller, events are then only emitted by explicit Poll calls.
	PollInterval time.Duration
	Logger       *zap.Logger
}

type handler struct {
	id       int
	accounts func([]string)
	chain    func(string)
}

// RPCProvider talks to a wallet over JSON-RPC. Wallet RPC ports have no push
// channel for accountsChanged/chainChanged, so changes are detected by
// polling eth_chainId and eth_accounts and emitted in detection order.
type RPCProvider struct {
	client *rpc.Client
	l      *zap.Logger

	mu       sync.Mutex
	nextID   int
	handlers []handler

	// pollMu serializes Poll so events are never interleaved.
	pollMu              sync.Mutex
	primed              bool
	lastChain           string
	lastAccounts        []string
	accountsUnsupported bool

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Detect dials url and checks that something answers eth_chainId. An empty
// url or an unreachable endpoint is reported as ErrExtensionMissing.
func Detect(ctx context.Context, url string, opts Options) (*RPCProvider, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, common.ErrExtensionMissing
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't connect to %s: %w", common.ErrExtensionMissing, url, err)
	}
	var chainID string
	timeout, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := client.CallContext(timeout, &chainID, "eth_chainId"); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s doesn't answer eth_chainId: %w", common.ErrExtensionMissing, url, err)
	}
	return NewRPCProvider(client, opts), nil
}

func NewRPCProvider(client *rpc.Client, opts Options) *RPCProvider {
	p := &RPCProvider{
		client: client,
		l:      logging.OrNop(opts.Logger).Named("wallet"),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if opts.PollInterval > 0 {
		go p.loop(opts.PollInterval)
	} else {
		close(p.done)
	}
	return p
}

func (p *RPCProvider) Client() *rpc.Client {
	return p.client
}

func (p *RPCProvider) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	err := p.client.CallContext(ctx, result, method, params...)
	if err != nil {
		p.l.Debug("wallet request failed", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (p *RPCProvider) subscribe(h handler) Subscription {
	p.mu.Lock()
	p.nextID++
	h.id = p.nextID
	p.handlers = append(p.handlers, h)
	p.mu.Unlock()

	id := h.id
	return &subscription{unsubscribe: func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i := range p.handlers {
			if p.handlers[i].id == id {
				p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
				return
			}
		}
	}}
}

func (p *RPCProvider) OnAccountsChanged(fn func(accounts []string)) Subscription {
	return p.subscribe(handler{accounts: fn})
}

func (p *RPCProvider) OnChainChanged(fn func(chainIDHex string)) Subscription {
	return p.subscribe(handler{chain: fn})
}

// ListenerCount is the number of live subscriptions.
func (p *RPCProvider) ListenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

func (p *RPCProvider) snapshotHandlers() []handler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]handler(nil), p.handlers...)
}

func (p *RPCProvider) emitChain(chainID string) {
	p.l.Debug("chain changed", zap.String("chain_id", chainID))
	for _, h := range p.snapshotHandlers() {
		if h.chain != nil {
			h.chain(chainID)
		}
	}
}

func (p *RPCProvider) emitAccounts(accounts []string) {
	p.l.Debug("accounts changed", zap.Strings("accounts", accounts))
	for _, h := range p.snapshotHandlers() {
		if h.accounts != nil {
			h.accounts(append([]string(nil), accounts...))
		}
	}
}

// Poll queries the wallet once and emits chainChanged and accountsChanged
// for whatever changed since the previous poll. The first poll only records
// the current values.
func (p *RPCProvider) Poll(ctx context.Context) error {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	timeout, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var chainID string
	if err := p.client.CallContext(timeout, &chainID, "eth_chainId"); err != nil {
		return fmt.Errorf("eth_chainId: %w", err)
	}
	chainID = strings.ToLower(chainID)

	var accounts []string
	if !p.accountsUnsupported {
		err := p.client.CallContext(timeout, &accounts, "eth_accounts")
		if common.IsMethodNotFound(err) {
			p.accountsUnsupported = true
			accounts = nil
		} else if err != nil {
			return fmt.Errorf("eth_accounts: %w", err)
		}
	}

	if !p.primed {
		p.primed = true
		p.lastChain = chainID
		p.lastAccounts = accounts
		return nil
	}
	if chainID != p.lastChain {
		p.lastChain = chainID
		p.emitChain(chainID)
	}
	if !sameAccounts(accounts, p.lastAccounts) {
		p.lastAccounts = accounts
		p.emitAccounts(accounts)
	}
	return nil
}

func (p *RPCProvider) loop(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.quit
		cancel()
	}()

	if err := p.Poll(ctx); err != nil {
		p.l.Warn("couldn't poll wallet", zap.Error(err))
	}
	for {
		select {
		case <-p.quit:
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.l.Warn("couldn't poll wallet", zap.Error(err))
			}
		}
	}
}

// Close stops polling and closes the transport. Safe to call more than once.
func (p *RPCProvider) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
		<-p.done
		p.client.Close()
	})
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

type subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}
