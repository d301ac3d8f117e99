// Package binding resolves how transactions get signed for the connected
// wallet and builds contract handles on top of it. The signer convention is
// probed once in New and never re-probed.
package binding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/contract"
	"github.com/ecodine/ecodine/util/account"
	"github.com/ecodine/ecodine/util/broadcaster"
	"github.com/ecodine/ecodine/util/logging"
	"github.com/ecodine/ecodine/util/monitor"
	"github.com/ecodine/ecodine/util/reader"
	"github.com/ecodine/ecodine/wallet"
)

type Convention int

const (
	// ConventionWallet: the wallet holds the accounts and signs.
	ConventionWallet Convention = iota + 1
	// ConventionLocalKey: a local key signs, txs are broadcast raw.
	ConventionLocalKey
)

func (c Convention) String() string {
	switch c {
	case ConventionWallet:
		return "wallet"
	case ConventionLocalKey:
		return "local-key"
	}
	return "unknown"
}

type Transactor = contract.Transactor

// IncompatibleBindingError reports that neither signer convention is usable.
type IncompatibleBindingError struct {
	Cause error
}

func (e *IncompatibleBindingError) Error() string {
	if e.Cause == nil {
		return ecommon.ErrIncompatibleBinding.Error()
	}
	return fmt.Sprintf("%s: %s", ecommon.ErrIncompatibleBinding, e.Cause)
}

func (e *IncompatibleBindingError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ecommon.ErrIncompatibleBinding}
	}
	return []error{ecommon.ErrIncompatibleBinding, e.Cause}
}

type Options struct {
	Contract common.Address
	// Key enables the local key convention when the wallet can't manage
	// accounts.
	Key *account.Account
	// Nodes are extra endpoints raw txs are broadcast to, next to the
	// provider's own transport.
	Nodes        map[string]*rpc.Client
	PollInterval time.Duration
	Logger       *zap.Logger
}

type Adapter struct {
	provider   wallet.Provider
	convention Convention
	contract   common.Address
	key        *account.Account
	reader     *reader.EthReader
	monitor    *monitor.TxMonitor
	bc         *broadcaster.Broadcaster
	l          *zap.Logger
}

// New probes the provider: eth_accounts answering means the wallet signs,
// method-not-found falls back to the configured local key.
func New(ctx context.Context, p wallet.Provider, opts Options) (*Adapter, error) {
	l := logging.OrNop(opts.Logger).Named("binding")
	r := reader.NewEthReader(p.Client())
	a := &Adapter{
		provider: p,
		contract: opts.Contract,
		key:      opts.Key,
		reader:   r,
		monitor:  monitor.NewGenericTxMonitor(r, opts.PollInterval),
		l:        l,
	}

	var accounts []string
	err := p.Request(ctx, &accounts, "eth_accounts")
	switch {
	case err == nil:
		a.convention = ConventionWallet
	case ecommon.IsMethodNotFound(err):
		if opts.Key == nil {
			return nil, &IncompatibleBindingError{Cause: err}
		}
		a.convention = ConventionLocalKey
		nodes := map[string]*rpc.Client{"wallet": p.Client()}
		for name, c := range opts.Nodes {
			nodes[name] = c
		}
		a.bc = broadcaster.NewBroadcaster(nodes, opts.Logger)
	default:
		return nil, fmt.Errorf("probing signer convention: %w", err)
	}
	l.Debug("signer convention resolved", zap.Stringer("convention", a.convention))
	return a, nil
}

func (a *Adapter) Convention() Convention {
	return a.convention
}

func (a *Adapter) Reader() *reader.EthReader {
	return a.reader
}

func (a *Adapter) ContractAddress() common.Address {
	return a.contract
}

// RequestAccounts asks the wallet for account access. With a local key the
// key's address is the only account.
func (a *Adapter) RequestAccounts(ctx context.Context) ([]string, error) {
	if a.convention == ConventionLocalKey {
		return []string{a.key.AddressHex()}, nil
	}
	var accounts []string
	if err := a.provider.Request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Signer returns the transactor for account.
func (a *Adapter) Signer(acc common.Address) (Transactor, error) {
	switch a.convention {
	case ConventionWallet:
		return &walletTransactor{provider: a.provider, from: acc}, nil
	case ConventionLocalKey:
		if a.key.Address() != acc {
			return nil, fmt.Errorf("local key %s can't sign for %s", a.key.AddressHex(), acc.Hex())
		}
		return &keyTransactor{key: a.key, reader: a.reader, bc: a.bc}, nil
	}
	return nil, &IncompatibleBindingError{}
}

// NewContract builds a fresh marketplace handle bound to account.
func (a *Adapter) NewContract(acc common.Address) (*contract.Market, error) {
	if ecommon.IsZeroAddress(a.contract) {
		return nil, errors.New("no marketplace contract address configured")
	}
	signer, err := a.Signer(acc)
	if err != nil {
		return nil, err
	}
	return contract.NewMarket(a.contract, signer, a.reader, a.monitor)
}

func (a *Adapter) ToDisplay(amount *big.Int, decimalPlaces int) string {
	return ecommon.ToDisplay(amount, decimalPlaces)
}

// ToBaseUnits never fails, unparsable input is logged and yields zero.
func (a *Adapter) ToBaseUnits(s string) *big.Int {
	v, err := ecommon.ParseBaseUnits(s)
	if err != nil {
		a.l.Warn("couldn't parse amount", zap.String("input", s), zap.Error(err))
		return new(big.Int)
	}
	return v
}

func (a *Adapter) IsValidAddress(s string) bool {
	return ecommon.IsValidAddress(s)
}
