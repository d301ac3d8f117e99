package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/util/logging"
	"github.com/ecodine/ecodine/wallet"
)

// Network is the last chain the wallet reported and whether it is the
// required one. ChainID is nil until a decodable report arrives.
type Network struct {
	ChainID *uint64
	IsValid bool
}

// NetworkGuard tracks the wallet's chain against one required network. It
// records reports even before a provider is bound.
type NetworkGuard struct {
	required networks.Network
	l        *zap.Logger

	mu       sync.Mutex
	provider wallet.Provider
	chainID  *uint64
	isValid  bool
	notify   func(valid bool)
}

func NewNetworkGuard(required networks.Network, l *zap.Logger) *NetworkGuard {
	return &NetworkGuard{
		required: required,
		l:        logging.OrNop(l).Named("network"),
	}
}

func (g *NetworkGuard) Required() networks.Network {
	return g.required
}

func (g *NetworkGuard) Bind(p wallet.Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.provider = p
}

// setNotify registers the callback run after every chain report.
func (g *NetworkGuard) setNotify(fn func(valid bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notify = fn
}

func (g *NetworkGuard) State() Network {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := Network{IsValid: g.isValid}
	if g.chainID != nil {
		id := *g.chainID
		n.ChainID = &id
	}
	return n
}

func (g *NetworkGuard) IsValid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isValid
}

// OnChainReported decodes a chainChanged payload. Anything undecodable
// leaves the chain unknown and invalid.
func (g *NetworkGuard) OnChainReported(chainIDHex string) {
	id, err := common.HexToChainID(chainIDHex)

	g.mu.Lock()
	if err != nil {
		g.chainID = nil
		g.isValid = false
	} else {
		g.chainID = &id
		g.isValid = id == g.required.GetChainID()
	}
	valid := g.isValid
	notify := g.notify
	g.mu.Unlock()

	if err != nil {
		g.l.Warn("undecodable chain id", zap.String("chainId", chainIDHex), zap.Error(err))
	} else {
		g.l.Debug("chain reported",
			zap.Uint64("chainId", id),
			zap.Uint64("required", g.required.GetChainID()),
			zap.Bool("valid", valid),
		)
	}
	if notify != nil {
		notify(valid)
	}
}

// Refresh asks the wallet for its chain once and reports it.
func (g *NetworkGuard) Refresh(ctx context.Context) error {
	g.mu.Lock()
	p := g.provider
	g.mu.Unlock()
	if p == nil {
		return common.ErrExtensionMissing
	}
	var chainID string
	if err := p.Request(ctx, &chainID, "eth_chainId"); err != nil {
		return err
	}
	g.OnChainReported(chainID)
	return nil
}

// RequestSwitch asks the wallet to move to the required chain, adding the
// chain first when the wallet doesn't know it. Failures are logged and
// reported as false.
func (g *NetworkGuard) RequestSwitch(ctx context.Context) bool {
	g.mu.Lock()
	p := g.provider
	g.mu.Unlock()
	if p == nil {
		g.l.Warn("can't switch network without a wallet")
		return false
	}

	required := g.required
	err := p.Request(ctx, nil, "wallet_switchEthereumChain", networks.SwitchChainParams{
		ChainID: required.GetChainIDHex(),
	})
	if code, ok := common.ErrorCode(err); ok && code == common.CodeUnknownChain {
		g.l.Info("wallet doesn't know the network, adding it", zap.String("network", required.GetName()))
		err = p.Request(ctx, nil, "wallet_addEthereumChain", required.AddChainParams())
	}
	if err != nil {
		g.l.Warn("network switch failed", zap.String("network", required.GetName()), zap.Error(err))
		return false
	}
	if err := g.Refresh(ctx); err != nil {
		g.l.Warn("couldn't read chain id after switch", zap.Error(err))
		return false
	}
	return g.IsValid()
}
