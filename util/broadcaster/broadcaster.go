package broadcaster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/util/logging"
)

const TIMEOUT = 10 * time.Second

// Broadcaster takes a signed tx and broadcasts it to all nodes it manages
// in parallel. The tx counts as broadcasted once a single node accepts it.
type Broadcaster struct {
	clients map[string]*rpc.Client
	l       *zap.Logger
}

func (b *Broadcaster) GetNodes() map[string]*rpc.Client {
	return b.clients
}

func (b *Broadcaster) broadcast(ctx context.Context, client *rpc.Client, data string) error {
	timeout, cancel := context.WithTimeout(ctx, TIMEOUT)
	defer cancel()
	return client.CallContext(timeout, nil, "eth_sendRawTransaction", data)
}

func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("tx is not valid, couldn't use rlp to encode it: %w", err)
	}
	if err := b.Broadcast(ctx, hexutil.Encode(data)); err != nil {
		return tx.Hash(), err
	}
	return tx.Hash(), nil
}

// Broadcast sends data, the hex encoded signed tx, to every node.
func (b *Broadcaster) Broadcast(ctx context.Context, data string) error {
	if len(b.clients) == 0 {
		return fmt.Errorf("no node to broadcast to")
	}
	names := make([]string, 0, len(b.clients))
	for name := range b.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	_, errs := ecommon.ParallelMap(names, func(name string) (struct{}, error) {
		return struct{}{}, b.broadcast(ctx, b.clients[name], data)
	})
	failures := map[string]error{}
	for i, err := range errs {
		if err != nil {
			failures[names[i]] = err
			b.l.Debug("broadcast failed", zap.String("node", names[i]), zap.Error(err))
		}
	}
	if len(failures) == len(names) {
		return makeError(names, failures)
	}
	return nil
}

func NewBroadcaster(clients map[string]*rpc.Client, l *zap.Logger) *Broadcaster {
	return &Broadcaster{
		clients: clients,
		l:       logging.OrNop(l).Named("broadcaster"),
	}
}
