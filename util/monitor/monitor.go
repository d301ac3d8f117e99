package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/util/reader"
)

const DefaultInterval = 2 * time.Second

type TxResult struct {
	Hash    common.Hash
	Receipt *types.Receipt
	Err     error
}

// TxMonitor polls receipts until a tx is mined or the context ends.
type TxMonitor struct {
	reader   *reader.EthReader
	interval time.Duration
}

func NewGenericTxMonitor(r *reader.EthReader, interval time.Duration) *TxMonitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TxMonitor{r, interval}
}

func (self *TxMonitor) check(ctx context.Context, hash common.Hash) (*types.Receipt, bool, error) {
	receipt, err := self.reader.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return nil, false, nil
	case err != nil:
		// node hiccup, keep polling
		return nil, false, nil
	case receipt.Status == types.ReceiptStatusFailed:
		return receipt, true, fmt.Errorf("%w: tx %s", ecommon.ErrReverted, hash.Hex())
	}
	return receipt, true, nil
}

func (self *TxMonitor) periodicCheck(ctx context.Context, hash common.Hash, info chan<- TxResult) {
	if receipt, done, err := self.check(ctx, hash); done {
		info <- TxResult{hash, receipt, err}
		return
	}
	ticker := time.NewTicker(self.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			info <- TxResult{hash, nil, fmt.Errorf("waiting for tx %s: %w", hash.Hex(), ctx.Err())}
			return
		case <-ticker.C:
			if receipt, done, err := self.check(ctx, hash); done {
				info <- TxResult{hash, receipt, err}
				return
			}
		}
	}
}

func (self *TxMonitor) MakeWaitChannel(ctx context.Context, hash common.Hash) <-chan TxResult {
	result := make(chan TxResult, 1)
	go self.periodicCheck(ctx, hash, result)
	return result
}

// BlockingWait returns the receipt of hash. A reverted tx returns its
// receipt together with an error wrapping ErrReverted.
func (self *TxMonitor) BlockingWait(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	res := <-self.MakeWaitChannel(ctx, hash)
	return res.Receipt, res.Err
}
