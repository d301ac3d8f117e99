package binding

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/util/account"
	"github.com/ecodine/ecodine/util/broadcaster"
	"github.com/ecodine/ecodine/util/reader"
	"github.com/ecodine/ecodine/wallet"
)

type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

// walletTransactor hands the tx to the wallet, which fills gas and nonce.
type walletTransactor struct {
	provider wallet.Provider
	from     common.Address
}

func (t *walletTransactor) From() common.Address {
	return t.from
}

func (t *walletTransactor) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	var hash common.Hash
	err := t.provider.Request(ctx, &hash, "eth_sendTransaction", sendTxArgs{
		From:  t.from,
		To:    to,
		Value: (*hexutil.Big)(value),
		Data:  data,
	})
	return hash, err
}

// keyTransactor builds, signs and broadcasts legacy txs from a local key.
type keyTransactor struct {
	key    *account.Account
	reader *reader.EthReader
	bc     *broadcaster.Broadcaster
}

func (t *keyTransactor) From() common.Address {
	return t.key.Address()
}

func (t *keyTransactor) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	from := t.key.Address()
	chainID, err := t.reader.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get chain id: %w", err)
	}
	nonce, err := t.reader.GetPendingNonce(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get nonce: %w", err)
	}
	gasPrice, err := t.reader.SuggestedGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get gas price: %w", err)
	}
	gas, err := t.reader.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", ecommon.ErrGasEstimation, err)
	}
	// 20% headroom over the estimate
	gas = gas * 12 / 10

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := t.key.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	return t.bc.BroadcastTx(ctx, signed)
}
