package reader

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const TIMEOUT time.Duration = 10 * time.Second

// EthReader reads chain state through the wallet's transport.
type EthReader struct {
	client *ethclient.Client
}

func NewEthReader(client *rpc.Client) *EthReader {
	return &EthReader{client: ethclient.NewClient(client)}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, TIMEOUT)
}

func (er *EthReader) ReadContractToBytes(
	ctx context.Context,
	from common.Address,
	caddr common.Address,
	abi *abi.ABI,
	method string,
	args ...interface{},
) ([]byte, error) {
	data, err := abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't pack %s: %w", method, err)
	}
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.CallContract(timeout, ethereum.CallMsg{
		From: from,
		To:   &caddr,
		Data: data,
	}, nil)
}

// ReadContract calls a view method and returns its unpacked outputs.
func (er *EthReader) ReadContract(
	ctx context.Context,
	from common.Address,
	caddr common.Address,
	abi *abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	responseBytes, err := er.ReadContractToBytes(ctx, from, caddr, abi, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := abi.Unpack(method, responseBytes)
	if err != nil {
		return nil, fmt.Errorf("couldn't unpack %s: %w", method, err)
	}
	return out, nil
}

func (er *EthReader) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.CodeAt(timeout, address, nil)
}

func (er *EthReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.PendingNonceAt(timeout, address)
}

func (er *EthReader) SuggestedGasPrice(ctx context.Context) (*big.Int, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.SuggestGasPrice(timeout)
}

func (er *EthReader) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.EstimateGas(timeout, msg)
}

// TransactionReceipt returns ethereum.NotFound while the tx is pending.
func (er *EthReader) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.TransactionReceipt(timeout, txHash)
}

func (er *EthReader) ChainID(ctx context.Context) (*big.Int, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.ChainID(timeout)
}

func (er *EthReader) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	timeout, cancel := withTimeout(ctx)
	defer cancel()
	return er.client.BalanceAt(timeout, address, nil)
}
