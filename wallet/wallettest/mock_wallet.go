// Package wallettest provides an in-process wallet served over go-ethereum's
// RPC server so the whole request path can be exercised in tests.
package wallettest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/networks"
	"github.com/ecodine/ecodine/wallet"
)

// Backend executes contract calls and transactions for the mock chain.
type Backend interface {
	Call(from, to common.Address, data []byte) ([]byte, error)
	Transact(from, to common.Address, value *big.Int, data []byte) error
	Code(addr common.Address) []byte
}

type Mode int

const (
	// ModeWallet serves account management and eth_sendTransaction.
	ModeWallet Mode = iota
	// ModeNode serves only plain node methods, like a public RPC endpoint.
	ModeNode
)

// RPCError is returned by the mock with an EIP-1193 code.
type RPCError struct {
	Code int
	Msg  string
}

func (e *RPCError) Error() string  { return e.Msg }
func (e *RPCError) ErrorCode() int { return e.Code }

var (
	errUserRejected = &RPCError{ecommon.CodeUserRejected, "User rejected the request."}
	errUnknownChain = &RPCError{ecommon.CodeUnknownChain, "Unrecognized chain ID. Try adding the chain using wallet_addEthereumChain first."}
)

var DefaultBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

// MockWallet holds the mutable state behind the RPC services.
type MockWallet struct {
	mu sync.Mutex

	backend     Backend
	chainID     uint64
	knownChains map[uint64]bool
	accounts    []common.Address
	authorized  bool
	balances    map[common.Address]*big.Int
	nonces      map[common.Address]uint64
	receipts    map[common.Hash]*types.Receipt
	blockNumber uint64

	RejectConnect bool
	RejectSwitch  bool
	RejectAdd     bool
	RejectSend    bool
	// FailRequestAccounts makes eth_requestAccounts fail with a plain error.
	FailRequestAccounts error

	requests []string
	server   *rpc.Server
}

func New(chainID uint64, accounts ...common.Address) *MockWallet {
	return &MockWallet{
		chainID:     chainID,
		knownChains: map[uint64]bool{chainID: true},
		accounts:    accounts,
		balances:    map[common.Address]*big.Int{},
		nonces:      map[common.Address]uint64{},
		receipts:    map[common.Hash]*types.Receipt{},
		blockNumber: 1,
	}
}

func (w *MockWallet) SetBackend(b Backend) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.backend = b
}

// Provider serves the wallet in-process and returns a provider bound to it.
func (w *MockWallet) Provider(mode Mode) *wallet.RPCProvider {
	return wallet.NewRPCProvider(w.Dial(mode), wallet.Options{})
}

// Dial starts the RPC server for mode and returns an in-process client.
func (w *MockWallet) Dial(mode Mode) *rpc.Client {
	server := rpc.NewServer()
	node := &nodeAPI{w}
	if mode == ModeWallet {
		if err := server.RegisterName("eth", &walletAPI{node}); err != nil {
			panic(err)
		}
		if err := server.RegisterName("wallet", &chainAPI{w}); err != nil {
			panic(err)
		}
	} else {
		if err := server.RegisterName("eth", node); err != nil {
			panic(err)
		}
	}
	w.mu.Lock()
	w.server = server
	w.mu.Unlock()
	return rpc.DialInProc(server)
}

func (w *MockWallet) record(method string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, method)
}

// Requests lists the methods served so far, in order.
func (w *MockWallet) Requests() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.requests...)
}

func (w *MockWallet) CountRequests(method string) int {
	n := 0
	for _, r := range w.Requests() {
		if r == method {
			n++
		}
	}
	return n
}

func (w *MockWallet) SetChain(chainID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chainID
	w.knownChains[chainID] = true
}

func (w *MockWallet) ChainID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID
}

// ForgetChain makes chainID unknown so switching to it fails with 4902.
func (w *MockWallet) ForgetChain(chainID uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.knownChains, chainID)
}

func (w *MockWallet) SetAccounts(accounts ...common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.accounts = accounts
}

func (w *MockWallet) Authorize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.authorized = true
}

func (w *MockWallet) SetBalance(addr common.Address, balance *big.Int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[addr] = new(big.Int).Set(balance)
}

func (w *MockWallet) Balance(addr common.Address) *big.Int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(big.Int).Set(w.balanceLocked(addr))
}

func (w *MockWallet) balanceLocked(addr common.Address) *big.Int {
	b, ok := w.balances[addr]
	if !ok {
		b = new(big.Int).Set(DefaultBalance)
		w.balances[addr] = b
	}
	return b
}

func (w *MockWallet) accountStrings() []string {
	res := make([]string, 0, len(w.accounts))
	for _, a := range w.accounts {
		res = append(res, strings.ToLower(a.Hex()))
	}
	return res
}

// execute runs a transaction against the backend and stores its receipt.
// Failures that a node would report at submission time are returned.
func (w *MockWallet) execute(from common.Address, to *common.Address, value *big.Int, data []byte, hash common.Hash) error {
	if value == nil {
		value = new(big.Int)
	}

	w.mu.Lock()
	balance := w.balanceLocked(from)
	if balance.Cmp(value) < 0 {
		w.mu.Unlock()
		return &RPCError{-32000, fmt.Sprintf("insufficient funds for gas * price + value: address %s have %s want %s", from.Hex(), balance, value)}
	}
	backend := w.backend
	w.mu.Unlock()

	if backend != nil && to != nil {
		if err := backend.Transact(from, *to, value, data); err != nil {
			return &RPCError{3, fmt.Sprintf("execution reverted: %s", err)}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	balance.Sub(balance, value)
	w.nonces[from]++
	w.blockNumber++
	w.receipts[hash] = &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21000,
		Logs:              []*types.Log{},
		TxHash:            hash,
		GasUsed:           21000,
		BlockHash:         crypto.Keccak256Hash(hash.Bytes()),
		BlockNumber:       new(big.Int).SetUint64(w.blockNumber),
		TransactionIndex:  0,
	}
	return nil
}

// Receipt returns the stored receipt for hash, if any.
func (w *MockWallet) Receipt(hash common.Hash) *types.Receipt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.receipts[hash]
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (a callArgs) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value.ToInt()
}

// nodeAPI is the eth namespace of a plain node.
type nodeAPI struct {
	w *MockWallet
}

func (api *nodeAPI) ChainId() hexutil.Uint64 {
	api.w.record("eth_chainId")
	return hexutil.Uint64(api.w.ChainID())
}

func (api *nodeAPI) BlockNumber() hexutil.Uint64 {
	api.w.record("eth_blockNumber")
	api.w.mu.Lock()
	defer api.w.mu.Unlock()
	return hexutil.Uint64(api.w.blockNumber)
}

func (api *nodeAPI) GetCode(addr common.Address, block *json.RawMessage) hexutil.Bytes {
	api.w.record("eth_getCode")
	api.w.mu.Lock()
	backend := api.w.backend
	api.w.mu.Unlock()
	if backend == nil {
		return hexutil.Bytes{}
	}
	return backend.Code(addr)
}

func (api *nodeAPI) Call(args callArgs, block *json.RawMessage, overrides *json.RawMessage) (hexutil.Bytes, error) {
	api.w.record("eth_call")
	api.w.mu.Lock()
	backend := api.w.backend
	api.w.mu.Unlock()
	if backend == nil || args.To == nil {
		return hexutil.Bytes{}, nil
	}
	var from common.Address
	if args.From != nil {
		from = *args.From
	}
	out, err := backend.Call(from, *args.To, args.data())
	if err != nil {
		return nil, &RPCError{3, fmt.Sprintf("execution reverted: %s", err)}
	}
	return out, nil
}

func (api *nodeAPI) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	api.w.record("eth_getTransactionReceipt")
	return api.w.Receipt(hash), nil
}

func (api *nodeAPI) GetBalance(addr common.Address, block *json.RawMessage) *hexutil.Big {
	api.w.record("eth_getBalance")
	return (*hexutil.Big)(api.w.Balance(addr))
}

func (api *nodeAPI) GetTransactionCount(addr common.Address, block *json.RawMessage) hexutil.Uint64 {
	api.w.record("eth_getTransactionCount")
	api.w.mu.Lock()
	defer api.w.mu.Unlock()
	return hexutil.Uint64(api.w.nonces[addr])
}

func (api *nodeAPI) GasPrice() *hexutil.Big {
	api.w.record("eth_gasPrice")
	return (*hexutil.Big)(big.NewInt(1_000_000_000))
}

func (api *nodeAPI) EstimateGas(args callArgs, block *json.RawMessage, overrides *json.RawMessage) (hexutil.Uint64, error) {
	api.w.record("eth_estimateGas")
	return hexutil.Uint64(150000), nil
}

func (api *nodeAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	api.w.record("eth_sendRawTransaction")
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, &RPCError{-32602, fmt.Sprintf("invalid transaction: %s", err)}
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Hash{}, &RPCError{-32000, fmt.Sprintf("invalid sender: %s", err)}
	}
	if tx.ChainId().Uint64() != api.w.ChainID() {
		return common.Hash{}, &RPCError{-32000, "invalid chain id for signer"}
	}
	if err := api.w.execute(from, tx.To(), tx.Value(), tx.Data(), tx.Hash()); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

// walletAPI adds account management on top of the node methods.
type walletAPI struct {
	*nodeAPI
}

func (api *walletAPI) RequestAccounts() ([]string, error) {
	w := api.w
	w.record("eth_requestAccounts")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailRequestAccounts != nil {
		return nil, w.FailRequestAccounts
	}
	if w.RejectConnect {
		return nil, errUserRejected
	}
	w.authorized = true
	return w.accountStrings(), nil
}

func (api *walletAPI) Accounts() []string {
	w := api.w
	w.record("eth_accounts")
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.authorized {
		return []string{}
	}
	return w.accountStrings()
}

func (api *walletAPI) SendTransaction(args callArgs) (common.Hash, error) {
	w := api.w
	w.record("eth_sendTransaction")
	w.mu.Lock()
	if w.RejectSend {
		w.mu.Unlock()
		return common.Hash{}, errUserRejected
	}
	if args.From == nil {
		w.mu.Unlock()
		return common.Hash{}, &RPCError{-32602, "missing from"}
	}
	from := *args.From
	nonce := w.nonces[from]
	w.mu.Unlock()

	hash := crypto.Keccak256Hash(from.Bytes(), new(big.Int).SetUint64(nonce).Bytes(), args.data())
	if err := w.execute(from, args.To, args.value(), args.data(), hash); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// chainAPI is the wallet namespace (EIP-3085, EIP-3326).
type chainAPI struct {
	w *MockWallet
}

func (api *chainAPI) SwitchEthereumChain(params networks.SwitchChainParams) error {
	w := api.w
	w.record("wallet_switchEthereumChain")
	id, err := ecommon.HexToChainID(params.ChainID)
	if err != nil {
		return &RPCError{-32602, err.Error()}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.knownChains[id] {
		return errUnknownChain
	}
	if w.RejectSwitch {
		return errUserRejected
	}
	w.chainID = id
	return nil
}

func (api *chainAPI) AddEthereumChain(params networks.AddChainParams) error {
	w := api.w
	w.record("wallet_addEthereumChain")
	id, err := ecommon.HexToChainID(params.ChainID)
	if err != nil {
		return &RPCError{-32602, err.Error()}
	}
	if params.ChainName == "" || len(params.RPCURLs) == 0 {
		return &RPCError{-32602, "chainName and rpcUrls are required"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.RejectAdd {
		return errUserRejected
	}
	w.knownChains[id] = true
	w.chainID = id
	return nil
}
