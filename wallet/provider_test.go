package wallet_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ecommon "github.com/ecodine/ecodine/common"
	"github.com/ecodine/ecodine/wallet"
	"github.com/ecodine/ecodine/wallet/wallettest"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestDetectWithoutURL(t *testing.T) {
	_, err := wallet.Detect(context.Background(), "  ", wallet.Options{})
	assert.ErrorIs(t, err, ecommon.ErrExtensionMissing)
}

func TestPollEmitsChangesInOrder(t *testing.T) {
	ctx := context.Background()
	w := wallettest.New(23413, alice)
	w.Authorize()
	p := w.Provider(wallettest.ModeWallet)
	defer p.Close()

	var events []string
	p.OnChainChanged(func(chainID string) { events = append(events, "chain:"+chainID) })
	p.OnAccountsChanged(func(accounts []string) {
		if len(accounts) == 0 {
			events = append(events, "accounts:none")
			return
		}
		events = append(events, "accounts:"+accounts[0])
	})

	require.NoError(t, p.Poll(ctx))
	assert.Empty(t, events, "first poll only primes")

	w.SetChain(1)
	w.SetAccounts(bob)
	require.NoError(t, p.Poll(ctx))
	w.SetAccounts()
	require.NoError(t, p.Poll(ctx))
	require.NoError(t, p.Poll(ctx))

	assert.Equal(t, []string{
		"chain:0x1",
		"accounts:" + "0x0000000000000000000000000000000000000b0b",
		"accounts:none",
	}, events)
}

func TestBackgroundPollerDeliversAndStops(t *testing.T) {
	w := wallettest.New(23413, alice)
	w.Authorize()
	p := wallet.NewRPCProvider(w.Dial(wallettest.ModeWallet), wallet.Options{PollInterval: 5 * time.Millisecond})
	t.Cleanup(p.Close)

	var mu sync.Mutex
	var events []string
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), events...)
	}
	p.OnChainChanged(func(chainID string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "chain:"+chainID)
	})
	p.OnAccountsChanged(func(accounts []string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "accounts:"+strings.Join(accounts, ","))
	})

	// a second eth_accounts means the priming poll has finished
	require.Eventually(t, func() bool { return w.CountRequests("eth_accounts") >= 2 }, time.Second, time.Millisecond)
	assert.Empty(t, snapshot(), "priming poll emits nothing")

	w.SetChain(1)
	require.Eventually(t, func() bool { return len(snapshot()) == 1 }, time.Second, time.Millisecond)
	w.SetAccounts(bob)
	require.Eventually(t, func() bool { return len(snapshot()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{
		"chain:0x1",
		"accounts:" + "0x0000000000000000000000000000000000000b0b",
	}, snapshot())

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.OnChainChanged(func(string) {
		once.Do(func() { close(entered) })
		<-release
	})
	w.SetChain(23413)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("chain change was not delivered")
	}

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	close(release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the handler finished")
	}

	served := len(w.Requests())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, served, len(w.Requests()), "no polls after Close")
	assert.NotPanics(t, p.Close)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	w := wallettest.New(23413)
	p := w.Provider(wallettest.ModeWallet)
	defer p.Close()

	calls := 0
	sub := p.OnChainChanged(func(string) { calls++ })
	require.Equal(t, 1, p.ListenerCount())
	require.NoError(t, p.Poll(ctx))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, p.ListenerCount())

	w.SetChain(5)
	require.NoError(t, p.Poll(ctx))
	assert.Equal(t, 0, calls)
}

func TestPollOnPlainNode(t *testing.T) {
	ctx := context.Background()
	w := wallettest.New(23413, alice)
	p := w.Provider(wallettest.ModeNode)
	defer p.Close()

	require.NoError(t, p.Poll(ctx))
	require.NoError(t, p.Poll(ctx))
	assert.Equal(t, 2, w.CountRequests("eth_chainId"))
	assert.Zero(t, w.CountRequests("eth_accounts"), "node has no account methods")
}

func TestRequestKeepsErrorCode(t *testing.T) {
	w := wallettest.New(23413, alice)
	w.RejectConnect = true
	p := w.Provider(wallettest.ModeWallet)
	defer p.Close()

	var accounts []string
	err := p.Request(context.Background(), &accounts, "eth_requestAccounts")
	require.Error(t, err)
	code, ok := ecommon.ErrorCode(err)
	assert.True(t, ok)
	assert.Equal(t, ecommon.CodeUserRejected, code)
	assert.True(t, ecommon.IsUserRejected(err))
}
