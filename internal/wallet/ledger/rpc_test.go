package ledger_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/test"
	"github/chapool/erc20-sender/internal/wallet/ledger"
)

var sender = common.HexToAddress("0x1a642f0E3c3aF545E7AcBD38b07251B3990914F1")

func TestParseRPCURLs(t *testing.T) {
	assert.Nil(t, ledger.ParseRPCURLs(""))
	assert.Equal(t, []string{"http://a"}, ledger.ParseRPCURLs("http://a"))
	assert.Equal(t, []string{"http://a", "http://b"}, ledger.ParseRPCURLs(" http://a , http://b ,,"))
	assert.Empty(t, ledger.ParseRPCURLs(" , "))
}

func TestNewRPCClientNoURLs(t *testing.T) {
	_, err := ledger.NewRPCClient(nil)
	assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))
}

func newClient(t *testing.T, urls ...string) *ledger.RPCClient {
	t.Helper()

	client, err := ledger.NewRPCClient(urls)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestQueries(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		node.SetNonce(sender, 7)
		node.SetGasPrice(big.NewInt(2_500_000_000))

		client := newClient(t, node.URL)
		ctx := context.Background()

		nonce, err := client.GetNonce(ctx, sender)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), nonce)

		gasPrice, err := client.GetGasPrice(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2_500_000_000), gasPrice.Int64())

		chainID, err := client.ChainID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(11155111), chainID.Int64())
	})
}

func TestQueryErrors(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		node.FailMethod("eth_getTransactionCount", "header not found")
		node.FailMethod("eth_gasPrice", "internal error")

		client := newClient(t, node.URL)
		ctx := context.Background()

		_, err := client.GetNonce(ctx, sender)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))
		assert.Contains(t, err.Error(), "header not found")

		_, err = client.GetGasPrice(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))
	})
}

func TestSubmit(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		client := newClient(t, node.URL)
		raw := []byte{0xf8, 0x01, 0x02, 0x03}

		txHash, err := client.Submit(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, crypto.Keccak256Hash(raw), txHash)

		submitted := node.Submitted()
		require.Len(t, submitted, 1)
		assert.Equal(t, raw, submitted[0])
	})
}

func TestSubmitRejected(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		node.RejectSubmissions("insufficient funds for gas * price + value")
		client := newClient(t, node.URL)

		_, err := client.Submit(context.Background(), []byte{0x01})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrSubmission))
		assert.Contains(t, err.Error(), "insufficient funds for gas * price + value")
		assert.Empty(t, node.Submitted())

		_, err = client.Submit(context.Background(), nil)
		assert.True(t, errors.Is(err, ledger.ErrSubmission))
	})
}

func TestFailover(t *testing.T) {
	broken := test.NewTestNode(t)
	broken.FailMethod("eth_chainId", "node is syncing")
	healthy := test.NewTestNode(t)
	healthy.SetNonce(sender, 3)

	client := newClient(t, broken.URL, healthy.URL)

	nonce, err := client.GetNonce(context.Background(), sender)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
	assert.Zero(t, broken.Calls("eth_getTransactionCount"))
	assert.Equal(t, 1, healthy.Calls("eth_getTransactionCount"))
}

func TestAllNodesUnavailable(t *testing.T) {
	node := test.NewTestNode(t)
	node.FailMethod("eth_chainId", "down")

	client := newClient(t, node.URL)

	_, err := client.GetGasPrice(context.Background())
	assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))

	_, err = client.Submit(context.Background(), []byte{0x01})
	assert.True(t, errors.Is(err, ledger.ErrSubmission))
}

func TestWaitForReceipt(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		client := newClient(t, node.URL)
		ctx := context.Background()
		raw := []byte{0x01, 0x02}
		txHash := crypto.Keccak256Hash(raw)

		node.DelayReceipts(txHash, 2)
		_, err := client.Submit(ctx, raw)
		require.NoError(t, err)

		receipt, err := client.WaitForReceipt(ctx, txHash, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), receipt.Status)
		assert.Equal(t, txHash, receipt.TxHash)
		assert.Equal(t, 3, node.Calls("eth_getTransactionReceipt"))
	})
}

func TestWaitForReceiptTimeout(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		client := newClient(t, node.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.WaitForReceipt(ctx, common.HexToHash("0x1234"), 10*time.Millisecond)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))

		_, err = client.WaitForReceipt(context.Background(), common.HexToHash("0x1234"), 0)
		assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))
	})
}

func TestTokenBalance(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		node.SetTokenBalance(sender, big.NewInt(123456))
		client := newClient(t, node.URL)
		token := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")

		balance, err := client.TokenBalance(context.Background(), token, sender)
		require.NoError(t, err)
		assert.Equal(t, int64(123456), balance.Int64())

		balance, err = client.TokenBalance(context.Background(), token, common.HexToAddress("0x01"))
		require.NoError(t, err)
		assert.Zero(t, balance.Sign())
	})
}

func TestCallTimeout(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		node.SetLatency(500 * time.Millisecond)

		client, err := ledger.NewRPCClient([]string{node.URL}, ledger.WithCallTimeout(20*time.Millisecond))
		require.NoError(t, err)
		defer client.Close()

		started := time.Now()
		_, err = client.GetGasPrice(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrLedgerQuery))
		assert.Less(t, time.Since(started), 400*time.Millisecond)
	})
}
