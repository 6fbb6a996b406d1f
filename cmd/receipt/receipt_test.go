package receipt_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/cmd/receipt"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/test"
	"github/chapool/erc20-sender/internal/wallet/ledger"
	"github/chapool/erc20-sender/internal/wallet/transfer"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := receipt.New()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func submit(t *testing.T, node *test.Node, raw []byte) common.Hash {
	t.Helper()

	client, err := ledger.NewRPCClient([]string{node.URL})
	require.NoError(t, err)
	defer client.Close()

	txHash, err := client.Submit(context.Background(), raw)
	require.NoError(t, err)

	return txHash
}

func TestReceiptSuccess(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)
		txHash := submit(t, node, []byte{0x01, 0x02})

		out, err := execute(t, txHash.Hex())
		require.NoError(t, err)
		assert.Contains(t, out, "tx_hash:  "+txHash.Hex())
		assert.Contains(t, out, "status:   success")
	})
}

func TestReceiptReverted(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)
		raw := []byte{0x03, 0x04}
		node.SetReceiptStatus(crypto.Keccak256Hash(raw), 0)
		txHash := submit(t, node, raw)

		out, err := execute(t, txHash.Hex())
		assert.ErrorIs(t, err, transfer.ErrReverted)
		assert.Contains(t, out, "status:   failed")
	})
}

func TestReceiptPending(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)

		_, err := execute(t, common.HexToHash("0x1234").Hex())
		assert.ErrorIs(t, err, receipt.ErrPending)
	})
}

func TestReceiptWait(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)
		t.Setenv(config.EnvReceiptPollInterval, "10ms")

		raw := []byte{0x05}
		txHash := crypto.Keccak256Hash(raw)
		node.DelayReceipts(txHash, 2)
		submit(t, node, raw)

		out, err := execute(t, "--wait", txHash.Hex())
		require.NoError(t, err)
		assert.Contains(t, out, "status:   success")
		assert.Equal(t, 3, node.Calls("eth_getTransactionReceipt"))
	})
}

func TestReceiptInvalidHash(t *testing.T) {
	test.SetTransferEnv(t, "http://localhost:8545")

	for _, arg := range []string{"0x1234", "not-a-hash", common.HexToHash("0x01").Hex()[2:]} {
		_, err := execute(t, arg)
		assert.ErrorIs(t, err, config.ErrConfig, arg)
	}
}
