package probe_test

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/cmd/probe"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/test"
)

const unreachableURL = "http://127.0.0.1:1"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := probe.New()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestProbeRPC(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)

		out, err := execute(t, "rpc", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, out, node.URL+": ok (chain 11155111, gas price 1000000000 wei)")
	})
}

func TestProbeRPCOneNodeDown(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, unreachableURL+","+node.URL)

		out, err := execute(t, "rpc")
		require.NoError(t, err)
		assert.Contains(t, out, unreachableURL+": unavailable")
		assert.Contains(t, out, node.URL+": ok")
	})
}

func TestProbeRPCNoHealthyNode(t *testing.T) {
	test.SetTransferEnv(t, unreachableURL)

	_, err := execute(t, "rpc")
	assert.ErrorIs(t, err, probe.ErrNoHealthyNode)
}

func TestProbeRPCChainMismatch(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)
		node.SetChainID(1)

		_, err := execute(t, "rpc")
		assert.ErrorIs(t, err, probe.ErrChainMismatch)
	})
}

func TestProbeBalance(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)

		sender := common.HexToAddress(test.TransferSender)
		node.SetTokenBalance(sender, big.NewInt(123456))

		out, err := execute(t, "balance")
		require.NoError(t, err)
		assert.Equal(t, test.TransferSender+": 123456\n", out)

		out, err = execute(t, "balance", test.TransferRecipient)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(test.TransferRecipient).Hex()+": 0\n", out)
	})
}

func TestProbeBalanceDecimals(t *testing.T) {
	test.WithTestNode(t, func(node *test.Node) {
		test.SetTransferEnv(t, node.URL)

		balance, ok := new(big.Int).SetString("1500000000000000000", 10)
		require.True(t, ok)
		node.SetTokenBalance(common.HexToAddress(test.TransferSender), balance)

		out, err := execute(t, "balance", "--decimals", "18")
		require.NoError(t, err)
		assert.Equal(t, test.TransferSender+": 1500000000000000000 (1.5 tokens)\n", out)
	})
}

func TestProbeBalanceInvalidAccount(t *testing.T) {
	test.SetTransferEnv(t, "http://localhost:8545")

	_, err := execute(t, "balance", "0x1234")
	assert.ErrorIs(t, err, config.ErrConfig)
}
