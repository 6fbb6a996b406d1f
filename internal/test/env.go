package test

import (
	"testing"

	"github/chapool/erc20-sender/internal/config"
)

// Fixture transfer: key 0x01..01 sends 1000 units of token 0xaa..aa to
// 0xbb..bb with nonce 0 at 1 gwei on Sepolia.
const (
	TransferPrivateKey = "0x0101010101010101010101010101010101010101010101010101010101010101"
	TransferSender     = "0x1a642f0E3c3aF545E7AcBD38b07251B3990914F1"
	TransferToken      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	TransferRecipient  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	TransferAmount     = "1000"
	TransferTxHash     = "0x85913fb369cfb1e399997eab2b8a55da64d3d7d3732224a7ac6021790a8ff3b2"
	TransferRawPrefix  = "0xf8ad80843b9aca00830186a094" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// SetTransferEnv points every configuration variable at the fixture
// transfer against rpcURL. Unrelated variables are blanked so the host
// environment cannot leak in.
func SetTransferEnv(t *testing.T, rpcURL string) {
	t.Helper()

	for _, name := range []string{
		config.EnvKeystorePath,
		config.EnvDerivationPath,
		config.EnvChainID,
		config.EnvGasLimit,
		config.EnvRPCTimeout,
		config.EnvWaitReceipt,
		config.EnvReceiptPollInterval,
		config.EnvMetricsTextfile,
		config.EnvLogLevel,
		config.EnvLogPretty,
	} {
		t.Setenv(name, "")
	}

	t.Setenv(config.EnvRPCURL, rpcURL)
	t.Setenv(config.EnvPrivateKey, TransferPrivateKey)
	t.Setenv(config.EnvToken, TransferToken)
	t.Setenv(config.EnvRecipient, TransferRecipient)
	t.Setenv(config.EnvAmount, TransferAmount)
}

