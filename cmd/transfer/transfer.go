package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/metrics"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/calldata"
	"github/chapool/erc20-sender/internal/wallet/keystore"
	"github/chapool/erc20-sender/internal/wallet/ledger"
	wallettransfer "github/chapool/erc20-sender/internal/wallet/transfer"
)

const (
	dryRunFlag = "dry-run"
	waitFlag   = "wait"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Sign and submit an ERC20 transfer",
		Long: `Sign and submit a single ERC20 transfer.

Reads RPC_URL, RECIPIENT, AMOUNT, ERC20_TOKEN_ADDR and either PRIVATE_KEY or
KEYSTORE_PATH with DERIVATION_PATH from the environment. CHAIN_ID defaults to
Sepolia and GAS_LIMIT to 100000.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return run(ctx, cmd, v)
			})
		},
	}

	cmd.Flags().Bool(dryRunFlag, false, "sign the transaction and print it without submitting")
	cmd.Flags().Bool(waitFlag, false, "wait for the transaction receipt (overrides WAIT_RECEIPT)")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.LoadTransfer(v)
	if err != nil {
		return err
	}

	dryRun, err := cmd.Flags().GetBool(dryRunFlag)
	if err != nil {
		return err
	}

	wait, err := cmd.Flags().GetBool(waitFlag)
	if err != nil {
		return err
	}

	m := metrics.NewTransferMetrics()

	req := &wallettransfer.Request{
		Token:        cfg.Token,
		Recipient:    cfg.Recipient,
		Amount:       cfg.Amount,
		GasLimit:     cfg.GasLimit,
		ChainID:      cfg.ChainID,
		DryRun:       dryRun,
		WaitReceipt:  cfg.WaitReceipt || wait,
		PollInterval: cfg.ReceiptPollInterval,
	}

	// The key is resolved before any endpoint is dialed.
	var result *wallettransfer.Result
	err = command.WithKey(ctx, cfg.Key, keystore.NewService(keystore.DefaultScryptParams()), func(key *address.PrivateKey) error {
		client, err := ledger.NewRPCClient(cfg.RPCURLs, ledger.WithCallTimeout(cfg.RPCTimeout))
		if err != nil {
			return &wallettransfer.StageError{Stage: wallettransfer.StageQuery, Err: err}
		}
		defer client.Close()

		svc := wallettransfer.NewService(client, wallettransfer.WithMetrics(m))
		result, err = svc.Transfer(ctx, key, req)
		return err
	})

	if result == nil && err != nil {
		stage, ok := wallettransfer.FailedStage(err)
		if !ok {
			stage = wallettransfer.StageDerive
			err = &wallettransfer.StageError{Stage: stage, Err: err}
		}
		m.Failed(string(stage))
		m.Finished(wallettransfer.StateUnbuilt.String())
	}

	if cfg.MetricsTextfile != "" {
		if werr := m.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			util.LogFromContext(ctx).Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("Failed to write metrics")
		}
	}

	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), result)

	return nil
}

func printResult(out io.Writer, result *wallettransfer.Result) {
	fmt.Fprintf(out, "transfer_id: %s\n", result.ID)
	fmt.Fprintf(out, "sender:      %s\n", result.Sender.Hex())
	fmt.Fprintf(out, "nonce:       %d\n", result.Nonce)
	fmt.Fprintf(out, "gas_price:   %s\n", result.GasPrice)
	fmt.Fprintf(out, "state:       %s\n", result.State)

	if result.TxHash != (common.Hash{}) {
		fmt.Fprintf(out, "tx_hash:     %s\n", result.TxHash.Hex())
	} else if result.Signed != nil {
		fmt.Fprintf(out, "raw:         %s\n", hexutil.Encode(result.Signed.RawTransaction))

		if recipient, amount, err := calldata.DecodeTransfer(result.CallData); err == nil {
			fmt.Fprintf(out, "call:        transfer(%s, %s)\n", recipient.Hex(), amount)
		}
	}

	if result.Receipt != nil {
		fmt.Fprintf(out, "block:       %s\n", result.Receipt.BlockNumber)
		fmt.Fprintf(out, "gas_used:    %d\n", result.Receipt.GasUsed)
	}
}
