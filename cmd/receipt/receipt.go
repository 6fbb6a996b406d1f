package receipt

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet/ledger"
	"github/chapool/erc20-sender/internal/wallet/transfer"
)

const waitFlag = "wait"

// ErrPending is returned when the transaction has no receipt yet.
var ErrPending = errors.New("transaction is still pending")

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt <tx-hash>",
		Short: "Check the receipt of a submitted transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return run(ctx, cmd, v, args[0])
			})
		},
	}

	cmd.Flags().Bool(waitFlag, false, "poll until the receipt is available")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, v *viper.Viper, rawHash string) error {
	hashBytes, err := hexutil.Decode(rawHash)
	if err != nil || len(hashBytes) != common.HashLength {
		return errors.Wrapf(config.ErrConfig, "invalid transaction hash %q", rawHash)
	}
	txHash := common.BytesToHash(hashBytes)

	node, err := config.LoadNode(v)
	if err != nil {
		return err
	}

	wait, err := cmd.Flags().GetBool(waitFlag)
	if err != nil {
		return err
	}

	client, err := ledger.NewRPCClient(node.RPCURLs, ledger.WithCallTimeout(node.RPCTimeout))
	if err != nil {
		return err
	}
	defer client.Close()

	var receipt *types.Receipt
	if wait {
		pollInterval := v.GetDuration(config.EnvReceiptPollInterval)
		if pollInterval <= 0 {
			pollInterval = config.DefaultReceiptPollInterval
		}
		receipt, err = client.WaitForReceipt(ctx, txHash, pollInterval)
	} else {
		receipt, err = client.TransactionReceipt(ctx, txHash)
	}

	if errors.Is(err, ethereum.NotFound) {
		return errors.Wrap(ErrPending, txHash.Hex())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tx_hash:  %s\n", txHash.Hex())
	fmt.Fprintf(out, "block:    %s\n", receipt.BlockNumber)
	fmt.Fprintf(out, "gas_used: %d\n", receipt.GasUsed)

	if receipt.Status != types.ReceiptStatusSuccessful {
		fmt.Fprintln(out, "status:   failed")
		return errors.Wrap(transfer.ErrReverted, txHash.Hex())
	}

	fmt.Fprintln(out, "status:   success")

	return nil
}
