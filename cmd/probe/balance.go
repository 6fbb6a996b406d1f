package probe

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
	"github/chapool/erc20-sender/internal/wallet/ledger"
)

const decimalsFlag = "decimals"

func newBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [account]",
		Short: "Prints the ERC20_TOKEN_ADDR balance of an account",
		Long: `Prints the ERC20_TOKEN_ADDR balance of account in base units.

Without an argument the sender address of the configured key is used.
With --decimals the balance is also shown in whole tokens.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return runBalance(ctx, cmd, v, args)
			})
		},
	}

	cmd.Flags().Uint8(decimalsFlag, 0, "token decimals used to format the balance")

	return cmd
}

func runBalance(ctx context.Context, cmd *cobra.Command, v *viper.Viper, args []string) error {
	node, err := config.LoadNode(v)
	if err != nil {
		return err
	}

	token, err := config.LoadToken(v)
	if err != nil {
		return err
	}

	account, err := balanceAccount(ctx, v, args)
	if err != nil {
		return err
	}

	client, err := ledger.NewRPCClient(node.RPCURLs, ledger.WithCallTimeout(node.RPCTimeout))
	if err != nil {
		return err
	}
	defer client.Close()

	balance, err := client.TokenBalance(ctx, token, account)
	if err != nil {
		return err
	}

	decimals, err := cmd.Flags().GetUint8(decimalsFlag)
	if err != nil {
		return err
	}

	if decimals == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", account.Hex(), balance)
		return nil
	}

	tokens := decimal.NewFromBigInt(balance, -int32(decimals))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s tokens)\n", account.Hex(), balance, tokens.String())

	return nil
}

func balanceAccount(ctx context.Context, v *viper.Viper, args []string) (common.Address, error) {
	if len(args) == 1 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, errors.Wrapf(config.ErrConfig, "invalid account address %q", args[0])
		}
		return common.HexToAddress(args[0]), nil
	}

	keyConfig, err := config.LoadKey(v)
	if err != nil {
		return common.Address{}, err
	}

	var account common.Address
	err = command.WithKey(ctx, keyConfig, keystore.NewService(keystore.DefaultScryptParams()), func(key *address.PrivateKey) error {
		var err error
		account, err = address.AddressFromKey(key)
		return err
	})

	return account, err
}
