package key

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
)

// NewAddress prints the sender address of the configured key.
func NewAddress() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the sender address of the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return runAddress(ctx, cmd, v)
			})
		},
	}
}

func runAddress(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	keyConfig, err := config.LoadKey(v)
	if err != nil {
		return err
	}

	return command.WithKey(ctx, keyConfig, keystore.NewService(keystore.DefaultScryptParams()), func(key *address.PrivateKey) error {
		addr, err := address.AddressFromKey(key)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())

		return nil
	})
}
