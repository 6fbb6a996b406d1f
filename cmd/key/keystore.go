package key

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet"
	"github/chapool/erc20-sender/internal/wallet/keystore"
)

const (
	pathFlag  = "path"
	lightFlag = "light"
)

// NewKeystore groups the keystore maintenance commands.
func NewKeystore() *cobra.Command {
	return command.NewSubcommandGroup("keystore", newCreate(), newInspect())
}

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a mnemonic and store it in a new encrypted keystore",
		Long: `Generate a 24 word mnemonic and write it to a password protected keystore.

The keystore path is taken from --path or KEYSTORE_PATH. Existing files are
never overwritten. The printed address belongs to m/44'/60'/0'/0/0 and is used
to verify the password on unlock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return runCreate(ctx, cmd, v)
			})
		},
	}

	cmd.Flags().String(pathFlag, "", "keystore file to create (overrides KEYSTORE_PATH)")
	cmd.Flags().Bool(lightFlag, false, "use light scrypt parameters (testing only)")

	return cmd
}

func newInspect() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the public metadata of a keystore without decrypting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
				return runInspect(ctx, cmd, v)
			})
		},
	}

	cmd.Flags().String(pathFlag, "", "keystore file to read (overrides KEYSTORE_PATH)")

	return cmd
}

func keystorePath(cmd *cobra.Command, v *viper.Viper) (string, error) {
	path, err := cmd.Flags().GetString(pathFlag)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = v.GetString(config.EnvKeystorePath)
	}

	if path == "" {
		return "", errors.Wrapf(config.ErrConfig, "--%s or %s is required", pathFlag, config.EnvKeystorePath)
	}

	return path, nil
}

func runCreate(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	path, err := keystorePath(cmd, v)
	if err != nil {
		return err
	}

	light, err := cmd.Flags().GetBool(lightFlag)
	if err != nil {
		return err
	}

	params := keystore.DefaultScryptParams()
	if light {
		params = keystore.LightScryptParams()
	}

	ks := keystore.NewService(params)

	exists, err := ks.Exists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(keystore.ErrKeystoreExists, path)
	}

	password, err := command.NewPasswordPrompt()
	if err != nil {
		return err
	}

	addr, err := wallet.CreateKeystore(ctx, ks, path, password)
	if err != nil {
		return err
	}

	util.LogFromContext(ctx).Info().Str("path", path).Msg("Keystore created")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keystore:             %s\n", path)
	fmt.Fprintf(out, "verification_address: %s\n", addr.Hex())

	return nil
}

func runInspect(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	path, err := keystorePath(cmd, v)
	if err != nil {
		return err
	}

	ks, err := keystore.NewService(keystore.DefaultScryptParams()).GetKeystore(ctx, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keystore: %s\n", path)
	fmt.Fprintf(out, "version:  %d\n", ks.Version)
	fmt.Fprintf(out, "kdf:      %s\n", ks.Crypto.KDF)

	if ks.Address != "" {
		fmt.Fprintf(out, "verification_address: %s\n", common.HexToAddress(ks.Address).Hex())
	}

	return nil
}
