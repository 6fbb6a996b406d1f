package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
)

// EnvFileFlag names the persistent flag selecting the dotenv file.
const EnvFileFlag = "env-file"

// PasswordPrompt reads the keystore password. Tests replace it.
//
//nolint:gochecknoglobals
var PasswordPrompt = wallet.PromptPassword

// NewPasswordPrompt reads and confirms a password for a new keystore.
//
//nolint:gochecknoglobals
var NewPasswordPrompt = wallet.PromptNewPassword

// NewSubcommandGroup returns a command that only groups sub-commands and
// prints its help when run directly.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: use + " related subcommands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// WithViper loads the environment (and the dotenv file named by
// --env-file), configures the global logger and runs fn with a context that
// is canceled on SIGINT or SIGTERM.
func WithViper(cmd *cobra.Command, fn func(ctx context.Context, v *viper.Viper) error) error {
	envFile := config.DefaultEnvFile
	if flag := cmd.Flags().Lookup(EnvFileFlag); flag != nil {
		envFile = flag.Value.String()
	}

	v, err := config.NewViper(envFile)
	if err != nil {
		return err
	}

	loggerConfig, err := config.LoadLogger(v)
	if err != nil {
		return err
	}
	util.ConfigureLogger(loggerConfig)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, v)
}

// WithKey resolves the configured key source and runs fn with the key. The
// key is zeroed when fn returns, on every path.
func WithKey(ctx context.Context, key config.Key, keystoreService keystore.Service, fn func(key *address.PrivateKey) error) error {
	if !key.UsesKeystore() {
		return address.WithPrivateKey(key.PrivateKey, fn)
	}

	password, err := PasswordPrompt("Enter keystore password: ")
	if err != nil {
		return errors.Wrap(err, "failed to read keystore password")
	}

	priv, err := wallet.KeyFromKeystore(ctx, keystoreService, key.KeystorePath, key.DerivationPath, password)
	if err != nil {
		return err
	}
	defer priv.Zero()

	return fn(priv)
}
