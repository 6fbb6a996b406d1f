package command_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/config"
	"github/chapool/erc20-sender/internal/util/command"
	"github/chapool/erc20-sender/internal/wallet"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
)

func TestNewSubcommandGroup(t *testing.T) {
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	group := command.NewSubcommandGroup("group", child)

	assert.Equal(t, "group", group.Use)
	require.Len(t, group.Commands(), 1)
	assert.Equal(t, "child", group.Commands()[0].Use)
}

func TestWithViper(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvLogPretty, "")
	t.Setenv("COMMAND_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("COMMAND_TEST_VALUE"))

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COMMAND_TEST_VALUE=from-file\n"), 0o600))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String(command.EnvFileFlag, "", "")
	require.NoError(t, cmd.Flags().Set(command.EnvFileFlag, envFile))

	testError := errors.New("test error")
	resultErr := command.WithViper(cmd, func(ctx context.Context, v *viper.Viper) error {
		assert.NotNil(t, ctx)
		assert.Equal(t, "from-file", v.GetString("COMMAND_TEST_VALUE"))
		return testError
	})

	assert.Equal(t, testError, resultErr)
}

func TestWithViperInvalidLogLevel(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "loud")

	called := false
	err := command.WithViper(&cobra.Command{Use: "test"}, func(context.Context, *viper.Viper) error {
		called = true
		return nil
	})

	assert.True(t, errors.Is(err, config.ErrConfig))
	assert.False(t, called)
}

func TestWithKeyPrivateKey(t *testing.T) {
	var captured *address.PrivateKey

	err := command.WithKey(context.Background(), config.Key{PrivateKey: "0x" + strings.Repeat("01", 32)}, nil, func(key *address.PrivateKey) error {
		captured = key
		addr, err := address.AddressFromKey(key)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x1a642f0E3c3aF545E7AcBD38b07251B3990914F1"), addr)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, captured.IsZeroed())

	err = command.WithKey(context.Background(), config.Key{PrivateKey: "00"}, nil, func(*address.PrivateKey) error {
		t.Fatal("callback must not run for an invalid key")
		return nil
	})
	assert.True(t, errors.Is(err, address.ErrInvalidKey))
}

func TestWithKeyKeystore(t *testing.T) {
	ctx := context.Background()
	svc := keystore.NewService(keystore.ScryptParams{DKLen: 32, N: 1024, R: 8, P: 1})
	path := filepath.Join(t.TempDir(), "keystore.json")

	verification, err := wallet.CreateKeystore(ctx, svc, path, "password123")
	require.NoError(t, err)

	prompt := command.PasswordPrompt
	t.Cleanup(func() { command.PasswordPrompt = prompt })

	command.PasswordPrompt = func(string) (string, error) { return "password123", nil }

	key := config.Key{KeystorePath: path, DerivationPath: address.BIP44Path(0)}
	var captured *address.PrivateKey
	err = command.WithKey(ctx, key, svc, func(priv *address.PrivateKey) error {
		captured = priv
		addr, err := address.AddressFromKey(priv)
		require.NoError(t, err)
		assert.Equal(t, verification, addr)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, captured.IsZeroed())

	command.PasswordPrompt = func(string) (string, error) { return "wrong-password", nil }
	err = command.WithKey(ctx, key, svc, func(*address.PrivateKey) error { return nil })
	assert.True(t, errors.Is(err, keystore.ErrInvalidPassword))
}
