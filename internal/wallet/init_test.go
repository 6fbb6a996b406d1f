package wallet_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/wallet"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
)

func newKeystoreService() keystore.Service {
	return keystore.NewService(keystore.ScryptParams{DKLen: 32, N: 1024, R: 8, P: 1})
}

func TestCreateAndUnlockKeystore(t *testing.T) {
	ctx := context.Background()
	svc := newKeystoreService()
	path := filepath.Join(t.TempDir(), "keystore.json")

	verification, err := wallet.CreateKeystore(ctx, svc, path, "password123")
	require.NoError(t, err)

	seedManager, err := wallet.UnlockKeystore(ctx, svc, path, "password123")
	require.NoError(t, err)
	defer seedManager.Clear()

	derived, err := wallet.VerificationAddress(seedManager)
	require.NoError(t, err)
	assert.Equal(t, verification, derived)

	key, err := wallet.KeyFromKeystore(ctx, svc, path, address.BIP44Path(wallet.VerificationAddressIndex), "password123")
	require.NoError(t, err)
	defer key.Zero()

	addr, err := address.AddressFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, verification, addr)
}

func TestCreateKeystoreWeakPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	_, err := wallet.CreateKeystore(context.Background(), newKeystoreService(), path, "short")
	assert.True(t, errors.Is(err, wallet.ErrWeakPassword))
}

func TestUnlockKeystoreWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newKeystoreService()
	path := filepath.Join(t.TempDir(), "keystore.json")

	_, err := wallet.CreateKeystore(ctx, svc, path, "password123")
	require.NoError(t, err)

	_, err = wallet.UnlockKeystore(ctx, svc, path, "password124")
	assert.True(t, errors.Is(err, keystore.ErrInvalidPassword))

	_, err = wallet.KeyFromKeystore(ctx, svc, path, address.BIP44Path(0), "password124")
	assert.True(t, errors.Is(err, keystore.ErrInvalidPassword))
}

func TestUnlockKeystoreVerificationMismatch(t *testing.T) {
	ctx := context.Background()
	svc := newKeystoreService()
	path := filepath.Join(t.TempDir(), "keystore.json")

	//nolint:dupword
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	// Not the index 0 address of mnemonic.
	stored := common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")

	_, err := svc.CreateKeystore(ctx, path, mnemonic, "password123", stored)
	require.NoError(t, err)

	_, err = wallet.UnlockKeystore(ctx, svc, path, "password123")
	assert.True(t, errors.Is(err, wallet.ErrVerificationFailed))
}

func TestUnlockKeystoreWithoutVerificationAddress(t *testing.T) {
	ctx := context.Background()
	svc := newKeystoreService()
	path := filepath.Join(t.TempDir(), "keystore.json")

	//nolint:dupword
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	ks, err := svc.CreateKeystore(ctx, path, mnemonic, "password123", common.Address{})
	require.NoError(t, err)
	assert.Empty(t, ks.Address)

	seedManager, err := wallet.UnlockKeystore(ctx, svc, path, "password123")
	require.NoError(t, err)
	seedManager.Clear()
}
