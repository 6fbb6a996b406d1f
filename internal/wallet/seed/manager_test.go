package seed_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/seed"
)

//nolint:dupword
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestInitialize(t *testing.T) {
	m := seed.NewManager()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())

	require.NoError(t, m.Initialize(testMnemonic, "TREZOR"))
	assert.True(t, m.IsInitialized())
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(m.GetSeed()))

	require.NoError(t, m.Initialize(testMnemonic, ""))
	assert.Equal(t,
		"5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4",
		hex.EncodeToString(m.GetSeed()))
}

func TestInitializeInvalidMnemonic(t *testing.T) {
	m := seed.NewManager()

	err := m.Initialize(strings.Replace(testMnemonic, "about", "abandon", 1), "")
	assert.True(t, errors.Is(err, seed.ErrInvalidMnemonic))
	assert.False(t, m.IsInitialized())

	err = m.Initialize("", "")
	assert.True(t, errors.Is(err, seed.ErrInvalidMnemonic))
}

func TestGetSeedReturnsCopy(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	s := m.GetSeed()
	s[0] ^= 0xff

	assert.NotEqual(t, s, m.GetSeed())
}

func TestDeriveKey(t *testing.T) {
	m := seed.NewManager()

	_, err := m.DeriveKey(address.BIP44Path(0))
	assert.True(t, errors.Is(err, seed.ErrNotInitialized))

	require.NoError(t, m.Initialize(testMnemonic, ""))

	key, err := m.DeriveKey(address.BIP44Path(0))
	require.NoError(t, err)
	defer key.Zero()

	addr, err := address.AddressFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.Hex())
}

func TestClear(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	m.Clear()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := seed.GenerateMnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 24)

	other, err := seed.GenerateMnemonic()
	require.NoError(t, err)
	assert.NotEqual(t, mnemonic, other)

	assert.NoError(t, seed.NewManager().Initialize(mnemonic, ""))
}
