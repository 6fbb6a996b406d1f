package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/wallet/address"
)

func TestBIP44Path(t *testing.T) {
	assert.Equal(t, "m/44'/60'/0'/0/0", address.BIP44Path(0))
	assert.Equal(t, "m/44'/60'/0'/0/17", address.BIP44Path(17))
}

func TestParseBIP44Path(t *testing.T) {
	indices, err := address.ParseBIP44Path("m/44'/60'/0'/0/5")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 5}, indices)

	indices, err = address.ParseBIP44Path("m")
	require.NoError(t, err)
	assert.Empty(t, indices)

	for _, bad := range []string{"", "44'/60'", "m/abc", "m/44'//0", "m/2147483648"} {
		_, err := address.ParseBIP44Path(bad)
		assert.ErrorIs(t, err, address.ErrInvalidPath, bad)
	}
}

func TestDerivePrivateKeyDeterministic(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}

	first, err := address.DerivePrivateKey(seed, address.BIP44Path(0))
	require.NoError(t, err)
	second, err := address.DerivePrivateKey(seed, address.BIP44Path(0))
	require.NoError(t, err)
	other, err := address.DerivePrivateKey(seed, address.BIP44Path(1))
	require.NoError(t, err)

	firstAddr, err := address.AddressFromKey(first)
	require.NoError(t, err)
	secondAddr, err := address.AddressFromKey(second)
	require.NoError(t, err)
	otherAddr, err := address.AddressFromKey(other)
	require.NoError(t, err)

	assert.Equal(t, firstAddr, secondAddr)
	assert.NotEqual(t, firstAddr, otherAddr)

	_, err = address.DerivePrivateKey(seed, "not-a-path")
	assert.Error(t, err)
}
