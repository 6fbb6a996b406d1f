package seed

import (
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/address"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrNotInitialized  = errors.New("seed not initialized")
)

// Manager provides seed management functionality
type Manager interface {
	// Initialize validates mnemonic and derives the BIP-39 seed
	Initialize(mnemonic string, passphrase string) error

	// GetSeed gets a copy of the seed
	GetSeed() []byte

	// DeriveKey derives the private key at a BIP-44 path
	DeriveKey(path string) (*address.PrivateKey, error)

	// IsInitialized checks if seed is initialized
	IsInitialized() bool

	// Clear clears the seed from memory
	Clear()
}
