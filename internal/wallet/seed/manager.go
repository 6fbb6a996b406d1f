package seed

import (
	"crypto/sha512"
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github/chapool/erc20-sender/internal/wallet/address"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64
	// mnemonicEntropyBits yields a 24 word mnemonic.
	mnemonicEntropyBits = 256
)

// manager implements seed management with thread-safe access
type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new SeedManager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// GenerateMnemonic returns a fresh 24 word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	defer zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic")
	}

	return mnemonic, nil
}

// Initialize converts mnemonic to a seed:
// PBKDF2(mnemonic, "mnemonic" + passphrase, 2048, 64, SHA512)
func (m *manager) Initialize(mnemonic string, passphrase string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}

	seed := pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+passphrase),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	zero(m.seed)
	m.seed = seed
	m.initialized = true

	return nil
}

// GetSeed gets the seed (returns a copy to prevent external modification)
func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) DeriveKey(path string) (*address.PrivateKey, error) {
	seed := m.GetSeed()
	if seed == nil {
		return nil, ErrNotInitialized
	}
	defer zero(seed)

	return address.DerivePrivateKey(seed, path)
}

// IsInitialized checks if seed is initialized
func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

// Clear clears the seed from memory
func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	zero(m.seed)
	m.seed = nil
	m.initialized = false
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
