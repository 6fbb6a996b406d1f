package address

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// PrivateKey holds a secp256k1 scalar for the duration of a signing operation.
// The bytes are overwritten by Zero; a zeroed key can no longer be used.
type PrivateKey struct {
	key    [PrivateKeyLength]byte
	zeroed bool
}

// ParsePrivateKey parses a hex encoded 32-byte private key. A leading 0x is accepted.
func ParsePrivateKey(hexKey string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, "private key is not valid hex")
	}
	defer zeroBytes(raw)

	return NewPrivateKey(raw)
}

// NewPrivateKey copies raw into a new PrivateKey after validating the scalar.
// The caller keeps ownership of raw and should clear it.
func NewPrivateKey(raw []byte) (*PrivateKey, error) {
	if len(raw) != PrivateKeyLength {
		return nil, errors.Wrapf(ErrInvalidKey, "expected %d bytes, got %d", PrivateKeyLength, len(raw))
	}

	// ToECDSA rejects zero and scalars >= the curve order.
	if _, err := crypto.ToECDSA(raw); err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}

	k := &PrivateKey{}
	copy(k.key[:], raw)

	return k, nil
}

// WithPrivateKey parses hexKey and runs fn with it. The key is zeroed on every
// exit path, including errors and panics inside fn.
func WithPrivateKey(hexKey string, fn func(key *PrivateKey) error) error {
	key, err := ParsePrivateKey(hexKey)
	if err != nil {
		return err
	}
	defer key.Zero()

	return fn(key)
}

// ECDSA converts the key for use with go-ethereum signing primitives.
func (k *PrivateKey) ECDSA() (*ecdsa.PrivateKey, error) {
	if k == nil || k.zeroed {
		return nil, errors.Wrap(ErrInvalidKey, "private key is not available")
	}

	ecdsaKey, err := crypto.ToECDSA(k.key[:])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}

	return ecdsaKey, nil
}

// Zero clears the key material.
func (k *PrivateKey) Zero() {
	if k == nil {
		return
	}
	zeroBytes(k.key[:])
	k.zeroed = true
}

// IsZeroed reports whether Zero has been called.
func (k *PrivateKey) IsZeroed() bool {
	return k == nil || k.zeroed
}

// String never reveals the key.
func (k *PrivateKey) String() string {
	return "PrivateKey(redacted)"
}

// GoString never reveals the key.
func (k *PrivateKey) GoString() string {
	return k.String()
}

// MarshalText keeps the key out of JSON and structured logs.
func (k *PrivateKey) MarshalText() ([]byte, error) {
	return []byte("redacted"), nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
