package address

import (
	"github.com/pkg/errors"
)

const (
	// PrivateKeyLength is the size of a secp256k1 private scalar in bytes.
	PrivateKeyLength = 32
	// PublicKeyLength is the size of an uncompressed public key (prefix + X + Y).
	PublicKeyLength = 65

	uncompressedPrefix = 0x04
	addressOffset      = 12 // keccak256 output is 32 bytes, address is the last 20
)

var (
	// ErrInvalidKey is returned when a private key is malformed or outside [1, n-1].
	ErrInvalidKey = errors.New("invalid private key")
	// ErrInvalidPublicKey is returned for public keys that are not valid uncompressed points.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidPath is returned for malformed BIP-44 derivation paths.
	ErrInvalidPath = errors.New("invalid BIP44 path")
)

// PublicKey is an uncompressed secp256k1 public key: 0x04 || X || Y.
type PublicKey [PublicKeyLength]byte

// Bytes returns the 65-byte encoding of the key.
func (p PublicKey) Bytes() []byte {
	return p[:]
}

// Coordinates returns the 64 bytes X || Y without the prefix byte.
func (p PublicKey) Coordinates() []byte {
	return p[1:]
}
