package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// BIP44Path returns the standard EVM derivation path for an account index.
// Format: m/44'/60'/0'/0/{index}
func BIP44Path(index uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

// DerivePrivateKey derives the private key at path from a BIP-39 seed.
func DerivePrivateKey(seed []byte, path string) (*PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	derivedKey, err := deriveKeyFromPath(masterKey, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key from path")
	}
	defer zeroBytes(derivedKey.Key)

	return NewPrivateKey(derivedKey.Key)
}

func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	indices, err := ParseBIP44Path(path)
	if err != nil {
		return nil, err
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// ParseBIP44Path parses a path such as "m/44'/60'/0'/0/0" into child indices.
// Hardened segments carry the 0x80000000 flag.
func ParseBIP44Path(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" || path[0] != 'm' {
		return nil, errors.Wrapf(ErrInvalidPath, "%q", path)
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(path, "m"), "/")
	if rest == "" {
		return []uint32{}, nil
	}

	parts := strings.Split(rest, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}

		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPath, "invalid segment %q", part)
		}
		if index >= uint64(bip32.FirstHardenedChild) {
			return nil, errors.Wrapf(ErrInvalidPath, "segment %q out of range", part)
		}

		if hardened {
			index += uint64(bip32.FirstHardenedChild)
		}

		indices = append(indices, uint32(index))
	}

	return indices, nil
}
