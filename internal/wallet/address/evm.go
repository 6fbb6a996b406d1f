package address

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/hash"
)

// DerivePublicKey derives the uncompressed public key for priv.
func DerivePublicKey(priv *PrivateKey) (PublicKey, error) {
	var pub PublicKey

	ecdsaKey, err := priv.ECDSA()
	if err != nil {
		return pub, err
	}

	encoded := crypto.FromECDSAPub(&ecdsaKey.PublicKey)
	if len(encoded) != PublicKeyLength {
		return pub, errors.Wrap(ErrInvalidKey, "failed to encode public key")
	}
	copy(pub[:], encoded)

	return pub, nil
}

// DeriveAddress returns the last 20 bytes of keccak256(X || Y).
func DeriveAddress(pub PublicKey) (common.Address, error) {
	if pub[0] != uncompressedPrefix {
		return common.Address{}, errors.Wrapf(ErrInvalidPublicKey, "unexpected prefix 0x%02x", pub[0])
	}

	// Rejects coordinates that are not on the curve.
	if _, err := crypto.UnmarshalPubkey(pub.Bytes()); err != nil {
		return common.Address{}, errors.Wrap(ErrInvalidPublicKey, err.Error())
	}

	return common.BytesToAddress(hash.Keccak256(pub.Coordinates())[addressOffset:]), nil
}

// AddressFromKey derives the account address controlled by priv.
func AddressFromKey(priv *PrivateKey) (common.Address, error) {
	pub, err := DerivePublicKey(priv)
	if err != nil {
		return common.Address{}, err
	}

	return DeriveAddress(pub)
}
