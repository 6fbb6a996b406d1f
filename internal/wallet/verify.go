package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
	"github/chapool/erc20-sender/internal/wallet/seed"
)

const (
	// VerificationAddressIndex is the address index used for password verification
	VerificationAddressIndex = 0
)

// ErrVerificationFailed is returned when a decrypted keystore derives a
// different verification address than the one stored with it.
var ErrVerificationFailed = errors.New("verification address mismatch")

// VerificationAddress derives the address at VerificationAddressIndex.
func VerificationAddress(seedManager seed.Manager) (common.Address, error) {
	key, err := seedManager.DeriveKey(address.BIP44Path(VerificationAddressIndex))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification key")
	}
	defer key.Zero()

	addr, err := address.AddressFromKey(key)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return addr, nil
}

// VerifyPasswordByAddress compares the verification address derived from
// the unlocked seed with the one stored in the keystore. Keystores without
// a stored address pass.
func VerifyPasswordByAddress(ctx context.Context, seedManager seed.Manager, ks *keystore.KeystoreJSON) (bool, error) {
	log := util.LogFromContext(ctx).With().Str("component", "password_verification").Logger()

	derived, err := VerificationAddress(seedManager)
	if err != nil {
		log.Error().Err(err).Msg("Failed to derive verification address")
		return false, err
	}

	if ks.Address == "" {
		log.Info().Msg("No verification address stored in keystore")
		return true, nil
	}

	if !common.IsHexAddress(ks.Address) {
		return false, errors.Wrapf(keystore.ErrMalformed, "invalid verification address %q", ks.Address)
	}

	stored := common.HexToAddress(ks.Address)
	if derived != stored {
		log.Warn().
			Str("derived", derived.Hex()).
			Str("stored", stored.Hex()).
			Msg("Password verification failed: addresses do not match")
		return false, nil
	}

	log.Debug().Msg("Password verification successful")
	return true, nil
}
