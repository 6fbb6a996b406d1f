package keystore

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// decryptMnemonic decrypts a mnemonic from Ethereum keystore v3 format
func decryptMnemonic(keystoreJSON *KeystoreJSON, password string) (string, error) {
	if keystoreJSON.Crypto.Cipher != cipherName || keystoreJSON.Crypto.KDF != kdfName {
		return "", errors.Wrapf(ErrMalformed, "unsupported cipher %q or kdf %q", keystoreJSON.Crypto.Cipher, keystoreJSON.Crypto.KDF)
	}

	salt, err := hex.DecodeString(keystoreJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrapf(ErrMalformed, "failed to decode salt: %v", err)
	}

	//nolint:varnamelen // iv is a common abbreviation for initialization vector
	iv, err := hex.DecodeString(keystoreJSON.Crypto.CipherParams.IV)
	if err != nil || len(iv) != ivLength {
		return "", errors.Wrap(ErrMalformed, "invalid IV")
	}

	ciphertext, err := hex.DecodeString(keystoreJSON.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrapf(ErrMalformed, "failed to decode ciphertext: %v", err)
	}

	expectedMAC, err := hex.DecodeString(keystoreJSON.Crypto.MAC)
	if err != nil {
		return "", errors.Wrapf(ErrMalformed, "failed to decode MAC: %v", err)
	}

	params := keystoreJSON.Crypto.KDFParams
	if params.DKLen < 2*encryptKeySize {
		return "", errors.Wrapf(ErrMalformed, "derived key length %d too short", params.DKLen)
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return "", errors.Wrapf(ErrMalformed, "failed to derive key: %v", err)
	}
	defer zero(derivedKey)

	mac := calculateMAC(derivedKey[encryptKeySize:2*encryptKeySize], ciphertext)
	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return "", ErrInvalidPassword
	}

	plaintext, err := aes128CTR(derivedKey[:encryptKeySize], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}
	defer zero(plaintext)

	return string(plaintext), nil
}
