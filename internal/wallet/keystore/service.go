package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/util"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// Service provides keystore encryption and decryption functionality
type Service interface {
	// CreateKeystore encrypts mnemonic and writes the keystore to path
	CreateKeystore(ctx context.Context, path string, mnemonic string, password string, verification common.Address) (*KeystoreJSON, error)

	// DecryptMnemonic decrypts mnemonic from keystore
	DecryptMnemonic(ctx context.Context, keystore *KeystoreJSON, password string) (string, error)

	// GetKeystore reads the keystore at path
	GetKeystore(ctx context.Context, path string) (*KeystoreJSON, error)

	// Exists checks if a keystore file exists at path
	Exists(ctx context.Context, path string) (bool, error)
}

type service struct {
	params ScryptParams
}

// NewService creates a new KeystoreService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(params ScryptParams) Service {
	return &service{
		params: params,
	}
}

// CreateKeystore creates and encrypts a mnemonic to keystore
func (s *service) CreateKeystore(ctx context.Context, path string, mnemonic string, password string, verification common.Address) (*KeystoreJSON, error) {
	log := util.LogFromContext(ctx)

	exists, err := s.Exists(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return nil, errors.Wrap(ErrKeystoreExists, path)
	}

	keystoreJSON, err := encryptMnemonic(mnemonic, password, s.params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	if verification != (common.Address{}) {
		keystoreJSON.Address = strings.ToLower(verification.Hex()[2:])
	}

	data, err := json.MarshalIndent(keystoreJSON, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, errors.Wrap(err, "failed to create keystore directory")
	}

	// O_EXCL keeps a concurrent writer from being overwritten.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrap(ErrKeystoreExists, path)
		}
		return nil, errors.Wrap(err, "failed to create keystore file")
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to write keystore")
		return nil, errors.Wrap(err, "failed to write keystore file")
	}

	log.Info().Str("path", path).Str("id", keystoreJSON.ID).Msg("Keystore created")

	return keystoreJSON, nil
}

// DecryptMnemonic decrypts mnemonic from keystore
func (s *service) DecryptMnemonic(ctx context.Context, keystore *KeystoreJSON, password string) (string, error) {
	if keystore == nil {
		return "", errors.Wrap(ErrMalformed, "keystore is nil")
	}

	mnemonic, err := decryptMnemonic(keystore, password)
	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Str("id", keystore.ID).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

// GetKeystore reads and parses the keystore file
func (s *service) GetKeystore(_ context.Context, path string) (*KeystoreJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keystore file")
	}

	var keystoreJSON KeystoreJSON
	if err := json.Unmarshal(data, &keystoreJSON); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "failed to unmarshal keystore JSON: %v", err)
	}

	if keystoreJSON.Version != keystoreVersion {
		return nil, errors.Wrapf(ErrMalformed, "unsupported keystore version %d", keystoreJSON.Version)
	}

	return &keystoreJSON, nil
}

// Exists checks if keystore exists
func (s *service) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, errors.Wrap(err, "failed to stat keystore file")
}
