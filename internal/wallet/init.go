package wallet

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/keystore"
	"github/chapool/erc20-sender/internal/wallet/seed"
	"golang.org/x/term"
)

// MinPasswordLength is the shortest accepted keystore password.
const MinPasswordLength = 8

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// CreateKeystore generates a new mnemonic and writes it encrypted with
// password to path. It returns the verification address stored with it.
func CreateKeystore(ctx context.Context, keystoreService keystore.Service, path string, password string) (common.Address, error) {
	log := util.LogFromContext(ctx).With().Str("component", "wallet_init").Logger()

	if len(password) < MinPasswordLength {
		return common.Address{}, ErrWeakPassword
	}

	mnemonic, err := seed.GenerateMnemonic()
	if err != nil {
		return common.Address{}, err
	}

	seedManager := seed.NewManager()
	defer seedManager.Clear()

	if err := seedManager.Initialize(mnemonic, ""); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to initialize seed manager")
	}

	verification, err := VerificationAddress(seedManager)
	if err != nil {
		return common.Address{}, err
	}

	if _, err := keystoreService.CreateKeystore(ctx, path, mnemonic, password, verification); err != nil {
		return common.Address{}, errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("verification_address", verification.Hex()).Msg("Keystore created successfully")

	return verification, nil
}

// UnlockKeystore decrypts the keystore at path and returns an initialized
// seed manager. The caller must Clear it when done.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func UnlockKeystore(ctx context.Context, keystoreService keystore.Service, path string, password string) (seed.Manager, error) {
	//nolint:varnamelen // ks is a common abbreviation for keystore
	ks, err := keystoreService.GetKeystore(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get keystore")
	}

	mnemonic, err := keystoreService.DecryptMnemonic(ctx, ks, password)
	if err != nil {
		return nil, err
	}

	seedManager := seed.NewManager()
	if err := seedManager.Initialize(mnemonic, ""); err != nil {
		return nil, errors.Wrap(err, "failed to initialize seed manager")
	}

	valid, err := VerifyPasswordByAddress(ctx, seedManager, ks)
	if err != nil {
		seedManager.Clear()
		return nil, errors.Wrap(err, "failed to verify password")
	}

	if !valid {
		seedManager.Clear()
		return nil, ErrVerificationFailed
	}

	return seedManager, nil
}

// KeyFromKeystore unlocks the keystore and derives the key at derivationPath.
func KeyFromKeystore(ctx context.Context, keystoreService keystore.Service, path string, derivationPath string, password string) (*address.PrivateKey, error) {
	seedManager, err := UnlockKeystore(ctx, keystoreService, path, password)
	if err != nil {
		return nil, err
	}
	defer seedManager.Clear()

	key, err := seedManager.DeriveKey(derivationPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	return key, nil
}

// PromptPassword prompts for password input (hides input)
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}

// PromptNewPassword prompts twice and checks both entries match.
func PromptNewPassword() (string, error) {
	password, err := PromptPassword(fmt.Sprintf("Enter password for keystore (min %d characters): ", MinPasswordLength))
	if err != nil {
		return "", err
	}

	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}

	passwordConfirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return "", errors.Wrap(err, "failed to read password confirmation")
	}

	if password != passwordConfirm {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}
