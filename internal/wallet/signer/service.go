package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/txbuilder"
)

// ErrSigning is returned when a signature cannot be produced or fails verification.
var ErrSigning = errors.New("signing failed")

type service struct{}

// NewService creates a new SignerService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

// SignTransaction signs tx with key. The key is not retained.
func (s *service) SignTransaction(ctx context.Context, tx *txbuilder.UnsignedTransaction, key *address.PrivateKey) (*SignedTransaction, error) {
	if tx == nil {
		return nil, errors.Wrap(ErrSigning, "transaction is nil")
	}

	if tx.ChainID == nil || tx.ChainID.Sign() <= 0 {
		return nil, errors.Wrap(ErrSigning, "transaction has no chain id")
	}

	return s.signLegacyTransaction(ctx, tx, key)
}

// RecoverSender recovers the address that produced the signature.
func RecoverSender(signed *SignedTransaction) (common.Address, error) {
	if signed == nil || signed.tx == nil || signed.Unsigned == nil {
		return common.Address{}, errors.New("signed transaction is empty")
	}

	sender, err := types.Sender(types.NewEIP155Signer(signed.Unsigned.ChainID), signed.tx)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover sender")
	}

	return sender, nil
}
