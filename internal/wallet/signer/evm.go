package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/txbuilder"
)

const (
	signatureLength = crypto.SignatureLength
	recoveryIDIndex = crypto.RecoveryIDOffset
)

// signLegacyTransaction signs a legacy transaction with the EIP-155 scheme.
// crypto.Sign uses RFC 6979 nonces, so the output is deterministic.
func (s *service) signLegacyTransaction(_ context.Context, utx *txbuilder.UnsignedTransaction, key *address.PrivateKey) (*SignedTransaction, error) {
	ecdsaPrivateKey, err := key.ECDSA()
	if err != nil {
		return nil, errors.Wrap(ErrSigning, err.Error())
	}
	defer clearECDSAKey(ecdsaPrivateKey)

	signer := types.NewEIP155Signer(utx.ChainID)
	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := types.NewTx(utx.LegacyTx())
	sigHash := signer.Hash(tx)

	sig, err := crypto.Sign(sigHash[:], ecdsaPrivateKey)
	if err != nil {
		return nil, errors.Wrapf(ErrSigning, "failed to sign transaction: %v", err)
	}

	if len(sig) != signatureLength {
		return nil, errors.Wrapf(ErrSigning, "unexpected signature length %d", len(sig))
	}

	r := new(big.Int).SetBytes(sig[:32])
	sValue := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[recoveryIDIndex], r, sValue, true) {
		return nil, errors.Wrap(ErrSigning, "signature values out of range")
	}

	signedTx, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, errors.Wrapf(ErrSigning, "failed to attach signature: %v", err)
	}

	// Encode transaction to RLP
	txBytes, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrapf(ErrSigning, "failed to marshal transaction: %v", err)
	}

	// Verify the signature recovers to the signing key
	sender, err := types.Sender(signer, signedTx)
	if err != nil {
		return nil, errors.Wrapf(ErrSigning, "failed to recover sender: %v", err)
	}
	if sender != crypto.PubkeyToAddress(ecdsaPrivateKey.PublicKey) {
		return nil, errors.Wrap(ErrSigning, "recovered sender does not match private key")
	}

	v, rValue, sigS := signedTx.RawSignatureValues()

	return &SignedTransaction{
		Unsigned:       utx,
		V:              v,
		R:              rValue,
		S:              sigS,
		RecoveryID:     sig[recoveryIDIndex],
		SigningHash:    sigHash,
		Hash:           signedTx.Hash(),
		RawTransaction: txBytes,
		tx:             signedTx,
	}, nil
}

// clearECDSAKey overwrites the words backing the private scalar.
func clearECDSAKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}

	words := key.D.Bits()
	for i := range words {
		words[i] = 0
	}
	key.D.SetInt64(0)
}
