package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/txbuilder"
)

// Service provides transaction signing functionality
type Service interface {
	// SignTransaction signs a legacy transaction with EIP-155 replay protection
	SignTransaction(ctx context.Context, tx *txbuilder.UnsignedTransaction, key *address.PrivateKey) (*SignedTransaction, error)
}

// SignedTransaction is an UnsignedTransaction plus its signature, ready for broadcast
type SignedTransaction struct {
	Unsigned *txbuilder.UnsignedTransaction

	V          *big.Int // recovery id + chain_id*2 + 35
	R          *big.Int
	S          *big.Int
	RecoveryID byte // 0 or 1

	SigningHash    common.Hash // keccak256 of RLP([nonce, gasPrice, gas, to, value, data, chainId, 0, 0])
	Hash           common.Hash // transaction hash, keccak256 of RawTransaction
	RawTransaction []byte      // RLP([nonce, gasPrice, gas, to, value, data, v, r, s])

	tx *types.Transaction
}

// Transaction returns the go-ethereum representation of the signed transaction
func (s *SignedTransaction) Transaction() *types.Transaction {
	return s.tx
}
