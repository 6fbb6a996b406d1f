package txbuilder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Params carries every field of a transaction. There are no implicit defaults:
// callers supply gas price, gas limit and chain id explicitly.
type Params struct {
	Nonce    uint64
	To       common.Address // token contract, not the transfer recipient
	GasPrice *big.Int       // in wei
	GasLimit uint64
	Data     []byte
	ChainID  *big.Int
}

// UnsignedTransaction is a legacy (type 0) transaction ready for EIP-155 signing.
// Value is always zero: token transfers do not move native currency.
type UnsignedTransaction struct {
	Nonce    uint64
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
	Data     []byte
	ChainID  *big.Int
}

// LegacyTx maps the transaction onto go-ethereum's legacy transaction data.
// Big integers and data are copied.
func (tx *UnsignedTransaction) LegacyTx() *types.LegacyTx {
	to := tx.To

	return &types.LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: new(big.Int).Set(tx.GasPrice),
		Gas:      tx.GasLimit,
		To:       &to,
		Value:    new(big.Int).Set(tx.Value),
		Data:     common.CopyBytes(tx.Data),
	}
}
