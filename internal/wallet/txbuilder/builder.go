package txbuilder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ErrInvalidField is returned when a transaction field is missing or out of range.
var ErrInvalidField = errors.New("invalid transaction field")

// Build validates params and assembles an UnsignedTransaction. It performs no I/O.
func Build(params Params) (*UnsignedTransaction, error) {
	if params.To == (common.Address{}) {
		return nil, errors.Wrap(ErrInvalidField, "to: contract address must not be the zero address")
	}

	if params.GasLimit == 0 {
		return nil, errors.Wrap(ErrInvalidField, "gas_limit: must be greater than zero")
	}

	if err := checkUint256("gas_price", params.GasPrice); err != nil {
		return nil, err
	}

	if params.ChainID == nil || params.ChainID.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidField, "chain_id: must be a positive integer")
	}

	if err := checkUint256("chain_id", params.ChainID); err != nil {
		return nil, err
	}

	return &UnsignedTransaction{
		Nonce:    params.Nonce,
		To:       params.To,
		Value:    new(big.Int),
		GasPrice: new(big.Int).Set(params.GasPrice),
		GasLimit: params.GasLimit,
		Data:     common.CopyBytes(params.Data),
		ChainID:  new(big.Int).Set(params.ChainID),
	}, nil
}

func checkUint256(field string, v *big.Int) error {
	if v == nil {
		return errors.Wrapf(ErrInvalidField, "%s: missing", field)
	}

	if v.Sign() < 0 {
		return errors.Wrapf(ErrInvalidField, "%s: must not be negative", field)
	}

	if _, overflow := uint256.FromBig(v); overflow {
		return errors.Wrapf(ErrInvalidField, "%s: exceeds 256 bits", field)
	}

	return nil
}
