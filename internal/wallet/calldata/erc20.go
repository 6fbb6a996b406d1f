package calldata

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/hash"
)

const (
	// TransferSignature is the canonical ERC20 transfer method signature.
	TransferSignature = "transfer(address,uint256)"
	// TransferLength is the size of encoded transfer call data: selector + two words.
	TransferLength = hash.SelectorLength + 2*wordLength

	wordLength    = 32
	addressOffset = hash.SelectorLength + wordLength - common.AddressLength
	amountOffset  = hash.SelectorLength + wordLength
)

// erc20ABI only declares the methods this package encodes.
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

var (
	// ErrAmountOverflow is returned for amounts that are nil, negative or above 2^256-1.
	ErrAmountOverflow = errors.New("amount out of uint256 range")
	// ErrMalformedCallData is returned when data is not a transfer(address,uint256) call.
	ErrMalformedCallData = errors.New("malformed transfer call data")

	// TransferSelector is keccak256("transfer(address,uint256)")[:4].
	TransferSelector = [hash.SelectorLength]byte{0xa9, 0x05, 0x9c, 0xbb}

	erc20          = mustParseERC20ABI()
	transferMethod = erc20.Methods["transfer"]
)

// EncodeTransfer builds the call data for transfer(recipient, amount).
// The result is always TransferLength bytes. The recipient and amount are not
// validated beyond the uint256 range of amount.
func EncodeTransfer(recipient common.Address, amount *big.Int) ([]byte, error) {
	value, err := ToUint256(amount)
	if err != nil {
		return nil, err
	}

	data := make([]byte, TransferLength)
	copy(data, TransferSelector[:])
	copy(data[addressOffset:amountOffset], recipient.Bytes())

	word := value.Bytes32()
	copy(data[amountOffset:], word[:])

	return data, nil
}

// DecodeTransfer parses call data produced by EncodeTransfer.
func DecodeTransfer(data []byte) (common.Address, *big.Int, error) {
	if len(data) != TransferLength {
		return common.Address{}, nil, errors.Wrapf(ErrMalformedCallData, "expected %d bytes, got %d", TransferLength, len(data))
	}

	if !bytes.Equal(data[:hash.SelectorLength], transferMethod.ID) {
		return common.Address{}, nil, errors.Wrapf(ErrMalformedCallData, "unexpected selector 0x%x", data[:hash.SelectorLength])
	}

	// abi does not check the address padding.
	if !isZero(data[hash.SelectorLength:addressOffset]) {
		return common.Address{}, nil, errors.Wrap(ErrMalformedCallData, "address word has non-zero padding")
	}

	values, err := transferMethod.Inputs.Unpack(data[hash.SelectorLength:])
	if err != nil {
		return common.Address{}, nil, errors.Wrap(ErrMalformedCallData, err.Error())
	}

	//nolint:mnd // transfer has exactly two inputs
	if len(values) != 2 {
		return common.Address{}, nil, errors.Wrapf(ErrMalformedCallData, "expected 2 arguments, got %d", len(values))
	}

	recipient, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, nil, errors.Wrap(ErrMalformedCallData, "recipient is not an address")
	}

	amount, ok := values[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, errors.Wrap(ErrMalformedCallData, "amount is not a uint256")
	}

	return recipient, amount, nil
}

// ToUint256 checks that v fits an unsigned 256-bit word.
func ToUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, errors.Wrap(ErrAmountOverflow, "amount is nil")
	}

	if v.Sign() < 0 {
		return nil, errors.Wrapf(ErrAmountOverflow, "amount %s is negative", v.String())
	}

	value, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.Wrapf(ErrAmountOverflow, "amount has %d bits", v.BitLen())
	}

	return value, nil
}

// EncodeBalanceOf builds the call data for balanceOf(account).
func EncodeBalanceOf(account common.Address) ([]byte, error) {
	data, err := erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack balanceOf")
	}

	return data, nil
}

// DecodeBalanceOf parses the return data of a balanceOf call.
func DecodeBalanceOf(data []byte) (*big.Int, error) {
	values, err := erc20.Unpack("balanceOf", data)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedCallData, err.Error())
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedCallData, "unexpected balanceOf output %T", values[0])
	}

	return balance, nil
}

func mustParseERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(errors.Wrap(err, "failed to parse ERC20 ABI"))
	}

	return parsed
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
