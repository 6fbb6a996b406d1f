package transfer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github/chapool/erc20-sender/internal/wallet/signer"
)

// State is the last state a transfer reached.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateSigned
	StateSubmitted
	StateConfirmed
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageDerive Stage = "derive"
	StageEncode Stage = "encode"
	StageQuery  Stage = "query"
	StageBuild  Stage = "build"
	StageSign   Stage = "sign"
	StageSubmit Stage = "submit"
	StageWait   Stage = "wait"
)

// Request describes one token transfer.
type Request struct {
	Token     common.Address
	Recipient common.Address
	Amount    *big.Int
	GasLimit  uint64
	ChainID   *big.Int

	// DryRun stops after signing.
	DryRun bool
	// WaitReceipt waits for the transaction to be mined after submission.
	WaitReceipt  bool
	PollInterval time.Duration
}

// Result is what a transfer produced up to the state it reached.
type Result struct {
	ID       string
	Sender   common.Address
	Nonce    uint64
	GasPrice *big.Int
	CallData []byte
	Signed   *signer.SignedTransaction
	// TxHash is set only once the ledger accepted the transaction.
	TxHash  common.Hash
	Receipt *types.Receipt
	State   State
}
