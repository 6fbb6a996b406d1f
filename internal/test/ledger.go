package test

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/wallet/ledger"
)

// Ledger is an in-memory ledger.Client that records every call.
type Ledger struct {
	Nonce    uint64
	GasPrice *big.Int

	NonceErr    error
	GasPriceErr error
	// SubmitErr is reported as the node's rejection message.
	SubmitErr string

	mu            sync.Mutex
	nonceCalls    int
	gasPriceCalls int
	submitCalls   int
	submitted     [][]byte
}

var _ ledger.Client = (*Ledger)(nil)

// NewTestLedger returns a ledger reporting nonce 0 and a gas price of 1 gwei.
func NewTestLedger() *Ledger {
	return &Ledger{GasPrice: big.NewInt(1_000_000_000)}
}

func (l *Ledger) GetNonce(_ context.Context, _ common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nonceCalls++
	if l.NonceErr != nil {
		return 0, errors.Wrap(ledger.ErrLedgerQuery, l.NonceErr.Error())
	}

	return l.Nonce, nil
}

func (l *Ledger) GetGasPrice(_ context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gasPriceCalls++
	if l.GasPriceErr != nil {
		return nil, errors.Wrap(ledger.ErrLedgerQuery, l.GasPriceErr.Error())
	}

	return new(big.Int).Set(l.GasPrice), nil
}

func (l *Ledger) Submit(_ context.Context, raw []byte) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submitCalls++
	if l.SubmitErr != "" {
		return common.Hash{}, errors.Wrap(ledger.ErrSubmission, l.SubmitErr)
	}

	l.submitted = append(l.submitted, append([]byte(nil), raw...))

	return crypto.Keccak256Hash(raw), nil
}

// Calls returns the total number of calls made to the ledger.
func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.nonceCalls + l.gasPriceCalls + l.submitCalls
}

func (l *Ledger) Submitted() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]byte, len(l.submitted))
	copy(out, l.submitted)
	return out
}
