package ledger

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrLedgerQuery is returned when a read from the node fails.
	ErrLedgerQuery = errors.New("ledger query failed")
	// ErrSubmission is returned when the node does not accept a transaction.
	ErrSubmission = errors.New("transaction submission failed")
)

// Client is the view of the chain the transfer pipeline depends on.
type Client interface {
	// GetNonce returns the pending transaction count of addr.
	GetNonce(ctx context.Context, addr common.Address) (uint64, error)

	// GetGasPrice returns the node's suggested legacy gas price.
	GetGasPrice(ctx context.Context) (*big.Int, error)

	// Submit broadcasts raw signed transaction bytes and returns the transaction hash.
	Submit(ctx context.Context, raw []byte) (common.Hash, error)
}

// ParseRPCURLs splits a comma separated list of node endpoints.
func ParseRPCURLs(rpcURL string) []string {
	if rpcURL == "" {
		return nil
	}

	urls := strings.Split(rpcURL, ",")
	result := make([]string, 0, len(urls))

	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url != "" {
			result = append(result, url)
		}
	}

	return result
}
