package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet/calldata"
)

const abiWordLength = 32

// RPCClient talks JSON-RPC to one of several node endpoints and fails over
// to the next endpoint when the current one stops answering.
type RPCClient struct {
	urls    []string
	clients []*ethclient.Client
	mu      sync.Mutex
	current int
	timeout time.Duration
}

var _ Client = (*RPCClient)(nil)

type RPCOption func(*RPCClient)

// WithCallTimeout bounds every single RPC call, including each receipt poll.
func WithCallTimeout(timeout time.Duration) RPCOption {
	return func(c *RPCClient) {
		c.timeout = timeout
	}
}

// NewRPCClient dials every endpoint. Endpoints that cannot be dialed are
// retried on use; at least one must connect.
func NewRPCClient(urls []string, opts ...RPCOption) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.Wrap(ErrLedgerQuery, "at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, 0, len(urls))
	connected := 0
	for _, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
		connected++
	}

	if connected == 0 {
		return nil, errors.Wrap(ErrLedgerQuery, "failed to connect to any RPC node")
	}

	c := &RPCClient{
		urls:    urls,
		clients: clients,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// withTimeout applies the call timeout, if any, to ctx.
func (c *RPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}

// Close closes all client connections.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, client := range c.clients {
		if client != nil {
			client.Close()
			c.clients[i] = nil
		}
	}
}

// GetNonce returns the pending nonce for the given address.
func (c *RPCClient) GetNonce(ctx context.Context, addr common.Address) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return 0, err
	}

	nonce, err := client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, errors.Wrapf(ErrLedgerQuery, "failed to get pending nonce: %v", err)
	}

	return nonce, nil
}

// GetGasPrice returns the suggested gas price.
func (c *RPCClient) GetGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrLedgerQuery, "failed to get gas price: %v", err)
	}

	return gasPrice, nil
}

// Submit sends the raw bytes unchanged with eth_sendRawTransaction. The
// node's error message is kept verbatim in the returned error.
func (c *RPCClient) Submit(ctx context.Context, raw []byte) (common.Hash, error) {
	if len(raw) == 0 {
		return common.Hash{}, errors.Wrap(ErrSubmission, "raw transaction is empty")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(ErrSubmission, err.Error())
	}

	var txHash common.Hash
	if err := client.Client().CallContext(ctx, &txHash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, errors.Wrap(ErrSubmission, err.Error())
	}

	return txHash, nil
}

// ChainID returns the chain id reported by the node.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrLedgerQuery, "failed to get chain ID: %v", err)
	}

	return chainID, nil
}

// TransactionReceipt returns the receipt of txHash, or ethereum.NotFound
// while the transaction is not yet included.
func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ethereum.NotFound
		}
		return nil, errors.Wrapf(ErrLedgerQuery, "failed to get transaction receipt: %v", err)
	}

	return receipt, nil
}

// WaitForReceipt polls for the receipt of txHash until it is available or
// ctx is done.
func (c *RPCClient) WaitForReceipt(ctx context.Context, txHash common.Hash, pollInterval time.Duration) (*types.Receipt, error) {
	if pollInterval <= 0 {
		return nil, errors.Wrap(ErrLedgerQuery, "receipt poll interval must be positive")
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrLedgerQuery, "context done while waiting for receipt: %v", ctx.Err())
		case <-ticker.C:
			util.LogFromContext(ctx).Debug().Str("tx_hash", txHash.Hex()).Msg("Receipt not available yet")
		}
	}
}

// TokenBalance returns the ERC20 token balance of account.
func (c *RPCClient) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return nil, err
	}

	data, err := calldata.EncodeBalanceOf(account)
	if err != nil {
		return nil, errors.Wrap(ErrLedgerQuery, err.Error())
	}

	resp, err := client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrLedgerQuery, "failed to call balanceOf: %v", err)
	}

	if len(resp) != abiWordLength {
		return nil, errors.Wrapf(ErrLedgerQuery, "unexpected balanceOf response length %d", len(resp))
	}

	balance, err := calldata.DecodeBalanceOf(resp)
	if err != nil {
		return nil, errors.Wrap(ErrLedgerQuery, err.Error())
	}

	return balance, nil
}

// getClient returns the first endpoint, starting at the current one, that
// answers eth_chainId. Endpoints that failed to dial are redialed.
func (c *RPCClient) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < len(c.clients); i++ {
		idx := (c.current + i) % len(c.clients)

		if c.clients[idx] == nil {
			client, err := ethclient.DialContext(ctx, c.urls[idx])
			if err != nil {
				log.Warn().Str("url", c.urls[idx]).Err(err).Msg("Failed to reconnect to RPC node")
				continue
			}
			c.clients[idx] = client
		}

		if _, err := c.clients[idx].ChainID(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrapf(ErrLedgerQuery, "context done: %v", ctx.Err())
			}
			log.Warn().
				Str("url", c.urls[idx]).
				Err(err).
				Msg("RPC client health check failed, trying next node")
			continue
		}

		if idx != c.current {
			log.Info().Str("url", c.urls[idx]).Msg("Switched RPC node")
			c.current = idx
		}

		return c.clients[idx], nil
	}

	return nil, errors.Wrap(ErrLedgerQuery, "all RPC clients are unavailable")
}
