package test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Node is an in-process JSON-RPC endpoint answering the subset of the
// eth namespace used by the ledger client.
type Node struct {
	URL string

	mu         sync.Mutex
	chainID    *big.Int
	gasPrice   *big.Int
	nonces     map[common.Address]uint64
	balances   map[common.Address]*big.Int
	receipts   map[common.Hash]int
	pending    map[common.Hash]int
	submitErr  string
	failMethod map[string]string
	submitted  [][]byte
	calls      map[string]int
	latency    time.Duration
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// WithTestNode runs closure against a fresh node that is shut down afterwards.
func WithTestNode(t *testing.T, closure func(node *Node)) {
	t.Helper()

	closure(NewTestNode(t))
}

// NewTestNode starts a node reporting chain id 11155111 and a gas price of 1 gwei.
func NewTestNode(t *testing.T) *Node {
	t.Helper()

	node := &Node{
		chainID:    big.NewInt(11155111),
		gasPrice:   big.NewInt(1_000_000_000),
		nonces:     make(map[common.Address]uint64),
		balances:   make(map[common.Address]*big.Int),
		receipts:   make(map[common.Hash]int),
		pending:    make(map[common.Hash]int),
		failMethod: make(map[string]string),
		calls:      make(map[string]int),
	}

	server := httptest.NewServer(http.HandlerFunc(node.serveHTTP))
	t.Cleanup(server.Close)
	node.URL = server.URL

	return node
}

func (n *Node) SetChainID(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chainID = big.NewInt(id)
}

func (n *Node) SetGasPrice(price *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gasPrice = new(big.Int).Set(price)
}

func (n *Node) SetNonce(addr common.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[addr] = nonce
}

// SetTokenBalance sets the value every balanceOf call for addr returns.
func (n *Node) SetTokenBalance(addr common.Address, balance *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[addr] = new(big.Int).Set(balance)
}

// RejectSubmissions makes eth_sendRawTransaction fail with message.
func (n *Node) RejectSubmissions(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitErr = message
}

// FailMethod makes every call of method fail with message.
func (n *Node) FailMethod(method, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failMethod[method] = message
}

// DelayReceipts makes the receipt of txHash appear only after polls
// unsuccessful lookups.
func (n *Node) DelayReceipts(txHash common.Hash, polls int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[txHash] = polls
}

// SetReceiptStatus records a mined receipt with the given status for txHash.
func (n *Node) SetReceiptStatus(txHash common.Hash, status int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts[txHash] = status
}

// SetLatency delays every response by d.
func (n *Node) SetLatency(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latency = d
}

func (n *Node) Submitted() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([][]byte, len(n.submitted))
	copy(out, n.submitted)
	return out
}

func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *Node) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	latency := n.latency
	n.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-r.Context().Done():
			return
		}
	}

	result, rpcErr := n.handle(req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr})
}

//nolint:cyclop,funlen // one case per supported method
func (n *Node) handle(req rpcRequest) (interface{}, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls[req.Method]++

	if msg, ok := n.failMethod[req.Method]; ok {
		return nil, &rpcError{Code: -32000, Message: msg}
	}

	switch req.Method {
	case "eth_chainId":
		return (*hexutil.Big)(n.chainID), nil

	case "eth_gasPrice":
		return (*hexutil.Big)(n.gasPrice), nil

	case "eth_getTransactionCount":
		var addr common.Address
		if err := unmarshalParam(req, 0, &addr); err != nil {
			return nil, err
		}
		return hexutil.Uint64(n.nonces[addr]), nil

	case "eth_sendRawTransaction":
		if n.submitErr != "" {
			return nil, &rpcError{Code: -32000, Message: n.submitErr}
		}
		var raw hexutil.Bytes
		if err := unmarshalParam(req, 0, &raw); err != nil {
			return nil, err
		}
		n.submitted = append(n.submitted, raw)
		txHash := crypto.Keccak256Hash(raw)
		if _, ok := n.receipts[txHash]; !ok {
			n.receipts[txHash] = 1
		}
		return txHash, nil

	case "eth_getTransactionReceipt":
		var txHash common.Hash
		if err := unmarshalParam(req, 0, &txHash); err != nil {
			return nil, err
		}
		if n.pending[txHash] > 0 {
			n.pending[txHash]--
			return nil, nil
		}
		status, ok := n.receipts[txHash]
		if !ok {
			return nil, nil
		}
		return receiptJSON(txHash, status), nil

	case "eth_call":
		var call struct {
			Data  hexutil.Bytes `json:"data"`
			Input hexutil.Bytes `json:"input"`
		}
		if err := unmarshalParam(req, 0, &call); err != nil {
			return nil, err
		}
		data := call.Input
		if len(data) == 0 {
			data = call.Data
		}
		const balanceOfLength = 4 + 32
		if len(data) != balanceOfLength {
			return nil, &rpcError{Code: -32000, Message: "execution reverted"}
		}
		balance, ok := n.balances[common.BytesToAddress(data[4:])]
		if !ok {
			balance = new(big.Int)
		}
		return hexutil.Bytes(common.LeftPadBytes(balance.Bytes(), 32)), nil
	}

	return nil, &rpcError{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
}

func unmarshalParam(req rpcRequest, index int, v interface{}) *rpcError {
	if len(req.Params) <= index {
		return &rpcError{Code: -32602, Message: "missing value for required argument"}
	}
	if err := json.Unmarshal(req.Params[index], v); err != nil {
		return &rpcError{Code: -32602, Message: err.Error()}
	}
	return nil
}

func receiptJSON(txHash common.Hash, status int) map[string]interface{} {
	return map[string]interface{}{
		"type":              "0x0",
		"status":            hexutil.Uint64(status),
		"cumulativeGasUsed": "0xc350",
		"gasUsed":           "0xc350",
		"effectiveGasPrice": "0x3b9aca00",
		"logsBloom":         hexutil.Bytes(make([]byte, 256)),
		"logs":              []interface{}{},
		"transactionHash":   txHash,
		"transactionIndex":  "0x0",
		"blockHash":         common.HexToHash("0x01"),
		"blockNumber":       "0x1",
		"contractAddress":   nil,
	}
}
