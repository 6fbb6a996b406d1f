package transfer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github/chapool/erc20-sender/internal/metrics"
	"github/chapool/erc20-sender/internal/util"
	"github/chapool/erc20-sender/internal/wallet/address"
	"github/chapool/erc20-sender/internal/wallet/calldata"
	"github/chapool/erc20-sender/internal/wallet/ledger"
	"github/chapool/erc20-sender/internal/wallet/nonce"
	"github/chapool/erc20-sender/internal/wallet/signer"
	"github/chapool/erc20-sender/internal/wallet/txbuilder"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is used when a request waits for its receipt without
// naming an interval.
const DefaultPollInterval = 3 * time.Second

// ReceiptWaiter is implemented by ledger clients that can wait for a
// transaction to be mined.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, txHash common.Hash, pollInterval time.Duration) (*types.Receipt, error)
}

// Service runs token transfers.
type Service interface {
	// Transfer builds, signs and submits req with key. The returned Result
	// is never nil and records the last state reached, also on error. The
	// key is not retained; zeroing it is up to the caller.
	Transfer(ctx context.Context, key *address.PrivateKey, req *Request) (*Result, error)
}

type Option func(*service)

func WithMetrics(m *metrics.TransferMetrics) Option {
	return func(s *service) {
		s.metrics = m
	}
}

func WithSigner(signerService signer.Service) Option {
	return func(s *service) {
		s.signer = signerService
	}
}

// WithNonceAllocator shares an allocator between services that send from
// the same accounts.
func WithNonceAllocator(allocator *nonce.Allocator) Option {
	return func(s *service) {
		s.nonces = allocator
	}
}

type service struct {
	client  ledger.Client
	signer  signer.Service
	nonces  *nonce.Allocator
	metrics *metrics.TransferMetrics
}

// NewService creates a new transfer service on top of client.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(client ledger.Client, opts ...Option) Service {
	s := &service{
		client: client,
		signer: signer.NewService(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.nonces == nil {
		s.nonces = nonce.NewAllocator(client)
	}

	return s
}

// TransferHexKey parses hexKey and runs a transfer with it. The parsed key
// is zeroed on every return path.
func TransferHexKey(ctx context.Context, svc Service, hexKey string, req *Request) (*Result, error) {
	var result *Result

	err := address.WithPrivateKey(hexKey, func(key *address.PrivateKey) error {
		var err error
		result, err = svc.Transfer(ctx, key, req)
		return err
	})

	if result == nil {
		return &Result{State: StateUnbuilt}, stageError(StageDerive, err)
	}

	return result, err
}

func (s *service) Transfer(ctx context.Context, key *address.PrivateKey, req *Request) (*Result, error) {
	result := &Result{
		ID:    uuid.NewString(),
		State: StateUnbuilt,
	}

	log := util.LogFromContext(ctx).With().Str("transfer_id", result.ID).Logger()
	ctx = util.WithLogger(ctx, log)

	err := s.run(ctx, key, req, result)

	if s.metrics != nil {
		s.metrics.Finished(result.State.String())
		if stage, ok := FailedStage(err); ok {
			s.metrics.Failed(string(stage))
		}
	}

	if err != nil {
		stage, _ := FailedStage(err)
		log.Error().
			Err(err).
			Str("stage", string(stage)).
			Str("state", result.State.String()).
			Msg("Transfer failed")
		return result, err
	}

	event := log.Info().
		Str("sender", result.Sender.Hex()).
		Uint64("nonce", result.Nonce).
		Str("state", result.State.String())
	if result.TxHash != (common.Hash{}) {
		event = event.Str("tx_hash", result.TxHash.Hex())
	}
	event.Msg("Transfer finished")

	return result, nil
}

//nolint:cyclop,funlen // linear pipeline, one block per stage
func (s *service) run(ctx context.Context, key *address.PrivateKey, req *Request, result *Result) error {
	log := util.LogFromContext(ctx)

	if req == nil {
		return stageError(StageBuild, errors.Wrap(txbuilder.ErrInvalidField, "request is nil"))
	}

	started := time.Now()
	sender, err := address.AddressFromKey(key)
	s.observe(StageDerive, started)
	if err != nil {
		return stageError(StageDerive, err)
	}
	result.Sender = sender

	// Encoding needs no chain state, so bad amounts fail before any I/O.
	started = time.Now()
	data, err := calldata.EncodeTransfer(req.Recipient, req.Amount)
	s.observe(StageEncode, started)
	if err != nil {
		return stageError(StageEncode, err)
	}
	result.CallData = data

	started = time.Now()
	txNonce, gasPrice, err := s.queryChainState(ctx, sender)
	s.observe(StageQuery, started)
	if err != nil {
		return stageError(StageQuery, err)
	}
	result.Nonce = txNonce
	result.GasPrice = gasPrice

	if s.metrics != nil {
		gasPriceWei, _ := new(big.Float).SetInt(gasPrice).Float64()
		s.metrics.ChainState(txNonce, gasPriceWei)
	}

	log.Debug().
		Str("sender", sender.Hex()).
		Uint64("nonce", txNonce).
		Str("gas_price", gasPrice.String()).
		Msg("Chain state fetched")

	// Until the ledger accepts the transaction the nonce goes back to the
	// allocator on any failure.
	submitted := false
	defer func() {
		if !submitted {
			s.nonces.Release(sender, txNonce)
		}
	}()

	started = time.Now()
	utx, err := txbuilder.Build(txbuilder.Params{
		Nonce:    txNonce,
		To:       req.Token,
		GasPrice: gasPrice,
		GasLimit: req.GasLimit,
		Data:     data,
		ChainID:  req.ChainID,
	})
	s.observe(StageBuild, started)
	if err != nil {
		return stageError(StageBuild, err)
	}
	result.State = StateBuilt

	started = time.Now()
	signed, err := s.signer.SignTransaction(ctx, utx, key)
	s.observe(StageSign, started)
	if err != nil {
		return stageError(StageSign, err)
	}
	result.Signed = signed
	result.State = StateSigned

	if req.DryRun {
		log.Info().Str("tx_hash", signed.Hash.Hex()).Msg("Dry run, transaction not submitted")
		return nil
	}

	started = time.Now()
	txHash, err := s.client.Submit(ctx, signed.RawTransaction)
	s.observe(StageSubmit, started)
	if err != nil {
		return stageError(StageSubmit, err)
	}
	submitted = true
	result.TxHash = txHash
	result.State = StateSubmitted

	if txHash != signed.Hash {
		log.Warn().
			Str("node_hash", txHash.Hex()).
			Str("local_hash", signed.Hash.Hex()).
			Msg("Node reported a different transaction hash")
	}

	log.Info().Str("tx_hash", txHash.Hex()).Msg("Transaction submitted")

	if !req.WaitReceipt {
		return nil
	}

	return s.waitForReceipt(ctx, req, result)
}

// queryChainState fetches the nonce and the gas price concurrently.
func (s *service) queryChainState(ctx context.Context, sender common.Address) (uint64, *big.Int, error) {
	var (
		txNonce  uint64
		reserved bool
		gasPrice *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.nonces.Next(gctx, sender)
		if err != nil {
			return err
		}
		txNonce = n
		reserved = true
		return nil
	})

	g.Go(func() error {
		price, err := s.client.GetGasPrice(gctx)
		if err != nil {
			return err
		}
		if price == nil {
			return errors.Wrap(ledger.ErrLedgerQuery, "ledger returned no gas price")
		}
		gasPrice = price
		return nil
	})

	if err := g.Wait(); err != nil {
		if reserved {
			s.nonces.Release(sender, txNonce)
		}
		return 0, nil, err
	}

	return txNonce, gasPrice, nil
}

func (s *service) waitForReceipt(ctx context.Context, req *Request, result *Result) error {
	waiter, ok := s.client.(ReceiptWaiter)
	if !ok {
		return stageError(StageWait, errors.New("ledger client cannot wait for receipts"))
	}

	poll := req.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	started := time.Now()
	receipt, err := waiter.WaitForReceipt(ctx, result.TxHash, poll)
	s.observe(StageWait, started)
	if err != nil {
		return stageError(StageWait, err)
	}
	result.Receipt = receipt

	if receipt.Status != types.ReceiptStatusSuccessful {
		result.State = StateRejected
		return stageError(StageWait, errors.Wrapf(ErrReverted, "in block %v", receipt.BlockNumber))
	}

	result.State = StateConfirmed
	util.LogFromContext(ctx).Info().
		Str("tx_hash", result.TxHash.Hex()).
		Str("block", receipt.BlockNumber.String()).
		Uint64("gas_used", receipt.GasUsed).
		Msg("Transaction confirmed")

	return nil
}

func (s *service) observe(stage Stage, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(string(stage), started)
	}
}
