package nonce

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Source reports the pending nonce of an account.
type Source interface {
	GetNonce(ctx context.Context, addr common.Address) (uint64, error)
}

// Allocator hands out nonces for transfers sharing a sender. Each call to
// Next reserves the returned nonce until Release gives it back.
type Allocator struct {
	source Source

	mu       sync.Mutex
	accounts map[common.Address]*account
}

type account struct {
	mu   sync.Mutex
	next uint64
	// reserved marks nonces handed out and not released.
	reserved map[uint64]struct{}
	// free holds released nonces below next that must be reissued.
	free map[uint64]struct{}
}

func NewAllocator(source Source) *Allocator {
	return &Allocator{
		source:   source,
		accounts: make(map[common.Address]*account),
	}
}

// Next returns the lowest released nonce not yet consumed on the ledger.
// Without one it returns the larger of the ledger's pending nonce and the
// next local nonce for addr.
func (a *Allocator) Next(ctx context.Context, addr common.Address) (uint64, error) {
	acc := a.account(addr)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	pending, err := a.source.GetNonce(ctx, addr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	if nonce, ok := acc.lowestFree(pending); ok {
		delete(acc.free, nonce)
		acc.reserved[nonce] = struct{}{}
		return nonce, nil
	}

	nonce := acc.next
	if pending > nonce {
		nonce = pending
	}

	acc.reserved[nonce] = struct{}{}
	acc.next = nonce + 1

	return nonce, nil
}

// Release returns a reserved nonce that was never broadcast. The next call
// to Next hands it out again, so no gap is left behind.
func (a *Allocator) Release(addr common.Address, nonce uint64) {
	acc := a.account(addr)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if _, ok := acc.reserved[nonce]; !ok {
		return
	}
	delete(acc.reserved, nonce)
	acc.free[nonce] = struct{}{}

	// Fold free nonces at the top back into next.
	for acc.next > 0 {
		if _, ok := acc.free[acc.next-1]; !ok {
			break
		}
		delete(acc.free, acc.next-1)
		acc.next--
	}
}

// Reset forgets local state for addr so the next call trusts the ledger.
func (a *Allocator) Reset(addr common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.accounts, addr)
}

func (a *Allocator) account(addr common.Address) *account {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.accounts[addr]
	if !ok {
		acc = &account{
			reserved: make(map[uint64]struct{}),
			free:     make(map[uint64]struct{}),
		}
		a.accounts[addr] = acc
	}

	return acc
}

// lowestFree drops free nonces the ledger has already moved past and returns
// the lowest remaining one.
func (acc *account) lowestFree(pending uint64) (uint64, bool) {
	var (
		lowest uint64
		found  bool
	)

	for n := range acc.free {
		if n < pending {
			delete(acc.free, n)
			continue
		}
		if !found || n < lowest {
			lowest, found = n, true
		}
	}

	return lowest, found
}
