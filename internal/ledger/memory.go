package ledger

import "sync"

type balance struct {
	Free     uint64 `yaml:"free"`
	Reserved uint64 `yaml:"reserved"`
}

// InMemory is a Ledger backed by a plain map. The existential minimum is 1:
// a KeepAlive transfer must leave the sender at least that much.
type InMemory struct {
	mu                 sync.RWMutex
	accounts           map[string]*balance
	existentialMinimum uint64
}

// NewInMemory creates a ledger seeded with the given free balances.
func NewInMemory(genesis map[string]uint64) *InMemory {
	accounts := make(map[string]*balance, len(genesis))
	for acct, free := range genesis {
		accounts[acct] = &balance{Free: free}
	}
	return &InMemory{
		accounts:           accounts,
		existentialMinimum: 1,
	}
}

func (l *InMemory) account(acct string) *balance {
	b, ok := l.accounts[acct]
	if !ok {
		b = &balance{}
		l.accounts[acct] = b
	}
	return b
}

func (l *InMemory) FreeBalance(acct string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.accounts[acct]; ok {
		return b.Free
	}
	return 0
}

func (l *InMemory) ReservedBalance(acct string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.accounts[acct]; ok {
		return b.Reserved
	}
	return 0
}

func (l *InMemory) CanReserve(acct string, amount uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.accounts[acct]; ok {
		return b.Free >= amount
	}
	return amount == 0
}

func (l *InMemory) Reserve(acct string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.account(acct)
	if b.Free < amount {
		return ErrInsufficientBalance
	}
	b.Free -= amount
	b.Reserved += amount
	return nil
}

// Unreserve moves up to amount back from reserved to free. Releasing more
// than is reserved releases only what is there, matching the underlying
// ledger primitive the engine assumes.
func (l *InMemory) Unreserve(acct string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.account(acct)
	if amount > b.Reserved {
		amount = b.Reserved
	}
	b.Reserved -= amount
	b.Free += amount
}

func (l *InMemory) Transfer(from, to string, amount uint64, mode TransferMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.account(from)
	if src.Free < amount {
		return ErrInsufficientBalance
	}
	if mode == KeepAlive && src.Free-amount < l.existentialMinimum {
		return ErrKeepAlive
	}
	dst := l.account(to)
	src.Free -= amount
	dst.Free += amount
	return nil
}

// snapshot returns a deep copy of all balances, for persistence.
func (l *InMemory) snapshot() map[string]balance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]balance, len(l.accounts))
	for acct, b := range l.accounts {
		out[acct] = *b
	}
	return out
}
