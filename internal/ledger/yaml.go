package ledger

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taskmarket/taskmarket/pkg/storage"
)

const balancesPath = "ledger/balances.yaml"

type balancesDoc struct {
	Accounts map[string]balance `yaml:"accounts"`
}

// YAMLLedger wraps an InMemory ledger and writes every balance change
// through to storage. Reads are served from memory.
type YAMLLedger struct {
	mem   *InMemory
	store storage.Storage
}

// NewYAMLLedger loads balances from storage. A missing balances file starts
// the ledger from the given genesis allocation instead.
func NewYAMLLedger(ctx context.Context, store storage.Storage, genesis map[string]uint64) (*YAMLLedger, error) {
	l := &YAMLLedger{store: store}
	data, err := store.Read(ctx, balancesPath)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load ledger balances: %w", err)
		}
		l.mem = NewInMemory(genesis)
		if err := l.persist(ctx); err != nil {
			return nil, err
		}
		return l, nil
	}
	var doc balancesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger balances: %w", err)
	}
	l.mem = NewInMemory(nil)
	for acct, b := range doc.Accounts {
		copied := b
		l.mem.accounts[acct] = &copied
	}
	return l, nil
}

func (l *YAMLLedger) persist(ctx context.Context) error {
	doc := balancesDoc{Accounts: l.mem.snapshot()}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger balances: %w", err)
	}
	if err := l.store.Write(ctx, balancesPath, data); err != nil {
		return fmt.Errorf("failed to write ledger balances: %w", err)
	}
	return nil
}

func (l *YAMLLedger) FreeBalance(acct string) uint64 {
	return l.mem.FreeBalance(acct)
}

func (l *YAMLLedger) ReservedBalance(acct string) uint64 {
	return l.mem.ReservedBalance(acct)
}

func (l *YAMLLedger) CanReserve(acct string, amount uint64) bool {
	return l.mem.CanReserve(acct, amount)
}

func (l *YAMLLedger) Reserve(acct string, amount uint64) error {
	if err := l.mem.Reserve(acct, amount); err != nil {
		return err
	}
	return l.persist(context.Background())
}

func (l *YAMLLedger) Unreserve(acct string, amount uint64) {
	l.mem.Unreserve(acct, amount)
	_ = l.persist(context.Background())
}

func (l *YAMLLedger) Transfer(from, to string, amount uint64, mode TransferMode) error {
	if err := l.mem.Transfer(from, to, amount, mode); err != nil {
		return err
	}
	return l.persist(context.Background())
}
