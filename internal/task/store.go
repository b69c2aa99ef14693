package task

import (
	"context"
	"sort"
)

// Store is the engine's persisted state: the record table, the per-account
// ownership index, and the live-record counter. Implementations must keep
// reads deterministic (IDs returns sorted identifiers).
type Store interface {
	Get(ctx context.Context, id string) (*Task, bool, error)
	Put(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
	Owned(ctx context.Context, account string) ([]string, error)
	SetOwned(ctx context.Context, account string, ids []string) error
	Count(ctx context.Context) (uint64, error)
	SetCount(ctx context.Context, n uint64) error
}

// Txn is a staged view over a Store. Reads fall through to the base unless
// overridden by a staged write; nothing reaches the base until Commit. A
// discarded Txn leaves the base untouched, which is how every operation
// guarantees all-or-nothing semantics for record, index, and counter
// mutations.
type Txn struct {
	base  Store
	tasks map[string]*Task // staged puts; nil entry marks a delete
	owned map[string][]string
	count *uint64
}

func Begin(base Store) *Txn {
	return &Txn{
		base:  base,
		tasks: make(map[string]*Task),
		owned: make(map[string][]string),
	}
}

func (tx *Txn) Get(ctx context.Context, id string) (*Task, bool, error) {
	if t, ok := tx.tasks[id]; ok {
		if t == nil {
			return nil, false, nil
		}
		return t.clone(), true, nil
	}
	return tx.base.Get(ctx, id)
}

func (tx *Txn) Put(_ context.Context, t *Task) error {
	tx.tasks[t.ID] = t.clone()
	return nil
}

func (tx *Txn) Delete(_ context.Context, id string) error {
	tx.tasks[id] = nil
	return nil
}

func (tx *Txn) IDs(ctx context.Context) ([]string, error) {
	baseIDs, err := tx.base.IDs(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(baseIDs))
	var ids []string
	for _, id := range baseIDs {
		seen[id] = true
		if t, staged := tx.tasks[id]; staged && t == nil {
			continue
		}
		ids = append(ids, id)
	}
	for id, t := range tx.tasks {
		if t != nil && !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (tx *Txn) Owned(ctx context.Context, account string) ([]string, error) {
	if ids, ok := tx.owned[account]; ok {
		return append([]string(nil), ids...), nil
	}
	return tx.base.Owned(ctx, account)
}

func (tx *Txn) SetOwned(_ context.Context, account string, ids []string) error {
	tx.owned[account] = append([]string(nil), ids...)
	return nil
}

func (tx *Txn) Count(ctx context.Context) (uint64, error) {
	if tx.count != nil {
		return *tx.count, nil
	}
	return tx.base.Count(ctx)
}

func (tx *Txn) SetCount(_ context.Context, n uint64) error {
	tx.count = &n
	return nil
}

// Commit applies staged writes to the base store. Deletes are applied
// first so an id that was deleted and re-added within the txn survives.
func (tx *Txn) Commit(ctx context.Context) error {
	for id, t := range tx.tasks {
		if t == nil {
			if err := tx.base.Delete(ctx, id); err != nil {
				return err
			}
		}
	}
	for _, t := range tx.tasks {
		if t != nil {
			if err := tx.base.Put(ctx, t); err != nil {
				return err
			}
		}
	}
	for account, ids := range tx.owned {
		if err := tx.base.SetOwned(ctx, account, ids); err != nil {
			return err
		}
	}
	if tx.count != nil {
		if err := tx.base.SetCount(ctx, *tx.count); err != nil {
			return err
		}
	}
	return nil
}
