package storeimpl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskmarket/taskmarket/internal/task"
	"github.com/taskmarket/taskmarket/pkg/cerr"
	"github.com/taskmarket/taskmarket/pkg/storage"
)

const (
	tasksPrefix = "tasks"
	ownedPath   = "tasks_owned.yaml"
	countPath   = "task_count.yaml"
)

// YAMLStore persists engine state through pkg/storage: one YAML document
// per task, one for the ownership index, one for the counter.
type YAMLStore struct {
	storage storage.Storage
}

func NewYAMLStore(s storage.Storage) *YAMLStore {
	return &YAMLStore{storage: s}
}

func taskPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", tasksPrefix, id)
}

func (s *YAMLStore) Get(ctx context.Context, id string) (*task.Task, bool, error) {
	data, err := s.storage.Read(ctx, taskPath(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, cerr.WrapStorageReadError("task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, false, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, true, nil
}

func (s *YAMLStore) Put(ctx context.Context, t *task.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := s.storage.Write(ctx, taskPath(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (s *YAMLStore) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, taskPath(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}

func (s *YAMLStore) IDs(ctx context.Context) ([]string, error) {
	paths, err := s.storage.List(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimPrefix(p, tasksPrefix+"/")
		if id, ok := strings.CutSuffix(name, ".yaml"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *YAMLStore) Owned(ctx context.Context, account string) ([]string, error) {
	index, err := s.readOwned(ctx)
	if err != nil {
		return nil, err
	}
	return index[account], nil
}

func (s *YAMLStore) SetOwned(ctx context.Context, account string, ids []string) error {
	index, err := s.readOwned(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		delete(index, account)
	} else {
		index[account] = ids
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal ownership index: %w", err))
	}
	if err := s.storage.Write(ctx, ownedPath, data); err != nil {
		return cerr.WrapStorageWriteError("ownership index", err)
	}
	return nil
}

func (s *YAMLStore) readOwned(ctx context.Context) (map[string][]string, error) {
	data, err := s.storage.Read(ctx, ownedPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[string][]string{}, nil
		}
		return nil, cerr.WrapStorageReadError("ownership index", err)
	}
	index := map[string][]string{}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal ownership index: %w", err))
	}
	return index, nil
}

func (s *YAMLStore) Count(ctx context.Context) (uint64, error) {
	data, err := s.storage.Read(ctx, countPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, cerr.WrapStorageReadError("task count", err)
	}
	var n uint64
	if err := yaml.Unmarshal(data, &n); err != nil {
		return 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task count: %w", err))
	}
	return n, nil
}

func (s *YAMLStore) SetCount(ctx context.Context, n uint64) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task count: %w", err))
	}
	if err := s.storage.Write(ctx, countPath, data); err != nil {
		return cerr.WrapStorageWriteError("task count", err)
	}
	return nil
}
