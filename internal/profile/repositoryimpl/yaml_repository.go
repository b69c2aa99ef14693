package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/taskmarket/taskmarket/internal/profile"
	"github.com/taskmarket/taskmarket/pkg/cerr"
	"github.com/taskmarket/taskmarket/pkg/storage"
)

const profilesPrefix = "profiles"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(account string) string {
	return fmt.Sprintf("%s/%s.yaml", profilesPrefix, account)
}

func (r *YAMLRepository) Create(ctx context.Context, p *profile.Profile) error {
	exists, err := r.storage.Exists(ctx, path(p.Account))
	if err != nil {
		return cerr.WrapStorageWriteError("profile", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "profile already exists", nil)
	}
	return r.write(ctx, p)
}

func (r *YAMLRepository) Get(ctx context.Context, account string) (*profile.Profile, error) {
	data, err := r.storage.Read(ctx, path(account))
	if err != nil {
		return nil, cerr.WrapStorageReadError("profile", err)
	}
	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal profile: %w", err))
	}
	return &p, nil
}

func (r *YAMLRepository) Update(ctx context.Context, p *profile.Profile) error {
	exists, err := r.storage.Exists(ctx, path(p.Account))
	if err != nil {
		return cerr.WrapStorageWriteError("profile", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "profile not found", nil)
	}
	return r.write(ctx, p)
}

func (r *YAMLRepository) Exists(ctx context.Context, account string) (bool, error) {
	exists, err := r.storage.Exists(ctx, path(account))
	if err != nil {
		return false, cerr.WrapStorageReadError("profile", err)
	}
	return exists, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, account string) error {
	if err := r.storage.Delete(ctx, path(account)); err != nil {
		return cerr.WrapStorageDeleteError("profile", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, p *profile.Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal profile: %w", err))
	}
	if err := r.storage.Write(ctx, path(p.Account), data); err != nil {
		return cerr.WrapStorageWriteError("profile", err)
	}
	return nil
}
