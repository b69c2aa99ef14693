package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskmarket/taskmarket/internal/organization"
	"github.com/taskmarket/taskmarket/pkg/cerr"
	"github.com/taskmarket/taskmarket/pkg/storage"
)

const organizationsPrefix = "organizations"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", organizationsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, org *organization.Organization) error {
	exists, err := r.storage.Exists(ctx, path(org.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("organization", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "organization already exists", nil)
	}
	data, err := yaml.Marshal(org)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal organization: %w", err))
	}
	if err := r.storage.Write(ctx, path(org.ID), data); err != nil {
		return cerr.WrapStorageWriteError("organization", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*organization.Organization, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("organization", err)
	}
	var org organization.Organization
	if err := yaml.Unmarshal(data, &org); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal organization: %w", err))
	}
	return &org, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*organization.Organization, error) {
	paths, err := r.storage.List(ctx, organizationsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("organizations", err)
	}
	sort.Strings(paths)

	var all []*organization.Organization
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var org organization.Organization
		if err := yaml.Unmarshal(data, &org); err != nil {
			continue
		}
		all = append(all, &org)
	}
	return all, nil
}

func (r *YAMLRepository) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := r.storage.Exists(ctx, path(id))
	if err != nil {
		return false, cerr.WrapStorageReadError("organization", err)
	}
	return exists, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("organization", err)
	}
	return nil
}
