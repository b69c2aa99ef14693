package organization

import "context"

// Registry is the narrow view the task engine depends on.
type Registry interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Repository defines organization persistence.
type Repository interface {
	Registry
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
	Delete(ctx context.Context, id string) error
}
