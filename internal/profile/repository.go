package profile

import "context"

// Registry is the narrow view the task engine depends on. AddReputation and
// AddToCompletedWork fail when the account has no profile.
type Registry interface {
	HasProfile(ctx context.Context, account string) (bool, error)
	AddReputation(ctx context.Context, account string) error
	AddToCompletedWork(ctx context.Context, account, taskID string) error
}

// Repository defines profile persistence.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, account string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Exists(ctx context.Context, account string) (bool, error)
	Delete(ctx context.Context, account string) error
}
