package profile

import (
	"context"
	"time"

	"github.com/taskmarket/taskmarket/pkg/cerr"
)

// Service implements Registry on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) HasProfile(ctx context.Context, account string) (bool, error) {
	return s.repo.Exists(ctx, account)
}

func (s *Service) AddReputation(ctx context.Context, account string) error {
	p, err := s.repo.Get(ctx, account)
	if err != nil {
		return err
	}
	p.Reputation++
	p.UpdatedAt = time.Now()
	return s.repo.Update(ctx, p)
}

func (s *Service) AddToCompletedWork(ctx context.Context, account, taskID string) error {
	p, err := s.repo.Get(ctx, account)
	if err != nil {
		return err
	}
	p.CompletedTasks = append(p.CompletedTasks, taskID)
	p.UpdatedAt = time.Now()
	return s.repo.Update(ctx, p)
}

// CreateProfile registers a new profile for account.
func (s *Service) CreateProfile(ctx context.Context, account, name string, interests []string) (*Profile, error) {
	exists, err := s.repo.Exists(ctx, account)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, cerr.NewError(cerr.AlreadyExists, "profile already exists", nil)
	}
	now := time.Now()
	p := &Profile{
		Account:   account,
		Name:      name,
		Interests: interests,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, account string) (*Profile, error) {
	return s.repo.Get(ctx, account)
}
