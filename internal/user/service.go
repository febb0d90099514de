package user

import (
	"context"
	"strings"
	"sync"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/sirupsen/logrus"
)

// Service manages users and the admin role grant.
type Service interface {
	EnsureUser(ctx context.Context, address string) (*User, error)
	SetAdmin(ctx context.Context, address string, isAdmin bool) error
	IsAdmin(ctx context.Context, address string) (bool, error)
	GetUser(ctx context.Context, address string) (*User, error)
}

type service struct {
	mu   sync.Mutex
	repo Repository
}

// NewService creates a user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) EnsureUser(ctx context.Context, address string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	address = strings.ToLower(address)
	u, err := s.repo.GetByAddress(address)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &User{Address: address}
	if err := s.repo.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) SetAdmin(ctx context.Context, address string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address = strings.ToLower(address)
	u, err := s.repo.GetByAddress(address)
	if err != nil {
		return err
	}
	if u == nil {
		u = &User{Address: address}
		if err := s.repo.Create(u); err != nil {
			return err
		}
	}

	if isAdmin {
		if !u.HasRole(RoleAdmin) {
			u.Roles = append(u.Roles, RoleAdmin)
		}
	} else {
		roles := u.Roles[:0]
		for _, r := range u.Roles {
			if r != RoleAdmin {
				roles = append(roles, r)
			}
		}
		u.Roles = roles
	}
	if err := s.repo.Update(u); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"address": address, "is_admin": isAdmin}).
		Info("Admin role updated")
	return nil
}

func (s *service) IsAdmin(ctx context.Context, address string) (bool, error) {
	u, err := s.repo.GetByAddress(strings.ToLower(address))
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return u.HasRole(RoleAdmin), nil
}

func (s *service) GetUser(ctx context.Context, address string) (*User, error) {
	u, err := s.repo.GetByAddress(strings.ToLower(address))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, engine.ErrUserNotFound
	}
	return u, nil
}
