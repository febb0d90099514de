package whitelist

import (
	"context"
	"errors"
	"sync"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/sirupsen/logrus"
)

// Checker is the membership lookup the eligibility gate consumes.
type Checker interface {
	// IsValid reports whether address belongs to at least one allow-flagged
	// list among listIDs.
	IsValid(ctx context.Context, address string, listIDs []int64) (bool, error)
}

// Service defines whitelist operations.
type Service interface {
	Checker
	AddList(ctx context.Context, title string, addresses []string, allow bool) (int64, error)
	UpdateList(ctx context.Context, listID int64, title string, addresses []string, allow bool) error
	GetListAddress(ctx context.Context, listID int64) ([]string, error)
}

type service struct {
	mu   sync.Mutex
	repo Repository
}

// NewService creates a whitelist service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) AddList(ctx context.Context, title string, addresses []string, allow bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listID, err := s.repo.CountLists()
	if err != nil {
		return 0, err
	}
	if err := s.repo.CreateList(&List{ListID: listID, Title: title, Allow: allow}); err != nil {
		return 0, err
	}
	if err := s.repo.AddAddresses(listID, addresses); err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"list_id": listID, "title": title, "addresses": len(addresses)}).
		Info("Whitelist created")
	return listID, nil
}

func (s *service) UpdateList(ctx context.Context, listID int64, title string, addresses []string, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.GetList(listID)
	if err != nil {
		return err
	}
	if list == nil {
		return engine.ErrListNotFound
	}
	list.Title = title
	list.Allow = allow
	if err := s.repo.SaveList(list); err != nil {
		return err
	}
	// Updates append addresses; removal is done by flipping the allow flag.
	return s.repo.AddAddresses(listID, addresses)
}

func (s *service) IsValid(ctx context.Context, address string, listIDs []int64) (bool, error) {
	if address == "" {
		return false, errors.New("address cannot be empty")
	}
	for _, listID := range listIDs {
		list, err := s.repo.GetList(listID)
		if err != nil {
			return false, err
		}
		if list == nil || !list.Allow {
			continue
		}
		ok, err := s.repo.HasAddress(listID, address)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) GetListAddress(ctx context.Context, listID int64) ([]string, error) {
	list, err := s.repo.GetList(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, engine.ErrListNotFound
	}
	return s.repo.GetAddresses(listID)
}
