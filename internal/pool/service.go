package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config carries the caller-supplied pool configuration for an upsert. The
// sale families share this surface; fields a family does not use stay zero
// (per-order cap for auctions, whitelist ids for inline-whitelist pools).
type Config struct {
	PoolID                 int64
	Kind                   Kind
	Title                  string
	ItemAsset              string
	IsSaleToken            bool
	PaymentAsset           string
	StartTime              time.Time
	EndTime                time.Time
	StartPrice             decimal.Decimal
	RequireWhitelist       bool
	WhitelistIDs           []int64
	WhitelistOverrideAfter int64
	MaxBuyPerAddress       int64
	MaxBuyPerOrder         int64
	TotalItems             int64
}

// Service defines pool registry operations.
type Service interface {
	AddOrUpdatePool(ctx context.Context, cfg Config) error
	HandlePublicPool(ctx context.Context, poolID int64, isPublic bool) error
	UpdateSalePool(ctx context.Context, poolID int64, itemIDs []int64) error
	SetWhitelist(ctx context.Context, poolID int64, addresses []string, allowed bool) error
	GetPool(ctx context.Context, poolID int64) (*Pool, error)
	GetPoolIDs(ctx context.Context) ([]int64, error)
	GetWhitelistIDs(ctx context.Context, poolID int64) ([]int64, error)
}

type service struct {
	mu   sync.Mutex
	repo Repository
}

// NewService creates a pool registry service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) AddOrUpdatePool(ctx context.Context, cfg Config) error {
	if cfg.ItemAsset == "" || cfg.PaymentAsset == "" {
		return errors.New("item and payment asset required")
	}
	if !cfg.EndTime.After(cfg.StartTime) {
		return errors.New("end time must be after start time")
	}
	if cfg.StartPrice.IsNegative() {
		return errors.New("price cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetByPoolID(cfg.PoolID)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsPublic {
		return engine.ErrPoolAlreadyPublic
	}

	p := existing
	if p == nil {
		p = &Pool{PoolID: cfg.PoolID, Kind: cfg.Kind}
	}
	p.Title = cfg.Title
	p.ItemAsset = cfg.ItemAsset
	p.IsSaleToken = cfg.IsSaleToken
	p.PaymentAsset = cfg.PaymentAsset
	p.StartTime = cfg.StartTime
	p.EndTime = cfg.EndTime
	p.StartPrice = cfg.StartPrice
	p.RequireWhitelist = cfg.RequireWhitelist
	p.WhitelistOverrideAfter = cfg.WhitelistOverrideAfter
	p.MaxBuyPerAddress = cfg.MaxBuyPerAddress
	p.MaxBuyPerOrder = cfg.MaxBuyPerOrder
	p.TotalItems = cfg.TotalItems

	if existing == nil {
		err = s.repo.Create(p)
	} else {
		err = s.repo.Save(p)
	}
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceWhitelistIDs(cfg.PoolID, cfg.WhitelistIDs); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": cfg.PoolID,
		"kind":    cfg.Kind,
		"price":   cfg.StartPrice.String(),
		"items":   cfg.TotalItems,
	}).Info("Pool configured")
	return nil
}

func (s *service) HandlePublicPool(ctx context.Context, poolID int64, isPublic bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByPoolID(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		// Unpublishing an id that was never configured is harmless; admins
		// routinely do it right before the first upsert.
		if !isPublic {
			return nil
		}
		return engine.ErrPoolNotFound
	}
	p.IsPublic = isPublic
	if err := s.repo.Save(p); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"pool_id": poolID, "public": isPublic}).Info("Pool visibility changed")
	return nil
}

func (s *service) UpdateSalePool(ctx context.Context, poolID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return errors.New("item ids required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByPoolID(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	if p.IsPublic {
		return engine.ErrPoolAlreadyPublic
	}
	if err := s.repo.ReplaceSaleItems(poolID, itemIDs); err != nil {
		return err
	}
	// The explicit id set bounds the sale.
	p.TotalItems = int64(len(itemIDs))
	return s.repo.Save(p)
}

func (s *service) SetWhitelist(ctx context.Context, poolID int64, addresses []string, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByPoolID(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	return s.repo.SetInlineEntries(poolID, addresses, allowed)
}

func (s *service) GetPool(ctx context.Context, poolID int64) (*Pool, error) {
	p, err := s.repo.GetByPoolID(poolID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, engine.ErrPoolNotFound
	}
	return p, nil
}

func (s *service) GetPoolIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListPoolIDs()
}

func (s *service) GetWhitelistIDs(ctx context.Context, poolID int64) ([]int64, error) {
	return s.repo.GetWhitelistIDs(poolID)
}
