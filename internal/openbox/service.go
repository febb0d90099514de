package openbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config carries the mutable fields of a box pool.
type Config struct {
	PoolID         int64
	Title          string
	ItemCollection string
	BoxTokenAsset  string
	StartID        int64
	EndID          int64
	BoxPrice       decimal.Decimal
}

// Service exchanges box tokens for newly minted items.
type Service interface {
	AddPool(ctx context.Context, cfg Config) error
	OpenBox(ctx context.Context, poolID int64, caller string, quantity int64) ([]int64, error)
	UpdateItemRarity(ctx context.Context, poolID, itemID, rarity int64) error
	GetPool(ctx context.Context, poolID int64) (*BoxPool, error)
	GetOpenedBoxes(ctx context.Context, poolID int64, opener string) ([]*OpenedBox, error)
}

type service struct {
	mu      sync.Mutex
	repo    Repository
	tokens  assets.TokenService
	items   assets.ItemService
	account string
}

// NewService creates a box-opening service.
func NewService(repo Repository, tokens assets.TokenService, items assets.ItemService, account string) Service {
	return &service{repo: repo, tokens: tokens, items: items, account: account}
}

func (s *service) AddPool(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ItemCollection == "" || cfg.BoxTokenAsset == "" {
		return errors.New("item collection and box token asset are required")
	}
	if cfg.StartID < 1 || cfg.EndID < cfg.StartID {
		return errors.New("invalid item id range")
	}

	existing, err := s.repo.GetPool(cfg.PoolID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("box pool %d exists: %w", cfg.PoolID, engine.ErrPoolAlreadyPublic)
	}

	p := &BoxPool{
		PoolID:         cfg.PoolID,
		Title:          cfg.Title,
		ItemCollection: cfg.ItemCollection,
		BoxTokenAsset:  cfg.BoxTokenAsset,
		BoxPrice:       cfg.BoxPrice,
		StartID:        cfg.StartID,
		EndID:          cfg.EndID,
		CurrentID:      cfg.StartID,
	}
	if err := s.repo.CreatePool(p); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": cfg.PoolID, "start_id": cfg.StartID, "end_id": cfg.EndID,
	}).Info("Box pool created")
	return nil
}

func (s *service) OpenBox(ctx context.Context, poolID int64, caller string, quantity int64) ([]int64, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var itemIDs []int64
	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		if quantity > p.Remaining() {
			return engine.ErrInventoryExhausted
		}

		itemIDs = make([]int64, 0, quantity)
		for i := int64(0); i < quantity; i++ {
			itemID := p.CurrentID
			p.CurrentID++
			if err := r.CreateOpenedBox(&OpenedBox{
				PoolID: poolID, ItemID: itemID, Opener: caller, BoxPrice: p.BoxPrice,
			}); err != nil {
				return err
			}
			itemIDs = append(itemIDs, itemID)
		}
		p.TotalOpened += quantity
		if err := r.SavePool(p); err != nil {
			return err
		}

		cost := p.BoxPrice.Mul(decimal.NewFromInt(quantity))
		if cost.IsPositive() {
			if err := s.tokens.Pull(ctx, p.BoxTokenAsset, caller, s.account, cost); err != nil {
				return err
			}
		}
		for _, itemID := range itemIDs {
			if err := s.items.Mint(ctx, p.ItemCollection, caller, itemID); err != nil {
				// The database writes roll back, but the pulled payment
				// already moved; send it back to the opener.
				if cost.IsPositive() {
					if rerr := s.tokens.Transfer(ctx, p.BoxTokenAsset, s.account, caller, cost); rerr != nil {
						logrus.WithError(rerr).WithFields(logrus.Fields{
							"asset": p.BoxTokenAsset, "opener": caller, "amount": cost.String(),
						}).Error("Failed to refund box payment; manual reconciliation needed")
					}
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": poolID, "opener": caller, "quantity": quantity,
	}).Info("Boxes opened")
	return itemIDs, nil
}

func (s *service) UpdateItemRarity(ctx context.Context, poolID, itemID, rarity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	if itemID < p.StartID || itemID > p.EndID {
		return fmt.Errorf("item %d outside pool range [%d, %d]", itemID, p.StartID, p.EndID)
	}
	return s.items.SetRarity(ctx, p.ItemCollection, itemID, rarity)
}

func (s *service) GetPool(ctx context.Context, poolID int64) (*BoxPool, error) {
	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, engine.ErrPoolNotFound
	}
	return p, nil
}

func (s *service) GetOpenedBoxes(ctx context.Context, poolID int64, opener string) ([]*OpenedBox, error) {
	return s.repo.GetOpenedBoxes(poolID, opener)
}
