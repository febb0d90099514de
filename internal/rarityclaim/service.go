package rarityclaim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config carries the mutable fields of a claim pool.
type Config struct {
	PoolID          int64
	Title           string
	ItemCollection  string
	TokenAsset      string
	TokenPrice      decimal.Decimal
	TotalAllocation int64
}

// ClaimResult reports one item's payout.
type ClaimResult struct {
	ItemID int64           `json:"item_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Service distributes deposited tokens to item holders by rarity weight.
type Service interface {
	AddPool(ctx context.Context, cfg Config) error
	UpdatePool(ctx context.Context, cfg Config) error
	UpdateRarityAllocations(ctx context.Context, poolID int64, rarities, allocations []int64) error
	PublishPool(ctx context.Context, poolID int64) error
	UnpublishPool(ctx context.Context, poolID int64) error
	Claim(ctx context.Context, poolID int64, caller string, itemIDs []int64) ([]ClaimResult, error)
	GetPool(ctx context.Context, poolID int64) (*ClaimPool, error)
	GetAllocations(ctx context.Context, poolID int64) ([]RarityAllocation, error)
	GetDepositedTokens(ctx context.Context, poolID int64) (decimal.Decimal, error)
}

type service struct {
	mu      sync.Mutex
	repo    Repository
	tokens  assets.TokenService
	items   assets.ItemService
	account string
}

// NewService creates a claim engine service.
func NewService(repo Repository, tokens assets.TokenService, items assets.ItemService, account string) Service {
	return &service{repo: repo, tokens: tokens, items: items, account: account}
}

func (s *service) AddPool(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ItemCollection == "" || cfg.TokenAsset == "" {
		return errors.New("item collection and token asset are required")
	}
	if cfg.TotalAllocation <= 0 {
		return errors.New("total allocation must be positive")
	}

	existing, err := s.repo.GetPool(cfg.PoolID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("claim pool %d exists: %w", cfg.PoolID, engine.ErrPoolAlreadyPublic)
	}

	p := &ClaimPool{
		PoolID:          cfg.PoolID,
		Title:           cfg.Title,
		ItemCollection:  cfg.ItemCollection,
		TokenAsset:      cfg.TokenAsset,
		TokenPrice:      cfg.TokenPrice,
		TotalAllocation: cfg.TotalAllocation,
	}
	if err := s.repo.CreatePool(p); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"pool_id": cfg.PoolID, "token": cfg.TokenAsset}).
		Info("Claim pool created")
	return nil
}

func (s *service) UpdatePool(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetPool(cfg.PoolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	if p.Published {
		return engine.ErrPoolAlreadyPublic
	}
	if cfg.TotalAllocation <= 0 {
		return errors.New("total allocation must be positive")
	}

	p.Title = cfg.Title
	p.ItemCollection = cfg.ItemCollection
	p.TokenAsset = cfg.TokenAsset
	p.TokenPrice = cfg.TokenPrice
	p.TotalAllocation = cfg.TotalAllocation
	return s.repo.SavePool(p)
}

func (s *service) UpdateRarityAllocations(ctx context.Context, poolID int64, rarities, allocations []int64) error {
	if len(rarities) != len(allocations) {
		return errors.New("rarities and allocations must pair up")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	if p.Published {
		return engine.ErrPoolAlreadyPublic
	}

	rows := make([]RarityAllocation, len(rarities))
	for i := range rarities {
		if allocations[i] <= 0 {
			return errors.New("allocation must be positive")
		}
		rows[i] = RarityAllocation{PoolID: poolID, Rarity: rarities[i], Allocation: allocations[i]}
	}
	return s.repo.ReplaceAllocations(poolID, rows)
}

func (s *service) PublishPool(ctx context.Context, poolID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	allocations, err := s.repo.GetAllocations(poolID)
	if err != nil {
		return err
	}
	if len(allocations) == 0 {
		return engine.ErrMissingRarityAllocations
	}

	p.Published = true
	if err := s.repo.SavePool(p); err != nil {
		return err
	}

	logrus.WithField("pool_id", poolID).Info("Claim pool published")
	return nil
}

func (s *service) UnpublishPool(ctx context.Context, poolID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return err
	}
	if p == nil {
		return engine.ErrPoolNotFound
	}
	p.Published = false
	return s.repo.SavePool(p)
}

func (s *service) Claim(ctx context.Context, poolID int64, caller string, itemIDs []int64) ([]ClaimResult, error) {
	if len(itemIDs) == 0 {
		return nil, errors.New("item ids are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []ClaimResult
	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		if !p.Published {
			return engine.ErrPoolNotPublished
		}

		balance, err := s.tokens.BalanceOf(ctx, p.TokenAsset, s.account)
		if err != nil {
			return err
		}
		if !balance.IsPositive() {
			return engine.ErrInsufficientBalance
		}
		decimals, err := s.tokens.Decimals(ctx, p.TokenAsset)
		if err != nil {
			return err
		}
		// The distribution base is everything ever deposited, so earlier
		// claims do not shrink later holders' shares.
		deposited := balance.Add(p.ClaimedTotal)

		var total decimal.Decimal
		for _, itemID := range itemIDs {
			owner, err := s.items.OwnerOf(ctx, p.ItemCollection, itemID)
			if err != nil {
				return err
			}
			// Chain backends report EIP-55 checksummed owners while callers
			// arrive lowercased, so the comparison must ignore case.
			if !strings.EqualFold(owner, caller) {
				return fmt.Errorf("item %d: %w", itemID, engine.ErrNotOwner)
			}
			claimed, err := r.GetClaimedItem(poolID, itemID)
			if err != nil {
				return err
			}
			if claimed != nil {
				return fmt.Errorf("item %d: %w", itemID, engine.ErrAlreadyClaimed)
			}
			rarity, err := s.items.RarityOf(ctx, p.ItemCollection, itemID)
			if err != nil {
				return err
			}
			allocation, err := r.GetAllocation(poolID, rarity)
			if err != nil {
				return err
			}
			if allocation == nil {
				return fmt.Errorf("rarity %d: %w", rarity, engine.ErrMissingRarityAllocations)
			}

			amount := deposited.
				Mul(decimal.NewFromInt(allocation.Allocation)).
				Div(decimal.NewFromInt(p.TotalAllocation)).
				Truncate(int32(decimals))

			if err := r.CreateClaimedItem(&ClaimedItem{
				PoolID: poolID, ItemID: itemID, Address: caller, Amount: amount,
			}); err != nil {
				return err
			}
			total = total.Add(amount)
			results = append(results, ClaimResult{ItemID: itemID, Amount: amount})
		}

		if total.GreaterThan(balance) {
			return engine.ErrInsufficientBalance
		}
		p.ClaimedTotal = p.ClaimedTotal.Add(total)
		if err := r.SavePool(p); err != nil {
			return err
		}
		if total.IsPositive() {
			return s.tokens.Transfer(ctx, p.TokenAsset, s.account, caller, total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": poolID, "claimer": caller, "items": len(itemIDs),
	}).Info("Claim paid out")
	return results, nil
}

func (s *service) GetPool(ctx context.Context, poolID int64) (*ClaimPool, error) {
	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, engine.ErrPoolNotFound
	}
	return p, nil
}

func (s *service) GetAllocations(ctx context.Context, poolID int64) ([]RarityAllocation, error) {
	return s.repo.GetAllocations(poolID)
}

// GetDepositedTokens returns the total tokens ever deposited for the pool,
// claimed and unclaimed.
func (s *service) GetDepositedTokens(ctx context.Context, poolID int64) (decimal.Decimal, error) {
	p, err := s.repo.GetPool(poolID)
	if err != nil {
		return decimal.Zero, err
	}
	if p == nil {
		return decimal.Zero, engine.ErrPoolNotFound
	}
	balance, err := s.tokens.BalanceOf(ctx, p.TokenAsset, s.account)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Add(p.ClaimedTotal), nil
}
