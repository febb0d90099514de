package escrow

import (
	"context"
	"errors"
	"sync"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service defines escrow accounting operations. Buyer-side pulls and refunds
// are recorded by the sale services inside their own transactions; this
// service owns the admin side: the withdraw address and fund withdrawal.
type Service interface {
	SetWithdrawAddress(ctx context.Context, address string) error
	WithdrawAddress(ctx context.Context) (string, error)
	// WithdrawFund transfers collected funds (itemIDs empty) or custodied
	// items (itemIDs set, amount ignored) to the configured withdraw address.
	WithdrawFund(ctx context.Context, asset string, amount decimal.Decimal, itemIDs []int64) error
	// Collected is net funds held for an asset: deposits minus refunds minus
	// prior withdrawals.
	Collected(ctx context.Context, asset string) (decimal.Decimal, error)
	Entries(ctx context.Context, poolID int64, limit, offset int) ([]*Entry, error)
}

type service struct {
	mu      sync.Mutex
	repo    Repository
	tokens  assets.TokenService
	items   assets.ItemService
	account string // engine escrow account
}

// NewService creates an escrow service bound to the engine account.
func NewService(repo Repository, tokens assets.TokenService, items assets.ItemService, account string) Service {
	return &service{repo: repo, tokens: tokens, items: items, account: account}
}

func (s *service) SetWithdrawAddress(ctx context.Context, address string) error {
	if address == "" {
		return errors.New("address cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.PutSetting(settingWithdrawAddress, address)
}

func (s *service) WithdrawAddress(ctx context.Context) (string, error) {
	return s.repo.GetSetting(settingWithdrawAddress)
}

func (s *service) WithdrawFund(ctx context.Context, asset string, amount decimal.Decimal, itemIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, err := s.repo.GetSetting(settingWithdrawAddress)
	if err != nil {
		return err
	}
	if to == "" {
		return engine.ErrNoWithdrawAddress
	}

	if len(itemIDs) > 0 {
		for _, itemID := range itemIDs {
			if err := s.items.TransferFrom(ctx, asset, s.account, to, itemID); err != nil {
				return err
			}
		}
		if err := s.repo.Create(&Entry{Kind: KindWithdraw, Asset: asset, Address: to, Quantity: int64(len(itemIDs))}); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"asset": asset, "items": len(itemIDs), "to": to}).Info("Items withdrawn")
		return nil
	}

	if amount.IsZero() || amount.IsNegative() {
		return errors.New("amount must be positive")
	}

	// Refunds and withdrawals draw from the same balance; the floor is
	// operational discipline, so an over-draw is only warned about.
	collected, err := s.collected(asset)
	if err != nil {
		return err
	}
	if amount.GreaterThan(collected) {
		logrus.WithFields(logrus.Fields{
			"asset":     asset,
			"amount":    amount.String(),
			"collected": collected.String(),
		}).Warn("Withdrawal exceeds net collected funds")
	}

	if err := s.tokens.Transfer(ctx, asset, s.account, to, amount); err != nil {
		return err
	}
	if err := s.repo.Create(&Entry{Kind: KindWithdraw, Asset: asset, Address: to, Amount: amount}); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"asset": asset, "amount": amount.String(), "to": to}).Info("Funds withdrawn")
	return nil
}

func (s *service) Collected(ctx context.Context, asset string) (decimal.Decimal, error) {
	return s.collected(asset)
}

func (s *service) collected(asset string) (decimal.Decimal, error) {
	deposits, err := s.repo.SumByKind(asset, KindDeposit)
	if err != nil {
		return decimal.Zero, err
	}
	refunds, err := s.repo.SumByKind(asset, KindRefund)
	if err != nil {
		return decimal.Zero, err
	}
	withdrawals, err := s.repo.SumByKind(asset, KindWithdraw)
	if err != nil {
		return decimal.Zero, err
	}
	return deposits.Sub(refunds).Sub(withdrawals), nil
}

func (s *service) Entries(ctx context.Context, poolID int64, limit, offset int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPool(poolID, limit, offset)
}
