package fixedswap

import (
	"context"
	"fmt"
	"sync"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Order reports the outcome of a filled swap order.
type Order struct {
	PoolID   int64           `json:"pool_id"`
	Buyer    string          `json:"buyer"`
	Quantity int64           `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	ItemIDs  []int64         `json:"item_ids,omitempty"`
}

// Service fills fixed-price orders against published swap pools.
type Service interface {
	PlaceOrder(ctx context.Context, poolID int64, caller string, quantity int64) (*Order, error)
}

type service struct {
	mu      sync.Mutex
	repo    Repository
	gate    *pool.Gate
	tokens  assets.TokenService
	items   assets.ItemService
	account string
}

// NewService creates a swap service.
func NewService(repo Repository, gate *pool.Gate, tokens assets.TokenService, items assets.ItemService, account string) Service {
	return &service{repo: repo, gate: gate, tokens: tokens, items: items, account: account}
}

func (s *service) PlaceOrder(ctx context.Context, poolID int64, caller string, quantity int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order *Order
	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		if p.Kind != pool.KindFixedSwap {
			return engine.ErrPoolNotFound
		}
		if quantity < 1 {
			return fmt.Errorf("quantity must be positive: %w", engine.ErrBidNotValid)
		}
		if quantity > p.Remaining() {
			return engine.ErrInventoryExhausted
		}

		total, err := r.GetBuyerTotal(poolID, caller)
		if err != nil {
			return err
		}
		var bought int64
		if total == nil {
			total = &pool.BuyerTotal{PoolID: poolID, Address: caller}
		} else {
			bought = total.Quantity
		}
		if err := s.gate.Check(ctx, p, caller, quantity, bought, true); err != nil {
			return err
		}

		amount := p.StartPrice.Mul(decimal.NewFromInt(quantity))

		p.TotalSold += quantity
		p.TotalSoldAmount = p.TotalSoldAmount.Add(amount)
		if err := r.SavePool(p); err != nil {
			return err
		}
		total.Quantity += quantity
		total.Amount = total.Amount.Add(amount)
		if err := r.SaveBuyerTotal(total); err != nil {
			return err
		}

		order = &Order{PoolID: poolID, Buyer: caller, Quantity: quantity, Amount: amount}
		if !p.IsSaleToken {
			// Items go out in the order the admin loaded them.
			itemIDs, err := r.TakeSaleItems(poolID, quantity)
			if err != nil {
				return err
			}
			if int64(len(itemIDs)) < quantity {
				return engine.ErrInventoryExhausted
			}
			order.ItemIDs = itemIDs
		}

		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: poolID, Kind: escrow.KindDeposit, Asset: p.PaymentAsset,
			Address: caller, Amount: amount, Quantity: quantity,
		}); err != nil {
			return err
		}
		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: poolID, Kind: escrow.KindPayout, Asset: p.ItemAsset,
			Address: caller, Quantity: quantity,
		}); err != nil {
			return err
		}

		// Transfers run last so a failed pull or delivery unwinds the writes
		// above. The pull itself survives the rollback, so a failed delivery
		// sends the payment back before the error propagates.
		if err := s.tokens.Pull(ctx, p.PaymentAsset, caller, s.account, amount); err != nil {
			return err
		}
		if p.IsSaleToken {
			if err := s.tokens.Transfer(ctx, p.ItemAsset, s.account, caller, decimal.NewFromInt(quantity)); err != nil {
				s.refundPayment(ctx, p.PaymentAsset, caller, amount)
				return err
			}
			return nil
		}
		var delivered []int64
		for _, itemID := range order.ItemIDs {
			if err := s.items.TransferFrom(ctx, p.ItemAsset, s.account, caller, itemID); err != nil {
				s.recoverItems(ctx, p.ItemAsset, caller, delivered)
				s.refundPayment(ctx, p.PaymentAsset, caller, amount)
				return err
			}
			delivered = append(delivered, itemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": poolID, "buyer": caller, "quantity": quantity, "amount": order.Amount.String(),
	}).Info("Swap order filled")
	return order, nil
}

// refundPayment returns a pulled payment after a failed delivery. The order's
// database writes roll back, but the buyer's funds already moved.
func (s *service) refundPayment(ctx context.Context, asset, to string, amount decimal.Decimal) {
	if err := s.tokens.Transfer(ctx, asset, s.account, to, amount); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"asset": asset, "buyer": to, "amount": amount.String(),
		}).Error("Failed to refund payment; manual reconciliation needed")
	}
}

func (s *service) recoverItems(ctx context.Context, collection, from string, itemIDs []int64) {
	for _, itemID := range itemIDs {
		if err := s.items.TransferFrom(ctx, collection, from, s.account, itemID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"collection": collection, "item_id": itemID, "holder": from,
			}).Error("Failed to recover delivered item; manual reconciliation needed")
		}
	}
}
