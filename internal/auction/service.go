package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service defines auction ledger operations.
type Service interface {
	PlaceBid(ctx context.Context, poolID int64, caller string, quantity int64, priceEach decimal.Decimal) (int64, error)
	IncreaseBid(ctx context.Context, poolID, bidIndex int64, caller string, quantity int64, priceEach decimal.Decimal) error
	HandleEndAuction(ctx context.Context, poolID int64, bidIndexes, winQuantities []int64) error
	Claim(ctx context.Context, poolID, bidIndex int64, caller string) error
	ClaimAll(ctx context.Context, poolID int64, caller string) error
	GetBid(ctx context.Context, poolID, bidIndex int64) (*Bid, error)
	GetBids(ctx context.Context, poolID int64, bidder string) ([]*Bid, error)
}

type service struct {
	// mu serializes every state-mutating call: the engine is a sequential
	// operation log, and the lock also shuts out reentrant collaborator
	// callbacks for the duration of an operation.
	mu      sync.Mutex
	repo    Repository
	gate    *pool.Gate
	tokens  assets.TokenService
	items   assets.ItemService
	account string // engine escrow account
}

// NewService creates an auction service.
func NewService(repo Repository, gate *pool.Gate, tokens assets.TokenService, items assets.ItemService, account string) Service {
	return &service{repo: repo, gate: gate, tokens: tokens, items: items, account: account}
}

func (s *service) PlaceBid(ctx context.Context, poolID int64, caller string, quantity int64, priceEach decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bidIndex int64
	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		if quantity < 1 || priceEach.LessThan(p.StartPrice) {
			return fmt.Errorf("quantity %d at %s below pool floor: %w", quantity, priceEach, engine.ErrBidNotValid)
		}

		bought, err := boughtQuantity(r, poolID, caller)
		if err != nil {
			return err
		}
		if err := s.gate.Check(ctx, p, caller, quantity, bought, false); err != nil {
			return err
		}

		bidIndex, err = r.CountBids(poolID)
		if err != nil {
			return err
		}
		amount := priceEach.Mul(decimal.NewFromInt(quantity))

		bid := &Bid{PoolID: poolID, BidIndex: bidIndex, Bidder: caller, Quantity: quantity, PriceEach: priceEach}
		if err := r.CreateBid(bid); err != nil {
			return err
		}
		p.TotalBid++
		p.TotalBidQuantity += quantity
		p.TotalBidAmount = p.TotalBidAmount.Add(amount)
		if err := r.SavePool(p); err != nil {
			return err
		}
		if err := addBuyerTotal(r, poolID, caller, quantity, amount); err != nil {
			return err
		}
		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: poolID, Kind: escrow.KindDeposit, Asset: p.PaymentAsset,
			Address: caller, Amount: amount, Quantity: quantity,
		}); err != nil {
			return err
		}

		// Ledger state is committed only if the pull lands; a failed pull
		// rolls back every write above.
		return s.tokens.Pull(ctx, p.PaymentAsset, caller, s.account, amount)
	})
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": poolID, "bid_index": bidIndex, "bidder": caller,
		"quantity": quantity, "price_each": priceEach.String(),
	}).Info("Bid placed")
	return bidIndex, nil
}

func (s *service) IncreaseBid(ctx context.Context, poolID, bidIndex int64, caller string, quantity int64, priceEach decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		bid, err := r.GetBid(poolID, bidIndex)
		if err != nil {
			return err
		}
		if bid == nil {
			return engine.ErrInvalidBidIndex
		}
		if bid.Bidder != caller {
			return engine.ErrNotOwner
		}
		if bid.IsSettled || p.IsEnded {
			return engine.ErrAlreadySettled
		}
		if quantity < bid.Quantity || priceEach.LessThan(bid.PriceEach) {
			return engine.ErrBidNotValid
		}
		oldAmount := bid.Amount()
		newAmount := priceEach.Mul(decimal.NewFromInt(quantity))
		if !newAmount.GreaterThan(oldAmount) {
			return engine.ErrBidNotValid
		}

		// Caps apply to the incremental quantity only; the original bid
		// already consumed its share.
		deltaQty := quantity - bid.Quantity
		bought, err := boughtQuantity(r, poolID, caller)
		if err != nil {
			return err
		}
		if err := s.gate.Check(ctx, p, caller, deltaQty, bought, false); err != nil {
			return err
		}

		deltaAmount := newAmount.Sub(oldAmount)
		bid.Quantity = quantity
		bid.PriceEach = priceEach
		if err := r.SaveBid(bid); err != nil {
			return err
		}
		p.TotalBidQuantity += deltaQty
		p.TotalBidAmount = p.TotalBidAmount.Add(deltaAmount)
		if err := r.SavePool(p); err != nil {
			return err
		}
		if err := addBuyerTotal(r, poolID, caller, deltaQty, deltaAmount); err != nil {
			return err
		}
		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: poolID, Kind: escrow.KindDeposit, Asset: p.PaymentAsset,
			Address: caller, Amount: deltaAmount, Quantity: deltaQty,
		}); err != nil {
			return err
		}
		return s.tokens.Pull(ctx, p.PaymentAsset, caller, s.account, deltaAmount)
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": poolID, "bid_index": bidIndex, "bidder": caller,
		"quantity": quantity, "price_each": priceEach.String(),
	}).Info("Bid increased")
	return nil
}

func (s *service) HandleEndAuction(ctx context.Context, poolID int64, bidIndexes, winQuantities []int64) error {
	if len(bidIndexes) != len(winQuantities) {
		return errors.New("bid indexes and win quantities must pair up")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}

		var totalWin int64
		for _, win := range winQuantities {
			if win < 0 {
				return errors.New("win quantity cannot be negative")
			}
			totalWin += win
		}
		if totalWin > p.Remaining() {
			return engine.ErrInventoryExhausted
		}

		for i, bidIndex := range bidIndexes {
			bid, err := r.GetBid(poolID, bidIndex)
			if err != nil {
				return err
			}
			if bid == nil {
				return engine.ErrInvalidBidIndex
			}
			if bid.IsSettled {
				return fmt.Errorf("bid %d: %w", bidIndex, engine.ErrAlreadySettled)
			}
			// A bid refunded after an earlier settlement batch has already
			// left escrow; awarding it now would inflate the sold totals.
			if bid.IsClaimed {
				return fmt.Errorf("bid %d: %w", bidIndex, engine.ErrAlreadyClaimed)
			}
			if winQuantities[i] > bid.Quantity {
				return fmt.Errorf("bid %d win exceeds quantity: %w", bidIndex, engine.ErrBidNotValid)
			}
			bid.WinQuantity = winQuantities[i]
			bid.IsSettled = true
			if err := r.SaveBid(bid); err != nil {
				return err
			}
			p.TotalSold += winQuantities[i]
			p.TotalSoldAmount = p.TotalSoldAmount.Add(bid.PriceEach.Mul(decimal.NewFromInt(winQuantities[i])))
		}

		// Settlement finalizes the whole pool: unlisted bids stay at win
		// zero and become fully refundable at claim.
		p.IsEnded = true
		return r.SavePool(p)
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"pool_id": poolID, "settled_bids": len(bidIndexes)}).
		Info("Auction settled")
	return nil
}

func (s *service) Claim(ctx context.Context, poolID, bidIndex int64, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		bid, err := r.GetBid(poolID, bidIndex)
		if err != nil {
			return err
		}
		if bid == nil {
			return engine.ErrInvalidBidIndex
		}
		if bid.Bidder != caller {
			return engine.ErrNotOwner
		}
		if bid.IsClaimed {
			return engine.ErrAlreadyClaimed
		}
		return s.claimBid(ctx, r, p, bid)
	})
}

func (s *service) ClaimAll(ctx context.Context, poolID int64, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.Atomically(func(r Repository) error {
		p, err := r.GetPool(poolID)
		if err != nil {
			return err
		}
		if p == nil {
			return engine.ErrPoolNotFound
		}
		bids, err := r.GetBidsByBidder(poolID, caller)
		if err != nil {
			return err
		}
		// A caller with no bids gets an explicit rejection rather than a
		// silent success.
		if len(bids) == 0 {
			return engine.ErrPoolNotFound
		}
		for _, bid := range bids {
			if bid.IsClaimed {
				continue
			}
			if err := s.claimBid(ctx, r, p, bid); err != nil {
				return err
			}
		}
		return nil
	})
}

// claimBid delivers won items and refunds the unfilled remainder. The bid row
// is marked claimed before any transfer goes out; a failed transfer rolls the
// mark back with the rest of the transaction.
func (s *service) claimBid(ctx context.Context, r Repository, p *pool.Pool, bid *Bid) error {
	if !p.IsEnded {
		return engine.ErrAuctionNotEnded
	}

	bid.IsClaimed = true
	if err := r.SaveBid(bid); err != nil {
		return err
	}

	refund := bid.RefundAmount()
	if bid.WinQuantity > 0 {
		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: p.PoolID, Kind: escrow.KindPayout, Asset: p.ItemAsset,
			Address: bid.Bidder, Quantity: bid.WinQuantity,
		}); err != nil {
			return err
		}
	}
	if refund.IsPositive() {
		if err := r.RecordEscrow(&escrow.Entry{
			PoolID: p.PoolID, Kind: escrow.KindRefund, Asset: p.PaymentAsset,
			Address: bid.Bidder, Amount: refund,
		}); err != nil {
			return err
		}
	}

	var delivered []int64
	if bid.WinQuantity > 0 {
		if p.IsSaleToken {
			won := decimal.NewFromInt(bid.WinQuantity)
			if err := s.tokens.Transfer(ctx, p.ItemAsset, s.account, bid.Bidder, won); err != nil {
				return err
			}
		} else {
			itemIDs, err := r.TakeSaleItems(p.PoolID, bid.WinQuantity)
			if err != nil {
				return err
			}
			if int64(len(itemIDs)) < bid.WinQuantity {
				return engine.ErrInventoryExhausted
			}
			for _, itemID := range itemIDs {
				if err := s.items.TransferFrom(ctx, p.ItemAsset, s.account, bid.Bidder, itemID); err != nil {
					s.recoverItems(ctx, p.ItemAsset, bid.Bidder, delivered)
					return err
				}
				delivered = append(delivered, itemID)
			}
		}
	}
	if refund.IsPositive() {
		if err := s.tokens.Transfer(ctx, p.PaymentAsset, s.account, bid.Bidder, refund); err != nil {
			// The rollback forgets the delivery above, so take it back
			// or a retried claim would deliver twice.
			if bid.WinQuantity > 0 {
				if p.IsSaleToken {
					s.recoverTokens(ctx, p.ItemAsset, bid.Bidder, decimal.NewFromInt(bid.WinQuantity))
				} else {
					s.recoverItems(ctx, p.ItemAsset, bid.Bidder, delivered)
				}
			}
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"pool_id": p.PoolID, "bid_index": bid.BidIndex, "bidder": bid.Bidder,
		"won": bid.WinQuantity, "refund": refund.String(),
	}).Info("Bid claimed")
	return nil
}

// recoverItems sends already-delivered items back to the engine after a later
// transfer in the same claim failed. The database transaction rolls back, so
// anything left with the bidder would be delivered again on retry.
func (s *service) recoverItems(ctx context.Context, collection, from string, itemIDs []int64) {
	for _, itemID := range itemIDs {
		if err := s.items.TransferFrom(ctx, collection, from, s.account, itemID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"collection": collection, "item_id": itemID, "holder": from,
			}).Error("Failed to recover delivered item; manual reconciliation needed")
		}
	}
}

func (s *service) recoverTokens(ctx context.Context, asset, from string, amount decimal.Decimal) {
	if err := s.tokens.Transfer(ctx, asset, from, s.account, amount); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"asset": asset, "holder": from, "amount": amount.String(),
		}).Error("Failed to recover delivered tokens; manual reconciliation needed")
	}
}

func (s *service) GetBid(ctx context.Context, poolID, bidIndex int64) (*Bid, error) {
	bid, err := s.repo.GetBid(poolID, bidIndex)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, engine.ErrInvalidBidIndex
	}
	return bid, nil
}

func (s *service) GetBids(ctx context.Context, poolID int64, bidder string) ([]*Bid, error) {
	return s.repo.GetBidsByBidder(poolID, bidder)
}

func boughtQuantity(r Repository, poolID int64, address string) (int64, error) {
	total, err := r.GetBuyerTotal(poolID, address)
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return total.Quantity, nil
}

func addBuyerTotal(r Repository, poolID int64, address string, quantity int64, amount decimal.Decimal) error {
	total, err := r.GetBuyerTotal(poolID, address)
	if err != nil {
		return err
	}
	if total == nil {
		total = &pool.BuyerTotal{PoolID: poolID, Address: address}
	}
	total.Quantity += quantity
	total.Amount = total.Amount.Add(amount)
	return r.SaveBuyerTotal(total)
}
