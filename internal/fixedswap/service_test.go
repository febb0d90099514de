package fixedswap

import (
	"context"
	"testing"
	"time"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/escrow"
	"github.com/rada-network/launchpad/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	engineAccount = "0x00000000000000000000000000000000000000ee"
	buyer         = "0x00000000000000000000000000000000000000aa"
	itemAsset     = "0x1111111111111111111111111111111111111111"
	paymentAsset  = "0x2222222222222222222222222222222222222222"
)

type fakeRepo struct {
	pools       map[int64]*pool.Pool
	buyerTotals map[string]*pool.BuyerTotal
	saleItems   map[int64][]*pool.SaleItem
	escrow      []*escrow.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pools:       make(map[int64]*pool.Pool),
		buyerTotals: make(map[string]*pool.BuyerTotal),
		saleItems:   make(map[int64][]*pool.SaleItem),
	}
}

func (f *fakeRepo) Atomically(fn func(Repository) error) error { return fn(f) }

func (f *fakeRepo) GetPool(poolID int64) (*pool.Pool, error) { return f.pools[poolID], nil }

func (f *fakeRepo) SavePool(p *pool.Pool) error {
	f.pools[p.PoolID] = p
	return nil
}

func (f *fakeRepo) GetBuyerTotal(poolID int64, address string) (*pool.BuyerTotal, error) {
	return f.buyerTotals[address], nil
}

func (f *fakeRepo) SaveBuyerTotal(total *pool.BuyerTotal) error {
	f.buyerTotals[total.Address] = total
	return nil
}

func (f *fakeRepo) TakeSaleItems(poolID int64, n int64) ([]int64, error) {
	var ids []int64
	for _, item := range f.saleItems[poolID] {
		if int64(len(ids)) == n {
			break
		}
		if !item.Sold {
			item.Sold = true
			ids = append(ids, item.ItemID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) RecordEscrow(entry *escrow.Entry) error {
	f.escrow = append(f.escrow, entry)
	return nil
}

type fixture struct {
	repo    *fakeRepo
	ledger  *assets.MemoryLedger
	service Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()

	repo.pools[1] = &pool.Pool{
		PoolID:         1,
		Kind:           pool.KindFixedSwap,
		ItemAsset:      itemAsset,
		PaymentAsset:   paymentAsset,
		StartTime:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
		StartPrice:     decimal.NewFromInt(50),
		MaxBuyPerOrder: 2,
		TotalItems:     3,
		IsPublic:       true,
	}
	for _, id := range []int64{501, 502, 503} {
		repo.saleItems[1] = append(repo.saleItems[1], &pool.SaleItem{PoolID: 1, ItemID: id})
		require.NoError(t, ledger.Mint(context.Background(), itemAsset, engineAccount, id))
	}

	ledger.Credit(paymentAsset, buyer, decimal.NewFromInt(10000))
	ledger.Approve(paymentAsset, buyer, decimal.NewFromInt(10000))

	gate := pool.NewGate(nil, nil, func() time.Time {
		return time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	})
	return &fixture{
		repo:    repo,
		ledger:  ledger,
		service: NewService(repo, gate, ledger, ledger, engineAccount),
	}
}

func TestPlaceOrder_DeliversItemsInLoadOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, 1, buyer, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{501, 502}, order.ItemIDs)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(100)))

	owner, err := f.ledger.OwnerOf(ctx, itemAsset, 501)
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)
	owner, _ = f.ledger.OwnerOf(ctx, itemAsset, 503)
	assert.Equal(t, engineAccount, owner)

	held, _ := f.ledger.BalanceOf(ctx, paymentAsset, engineAccount)
	assert.True(t, held.Equal(decimal.NewFromInt(100)))

	p := f.repo.pools[1]
	assert.Equal(t, int64(2), p.TotalSold)
	assert.True(t, p.TotalSoldAmount.Equal(decimal.NewFromInt(100)))

	require.Len(t, f.repo.escrow, 2)
	assert.Equal(t, escrow.KindDeposit, f.repo.escrow[0].Kind)
	assert.Equal(t, escrow.KindPayout, f.repo.escrow[1].Kind)
}

func TestPlaceOrder_InventoryExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.PlaceOrder(ctx, 1, buyer, 2)
	require.NoError(t, err)

	_, err = f.service.PlaceOrder(ctx, 1, buyer, 2)
	assert.ErrorIs(t, err, engine.ErrInventoryExhausted)
}

func TestPlaceOrder_PerOrderCap(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.PlaceOrder(context.Background(), 1, buyer, 3)
	assert.ErrorIs(t, err, engine.ErrOrderLimitExceeded)
}

func TestPlaceOrder_WrongPoolKind(t *testing.T) {
	f := newFixture(t)
	f.repo.pools[1].Kind = pool.KindAuction

	_, err := f.service.PlaceOrder(context.Background(), 1, buyer, 1)
	assert.ErrorIs(t, err, engine.ErrPoolNotFound)
}

func TestPlaceOrder_NotPublished(t *testing.T) {
	f := newFixture(t)
	f.repo.pools[1].IsPublic = false

	_, err := f.service.PlaceOrder(context.Background(), 1, buyer, 1)
	assert.ErrorIs(t, err, engine.ErrPoolNotPublished)
}

func TestPlaceOrder_TokenSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.repo.pools[1]
	p.IsSaleToken = true
	p.TotalItems = 1000
	p.MaxBuyPerOrder = 0
	f.ledger.Credit(itemAsset, engineAccount, decimal.NewFromInt(1000))

	order, err := f.service.PlaceOrder(ctx, 1, buyer, 25)
	require.NoError(t, err)
	assert.Empty(t, order.ItemIDs)

	units, _ := f.ledger.BalanceOf(ctx, itemAsset, buyer)
	assert.True(t, units.Equal(decimal.NewFromInt(25)))
}

func TestPlaceOrder_DeliveryFailureRefundsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Item 502 slipped out of engine custody, so the second transfer of a
	// two-item order fails after the payment was already pulled.
	const elsewhere = "0x00000000000000000000000000000000000000cc"
	require.NoError(t, f.ledger.TransferFrom(ctx, itemAsset, engineAccount, elsewhere, 502))

	_, err := f.service.PlaceOrder(ctx, 1, buyer, 2)
	assert.ErrorIs(t, err, engine.ErrNotOwner)

	// The pulled payment came back and the delivered item was recovered.
	balance, _ := f.ledger.BalanceOf(ctx, paymentAsset, buyer)
	assert.True(t, balance.Equal(decimal.NewFromInt(10000)))
	held, _ := f.ledger.BalanceOf(ctx, paymentAsset, engineAccount)
	assert.True(t, held.IsZero())
	owner, _ := f.ledger.OwnerOf(ctx, itemAsset, 501)
	assert.Equal(t, engineAccount, owner)
}

func TestPlaceOrder_InsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	f.ledger.Approve(paymentAsset, buyer, decimal.NewFromInt(10))

	_, err := f.service.PlaceOrder(context.Background(), 1, buyer, 1)
	assert.ErrorIs(t, err, engine.ErrInsufficientAllowance)

	// The failed pull unwinds nothing here because the fake repo is not
	// transactional, but the order must not be returned.
	owner, _ := f.ledger.OwnerOf(context.Background(), itemAsset, 501)
	assert.Equal(t, engineAccount, owner)
}
