package openbox

import (
	"context"
	"testing"

	"github.com/rada-network/launchpad/internal/assets"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	engineAccount = "0x00000000000000000000000000000000000000ee"
	opener        = "0x00000000000000000000000000000000000000aa"
	collection    = "0x1111111111111111111111111111111111111111"
	boxToken      = "0x2222222222222222222222222222222222222222"
)

type fakeRepo struct {
	pools  map[int64]*BoxPool
	opened map[int64][]*OpenedBox
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pools:  make(map[int64]*BoxPool),
		opened: make(map[int64][]*OpenedBox),
	}
}

func (f *fakeRepo) Atomically(fn func(Repository) error) error { return fn(f) }

func (f *fakeRepo) CreatePool(p *BoxPool) error {
	f.pools[p.PoolID] = p
	return nil
}

func (f *fakeRepo) GetPool(poolID int64) (*BoxPool, error) { return f.pools[poolID], nil }

func (f *fakeRepo) SavePool(p *BoxPool) error {
	f.pools[p.PoolID] = p
	return nil
}

func (f *fakeRepo) CreateOpenedBox(box *OpenedBox) error {
	f.opened[box.PoolID] = append(f.opened[box.PoolID], box)
	return nil
}

func (f *fakeRepo) GetOpenedBoxes(poolID int64, opener string) ([]*OpenedBox, error) {
	var out []*OpenedBox
	for _, box := range f.opened[poolID] {
		if box.Opener == opener {
			out = append(out, box)
		}
	}
	return out, nil
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
	service := NewService(repo, ledger, ledger, engineAccount)

	require.NoError(t, service.AddPool(context.Background(), Config{
		PoolID:         1,
		Title:          "Mystery boxes",
		ItemCollection: collection,
		BoxTokenAsset:  boxToken,
		StartID:        100,
		EndID:          102,
		BoxPrice:       decimal.NewFromInt(5),
	}))
	ledger.Credit(boxToken, opener, decimal.NewFromInt(1000))
	ledger.Approve(boxToken, opener, decimal.NewFromInt(1000))
	return &fixture{repo: repo, ledger: ledger, service: service}
}

func TestOpenBox_MintsSequentialIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids, err := f.service.OpenBox(ctx, 1, opener, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 101}, ids)

	owner, err := f.ledger.OwnerOf(ctx, collection, 100)
	require.NoError(t, err)
	assert.Equal(t, opener, owner)

	held, _ := f.ledger.BalanceOf(ctx, boxToken, engineAccount)
	assert.True(t, held.Equal(decimal.NewFromInt(10)))

	p := f.repo.pools[1]
	assert.Equal(t, int64(102), p.CurrentID)
	assert.Equal(t, int64(2), p.TotalOpened)
	assert.Equal(t, int64(1), p.Remaining())

	boxes, err := f.service.GetOpenedBoxes(ctx, 1, opener)
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
}

func TestOpenBox_RangeExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.OpenBox(ctx, 1, opener, 4)
	assert.ErrorIs(t, err, engine.ErrInventoryExhausted)

	_, err = f.service.OpenBox(ctx, 1, opener, 3)
	require.NoError(t, err)
	_, err = f.service.OpenBox(ctx, 1, opener, 1)
	assert.ErrorIs(t, err, engine.ErrInventoryExhausted)
}

func TestOpenBox_InsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	f.ledger.Approve(boxToken, opener, decimal.NewFromInt(4))

	_, err := f.service.OpenBox(context.Background(), 1, opener, 1)
	assert.ErrorIs(t, err, engine.ErrInsufficientAllowance)
}

func TestOpenBox_MintFailureRefundsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Item 100 already exists, so the mint fails after the box price was
	// pulled; the payment must come back to the opener.
	require.NoError(t, f.ledger.Mint(ctx, collection, engineAccount, 100))

	_, err := f.service.OpenBox(ctx, 1, opener, 1)
	assert.Error(t, err)

	balance, _ := f.ledger.BalanceOf(ctx, boxToken, opener)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))
	held, _ := f.ledger.BalanceOf(ctx, boxToken, engineAccount)
	assert.True(t, held.IsZero())
}

func TestOpenBox_UnknownPool(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.OpenBox(context.Background(), 9, opener, 1)
	assert.ErrorIs(t, err, engine.ErrPoolNotFound)
}

func TestUpdateItemRarity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.OpenBox(ctx, 1, opener, 1)
	require.NoError(t, err)

	require.NoError(t, f.service.UpdateItemRarity(ctx, 1, 100, 3))
	rarity, err := f.ledger.RarityOf(ctx, collection, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rarity)

	err = f.service.UpdateItemRarity(ctx, 1, 99, 3)
	assert.Error(t, err)
	err = f.service.UpdateItemRarity(ctx, 1, 103, 3)
	assert.Error(t, err)
}

func TestAddPool_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.service.AddPool(ctx, Config{PoolID: 2, ItemCollection: collection, BoxTokenAsset: boxToken, StartID: 5, EndID: 4})
	assert.Error(t, err)

	err = f.service.AddPool(ctx, Config{PoolID: 1, ItemCollection: collection, BoxTokenAsset: boxToken, StartID: 1, EndID: 2})
	assert.ErrorIs(t, err, engine.ErrPoolAlreadyPublic)
}
