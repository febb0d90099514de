package escrow

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
	treasury      = "0x00000000000000000000000000000000000000cc"
	paymentAsset  = "0x2222222222222222222222222222222222222222"
	itemAsset     = "0x1111111111111111111111111111111111111111"
)

type fakeRepo struct {
	entries  []*Entry
	settings map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{settings: make(map[string]string)}
}

func (f *fakeRepo) Create(entry *Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepo) SumByKind(asset string, kind EntryKind) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.Asset == asset && e.Kind == kind {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (f *fakeRepo) ListByPool(poolID int64, limit, offset int) ([]*Entry, error) {
	var out []*Entry
	for _, e := range f.entries {
		if e.PoolID == poolID {
			out = append(out, e)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetSetting(key string) (string, error) { return f.settings[key], nil }

func (f *fakeRepo) PutSetting(key, value string) error {
	f.settings[key] = value
	return nil
}

func TestCollected_NetsRefundsAndWithdrawals(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	repo.entries = []*Entry{
		{Asset: paymentAsset, Kind: KindDeposit, Amount: decimal.NewFromInt(500)},
		{Asset: paymentAsset, Kind: KindDeposit, Amount: decimal.NewFromInt(300)},
		{Asset: paymentAsset, Kind: KindRefund, Amount: decimal.NewFromInt(100)},
		{Asset: paymentAsset, Kind: KindWithdraw, Amount: decimal.NewFromInt(50)},
		// Payouts move items, not payment funds.
		{Asset: paymentAsset, Kind: KindPayout, Amount: decimal.NewFromInt(999)},
	}

	collected, err := service.Collected(ctx, paymentAsset)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromInt(650)))
}

func TestWithdrawFund_RequiresWithdrawAddress(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)

	err := service.WithdrawFund(context.Background(), paymentAsset, decimal.NewFromInt(10), nil)
	assert.ErrorIs(t, err, engine.ErrNoWithdrawAddress)
}

func TestWithdrawFund_TransfersAndRecords(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	require.NoError(t, service.SetWithdrawAddress(ctx, treasury))
	ledger.Credit(paymentAsset, engineAccount, decimal.NewFromInt(1000))
	repo.entries = []*Entry{{Asset: paymentAsset, Kind: KindDeposit, Amount: decimal.NewFromInt(1000)}}

	require.NoError(t, service.WithdrawFund(ctx, paymentAsset, decimal.NewFromInt(400), nil))

	got, _ := ledger.BalanceOf(ctx, paymentAsset, treasury)
	assert.True(t, got.Equal(decimal.NewFromInt(400)))

	collected, err := service.Collected(ctx, paymentAsset)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromInt(600)))
}

func TestWithdrawFund_OverdrawStillBoundByBalance(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	require.NoError(t, service.SetWithdrawAddress(ctx, treasury))
	ledger.Credit(paymentAsset, engineAccount, decimal.NewFromInt(100))

	// Exceeding net collected only warns; exceeding the actual balance fails.
	require.NoError(t, service.WithdrawFund(ctx, paymentAsset, decimal.NewFromInt(100), nil))
	err := service.WithdrawFund(ctx, paymentAsset, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, engine.ErrInsufficientBalance)
}

func TestWithdrawFund_RejectsNonPositiveAmount(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	require.NoError(t, service.SetWithdrawAddress(ctx, treasury))
	err := service.WithdrawFund(ctx, paymentAsset, decimal.Zero, nil)
	assert.Error(t, err)
}

func TestWithdrawFund_Items(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	require.NoError(t, service.SetWithdrawAddress(ctx, treasury))
	require.NoError(t, ledger.Mint(ctx, itemAsset, engineAccount, 7))
	require.NoError(t, ledger.Mint(ctx, itemAsset, engineAccount, 8))

	require.NoError(t, service.WithdrawFund(ctx, itemAsset, decimal.Zero, []int64{7, 8}))

	owner, err := ledger.OwnerOf(ctx, itemAsset, 7)
	require.NoError(t, err)
	assert.Equal(t, treasury, owner)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, KindWithdraw, repo.entries[0].Kind)
	assert.Equal(t, int64(2), repo.entries[0].Quantity)
}

func TestEntries_Pagination(t *testing.T) {
	repo := newFakeRepo()
	ledger := assets.NewMemoryLedger()
	service := NewService(repo, ledger, ledger, engineAccount)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.entries = append(repo.entries, &Entry{PoolID: 1, Kind: KindDeposit, Asset: paymentAsset})
	}
	repo.entries = append(repo.entries, &Entry{PoolID: 2, Kind: KindDeposit, Asset: paymentAsset})

	entries, err := service.Entries(ctx, 1, 3, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = service.Entries(ctx, 1, 3, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
