package pool

import (
	"context"
	"testing"
	"time"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(pool *Pool) error {
	args := m.Called(pool)
	return args.Error(0)
}

func (m *MockRepository) GetByPoolID(poolID int64) (*Pool, error) {
	args := m.Called(poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pool), args.Error(1)
}

func (m *MockRepository) Save(pool *Pool) error {
	args := m.Called(pool)
	return args.Error(0)
}

func (m *MockRepository) ListPoolIDs() ([]int64, error) {
	args := m.Called()
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRepository) List(limit, offset int) ([]*Pool, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*Pool), args.Error(1)
}

func (m *MockRepository) ReplaceWhitelistIDs(poolID int64, listIDs []int64) error {
	args := m.Called(poolID, listIDs)
	return args.Error(0)
}

func (m *MockRepository) GetWhitelistIDs(poolID int64) ([]int64, error) {
	args := m.Called(poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRepository) SetInlineEntries(poolID int64, addresses []string, allowed bool) error {
	args := m.Called(poolID, addresses, allowed)
	return args.Error(0)
}

func (m *MockRepository) GetInlineEntry(poolID int64, address string) (*InlineEntry, error) {
	args := m.Called(poolID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InlineEntry), args.Error(1)
}

func (m *MockRepository) ReplaceSaleItems(poolID int64, itemIDs []int64) error {
	args := m.Called(poolID, itemIDs)
	return args.Error(0)
}

func (m *MockRepository) CountSaleItems(poolID int64) (int64, int64, error) {
	args := m.Called(poolID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) GetBuyerTotal(poolID int64, address string) (*BuyerTotal, error) {
	args := m.Called(poolID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BuyerTotal), args.Error(1)
}

func validConfig() Config {
	return Config{
		PoolID:           1,
		Kind:             KindAuction,
		ItemAsset:        "0x1111111111111111111111111111111111111111",
		PaymentAsset:     "0x2222222222222222222222222222222222222222",
		StartTime:        time.Now(),
		EndTime:          time.Now().Add(time.Hour),
		StartPrice:       decimal.NewFromInt(100),
		MaxBuyPerAddress: 10,
		TotalItems:       50,
	}
}

func TestAddOrUpdatePool_Creates(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	cfg := validConfig()
	mockRepo.On("GetByPoolID", int64(1)).Return(nil, nil)
	mockRepo.On("Create", mock.AnythingOfType("*pool.Pool")).Return(nil)
	mockRepo.On("ReplaceWhitelistIDs", int64(1), []int64(nil)).Return(nil)

	err := service.AddOrUpdatePool(context.Background(), cfg)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAddOrUpdatePool_UpdatesExisting(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	cfg := validConfig()
	existing := &Pool{PoolID: 1, Kind: KindAuction, Title: "old"}
	mockRepo.On("GetByPoolID", int64(1)).Return(existing, nil)
	mockRepo.On("Save", mock.AnythingOfType("*pool.Pool")).Return(nil)
	mockRepo.On("ReplaceWhitelistIDs", int64(1), []int64(nil)).Return(nil)

	err := service.AddOrUpdatePool(context.Background(), cfg)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAddOrUpdatePool_RejectsPublicPool(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("GetByPoolID", int64(1)).Return(&Pool{PoolID: 1, IsPublic: true}, nil)

	err := service.AddOrUpdatePool(context.Background(), validConfig())
	assert.ErrorIs(t, err, engine.ErrPoolAlreadyPublic)
}

func TestAddOrUpdatePool_RejectsBadWindow(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	cfg := validConfig()
	cfg.EndTime = cfg.StartTime

	err := service.AddOrUpdatePool(context.Background(), cfg)
	assert.Error(t, err)
}

func TestHandlePublicPool_PublishMissingPool(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("GetByPoolID", int64(9)).Return(nil, nil)

	err := service.HandlePublicPool(context.Background(), 9, true)
	assert.ErrorIs(t, err, engine.ErrPoolNotFound)
}

func TestHandlePublicPool_UnpublishMissingPoolIsNoop(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("GetByPoolID", int64(9)).Return(nil, nil)

	err := service.HandlePublicPool(context.Background(), 9, false)
	assert.NoError(t, err)
}

func TestUpdateSalePool_SetsTotalItems(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	p := &Pool{PoolID: 1}
	mockRepo.On("GetByPoolID", int64(1)).Return(p, nil)
	mockRepo.On("ReplaceSaleItems", int64(1), []int64{10001, 10002, 10003}).Return(nil)
	mockRepo.On("Save", mock.MatchedBy(func(saved *Pool) bool {
		return saved.TotalItems == 3
	})).Return(nil)

	err := service.UpdateSalePool(context.Background(), 1, []int64{10001, 10002, 10003})
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateSalePool_RejectsPublicPool(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("GetByPoolID", int64(1)).Return(&Pool{PoolID: 1, IsPublic: true}, nil)

	err := service.UpdateSalePool(context.Background(), 1, []int64{10001})
	assert.ErrorIs(t, err, engine.ErrPoolAlreadyPublic)
}

func TestGetPool_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo)

	mockRepo.On("GetByPoolID", int64(404)).Return(nil, nil)

	_, err := service.GetPool(context.Background(), 404)
	assert.ErrorIs(t, err, engine.ErrPoolNotFound)
}
