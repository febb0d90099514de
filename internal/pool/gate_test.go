package pool

import (
	"context"
	"testing"
	"time"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) IsValid(ctx context.Context, address string, listIDs []int64) (bool, error) {
	args := m.Called(ctx, address, listIDs)
	return args.Bool(0), args.Error(1)
}

func fixedClock(t time.Time) engine.Clock {
	return func() time.Time { return t }
}

func gatePool() *Pool {
	return &Pool{
		PoolID:           1,
		IsPublic:         true,
		StartTime:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
		MaxBuyPerAddress: 10,
	}
}

const caller = "0x00000000000000000000000000000000000000aa"

func TestGateCheck_NotPublished(t *testing.T) {
	gate := NewGate(new(MockRepository), nil, fixedClock(time.Now()))

	p := gatePool()
	p.IsPublic = false
	err := gate.Check(context.Background(), p, caller, 1, 0, false)
	assert.ErrorIs(t, err, engine.ErrPoolNotPublished)
}

func TestGateCheck_BeforeStart(t *testing.T) {
	p := gatePool()
	gate := NewGate(new(MockRepository), nil, fixedClock(p.StartTime.Add(-time.Second)))

	err := gate.Check(context.Background(), p, caller, 1, 0, false)
	assert.ErrorIs(t, err, engine.ErrNotStarted)
}

func TestGateCheck_WindowEdges(t *testing.T) {
	p := gatePool()

	// Start is inclusive.
	gate := NewGate(new(MockRepository), nil, fixedClock(p.StartTime))
	assert.NoError(t, gate.Check(context.Background(), p, caller, 1, 0, false))

	// End is exclusive.
	gate = NewGate(new(MockRepository), nil, fixedClock(p.EndTime))
	err := gate.Check(context.Background(), p, caller, 1, 0, false)
	assert.ErrorIs(t, err, engine.ErrExpired)
}

func TestGateCheck_WhitelistViaExternalLists(t *testing.T) {
	p := gatePool()
	p.RequireWhitelist = true

	mockRepo := new(MockRepository)
	mockChecker := new(MockChecker)
	mockRepo.On("GetWhitelistIDs", int64(1)).Return([]int64{0, 2}, nil)
	mockChecker.On("IsValid", mock.Anything, caller, []int64{0, 2}).Return(true, nil)

	gate := NewGate(mockRepo, mockChecker, fixedClock(p.StartTime))
	assert.NoError(t, gate.Check(context.Background(), p, caller, 1, 0, false))
	mockChecker.AssertExpectations(t)
}

func TestGateCheck_WhitelistRejection(t *testing.T) {
	p := gatePool()
	p.RequireWhitelist = true

	mockRepo := new(MockRepository)
	mockChecker := new(MockChecker)
	mockRepo.On("GetWhitelistIDs", int64(1)).Return([]int64{0}, nil)
	mockChecker.On("IsValid", mock.Anything, caller, []int64{0}).Return(false, nil)

	gate := NewGate(mockRepo, mockChecker, fixedClock(p.StartTime))
	err := gate.Check(context.Background(), p, caller, 1, 0, false)
	assert.ErrorIs(t, err, engine.ErrNotWhitelisted)
}

func TestGateCheck_WhitelistInlineEntry(t *testing.T) {
	p := gatePool()
	p.RequireWhitelist = true

	mockRepo := new(MockRepository)
	mockRepo.On("GetWhitelistIDs", int64(1)).Return([]int64{}, nil)
	mockRepo.On("GetInlineEntry", int64(1), caller).Return(&InlineEntry{PoolID: 1, Address: caller, Allowed: true}, nil)

	gate := NewGate(mockRepo, nil, fixedClock(p.StartTime))
	assert.NoError(t, gate.Check(context.Background(), p, caller, 1, 0, false))
}

func TestGateCheck_WhitelistInlineEntryRevoked(t *testing.T) {
	p := gatePool()
	p.RequireWhitelist = true

	mockRepo := new(MockRepository)
	mockRepo.On("GetWhitelistIDs", int64(1)).Return([]int64{}, nil)
	mockRepo.On("GetInlineEntry", int64(1), caller).Return(&InlineEntry{PoolID: 1, Address: caller, Allowed: false}, nil)

	gate := NewGate(mockRepo, nil, fixedClock(p.StartTime))
	err := gate.Check(context.Background(), p, caller, 1, 0, false)
	assert.ErrorIs(t, err, engine.ErrNotWhitelisted)
}

func TestGateCheck_WhitelistOverrideAfterLapses(t *testing.T) {
	p := gatePool()
	p.RequireWhitelist = true
	p.WhitelistOverrideAfter = 3600

	// One hour in, the whitelist requirement has lapsed for everyone.
	gate := NewGate(new(MockRepository), nil, fixedClock(p.StartTime.Add(time.Hour)))
	assert.NoError(t, gate.Check(context.Background(), p, caller, 1, 0, false))
}

func TestGateCheck_PerOrderCap(t *testing.T) {
	p := gatePool()
	p.MaxBuyPerOrder = 2

	gate := NewGate(new(MockRepository), nil, fixedClock(p.StartTime))
	err := gate.Check(context.Background(), p, caller, 3, 0, true)
	assert.ErrorIs(t, err, engine.ErrOrderLimitExceeded)

	// Auctions ignore the per-order cap.
	assert.NoError(t, gate.Check(context.Background(), p, caller, 3, 0, false))
}

func TestGateCheck_PerAddressCap(t *testing.T) {
	p := gatePool()

	gate := NewGate(new(MockRepository), nil, fixedClock(p.StartTime))
	err := gate.Check(context.Background(), p, caller, 3, 8, false)
	assert.ErrorIs(t, err, engine.ErrLimitExceeded)

	// Exactly at the cap passes.
	assert.NoError(t, gate.Check(context.Background(), p, caller, 2, 8, false))
}
