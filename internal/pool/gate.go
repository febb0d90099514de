package pool

import (
	"context"
	"time"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/whitelist"
)

// Gate decides whether a caller may transact against a pool right now. Every
// failure reason is a distinct sentinel so callers and tests can tell a
// timing rejection from a capacity one.
type Gate struct {
	repo    Repository
	checker whitelist.Checker
	clock   engine.Clock
}

// NewGate builds the eligibility gate. checker may be nil when only inline
// whitelists are in use.
func NewGate(repo Repository, checker whitelist.Checker, clock engine.Clock) *Gate {
	if clock == nil {
		clock = engine.SystemClock
	}
	return &Gate{repo: repo, checker: checker, clock: clock}
}

// Check validates pool visibility, the time window, whitelist membership and
// the per-address cap for a requested quantity on top of alreadyBought.
// checkPerOrder additionally enforces the fixed-swap per-order cap.
func (g *Gate) Check(ctx context.Context, p *Pool, caller string, requested, alreadyBought int64, checkPerOrder bool) error {
	if p == nil || !p.IsPublic {
		return engine.ErrPoolNotPublished
	}

	now := g.clock()
	if now.Before(p.StartTime) {
		return engine.ErrNotStarted
	}
	if !now.Before(p.EndTime) {
		return engine.ErrExpired
	}

	if p.RequireWhitelist && !g.overrideOpen(p, now) {
		ok, err := g.isWhitelisted(ctx, p, caller)
		if err != nil {
			return err
		}
		if !ok {
			return engine.ErrNotWhitelisted
		}
	}

	if checkPerOrder && p.MaxBuyPerOrder > 0 && requested > p.MaxBuyPerOrder {
		return engine.ErrOrderLimitExceeded
	}
	if p.MaxBuyPerAddress > 0 && alreadyBought+requested > p.MaxBuyPerAddress {
		return engine.ErrLimitExceeded
	}
	return nil
}

// overrideOpen reports whether the whitelist requirement has lapsed for
// everyone.
func (g *Gate) overrideOpen(p *Pool, now time.Time) bool {
	if p.WhitelistOverrideAfter <= 0 {
		return false
	}
	return !now.Before(p.StartTime.Add(time.Duration(p.WhitelistOverrideAfter) * time.Second))
}

func (g *Gate) isWhitelisted(ctx context.Context, p *Pool, caller string) (bool, error) {
	listIDs, err := g.repo.GetWhitelistIDs(p.PoolID)
	if err != nil {
		return false, err
	}
	if len(listIDs) > 0 && g.checker != nil {
		return g.checker.IsValid(ctx, caller, listIDs)
	}
	entry, err := g.repo.GetInlineEntry(p.PoolID, caller)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Allowed, nil
}
