package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
)

// MemoryLedger is an in-process implementation of both collaborator
// interfaces. It backs local mode and the service tests, with the same
// balance/allowance failure behavior as an ERC20/ERC721 pair.
type MemoryLedger struct {
	mu sync.Mutex

	decimals   map[string]uint8
	balances   map[string]map[string]decimal.Decimal // asset -> owner -> balance
	allowances map[string]map[string]decimal.Decimal // asset -> owner -> allowance to the engine
	owners     map[string]map[int64]string           // collection -> item -> owner
	rarities   map[string]map[int64]int64            // collection -> item -> rarity class
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		decimals:   make(map[string]uint8),
		balances:   make(map[string]map[string]decimal.Decimal),
		allowances: make(map[string]map[string]decimal.Decimal),
		owners:     make(map[string]map[int64]string),
		rarities:   make(map[string]map[int64]int64),
	}
}

// SetDecimals declares the precision of a fungible asset. Unset assets
// default to 18.
func (l *MemoryLedger) SetDecimals(asset string, decimals uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decimals[asset] = decimals
}

// Credit funds an account out of thin air, the way test fixtures top up
// buyers before a sale.
func (l *MemoryLedger) Credit(asset, owner string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, owner, amount)
}

// Approve grants the engine account an allowance over owner's funds.
func (l *MemoryLedger) Approve(asset, owner string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[asset] == nil {
		l.allowances[asset] = make(map[string]decimal.Decimal)
	}
	l.allowances[asset][owner] = amount
}

func (l *MemoryLedger) Transfer(_ context.Context, asset, from, to string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance(asset, from).LessThan(amount) {
		return fmt.Errorf("transfer %s of %s from %s: %w", amount, asset, from, engine.ErrInsufficientBalance)
	}
	l.debit(asset, from, amount)
	l.credit(asset, to, amount)
	return nil
}

func (l *MemoryLedger) Pull(_ context.Context, asset, owner, engineAddr string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance(asset, owner).LessThan(amount) {
		return fmt.Errorf("pull %s of %s from %s: %w", amount, asset, owner, engine.ErrInsufficientBalance)
	}
	allowance := decimal.Zero
	if m := l.allowances[asset]; m != nil {
		allowance = m[owner]
	}
	if allowance.LessThan(amount) {
		return fmt.Errorf("pull %s of %s from %s: %w", amount, asset, owner, engine.ErrInsufficientAllowance)
	}
	l.allowances[asset][owner] = allowance.Sub(amount)
	l.debit(asset, owner, amount)
	l.credit(asset, engineAddr, amount)
	return nil
}

func (l *MemoryLedger) BalanceOf(_ context.Context, asset, owner string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(asset, owner), nil
}

func (l *MemoryLedger) Decimals(_ context.Context, asset string) (uint8, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := l.decimals[asset]; ok {
		return d, nil
	}
	return 18, nil
}

func (l *MemoryLedger) TransferFrom(_ context.Context, collection, from, to string, itemID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.owners[collection]
	if items == nil || items[itemID] != from {
		return fmt.Errorf("item %d of %s: %w", itemID, collection, engine.ErrNotOwner)
	}
	items[itemID] = to
	return nil
}

func (l *MemoryLedger) Mint(_ context.Context, collection, to string, itemID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[collection] == nil {
		l.owners[collection] = make(map[int64]string)
	}
	if _, exists := l.owners[collection][itemID]; exists {
		return fmt.Errorf("item %d of %s already minted", itemID, collection)
	}
	l.owners[collection][itemID] = to
	return nil
}

func (l *MemoryLedger) SetRarity(_ context.Context, collection string, itemID int64, rarity int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[collection] == nil {
		return fmt.Errorf("item %d of %s not minted", itemID, collection)
	}
	if _, exists := l.owners[collection][itemID]; !exists {
		return fmt.Errorf("item %d of %s not minted", itemID, collection)
	}
	if l.rarities[collection] == nil {
		l.rarities[collection] = make(map[int64]int64)
	}
	l.rarities[collection][itemID] = rarity
	return nil
}

func (l *MemoryLedger) OwnerOf(_ context.Context, collection string, itemID int64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.owners[collection]
	if items == nil {
		return "", fmt.Errorf("item %d of %s not minted", itemID, collection)
	}
	owner, ok := items[itemID]
	if !ok {
		return "", fmt.Errorf("item %d of %s not minted", itemID, collection)
	}
	return owner, nil
}

func (l *MemoryLedger) RarityOf(_ context.Context, collection string, itemID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m := l.rarities[collection]; m != nil {
		if r, ok := m[itemID]; ok {
			return r, nil
		}
	}
	return 0, fmt.Errorf("item %d of %s has no rarity", itemID, collection)
}

func (l *MemoryLedger) balance(asset, owner string) decimal.Decimal {
	if m := l.balances[asset]; m != nil {
		return m[owner]
	}
	return decimal.Zero
}

func (l *MemoryLedger) credit(asset, owner string, amount decimal.Decimal) {
	if l.balances[asset] == nil {
		l.balances[asset] = make(map[string]decimal.Decimal)
	}
	l.balances[asset][owner] = l.balances[asset][owner].Add(amount)
}

func (l *MemoryLedger) debit(asset, owner string, amount decimal.Decimal) {
	l.balances[asset][owner] = l.balances[asset][owner].Sub(amount)
}
