package assets

import (
	"context"

	"github.com/shopspring/decimal"
)

// TokenService is the fungible-asset collaborator. The engine never assumes a
// pre-existing balance: buyer payments enter through Pull (an authorized
// allowance pull into the engine account) and leave through Transfer.
type TokenService interface {
	// Transfer moves engine-held funds from one account to another.
	Transfer(ctx context.Context, asset, from, to string, amount decimal.Decimal) error
	// Pull moves amount from owner to the engine account using the owner's
	// prior allowance grant.
	Pull(ctx context.Context, asset, owner, engine string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, asset, owner string) (decimal.Decimal, error)
	Decimals(ctx context.Context, asset string) (uint8, error)
}

// ItemService is the unique-item collaborator. Rarity is a category attached
// to an item, used by the claim engine as an allocation-weight key.
type ItemService interface {
	TransferFrom(ctx context.Context, collection, from, to string, itemID int64) error
	Mint(ctx context.Context, collection, to string, itemID int64) error
	SetRarity(ctx context.Context, collection string, itemID int64, rarity int64) error
	OwnerOf(ctx context.Context, collection string, itemID int64) (string, error)
	RarityOf(ctx context.Context, collection string, itemID int64) (int64, error)
}
