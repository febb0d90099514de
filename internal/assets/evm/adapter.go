// Package evm adapts the asset collaborator interfaces onto on-chain ERC20
// tokens and the launchpad item collection contract. The engine account is a
// keyed transactor; custody stays in the contracts, the adapter only moves it.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const erc20ABI = `[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"name":"transferFrom","type":"function","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]}
]`

const itemABI = `[
	{"name":"transferFrom","type":"function","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"name":"safeMint","type":"function","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"name":"updateRarity","type":"function","inputs":[{"name":"tokenId","type":"uint256"},{"name":"rarity","type":"uint256"}],"outputs":[]},
	{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"address"}]},
	{"name":"rarityOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"uint256"}]}
]`

// Adapter implements assets.TokenService and assets.ItemService against an
// EVM node.
type Adapter struct {
	client  *ethclient.Client
	auth    *bind.TransactOpts
	account common.Address
	erc20   abi.ABI
	item    abi.ABI

	mu       sync.Mutex
	decimals map[common.Address]uint8
}

// New dials the node and prepares a transactor from the engine's hex-encoded
// private key.
func New(rpcURL, privateKeyHex string, chainID *big.Int) (*Adapter, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse engine key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, err
	}
	item, err := abi.JSON(strings.NewReader(itemABI))
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client:   client,
		auth:     auth,
		account:  crypto.PubkeyToAddress(*key.Public().(*ecdsa.PublicKey)),
		erc20:    erc20,
		item:     item,
		decimals: make(map[common.Address]uint8),
	}, nil
}

// Account is the engine's on-chain address; escrowed funds accrue here.
func (a *Adapter) Account() string {
	return a.account.Hex()
}

func (a *Adapter) Transfer(ctx context.Context, asset, _ /* from: always the engine account */, to string, amount decimal.Decimal) error {
	units, err := a.toUnits(ctx, asset, amount)
	if err != nil {
		return err
	}
	return a.transact(ctx, common.HexToAddress(asset), a.erc20, "transfer", common.HexToAddress(to), units)
}

func (a *Adapter) Pull(ctx context.Context, asset, owner, engineAddr string, amount decimal.Decimal) error {
	units, err := a.toUnits(ctx, asset, amount)
	if err != nil {
		return err
	}
	return a.transact(ctx, common.HexToAddress(asset), a.erc20, "transferFrom",
		common.HexToAddress(owner), common.HexToAddress(engineAddr), units)
}

func (a *Adapter) BalanceOf(ctx context.Context, asset, owner string) (decimal.Decimal, error) {
	var out *big.Int
	if err := a.call(ctx, common.HexToAddress(asset), a.erc20, &out, "balanceOf", common.HexToAddress(owner)); err != nil {
		return decimal.Zero, err
	}
	dec, err := a.Decimals(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(out, -int32(dec)), nil
}

func (a *Adapter) Decimals(ctx context.Context, asset string) (uint8, error) {
	addr := common.HexToAddress(asset)
	a.mu.Lock()
	if d, ok := a.decimals[addr]; ok {
		a.mu.Unlock()
		return d, nil
	}
	a.mu.Unlock()

	var out uint8
	if err := a.call(ctx, addr, a.erc20, &out, "decimals"); err != nil {
		return 0, err
	}
	a.mu.Lock()
	a.decimals[addr] = out
	a.mu.Unlock()
	return out, nil
}

func (a *Adapter) TransferFrom(ctx context.Context, collection, from, to string, itemID int64) error {
	return a.transact(ctx, common.HexToAddress(collection), a.item, "transferFrom",
		common.HexToAddress(from), common.HexToAddress(to), big.NewInt(itemID))
}

func (a *Adapter) Mint(ctx context.Context, collection, to string, itemID int64) error {
	return a.transact(ctx, common.HexToAddress(collection), a.item, "safeMint",
		common.HexToAddress(to), big.NewInt(itemID))
}

func (a *Adapter) SetRarity(ctx context.Context, collection string, itemID int64, rarity int64) error {
	return a.transact(ctx, common.HexToAddress(collection), a.item, "updateRarity",
		big.NewInt(itemID), big.NewInt(rarity))
}

func (a *Adapter) OwnerOf(ctx context.Context, collection string, itemID int64) (string, error) {
	var out common.Address
	if err := a.call(ctx, common.HexToAddress(collection), a.item, &out, "ownerOf", big.NewInt(itemID)); err != nil {
		return "", err
	}
	return out.Hex(), nil
}

func (a *Adapter) RarityOf(ctx context.Context, collection string, itemID int64) (int64, error) {
	var out *big.Int
	if err := a.call(ctx, common.HexToAddress(collection), a.item, &out, "rarityOf", big.NewInt(itemID)); err != nil {
		return 0, err
	}
	return out.Int64(), nil
}

func (a *Adapter) toUnits(ctx context.Context, asset string, amount decimal.Decimal) (*big.Int, error) {
	dec, err := a.Decimals(ctx, asset)
	if err != nil {
		return nil, err
	}
	return amount.Shift(int32(dec)).BigInt(), nil
}

func (a *Adapter) call(ctx context.Context, contract common.Address, parsed abi.ABI, out interface{}, method string, args ...interface{}) error {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}
	if err := parsed.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

func (a *Adapter) transact(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) error {
	bound := bind.NewBoundContract(contract, parsed, a.client, a.client, a.client)
	opts := *a.auth
	opts.Context = ctx
	tx, err := bound.Transact(&opts, method, args...)
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", method, contract.Hex(), err)
	}
	receipt, err := bind.WaitMined(ctx, a.client, tx)
	if err != nil {
		return fmt.Errorf("mine %s: %w", method, err)
	}
	if receipt.Status == 0 {
		return fmt.Errorf("%s on %s reverted (tx %s)", method, contract.Hex(), tx.Hash().Hex())
	}
	return nil
}
