package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"ChainDrip/internal/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// transferGasLimit is the fixed cost of a plain native transfer.
const transferGasLimit = 21000

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name    string
	ChainID uint64
	RPCURL  string
	Notes   string
}

// backend mirrors the subset of ethclient methods the faucet needs, so
// tests can swap in a fake node.
type backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client implements the chain.Client interface for EVM compatible chains.
// One client serves exactly one network with one signing account, which
// keeps nonce management trivially sequential.
type Client struct {
	name      string
	notes     string
	rpcClient *gethrpc.Client
	backend   backend
	key       *ecdsa.PrivateKey
	signer    common.Address
	chainID   *big.Int
	mu        sync.Mutex
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use
// client bound to the given signing key.
func NewClient(ctx context.Context, cfg Config, key *ecdsa.PrivateKey) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置 RPC 地址")
	}
	if cfg.ChainID == 0 {
		return nil, errors.New("未配置链 ID")
	}
	if key == nil {
		return nil, errors.New("未配置签名私钥")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接节点失败: %w", err)
	}

	return &Client{
		name:      cfg.Name,
		notes:     cfg.Notes,
		rpcClient: rpcClient,
		backend:   ethclient.NewClient(rpcClient),
		key:       key,
		signer:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:   new(big.Int).SetUint64(cfg.ChainID),
	}, nil
}

// NewClientWithBackend wires a client directly onto a backend, bypassing the
// RPC dial. Used by tests.
func NewClientWithBackend(name string, chainID *big.Int, b backend, key *ecdsa.PrivateKey) *Client {
	c := &Client{
		name:    name,
		backend: b,
		key:     key,
		chainID: new(big.Int).Set(chainID),
		notes:   "test backend",
	}
	if key != nil {
		c.signer = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c
}

// Close releases the network connection held by the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
	c.backend = nil
}

// Name returns the catalog name of the network this client serves.
func (c *Client) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// SignerAddress is the faucet account all transfers are funded from.
func (c *Client) SignerAddress() common.Address {
	if c == nil {
		return common.Address{}
	}
	return c.signer
}

// ChainID reports the id the client was configured with.
func (c *Client) ChainID() *big.Int {
	if c == nil || c.chainID == nil {
		return nil
	}
	return new(big.Int).Set(c.chainID)
}

// VerifyChainID asks the node for its chain id and checks it against the
// configured one. A mismatch means the catalog points at the wrong endpoint.
func (c *Client) VerifyChainID(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return errors.New("未初始化的链客户端")
	}
	remote, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("查询链 ID 失败: %w", err)
	}
	if remote.Cmp(c.chainID) != 0 {
		return fmt.Errorf("链 ID 不匹配: 配置为 %s, 节点返回 %s", c.chainID, remote)
	}
	return nil
}

// BalanceAt reports the native balance of the given account in wei.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("未初始化的链客户端")
	}
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

// SendNative signs and broadcasts a plain value transfer of amountWei.
func (c *Client) SendNative(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error) {
	if c == nil || c.backend == nil {
		return common.Hash{}, errors.New("未初始化的链客户端")
	}
	if c.key == nil {
		return common.Hash{}, errors.New("客户端缺少签名私钥")
	}
	if amountWei == nil || amountWei.Sign() <= 0 {
		return common.Hash{}, errors.New("转账金额必须大于零")
	}

	// nonce 查询与广播之间不能插入其他交易。
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.signer)
	if err != nil {
		return common.Hash{}, fmt.Errorf("查询 nonce 失败: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("查询 gas 价格失败: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amountWei,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("签名交易失败: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("广播交易失败: %w", err)
	}
	return signed.Hash(), nil
}

// Receipt fetches the receipt of a previously submitted transaction. The
// not-found error from the underlying client is passed through so callers
// can distinguish "not mined yet" from genuine lookup failures.
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("未初始化的链客户端")
	}
	return c.backend.TransactionReceipt(ctx, txHash)
}

var _ chain.Client = (*Client)(nil)
