package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxStatus classifies the observable state of a submitted transaction.
type TxStatus string

const (
	StatusPending TxStatus = "pending"
	StatusSuccess TxStatus = "success"
	StatusFailed  TxStatus = "failed"
	StatusUnknown TxStatus = "unknown"
)

// Client defines the common interface that any chain implementation must
// provide so higher layers can interact with different networks uniformly.
// A client is bound to one network and one signing account at construction.
type Client interface {
	// BalanceAt reports the native balance of the given account in wei.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	// SendNative signs and broadcasts a plain value transfer of amountWei.
	SendNative(ctx context.Context, to common.Address, amountWei *big.Int) (common.Hash, error)
	// Receipt fetches the receipt of a previously submitted transaction.
	// A not-found error means the transaction has not been mined yet.
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	// SignerAddress is the account all transfers are funded from.
	SignerAddress() common.Address
	// ChainID reports the id the client is bound to.
	ChainID() *big.Int
	Close()
}
