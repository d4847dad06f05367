package faucet

import (
	"context"
	stdErrors "errors"
	"time"

	"ChainDrip/internal/chain"
	"ChainDrip/internal/chain/registry"
	xerrors "ChainDrip/internal/errors"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultConfirmWait  = 2 * time.Minute
)

// Poller 查询交易的确认状态。Pending 专指底层客户端报告"记录尚不
// 存在"（出块滞后）；其余查询失败一律归为 Unknown，保证轮询循环
// 不会因单次失败而中断。
type Poller struct {
	registry *registry.Registry
	interval time.Duration
	maxWait  time.Duration
}

// NewPoller 创建状态轮询器。
func NewPoller(reg *registry.Registry, interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultConfirmWait
	}
	return &Poller{registry: reg, interval: interval, maxWait: maxWait}
}

// Status 查询一次交易状态。
func (p *Poller) Status(ctx context.Context, txHash common.Hash, networkName string) chain.TxStatus {
	if p == nil || p.registry == nil {
		return chain.StatusUnknown
	}
	network, ok := p.registry.Lookup(networkName)
	if !ok {
		return chain.StatusUnknown
	}

	receipt, err := network.Client.Receipt(ctx, txHash)
	if err != nil {
		if stdErrors.Is(err, gethcore.NotFound) {
			return chain.StatusPending
		}
		return chain.StatusUnknown
	}
	if receipt == nil {
		return chain.StatusUnknown
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return chain.StatusSuccess
	}
	return chain.StatusFailed
}

// Await 以固定间隔重查状态，直到观察到非 Pending 状态、等待超出
// 上限或上下文被取消。轮询必须有界：超时后返回最后一次观察到的
// 状态并附带 TIMEOUT 错误，而不是无限等下去。
func (p *Poller) Await(ctx context.Context, txHash common.Hash, networkName string) (chain.TxStatus, error) {
	status := p.Status(ctx, txHash, networkName)
	if status != chain.StatusPending {
		return status, nil
	}

	deadline := time.NewTimer(p.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return status, xerrors.Wrap(xerrors.CodeTimeout, ctx.Err(), "等待确认被取消")
		case <-deadline.C:
			return status, xerrors.Newf(xerrors.CodeTimeout, "等待确认超过 %s", p.maxWait)
		case <-ticker.C:
			status = p.Status(ctx, txHash, networkName)
			if status != chain.StatusPending {
				return status, nil
			}
		}
	}
}
