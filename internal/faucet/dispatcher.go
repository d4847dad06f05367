package faucet

import (
	"context"

	"ChainDrip/internal/chain"
	"ChainDrip/internal/chain/registry"
	xerrors "ChainDrip/internal/errors"

	"github.com/ethereum/go-ethereum/common"
)

// Dispatcher 在单条链上执行一次原生代币发放。这是系统中唯一会
// 改变链上状态的操作，失败后绝不自动重试：报告失败并跳过该网络。
type Dispatcher struct {
	registry *registry.Registry
}

// NewDispatcher 创建发放器。
func NewDispatcher(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Dispatch 校验余额后提交一笔签名转账，返回交易哈希。
// 未注册的网络名与余额不足都是单网络级别的失败。
func (d *Dispatcher) Dispatch(ctx context.Context, recipient, amount, networkName string) (common.Hash, error) {
	if d == nil || d.registry == nil {
		return common.Hash{}, xerrors.New(xerrors.CodeInitializationFailure, "未配置网络注册表")
	}

	network, ok := d.registry.Lookup(networkName)
	if !ok {
		return common.Hash{}, xerrors.Newf(xerrors.CodeUnknownNetwork, "网络 %s 未注册", networkName)
	}
	def := network.Definition

	amountWei, err := chain.ParseAmount(amount, def.Decimals)
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeMalformedResponse, err, "发放金额非法")
	}
	if amountWei.Sign() <= 0 {
		return common.Hash{}, xerrors.Newf(xerrors.CodeMalformedResponse, "发放金额必须大于零: %s", amount)
	}

	client := network.Client
	balance, err := client.BalanceAt(ctx, client.SignerAddress())
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeRPCFailure, err, "查询水龙头余额失败")
	}
	// 余额与金额都以最小原生单位比较，报错时换算回人类可读单位。
	if balance.Cmp(amountWei) < 0 {
		return common.Hash{}, xerrors.Newf(xerrors.CodeInsufficientFunds,
			"水龙头余额不足: 当前 %s %s, 请求 %s %s",
			chain.FormatAmount(balance, def.Decimals), def.Faucet.Symbol,
			chain.FormatAmount(amountWei, def.Decimals), def.Faucet.Symbol,
		)
	}

	hash, err := client.SendNative(ctx, common.HexToAddress(recipient), amountWei)
	if err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeRPCFailure, err, "提交交易失败")
	}
	return hash, nil
}
