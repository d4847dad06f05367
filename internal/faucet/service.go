package faucet

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ChainDrip/internal/chain"
	"ChainDrip/internal/chain/registry"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/intent"
	"ChainDrip/internal/observability/metrics"
	"ChainDrip/pkg/logger"

	"github.com/google/uuid"
)

// DispatchResult 是单个 NetworkRequest 的执行结果。每个
// NetworkRequest 恰好产生一条结果，且保持输入顺序。
type DispatchResult struct {
	Network string         `json:"network"`
	Amount  string         `json:"amount,omitempty"`
	Symbol  string         `json:"symbol,omitempty"`
	TxHash  string         `json:"tx_hash,omitempty"`
	Status  chain.TxStatus `json:"status,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Outcome 汇总一行用户输入的完整处理结果。
type Outcome struct {
	RequestID   string           `json:"request_id"`
	Recipient   string           `json:"recipient"`
	Explanation string           `json:"explanation,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	Results     []DispatchResult `json:"results"`
}

// Service 串联解析、发放与轮询，是水龙头的业务核心。
type Service struct {
	parser     *intent.Parser
	registry   *registry.Registry
	dispatcher *Dispatcher
	poller     *Poller

	// 所有网络共用同一个签名账户，并发处理会引入 nonce 竞争，
	// 因此请求一律串行：后到的请求排队等待。
	mu sync.Mutex
}

// Option 定义可选的 Service 配置。
type Option func(*options)

type options struct {
	pollInterval time.Duration
	confirmWait  time.Duration
}

// WithPollInterval 设置确认状态的重查间隔。
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

// WithConfirmWait 设置等待确认的时间上限。
func WithConfirmWait(wait time.Duration) Option {
	return func(o *options) {
		o.confirmWait = wait
	}
}

// NewService 创建水龙头服务。
func NewService(parser *intent.Parser, reg *registry.Registry, opts ...Option) *Service {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Service{
		parser:     parser,
		registry:   reg,
		dispatcher: NewDispatcher(reg),
		poller:     NewPoller(reg, o.pollInterval, o.confirmWait),
	}
}

// Handle 处理一行用户输入：解析意图，然后对每个目标网络依次发放
// 并等待确认。解析失败向调用方返回错误；单网络的失败只体现在
// 对应的结果条目里，其余网络照常继续。
func (s *Service) Handle(ctx context.Context, rawText string) (*Outcome, error) {
	if s == nil || s.parser == nil || s.registry == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "水龙头服务未初始化")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	requestID := uuid.NewString()
	log := logger.Named("faucet").With("request_id", requestID)

	parsed, err := s.parser.Parse(ctx, rawText, s.registry.Summaries())
	if err != nil {
		log.Info("意图解析失败", "code", xerrors.CodeOf(err), "error", err)
		metrics.ObserveRequest("parse_error", time.Since(start))
		return nil, err
	}
	log.Info("意图解析完成",
		"recipient", parsed.Recipient,
		"networks", len(parsed.Requests),
		"warnings", len(parsed.Warnings),
	)

	results := make([]DispatchResult, 0, len(parsed.Requests))
	for _, request := range parsed.Requests {
		results = append(results, s.dispatchOne(ctx, log, parsed.Recipient, request))
	}

	metrics.ObserveRequest("ok", time.Since(start))
	return &Outcome{
		RequestID:   requestID,
		Recipient:   parsed.Recipient,
		Explanation: parsed.Explanation,
		Warnings:    parsed.Warnings,
		Results:     results,
	}, nil
}

// dispatchOne 在单条链上完成发放与确认，并写入审计日志。
func (s *Service) dispatchOne(ctx context.Context, log *slog.Logger, recipient string, request intent.NetworkRequest) DispatchResult {
	result := DispatchResult{
		Network: request.Network,
		Amount:  request.Amount,
		Symbol:  request.Symbol,
	}

	hash, err := s.dispatcher.Dispatch(ctx, recipient, request.Amount, request.Network)
	if err != nil {
		result.Error = err.Error()
		log.Warn("发放失败",
			"network", request.Network,
			"code", xerrors.CodeOf(err),
			"error", err,
		)
		metrics.ObserveDrip(request.Network, "dispatch_error")
		return result
	}
	result.TxHash = hash.Hex()

	status, waitErr := s.poller.Await(ctx, hash, request.Network)
	result.Status = status
	if waitErr != nil {
		result.Error = waitErr.Error()
	}
	metrics.ObserveDrip(request.Network, string(status))

	logger.Audit().Info("drip",
		"network", request.Network,
		"recipient", recipient,
		"amount", request.Amount,
		"symbol", request.Symbol,
		"tx_hash", result.TxHash,
		"status", string(status),
	)
	return result
}
