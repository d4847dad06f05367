package intent

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"regexp"
	"strings"

	"ChainDrip/internal/chain"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/llm"
	"ChainDrip/pkg/logger"
)

// Parser 将自然语言请求转化为结构化意图。理解能力完全来自外部
// 抽取引擎，结构校验则始终在本地严格执行。
type Parser struct {
	client llm.Client
}

// NewParser 创建意图解析器。
func NewParser(client llm.Client) *Parser {
	return &Parser{client: client}
}

// payload 是模型输出约定的 JSON 形态。
type payload struct {
	To          string           `json:"to"`
	Networks    []payloadNetwork `json:"networks"`
	Explanation string           `json:"explanation"`
	Warnings    []string         `json:"warnings"`
	Error       string           `json:"error"`
}

// payloadNetwork 的字段名跟随模型输出约定，与内部请求形态解耦。
type payloadNetwork struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Symbol string `json:"symbol"`
}

// Parse 调用抽取引擎并校验其输出。模型明确表示无法理解时返回
// UNDERSTANDING_FAILURE；输出无法收敛为意图形态时返回
// MALFORMED_RESPONSE，且绝不返回半成品意图。
func (p *Parser) Parse(ctx context.Context, rawText string, networks []chain.Summary) (*Intent, error) {
	if p == nil || p.client == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置抽取引擎")
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, xerrors.New(xerrors.CodeUnderstanding, "请求内容为空")
	}

	contexts := make([]llm.NetworkContext, 0, len(networks))
	for _, network := range networks {
		contexts = append(contexts, llm.NetworkContext{
			Name:   network.Name,
			Symbol: network.Symbol,
			Amount: network.Amount,
		})
	}

	resp, err := p.client.Interpret(ctx, llm.Request{Text: rawText, Networks: contexts})
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) {
			return nil, xerrors.Wrap(xerrors.CodeTimeout, err, "抽取引擎调用超时")
		}
		return nil, xerrors.Wrap(xerrors.CodeLLMFailure, err, "抽取引擎调用失败")
	}

	decoded, decodeErr := decodeStructured(resp.Content)
	if decodeErr != nil {
		// 结构化解码失败时走备用解析器，它只是第二次机会的字符串
		// 解析，本身没有任何语言理解能力。
		if fallback, ok := extractFallback(resp.Content, rawText, networks); ok {
			return fallback, nil
		}
		logger.Named("intent").Warn("模型输出无法解析",
			"error", decodeErr,
			"content_length", len(resp.Content),
		)
		return nil, xerrors.Wrap(xerrors.CodeMalformedResponse, decodeErr, "模型输出无法解析为结构化意图")
	}

	if strings.TrimSpace(decoded.Error) != "" {
		return nil, xerrors.New(xerrors.CodeUnderstanding, strings.TrimSpace(decoded.Error))
	}

	return buildIntent(decoded, networks)
}

// buildIntent 将解码结果收敛为合法意图，缺失字段一律拒绝。
func buildIntent(decoded *payload, networks []chain.Summary) (*Intent, error) {
	recipient := strings.TrimSpace(decoded.To)
	if recipient == "" {
		return nil, xerrors.New(xerrors.CodeMalformedResponse, "模型输出缺少收款地址")
	}
	if !ValidAddress(recipient) {
		return nil, xerrors.Newf(xerrors.CodeMalformedResponse, "收款地址格式非法: %s", recipient)
	}
	if len(decoded.Networks) == 0 {
		return nil, xerrors.New(xerrors.CodeMalformedResponse, "模型输出缺少目标网络")
	}

	defaults := summaryIndex(networks)
	requests := make([]NetworkRequest, 0, len(decoded.Networks))
	for _, req := range decoded.Networks {
		name := strings.ToLower(strings.TrimSpace(req.Name))
		if name == "" {
			return nil, xerrors.New(xerrors.CodeMalformedResponse, "模型输出包含空网络名")
		}
		amount := strings.TrimSpace(req.Amount)
		symbol := strings.TrimSpace(req.Symbol)
		if def, ok := defaults[name]; ok {
			if amount == "" {
				amount = def.Amount
			}
			if symbol == "" {
				symbol = def.Symbol
			}
		}
		requests = append(requests, NetworkRequest{Network: name, Amount: amount, Symbol: symbol})
	}

	return &Intent{
		Recipient:   recipient,
		Requests:    requests,
		Explanation: strings.TrimSpace(decoded.Explanation),
		Warnings:    decoded.Warnings,
	}, nil
}

// decodeStructured 从模型输出中截取 JSON 并解码。模型偶尔会把 JSON
// 包在围栏或说明文字里，截取首尾花括号之间的部分即可。
func decodeStructured(content string) (*payload, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, stdErrors.New("输出中不含 JSON 对象")
	}

	var decoded payload
	if err := json.Unmarshal([]byte(content[start:end+1]), &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

var (
	fallbackToPattern          = regexp.MustCompile(`(?im)^\s*to\s*:\s*(0x[0-9a-fA-F]{40})\s*$`)
	fallbackAmountPattern      = regexp.MustCompile(`(?im)^\s*amount\s*:\s*([0-9]+(?:\.[0-9]+)?)\s*$`)
	fallbackExplanationPattern = regexp.MustCompile(`(?im)^\s*explanation\s*:\s*(.+)$`)
)

// extractFallback 按行模式（to:/amount:/explanation:）解析模型输出，
// 目标网络退回到对原始输入做字面匹配。任何必要信息缺失即放弃，
// 交由上层报告解码失败。
func extractFallback(content, rawText string, networks []chain.Summary) (*Intent, bool) {
	toMatch := fallbackToPattern.FindStringSubmatch(content)
	if toMatch == nil {
		return nil, false
	}
	recipient := toMatch[1]

	names := make([]string, 0, len(networks))
	for _, network := range networks {
		names = append(names, network.Name)
	}
	selected := Select(rawText, names)
	if len(selected) == 0 {
		return nil, false
	}

	amount := ""
	if amountMatch := fallbackAmountPattern.FindStringSubmatch(content); amountMatch != nil {
		amount = amountMatch[1]
	}
	explanation := ""
	if explanationMatch := fallbackExplanationPattern.FindStringSubmatch(content); explanationMatch != nil {
		explanation = strings.TrimSpace(explanationMatch[1])
	}

	defaults := summaryIndex(networks)
	requests := make([]NetworkRequest, 0, len(selected))
	for _, name := range selected {
		def := defaults[name]
		requestAmount := amount
		if requestAmount == "" {
			requestAmount = def.Amount
		}
		requests = append(requests, NetworkRequest{
			Network: name,
			Amount:  requestAmount,
			Symbol:  def.Symbol,
		})
	}

	return &Intent{
		Recipient:   recipient,
		Requests:    requests,
		Explanation: explanation,
	}, true
}

func summaryIndex(networks []chain.Summary) map[string]chain.Summary {
	index := make(map[string]chain.Summary, len(networks))
	for _, network := range networks {
		index[network.Name] = network
	}
	return index
}
