package llm

import "context"

// Request 描述一次自然语言抽取任务的上下文。
type Request struct {
	// Text 是用户输入的原始请求。
	Text string
	// Networks 是当前注册表中的网络目录，连同每条链的默认发放策略，
	// 作为上下文提供给模型。
	Networks []NetworkContext
}

// NetworkContext 描述提供给模型的单个网络信息。
type NetworkContext struct {
	Name   string
	Symbol string
	Amount string
}

// Response 是模型返回的原始文本。结构化校验由调用方负责，
// 与底层接入的是哪家模型服务无关。
type Response struct {
	Content string
}

// Client 定义了调用自然语言抽取引擎的统一接口。
type Client interface {
	Interpret(ctx context.Context, req Request) (*Response, error)
}
