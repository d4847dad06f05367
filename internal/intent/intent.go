package intent

import "regexp"

// NetworkRequest 描述单条链上的一次发放请求。
type NetworkRequest struct {
	// Network 必须是注册表中的名称才可执行；未知名称属于
	// 单网络级别的失败，不影响同一意图中的其他网络。
	Network string `json:"network"`
	// Amount 是人类可读单位下的十进制字符串。
	Amount string `json:"amount"`
	Symbol string `json:"symbol"`
}

// Intent 是一行用户输入经抽取后得到的结构化意图。
// 随输入行创建，处理完即丢弃，从不落盘。
type Intent struct {
	Recipient   string           `json:"recipient"`
	Requests    []NetworkRequest `json:"requests"`
	Explanation string           `json:"explanation"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// addressPattern 约束收款地址必须是 0x 开头的 40 位十六进制。
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress 校验收款地址格式。不满足时必须拒绝，
// 绝不能截断或补齐。
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}
