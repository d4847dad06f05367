package intent

import "strings"

// inclusiveKeywords 命中任意一个即视为请求全部网络。
var inclusiveKeywords = []string{"all", "both"}

// Select 从原始文本推导目标网络列表：包含指代全部的关键字时返回
// 全部可用网络，否则返回名称作为子串字面出现的那些网络。两种情况
// 都保持注册表的枚举顺序。本层不做模糊匹配，拼写纠错是抽取引擎的
// 职责。
func Select(rawText string, available []string) []string {
	lower := strings.ToLower(rawText)

	for _, keyword := range inclusiveKeywords {
		if strings.Contains(lower, keyword) {
			selected := make([]string, len(available))
			copy(selected, available)
			return selected
		}
	}

	var selected []string
	for _, name := range available {
		if name == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			selected = append(selected, name)
		}
	}
	return selected
}
