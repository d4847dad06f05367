package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseAmount converts a decimal string in human units ("0.01") into the
// chain's minimal native unit. The conversion is exact base-10 fixed point:
// no floats are involved, and fractions finer than the chain's precision are
// rejected instead of being rounded.
func ParseAmount(text string, decimals int) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("金额不能为空")
	}
	if strings.HasPrefix(text, "-") {
		return nil, fmt.Errorf("金额不能为负数: %s", text)
	}
	if decimals <= 0 {
		decimals = 18
	}

	intPart := text
	fracPart := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		intPart = text[:idx]
		fracPart = text[idx+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return nil, fmt.Errorf("金额格式非法: %s", text)
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, fmt.Errorf("金额格式非法: %s", text)
	}
	if len(fracPart) > decimals {
		return nil, fmt.Errorf("金额 %s 超出链上精度(%d 位小数)", text, decimals)
	}

	// Pad the fraction to the full precision and parse the joined digits.
	padded := fracPart + strings.Repeat("0", decimals-len(fracPart))
	value, ok := new(big.Int).SetString(intPart+padded, 10)
	if !ok {
		return nil, fmt.Errorf("金额格式非法: %s", text)
	}
	return value, nil
}

// FormatAmount renders a minimal-unit value back into a human decimal
// string, trimming trailing zeros ("10000000000000000" -> "0.01").
func FormatAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		decimals = 18
	}

	digits := value.String()
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	intPart := digits[:len(digits)-decimals]
	fracPart := strings.TrimRight(digits[len(digits)-decimals:], "0")

	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if negative && out != "0" {
		out = "-" + out
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
