package util

import (
	"strconv"
)

// MustParseInt 将字符串转换为整数，解析失败时返回 0。
// 路由参数里的模块 ID 可能以字符串形式出现，统一在这里归一化。
func MustParseInt(s string) int {
	id, _ := strconv.Atoi(s)
	return id
}

// LeadingInt 提取字符串开头的十进制整数（"2 hours" -> 2），没有数字时返回 0
func LeadingInt(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:i])
	return n
}
