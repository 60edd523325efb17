package db

import "strings"

// EqualName 以大小写不敏感的方式比较两个展示名。
// 本应用没有账号体系，作者归属全部依赖这一比较。
func EqualName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
