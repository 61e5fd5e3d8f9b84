package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Predicate 是对输出字符串的纯函数断言
type Predicate struct {
	Description string
	check       func(output string) bool
}

// Eval reports whether output satisfies p. A zero Predicate never holds.
func (p Predicate) Eval(output string) bool {
	if p.check == nil {
		return false
	}
	return p.check(output)
}

func (p Predicate) String() string { return p.Description }

// MarshalText renders the description so predicates export as strings.
func (p Predicate) MarshalText() ([]byte, error) { return []byte(p.Description), nil }

// Func wraps an arbitrary check.
func Func(description string, fn func(output string) bool) Predicate {
	return Predicate{Description: description, check: fn}
}

// Contains 输出包含子串
func Contains(substr string) Predicate {
	return Func(fmt.Sprintf("contains %q", substr), func(out string) bool {
		return strings.Contains(out, substr)
	})
}

// ContainsFold 输出包含子串（忽略大小写）
func ContainsFold(substr string) Predicate {
	lower := strings.ToLower(substr)
	return Func(fmt.Sprintf("contains %q (case-insensitive)", substr), func(out string) bool {
		return strings.Contains(strings.ToLower(out), lower)
	})
}

// ContainsAny 输出至少包含其中一个子串（忽略大小写）
func ContainsAny(substrs ...string) Predicate {
	return Func(fmt.Sprintf("contains any of %q", substrs), func(out string) bool {
		lower := strings.ToLower(out)
		for _, s := range substrs {
			if strings.Contains(lower, strings.ToLower(s)) {
				return true
			}
		}
		return false
	})
}

// NotContains 输出不包含子串
func NotContains(substr string) Predicate {
	return Func(fmt.Sprintf("does not contain %q", substr), func(out string) bool {
		return !strings.Contains(out, substr)
	})
}

// Matches 输出匹配正则表达式。expr 无效时 panic，与 regexp.MustCompile 一致。
func Matches(expr string) Predicate {
	re := regexp.MustCompile(expr)
	return Func(fmt.Sprintf("matches /%s/", expr), re.MatchString)
}

// NotEmpty 输出去除空白后非空
func NotEmpty() Predicate {
	return Func("is not empty", func(out string) bool {
		return strings.TrimSpace(out) != ""
	})
}
