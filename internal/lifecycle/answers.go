package lifecycle

import (
	"math"
	"strconv"
	"strings"
)

// 测验答案的形态不统一：裸原始值、带.id的选项对象、带.value的选项对象，
// 或者以上任意元素组成的数组。提交和渲染前都先经过这里归一化。

// NormalizeAnswer 把单个答案值归一化为原始值（string/number/bool），
// 无法归一化时返回nil。数组不是合法的标量输入（数组由
// NormalizeForSubmission 逐元素处理）。
func NormalizeAnswer(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if id, ok := val["id"]; ok {
			return primitiveOrNil(id)
		}
		if nested, ok := val["value"]; ok {
			return primitiveOrNil(nested)
		}
		return nil
	default:
		return primitiveOrNil(v)
	}
}

func primitiveOrNil(v interface{}) interface{} {
	switch v.(type) {
	case string, bool, float64, float32, int, int32, int64:
		return v
	default:
		return nil
	}
}

// NormalizeForSubmission 归一化提交用的答案值：标量按 NormalizeAnswer，
// 数组逐元素归一化并丢弃无效项；空数组归一化为nil。
func NormalizeForSubmission(v interface{}) interface{} {
	if arr, ok := v.([]interface{}); ok {
		out := make([]interface{}, 0, len(arr))
		for _, item := range arr {
			if n := NormalizeAnswer(item); n != nil {
				out = append(out, n)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return NormalizeAnswer(v)
}

// IsSelected 判断选项是否被当前答案选中：双方归一化后按值比较；
// 当前答案为数组时，任一元素归一化后相等即为选中。
func IsSelected(current, option interface{}) bool {
	opt := NormalizeAnswer(option)
	if opt == nil {
		return false
	}

	if arr, ok := current.([]interface{}); ok {
		for _, item := range arr {
			if equalPrimitive(NormalizeAnswer(item), opt) {
				return true
			}
		}
		return false
	}
	return equalPrimitive(NormalizeAnswer(current), opt)
}

func equalPrimitive(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// IsAnswered 必填校验：归一化后非空字符串（去除首尾空白）、非空数组，
// 或对numeric题型可解析为有限数字的值，才算已作答。
func IsAnswered(v interface{}, questionType string) bool {
	norm := NormalizeForSubmission(v)
	if norm == nil {
		return false
	}

	if questionType == "numeric" {
		f, ok := toFinite(norm)
		return ok && !math.IsInf(f, 0) && !math.IsNaN(f)
	}

	switch val := norm.(type) {
	case string:
		return strings.TrimSpace(val) != ""
	case []interface{}:
		return len(val) > 0
	default:
		return true
	}
}

func toFinite(v interface{}) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, !math.IsInf(f, 0) && !math.IsNaN(f)
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, !math.IsInf(f, 0) && !math.IsNaN(f)
	}
	return 0, false
}

// BuildSubmission 构造提交载荷：逐题归一化，空值直接剔除，
// 绝不把未作答的题以显式null发给服务端。
func BuildSubmission(answers map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(answers))
	for key, raw := range answers {
		norm := NormalizeForSubmission(raw)
		if norm == nil {
			continue
		}
		if s, ok := norm.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		payload[key] = norm
	}
	return payload
}
