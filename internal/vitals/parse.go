package vitals

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^\d.-]`)

// ParseValue 解析设备上报的体征值，去掉单位（bpm、%、mmHg 等）
// nil、空串、无法解析返回 nil
func ParseValue(v interface{}) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(val), "")
		if cleaned == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case bool:
		f := 0.0
		if val {
			f = 1
		}
		return &f
	default:
		f, err := strconv.ParseFloat(fmt.Sprint(val), 64)
		if err != nil {
			return nil
		}
		return finite(f)
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// FormatValue 服务端推送的体征值，固定 1 位小数
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatPercent 风险百分比，0 位小数 + "%"
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + "%"
}
