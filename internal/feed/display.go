package feed

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"icu-monitor/internal/models"
	"icu-monitor/internal/vitals"
)

// 展示占位
const (
	DisplayMissing = "N/A"
	DisplayNoValue = "---"
)

// FormatVital 屏幕展示值：
// 无该体征 N/A；nan 或无法解析 ---；小于 10 的非整数保留 1 位，其余取整
func FormatVital(v *models.VitalReading) string {
	if v == nil {
		return DisplayMissing
	}
	if v.Value == nil || strings.EqualFold(strings.TrimSpace(*v.Value), "nan") {
		return DisplayNoValue
	}
	n, ok := parseLeadingFloat(*v.Value)
	if !ok {
		return DisplayNoValue
	}
	if n < 10 && n != math.Trunc(n) {
		return strconv.FormatFloat(roundHalfUp(n, 1), 'f', 1, 64)
	}
	return strconv.FormatFloat(roundHalfUp(n, 0), 'f', 0, 64)
}

// leadingFloat 取字符串开头的数字部分，"120/80" 得 120，"98 %" 得 98
var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// roundHalfUp 半数远离零舍入：7.25 -> 7.3，-7.25 -> -7.3；strconv 默认是银行家舍入
func roundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatBP "SBP/DBP"
func FormatBP(vs map[string]models.VitalReading) string {
	return FormatVital(lookup(vs, vitals.NameSBP)) + "/" + FormatVital(lookup(vs, vitals.NameDBP))
}

// VitalStatus stable 显示为 normal
func VitalStatus(v *models.VitalReading) string {
	if v == nil || v.Status == models.VitalStable || v.Status == "" {
		return "normal"
	}
	return v.Status
}

// BPStatus 收缩压 / 舒张压中较严重者
func BPStatus(vs map[string]models.VitalReading) string {
	sbp, dbp := VitalStatus(lookup(vs, vitals.NameSBP)), VitalStatus(lookup(vs, vitals.NameDBP))
	switch {
	case sbp == models.VitalCritical || dbp == models.VitalCritical:
		return models.VitalCritical
	case sbp == models.VitalWarning || dbp == models.VitalWarning:
		return models.VitalWarning
	}
	return "normal"
}

func lookup(vs map[string]models.VitalReading, name string) *models.VitalReading {
	v, ok := vs[name]
	if !ok {
		return nil
	}
	return &v
}

// Lookup 按展示名取体征，不存在返回 nil
func Lookup(p models.RosterPatient, name string) *models.VitalReading {
	return lookup(p.Vitals, name)
}
