package vitals

// 标准字段名（CSV 列名 / 设备映射目标）
const (
	FieldHR   = "hr_mean"
	FieldRR   = "rr_mean"
	FieldSpO2 = "spo2_mean"
	FieldSBP  = "sbp_mean"
	FieldDBP  = "dbp_mean"
)

// 展示名
const (
	NameHR      = "HR"
	NameRR      = "RR"
	NameSpO2    = "SpO₂"
	NameSBP     = "SBP"
	NameDBP     = "DBP"
	NameAIRisk  = "AI Risk Score"
	RiskDefault = 70.0
)

// Threshold 单项阈值，闭区间 [Min, Max] 为正常
type Threshold struct {
	Field string
	Min   float64
	Max   float64
	Name  string
}

// Contains 是否在正常区间内
func (t Threshold) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// DefaultThresholds 按固定顺序评估，报警顺序与此一致
var DefaultThresholds = []Threshold{
	{Field: FieldHR, Min: 60, Max: 100, Name: NameHR},
	{Field: FieldRR, Min: 12, Max: 20, Name: NameRR},
	{Field: FieldSpO2, Min: 94, Max: 100, Name: NameSpO2},
	{Field: FieldSBP, Min: 90, Max: 140, Name: NameSBP},
	{Field: FieldDBP, Min: 60, Max: 90, Name: NameDBP},
}

// RiskFeatures 风险评分使用的特征
var RiskFeatures = []string{FieldHR, FieldSBP, FieldDBP, FieldSpO2}

// MonitorDisplayFields 实时监护仪模式下推送的体征（无 RR）
var MonitorDisplayFields = []string{FieldHR, FieldSpO2, FieldSBP, FieldDBP}

// ThresholdFor 按字段查找阈值
func ThresholdFor(field string) (Threshold, bool) {
	for _, t := range DefaultThresholds {
		if t.Field == field {
			return t, true
		}
	}
	return Threshold{}, false
}
