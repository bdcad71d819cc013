package models

// 生命体征状态
const (
	VitalStable   = "stable"
	VitalWarning  = "warning"
	VitalCritical = "critical"

	AlarmLevelCritical = "CRITICAL"
)

// VitalReading 单项体征：value 为 nil 表示暂无数据
type VitalReading struct {
	Value  *string `json:"value"`
	Status string  `json:"status"`
}

// AlarmEntry 服务端推送的报警条目
type AlarmEntry struct {
	PatientID string `json:"patient_id"`
	Vital     string `json:"vital"`
	Level     string `json:"level"`
	Value     string `json:"value"`
}

// AIPrediction 风险评分；评分失败时只有 Error
type AIPrediction struct {
	RiskScorePercent float64 `json:"risk_score_percent"`
	IsAtRisk         bool    `json:"is_at_risk"`
	Error            string  `json:"error,omitempty"`
}

// RosterPatient /ws 每次推送的患者对象（整表替换）
type RosterPatient struct {
	PatientID      string                  `json:"patient_id"`
	Name           string                  `json:"name"`
	Room           string                  `json:"room"`
	Bed            string                  `json:"bed,omitempty"`
	Vitals         map[string]VitalReading `json:"vitals"`
	Alarms         []AlarmEntry            `json:"alarms"`
	AIPrediction   *AIPrediction           `json:"ai_prediction"`
	LastSeenWindow *int                    `json:"last_seen_window"`
	LastUpdateTS   *string                 `json:"last_update_ts"`
}
