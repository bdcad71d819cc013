package vitals

import (
	"math"
	"strconv"
	"strings"

	"icu-monitor/internal/models"
)

// Evaluator 阈值判定 + 风险评分
type Evaluator struct {
	thresholds    []Threshold
	scorer        RiskScorer
	riskThreshold float64
}

// NewEvaluator scorer 为 nil 时不做风险评分（ai_prediction 为 null）
func NewEvaluator(scorer RiskScorer, riskThreshold float64) *Evaluator {
	if riskThreshold <= 0 {
		riskThreshold = RiskDefault
	}
	return &Evaluator{thresholds: DefaultThresholds, scorer: scorer, riskThreshold: riskThreshold}
}

// Result 单个患者的判定结果
type Result struct {
	Vitals       map[string]models.VitalReading
	Alarms       []models.AlarmEntry
	AIPrediction *models.AIPrediction
}

// Judge 判定单个数值
func Judge(t Threshold, patientID string, v float64) (models.VitalReading, *models.AlarmEntry) {
	value := FormatValue(v)
	if t.Contains(v) {
		return models.VitalReading{Value: &value, Status: models.VitalStable}, nil
	}
	return models.VitalReading{Value: &value, Status: models.VitalCritical}, &models.AlarmEntry{
		PatientID: patientID,
		Vital:     t.Name,
		Level:     models.AlarmLevelCritical,
		Value:     value,
	}
}

// EvaluateRow 回放模式：row 为 CSV 原始字符串
// 空值/NaN 的列不出现在 vitals 中；非数值原样展示，状态 stable
func (e *Evaluator) EvaluateRow(patientID string, row map[string]string) Result {
	res := Result{Vitals: map[string]models.VitalReading{}, Alarms: []models.AlarmEntry{}}
	fields := make(map[string]*float64, len(row))

	for _, t := range e.thresholds {
		raw, ok := row[t.Field]
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" || strings.EqualFold(raw, "nan") {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(f, 0) {
			v := raw
			res.Vitals[t.Name] = models.VitalReading{Value: &v, Status: models.VitalStable}
			continue
		}
		reading, alarm := Judge(t, patientID, f)
		res.Vitals[t.Name] = reading
		if alarm != nil {
			res.Alarms = append(res.Alarms, *alarm)
		}
	}

	for _, f := range RiskFeatures {
		if raw, ok := row[f]; ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(v) {
				fields[f] = &v
			}
		}
	}
	e.assess(patientID, fields, &res)
	return res
}

// EvaluateStandard 实时模式：只推送 HR/SpO₂/SBP/DBP，缺失为 {null, stable}
// 风险评分使用 sv.AIAnalysis（接入时已计算）
func (e *Evaluator) EvaluateStandard(sv models.StandardVitals) Result {
	res := Result{Vitals: map[string]models.VitalReading{}, Alarms: []models.AlarmEntry{}}
	for _, field := range MonitorDisplayFields {
		t, _ := ThresholdFor(field)
		v := sv.Fields[field]
		if v == nil {
			res.Vitals[t.Name] = models.VitalReading{Value: nil, Status: models.VitalStable}
			continue
		}
		reading, alarm := Judge(t, sv.PatientID, *v)
		res.Vitals[t.Name] = reading
		if alarm != nil {
			res.Alarms = append(res.Alarms, *alarm)
		}
	}

	res.AIPrediction = sv.AIAnalysis
	if res.AIPrediction == nil {
		res.AIPrediction = &models.AIPrediction{}
	}
	if res.AIPrediction.IsAtRisk {
		res.Alarms = append(res.Alarms, models.AlarmEntry{
			PatientID: sv.PatientID,
			Vital:     NameAIRisk,
			Level:     models.AlarmLevelCritical,
			Value:     FormatPercent(res.AIPrediction.RiskScorePercent),
		})
	}
	return res
}

// Analyze 接入时的风险分析
func (e *Evaluator) Analyze(patientID string, fields map[string]*float64) *models.AIPrediction {
	if e.scorer == nil {
		return &models.AIPrediction{Error: "AI model not loaded"}
	}
	pred, _ := Assess(e.scorer, patientID, fields, e.riskThreshold)
	return pred
}

func (e *Evaluator) assess(patientID string, fields map[string]*float64, res *Result) {
	if e.scorer == nil {
		return
	}
	pred, alarm := Assess(e.scorer, patientID, fields, e.riskThreshold)
	res.AIPrediction = pred
	if alarm != nil {
		res.Alarms = append(res.Alarms, *alarm)
	}
}
