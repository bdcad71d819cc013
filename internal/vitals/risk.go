package vitals

import (
	"errors"
	"math"

	"icu-monitor/internal/models"
)

// ErrNoFeatures 没有任何可用特征
var ErrNoFeatures = errors.New("no risk features available")

// RiskScorer 风险评分：返回 [0,1] 概率
type RiskScorer interface {
	Score(features map[string]float64) (float64, error)
}

// band 正常带：中心 ± 半宽，超出部分按 scale 归一
type band struct {
	center, halfWidth, scale float64
	lowOnly                  bool
}

// LogisticScorer 按偏离正常带的程度做 logistic 评分
type LogisticScorer struct {
	Bias   float64
	Weight float64
	bands  map[string]band
}

// NewLogisticScorer 默认参数
func NewLogisticScorer() *LogisticScorer {
	return &LogisticScorer{
		Bias:   -3.0,
		Weight: 1.5,
		bands: map[string]band{
			FieldHR:   {center: 80, halfWidth: 20, scale: 10},
			FieldSBP:  {center: 115, halfWidth: 25, scale: 10},
			FieldDBP:  {center: 75, halfWidth: 15, scale: 10},
			FieldSpO2: {center: 97, halfWidth: 3, scale: 2, lowOnly: true},
		},
	}
}

func (s *LogisticScorer) Score(features map[string]float64) (float64, error) {
	if len(features) == 0 {
		return 0, ErrNoFeatures
	}
	var deviation float64
	for field, v := range features {
		b, ok := s.bands[field]
		if !ok {
			continue
		}
		d := v - b.center
		if b.lowOnly {
			d = -d
		} else {
			d = math.Abs(d)
		}
		if d > b.halfWidth {
			deviation += (d - b.halfWidth) / b.scale
		}
	}
	z := s.Bias + s.Weight*deviation
	return 1 / (1 + math.Exp(-z)), nil
}

// Assess 计算 ai_prediction；超过阈值时附带 AI Risk Score 报警
func Assess(scorer RiskScorer, patientID string, fields map[string]*float64, threshold float64) (*models.AIPrediction, *models.AlarmEntry) {
	features := make(map[string]float64, len(RiskFeatures))
	for _, f := range RiskFeatures {
		if v, ok := fields[f]; ok && v != nil {
			features[f] = *v
		}
	}

	p, err := scorer.Score(features)
	if err != nil {
		return &models.AIPrediction{Error: "Prediction failed"}, nil
	}

	score := math.Round(p*100*100) / 100
	pred := &models.AIPrediction{RiskScorePercent: score, IsAtRisk: score > threshold}
	if !pred.IsAtRisk {
		return pred, nil
	}
	return pred, &models.AlarmEntry{
		PatientID: patientID,
		Vital:     NameAIRisk,
		Level:     models.AlarmLevelCritical,
		Value:     FormatPercent(score),
	}
}
