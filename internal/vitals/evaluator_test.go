package vitals

import (
	"errors"
	"testing"

	"icu-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedScorer struct {
	p   float64
	err error
}

func (f fixedScorer) Score(map[string]float64) (float64, error) { return f.p, f.err }

func ptr(f float64) *float64 { return &f }

func TestThreshold_InclusiveBounds(t *testing.T) {
	hr, ok := ThresholdFor(FieldHR)
	require.True(t, ok)
	assert.True(t, hr.Contains(60))
	assert.True(t, hr.Contains(100))
	assert.False(t, hr.Contains(59.9))
	assert.False(t, hr.Contains(100.1))
}

func TestJudge_CriticalAlarm(t *testing.T) {
	spo2, _ := ThresholdFor(FieldSpO2)
	reading, alarm := Judge(spo2, "3", 91.26)

	require.NotNil(t, alarm)
	assert.Equal(t, models.VitalCritical, reading.Status)
	assert.Equal(t, "91.3", *reading.Value)
	assert.Equal(t, models.AlarmEntry{PatientID: "3", Vital: "SpO₂", Level: "CRITICAL", Value: "91.3"}, *alarm)
}

func TestJudge_StableKeepsOneDecimal(t *testing.T) {
	hr, _ := ThresholdFor(FieldHR)
	reading, alarm := Judge(hr, "1", 72)
	assert.Nil(t, alarm)
	assert.Equal(t, "72.0", *reading.Value)
	assert.Equal(t, models.VitalStable, reading.Status)
}

func TestEvaluateRow_AlarmsFollowThresholdOrder(t *testing.T) {
	e := NewEvaluator(fixedScorer{p: 0.1}, 70)
	res := e.EvaluateRow("5", map[string]string{
		"hr_mean":   "130",
		"rr_mean":   "nan",
		"spo2_mean": "97",
		"sbp_mean":  "85.04",
		"dbp_mean":  "",
	})

	require.Len(t, res.Alarms, 2)
	assert.Equal(t, "HR", res.Alarms[0].Vital)
	assert.Equal(t, "SBP", res.Alarms[1].Vital)
	assert.Equal(t, "85.0", res.Alarms[1].Value)

	_, hasRR := res.Vitals["RR"]
	_, hasDBP := res.Vitals["DBP"]
	assert.False(t, hasRR)
	assert.False(t, hasDBP)
	assert.Equal(t, models.VitalStable, res.Vitals["SpO₂"].Status)

	require.NotNil(t, res.AIPrediction)
	assert.Equal(t, 10.0, res.AIPrediction.RiskScorePercent)
	assert.False(t, res.AIPrediction.IsAtRisk)
}

func TestEvaluateRow_NonNumericShownAsIs(t *testing.T) {
	e := NewEvaluator(nil, 70)
	res := e.EvaluateRow("1", map[string]string{"hr_mean": "n/a"})
	require.Contains(t, res.Vitals, "HR")
	assert.Equal(t, "n/a", *res.Vitals["HR"].Value)
	assert.Equal(t, models.VitalStable, res.Vitals["HR"].Status)
	assert.Empty(t, res.Alarms)
	assert.Nil(t, res.AIPrediction)
}

func TestEvaluateRow_RiskAlarm(t *testing.T) {
	e := NewEvaluator(fixedScorer{p: 0.8567}, 70)
	res := e.EvaluateRow("9", map[string]string{"hr_mean": "80"})

	require.Len(t, res.Alarms, 1)
	assert.Equal(t, models.AlarmEntry{PatientID: "9", Vital: "AI Risk Score", Level: "CRITICAL", Value: "86%"}, res.Alarms[0])
	assert.Equal(t, 85.67, res.AIPrediction.RiskScorePercent)
	assert.True(t, res.AIPrediction.IsAtRisk)
}

func TestEvaluateRow_RiskExactlyAtThresholdIsNotAtRisk(t *testing.T) {
	e := NewEvaluator(fixedScorer{p: 0.70}, 70)
	res := e.EvaluateRow("9", map[string]string{"hr_mean": "80"})
	assert.False(t, res.AIPrediction.IsAtRisk)
	assert.Empty(t, res.Alarms)
}

func TestEvaluateRow_ScorerError(t *testing.T) {
	e := NewEvaluator(fixedScorer{err: errors.New("boom")}, 70)
	res := e.EvaluateRow("9", map[string]string{"hr_mean": "80"})
	assert.Equal(t, "Prediction failed", res.AIPrediction.Error)
}

func TestEvaluateStandard_MissingFieldsAreNullStable(t *testing.T) {
	e := NewEvaluator(nil, 70)
	res := e.EvaluateStandard(models.StandardVitals{
		PatientID:  "p1",
		Fields:     map[string]*float64{FieldHR: ptr(150), FieldRR: ptr(40)},
		AIAnalysis: &models.AIPrediction{RiskScorePercent: 91.2, IsAtRisk: true},
	})

	assert.Len(t, res.Vitals, 4)
	assert.Nil(t, res.Vitals["SpO₂"].Value)
	assert.Equal(t, models.VitalStable, res.Vitals["DBP"].Status)
	_, hasRR := res.Vitals["RR"]
	assert.False(t, hasRR)

	require.Len(t, res.Alarms, 2)
	assert.Equal(t, "HR", res.Alarms[0].Vital)
	assert.Equal(t, "AI Risk Score", res.Alarms[1].Vital)
	assert.Equal(t, "91%", res.Alarms[1].Value)
}

func TestAnalyze_NoScorer(t *testing.T) {
	e := NewEvaluator(nil, 70)
	assert.Equal(t, "AI model not loaded", e.Analyze("p", nil).Error)
}
