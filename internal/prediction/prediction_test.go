package prediction

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"icu-monitor/internal/imaging"
)

type fakeClassifier struct {
	probs []float64
	err   error
}

func (f fakeClassifier) PredictProba(*imaging.Tensor) ([]float64, error) { return f.probs, f.err }

type fakeSegmenter struct {
	seg *Segmentation
	err error
}

func (f fakeSegmenter) Segment(*imaging.Tensor) (*Segmentation, error) { return f.seg, f.err }

func uniform(v float32) *imaging.Tensor {
	t := &imaging.Tensor{Width: 4, Height: 4, Pix: make([]float32, 4*4*3)}
	for i := range t.Pix {
		t.Pix[i] = v
	}
	return t
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDiseaseInfo(t *testing.T) {
	assert.Equal(t, "Pressure Ulcer", DiseaseInfo(1, 0.7, 40).Name)
	assert.Equal(t, "Severe", DiseaseInfo(1, 0.7, 40).Severity)
	assert.Equal(t, "Severe (High Risk - Elderly Patient)", DiseaseInfo(1, 0.9, 70).Severity)
	assert.Equal(t, "Moderate (Low Confidence - Recommend Specialist Review)", DiseaseInfo(0, 0.5, 70).Severity)
	assert.Equal(t, "Severe", DiseaseInfo(1, 0.8, 66).Severity, "0.8 is not above the elderly threshold")

	unknown := DiseaseInfo(9, 0.9, 30)
	assert.Equal(t, "Unknown Condition", unknown.Name)
	assert.Empty(t, unknown.RiskFactors)

	// 附加提示不能污染类别表
	DiseaseInfo(2, 0.1, 30)
	assert.Equal(t, "Moderate", diseaseClasses[2].Severity)
}

func TestDiseasePredictor_Predict(t *testing.T) {
	p := NewDiseasePredictor("/models/disease_prediction_model.pkl", zap.NewNop())
	p.SetModel(fakeClassifier{probs: []float64{0.05, 0.85, 0.05, 0.05}})

	res, err := p.Predict(uniform(0.5), 72)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Pressure Ulcer", res.Prediction.Name)
	assert.Equal(t, "Severe (High Risk - Elderly Patient)", res.Prediction.Severity)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	assert.Equal(t, "disease_prediction_model", res.ModelUsed)
	assert.Empty(t, res.Note)
}

func TestDiseasePredictor_FallsBackOnInferenceError(t *testing.T) {
	p := NewDiseasePredictor("disease.yaml", zap.NewNop())
	p.SetModel(fakeClassifier{err: errors.New("shape mismatch")})

	res, err := p.Predict(uniform(0.5), 30)
	require.NoError(t, err)
	assert.Equal(t, "Healthy Tissue", res.Prediction.Name)
	assert.Equal(t, "None", res.Prediction.Severity)
	assert.Equal(t, 0.75, res.Confidence)
	assert.Equal(t, ModelUsedMock, res.ModelUsed)
	assert.Equal(t, "Using mock data due to model prediction failure", res.Note)

	p.SetModel(fakeClassifier{probs: []float64{}})
	res, err = p.Predict(uniform(0.5), 30)
	require.NoError(t, err)
	assert.Equal(t, ModelUsedMock, res.ModelUsed)
}

func TestDiseasePredictor_MissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	p := NewDiseasePredictor(path, zap.NewNop())

	assert.False(t, p.Load())
	_, err := p.Predict(uniform(0.5), 30)
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	st := p.Status()
	assert.False(t, st.ModelLoaded)
	assert.False(t, st.ModelExists)
	assert.Equal(t, "not_loaded", st.Status)
	assert.Equal(t, path, st.ModelPath)
}

func TestDiseasePredictor_LoadsYAMLModel(t *testing.T) {
	// grid 1：三个通道的均值作为特征，类别 0 偏好红色，类别 3 偏好绿色
	path := writeFile(t, `
grid: 1
weights:
  - [8, 0, 0]
  - [0, 0, 0]
  - [0, 0, 0]
  - [0, 8, 0]
bias: [0, 0, 0, 0]
`)
	p := NewDiseasePredictor(path, zap.NewNop())
	require.True(t, p.Load())
	assert.Equal(t, "ready", p.Status().Status)
	assert.True(t, p.Status().ModelExists)

	red := &imaging.Tensor{Width: 1, Height: 1, Pix: []float32{1, 0, 0}}
	res, err := p.Predict(red, 40)
	require.NoError(t, err)
	assert.Equal(t, "Diabetic Foot Ulcer", res.Prediction.Name)
	assert.Equal(t, "model", res.ModelUsed)

	green := &imaging.Tensor{Width: 1, Height: 1, Pix: []float32{0, 1, 0}}
	res, err = p.Predict(green, 40)
	require.NoError(t, err)
	assert.Equal(t, "Healthy Tissue", res.Prediction.Name)
}

func TestLoadSoftmaxModel_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero grid":     "grid: 0\nweights: [[1, 2, 3]]\nbias: [0]\n",
		"no classes":    "grid: 1\nweights: []\nbias: []\n",
		"bias mismatch": "grid: 1\nweights: [[1, 2, 3]]\nbias: [0, 1]\n",
		"short row":     "grid: 2\nweights: [[1, 2, 3]]\nbias: [0]\n",
		"not yaml":      "grid: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSoftmaxModel(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}

func TestPool(t *testing.T) {
	// 2x2 图像，左列 0、右列 1
	tensor := &imaging.Tensor{Width: 2, Height: 2, Pix: []float32{
		0, 0, 0, 1, 1, 1,
		0, 0, 0, 1, 1, 1,
	}}
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, Pool(tensor, 1))
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 0, 0, 0, 1, 1, 1}, Pool(tensor, 2))
}

func TestAnalyzeWound(t *testing.T) {
	labels := func(wound, total int) []int {
		out := make([]int, total)
		for i := 0; i < wound; i++ {
			out[i] = 1
		}
		return out
	}
	cases := []struct {
		name     string
		seg      Segmentation
		days     string
		severity string
	}{
		{"large area", Segmentation{Labels: labels(31, 100), Confidence: 0.9}, "21–28", SeveritySevere},
		{"low confidence", Segmentation{Labels: labels(1, 100), Confidence: 0.4}, "21–28", SeveritySevere},
		{"medium area", Segmentation{Labels: labels(16, 100), Confidence: 0.9}, "12–18", SeverityModerate},
		{"unsure", Segmentation{Labels: labels(0, 100), Confidence: 0.6}, "12–18", SeverityModerate},
		{"small", Segmentation{Labels: labels(15, 100), Confidence: 0.7}, "7–12", SeverityMild},
		{"empty", Segmentation{Confidence: 0.9}, "7–12", SeverityMild},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			days, severity := AnalyzeWound(&tc.seg)
			assert.Equal(t, tc.days, days)
			assert.Equal(t, tc.severity, severity)
		})
	}
}

func TestWoundPredictor_Predict(t *testing.T) {
	p := NewWoundPredictor("models/seg_model.pth", zap.NewNop())
	p.SetModel(fakeSegmenter{seg: &Segmentation{Labels: []int{0, 0, 0, 1}, Confidence: 0.92}})

	res, err := p.Predict(uniform(0.5))
	require.NoError(t, err)
	assert.Equal(t, SeverityMild, res.Severity)
	assert.Equal(t, "7–12", res.HealingTimeDays)
	assert.Equal(t, "Minor Wound", res.Prediction.Name)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, "seg_model", res.ModelUsed)
}

func TestWoundPredictor_FallsBackOnInferenceError(t *testing.T) {
	p := NewWoundPredictor("seg.yaml", zap.NewNop())
	p.SetModel(fakeSegmenter{err: errors.New("cuda unavailable")})

	res, err := p.Predict(uniform(0.5))
	require.NoError(t, err)
	assert.Equal(t, SeverityModerate, res.Severity)
	assert.Equal(t, "12–15", res.HealingTimeDays)
	assert.Equal(t, "Moderate Wound", res.Prediction.Name)
	assert.Equal(t, ModelUsedMock, res.ModelUsed)
	assert.NotEmpty(t, res.Note)
}

func TestWoundPredictor_LoadsLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg.yaml")
	p := NewWoundPredictor(path, zap.NewNop())

	_, err := p.Predict(uniform(0.5))
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Equal(t, "not_loaded", p.Status().Status)

	// 文件出现后下一次请求即可加载
	require.NoError(t, os.WriteFile(path, []byte("weights: [[0, 0, 0], [1, 1, 1]]\nbias: [0, 0]\n"), 0o600))
	res, err := p.Predict(uniform(0.9))
	require.NoError(t, err)
	assert.Equal(t, "seg", res.ModelUsed)
	assert.Equal(t, "ready", p.Status().Status)
}

func TestPixelModel_Segment(t *testing.T) {
	m := &PixelModel{Weights: [][]float64{{0, 0, 0}, {10, 0, 0}}, Bias: []float64{5, 0}}
	tensor := &imaging.Tensor{Width: 2, Height: 1, Pix: []float32{1, 0, 0, 0, 0, 0}}

	seg, err := m.Segment(tensor)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, seg.Labels)
	assert.Greater(t, seg.Confidence, 0.99)

	_, err = LoadPixelModel(writeFile(t, "weights: [[1, 2]]\nbias: [0]\n"))
	assert.Error(t, err)
	_, err = LoadPixelModel(writeFile(t, "weights: [[1, 2, 3], [1, 2]]\nbias: [0, 0]\n"))
	assert.Error(t, err)
}
