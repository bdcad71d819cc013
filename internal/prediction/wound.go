package prediction

import (
	"fmt"

	"go.uber.org/zap"

	"icu-monitor/internal/imaging"
)

// Segmentation 分割结果：Labels 逐像素类别，0 为非创面
type Segmentation struct {
	Labels     []int
	Confidence float64
}

// WoundSegmenter 创面分割
type WoundSegmenter interface {
	Segment(t *imaging.Tensor) (*Segmentation, error)
}

// ImageNet 通道均值 / 标准差
var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

const (
	SeverityMild     = "Mild"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"

	mockHealingDays = "12–15"
)

var woundTypes = map[string]Condition{
	SeverityMild: {
		Name:        "Minor Wound",
		Severity:    SeverityMild,
		Description: "Small wound with good healing potential",
		RiskFactors: []string{"Minor injury", "Good circulation"},
	},
	SeverityModerate: {
		Name:        "Moderate Wound",
		Severity:    SeverityModerate,
		Description: "Medium-sized wound requiring monitoring",
		RiskFactors: []string{"Diabetes", "Poor circulation", "Infection risk"},
	},
	SeveritySevere: {
		Name:        "Severe Wound",
		Severity:    SeveritySevere,
		Description: "Large or complex wound needing immediate attention",
		RiskFactors: []string{"Diabetes", "Poor circulation", "Infection", "Chronic condition"},
	},
}

// WoundInfo 未知 severity 返回 Unknown Wound Type
func WoundInfo(severity string) Condition {
	if c, ok := woundTypes[severity]; ok {
		return c.clone()
	}
	return Condition{
		Name:        "Unknown Wound Type",
		Severity:    "Unknown",
		Description: "Unable to classify wound condition",
		RiskFactors: []string{},
	}
}

// AnalyzeWound 按创面占比与置信度估计愈合天数与严重程度
func AnalyzeWound(seg *Segmentation) (healingDays, severity string) {
	var ratio float64
	if len(seg.Labels) > 0 {
		wound := 0
		for _, l := range seg.Labels {
			if l > 0 {
				wound++
			}
		}
		ratio = float64(wound) / float64(len(seg.Labels))
	}

	switch {
	case ratio > 0.3 || seg.Confidence < 0.5:
		return "21–28", SeveritySevere
	case ratio > 0.15 || seg.Confidence < 0.7:
		return "12–18", SeverityModerate
	default:
		return "7–12", SeverityMild
	}
}

// WoundResult /api/wound-predict 响应
type WoundResult struct {
	Success         bool          `json:"success"`
	Prediction      Condition     `json:"prediction"`
	Confidence      float64       `json:"confidence"`
	HealingTimeDays string        `json:"healing_time_days"`
	Severity        string        `json:"severity"`
	ModelUsed       string        `json:"model_used"`
	Note            string        `json:"note,omitempty"`
	ImageInfo       *imaging.Info `json:"image_info,omitempty"`
	PatientAge      int           `json:"patient_age"`
}

// WoundPredictor 创面愈合预测；模型在首次请求时加载
type WoundPredictor struct {
	slot   *slot[WoundSegmenter]
	logger *zap.Logger
}

func NewWoundPredictor(path string, logger *zap.Logger) *WoundPredictor {
	return &WoundPredictor{
		slot: newSlot(path, func(p string) (WoundSegmenter, error) {
			m, err := LoadPixelModel(p)
			if err != nil {
				return nil, err
			}
			return m, nil
		}),
		logger: logger,
	}
}

// SetModel 直接注入分割模型
func (p *WoundPredictor) SetModel(m WoundSegmenter) { p.slot.set(m) }

func (p *WoundPredictor) Status() ModelStatus { return p.slot.status() }

// Predict t 为 [0,1] 像素，内部按 ImageNet 统计量归一化
func (p *WoundPredictor) Predict(t *imaging.Tensor) (*WoundResult, error) {
	model, err := p.slot.get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	seg, err := model.Segment(t.Normalize(imageNetMean, imageNetStd))
	if err != nil {
		p.logger.Warn("Wound prediction failed, using fallback", zap.Error(err))
		return &WoundResult{
			Success:         true,
			Prediction:      WoundInfo(SeverityModerate),
			Confidence:      mockConfidence,
			HealingTimeDays: mockHealingDays,
			Severity:        SeverityModerate,
			ModelUsed:       ModelUsedMock,
			Note:            mockNote,
		}, nil
	}

	days, severity := AnalyzeWound(seg)
	return &WoundResult{
		Success:         true,
		Prediction:      WoundInfo(severity),
		Confidence:      seg.Confidence,
		HealingTimeDays: days,
		Severity:        severity,
		ModelUsed:       modelName(p.slot.path),
	}, nil
}
