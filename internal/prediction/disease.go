package prediction

import (
	"fmt"

	"go.uber.org/zap"

	"icu-monitor/internal/imaging"
)

// DiseaseClassifier 图像 -> 各类别概率
type DiseaseClassifier interface {
	PredictProba(t *imaging.Tensor) ([]float64, error)
}

// healthyTissue 退回结果使用的类别
const healthyTissue = 3

var diseaseClasses = map[int]Condition{
	0: {
		Name:        "Diabetic Foot Ulcer",
		Severity:    "Moderate",
		Description: "Chronic wound commonly associated with diabetes",
		RiskFactors: []string{"Diabetes", "Poor circulation", "Neuropathy"},
	},
	1: {
		Name:        "Pressure Ulcer",
		Severity:    "Severe",
		Description: "Wound caused by prolonged pressure on the skin",
		RiskFactors: []string{"Immobility", "Poor nutrition", "Age-related"},
	},
	2: {
		Name:        "Venous Ulcer",
		Severity:    "Moderate",
		Description: "Wound caused by venous insufficiency",
		RiskFactors: []string{"Venous disease", "Obesity", "Previous DVT"},
	},
	healthyTissue: {
		Name:        "Healthy Tissue",
		Severity:    "None",
		Description: "No significant wound detected",
		RiskFactors: []string{},
	},
}

var unknownCondition = Condition{
	Name:        "Unknown Condition",
	Severity:    "Unknown",
	Description: "Unable to classify the condition",
	RiskFactors: []string{},
}

// DiseaseInfo 类别说明；高龄高置信度或低置信度时在 severity 后附加提示
func DiseaseInfo(classID int, confidence float64, age int) Condition {
	info, ok := diseaseClasses[classID]
	if !ok {
		info = unknownCondition
	}
	info = info.clone()
	switch {
	case age > 65 && confidence > 0.8:
		info.Severity += " (High Risk - Elderly Patient)"
	case confidence < 0.6:
		info.Severity += " (Low Confidence - Recommend Specialist Review)"
	}
	return info
}

// DiseaseResult /api/disease-predict 响应
type DiseaseResult struct {
	Success    bool          `json:"success"`
	Prediction Condition     `json:"prediction"`
	Confidence float64       `json:"confidence"`
	ModelUsed  string        `json:"model_used"`
	Note       string        `json:"note,omitempty"`
	ImageInfo  *imaging.Info `json:"image_info,omitempty"`
	PatientAge int           `json:"patient_age"`
}

// DiseasePredictor 病症分类
type DiseasePredictor struct {
	slot   *slot[DiseaseClassifier]
	logger *zap.Logger
}

// NewDiseasePredictor 首次预测或 Load 时从 path 加载 SoftmaxModel
func NewDiseasePredictor(path string, logger *zap.Logger) *DiseasePredictor {
	return &DiseasePredictor{
		slot: newSlot(path, func(p string) (DiseaseClassifier, error) {
			m, err := LoadSoftmaxModel(p)
			if err != nil {
				return nil, err
			}
			return m, nil
		}),
		logger: logger,
	}
}

// SetModel 直接注入分类器
func (p *DiseasePredictor) SetModel(m DiseaseClassifier) { p.slot.set(m) }

// Load 启动时预加载；失败只记录日志
func (p *DiseasePredictor) Load() bool {
	if _, err := p.slot.get(); err != nil {
		p.logger.Warn("Disease model not loaded", zap.String("path", p.slot.path), zap.Error(err))
		return false
	}
	p.logger.Info("Disease model loaded", zap.String("path", p.slot.path))
	return true
}

func (p *DiseasePredictor) Status() ModelStatus { return p.slot.status() }

// Predict 模型不可用返回 ErrModelNotLoaded；推理失败退回 Healthy Tissue 结果
func (p *DiseasePredictor) Predict(t *imaging.Tensor, age int) (*DiseaseResult, error) {
	model, err := p.slot.get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	probs, err := model.PredictProba(t)
	if err == nil && len(probs) == 0 {
		err = fmt.Errorf("model returned no classes")
	}
	if err != nil {
		p.logger.Warn("Disease prediction failed, using fallback", zap.Error(err))
		return &DiseaseResult{
			Success:    true,
			Prediction: DiseaseInfo(healthyTissue, mockConfidence, age),
			Confidence: mockConfidence,
			ModelUsed:  ModelUsedMock,
			Note:       mockNote,
		}, nil
	}

	class := argmax(probs)
	return &DiseaseResult{
		Success:    true,
		Prediction: DiseaseInfo(class, probs[class], age),
		Confidence: probs[class],
		ModelUsed:  modelName(p.slot.path),
	}, nil
}
