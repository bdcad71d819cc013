package prediction

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"icu-monitor/internal/imaging"
)

// SoftmaxModel 在 grid x grid 平均池化后的 RGB 特征上做线性 softmax 分类。
// weights 每行对应一个类别，长度为 grid*grid*3
type SoftmaxModel struct {
	Grid    int         `yaml:"grid"`
	Weights [][]float64 `yaml:"weights"`
	Bias    []float64   `yaml:"bias"`
}

// LoadSoftmaxModel 读取 yaml 模型文件并校验维度
func LoadSoftmaxModel(path string) (*SoftmaxModel, error) {
	var m SoftmaxModel
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

func (m *SoftmaxModel) validate() error {
	if m.Grid <= 0 {
		return errors.New("grid must be positive")
	}
	if len(m.Weights) == 0 {
		return errors.New("no classes")
	}
	if len(m.Bias) != len(m.Weights) {
		return fmt.Errorf("%d classes but %d biases", len(m.Weights), len(m.Bias))
	}
	want := m.Grid * m.Grid * 3
	for k, w := range m.Weights {
		if len(w) != want {
			return fmt.Errorf("class %d: want %d weights, got %d", k, want, len(w))
		}
	}
	return nil
}

// PredictProba 各类别概率
func (m *SoftmaxModel) PredictProba(t *imaging.Tensor) ([]float64, error) {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return nil, errors.New("empty image")
	}
	features := Pool(t, m.Grid)
	logits := make([]float64, len(m.Weights))
	for k, w := range m.Weights {
		z := m.Bias[k]
		for i, f := range features {
			z += w[i] * f
		}
		logits[k] = z
	}
	return softmax(logits), nil
}

// Pool 平均池化到 grid x grid 个格子，按 (格子, 通道) 展开
func Pool(t *imaging.Tensor, grid int) []float64 {
	out := make([]float64, grid*grid*3)
	counts := make([]int, grid*grid)
	for y := 0; y < t.Height; y++ {
		gy := y * grid / t.Height
		for x := 0; x < t.Width; x++ {
			cell := gy*grid + x*grid/t.Width
			counts[cell]++
			for c := 0; c < 3; c++ {
				out[cell*3+c] += float64(t.At(x, y, c))
			}
		}
	}
	for cell, n := range counts {
		if n == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out[cell*3+c] /= float64(n)
		}
	}
	return out
}

// PixelModel 逐像素线性分类；类别 0 为非创面
type PixelModel struct {
	Weights [][]float64 `yaml:"weights"`
	Bias    []float64   `yaml:"bias"`
}

func LoadPixelModel(path string) (*PixelModel, error) {
	var m PixelModel
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	if len(m.Weights) < 2 {
		return nil, fmt.Errorf("model %s: need at least 2 classes", path)
	}
	if len(m.Bias) != len(m.Weights) {
		return nil, fmt.Errorf("model %s: %d classes but %d biases", path, len(m.Weights), len(m.Bias))
	}
	for k, w := range m.Weights {
		if len(w) != 3 {
			return nil, fmt.Errorf("model %s: class %d: want 3 weights, got %d", path, k, len(w))
		}
	}
	return &m, nil
}

// Segment 每像素取概率最大的类别；Confidence 为全图最大的类别概率
func (m *PixelModel) Segment(t *imaging.Tensor) (*Segmentation, error) {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return nil, errors.New("empty image")
	}
	n := t.Width * t.Height
	seg := &Segmentation{Labels: make([]int, n)}
	logits := make([]float64, len(m.Weights))
	for i := 0; i < n; i++ {
		px := t.Pix[i*3 : i*3+3]
		for k, w := range m.Weights {
			logits[k] = m.Bias[k] + w[0]*float64(px[0]) + w[1]*float64(px[1]) + w[2]*float64(px[2])
		}
		p := softmax(logits)
		best := argmax(p)
		seg.Labels[i] = best
		if p[best] > seg.Confidence {
			seg.Confidence = p[best]
		}
	}
	return seg, nil
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse model %s: %w", path, err)
	}
	return nil
}

func softmax(z []float64) []float64 {
	peak := math.Inf(-1)
	for _, v := range z {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}
