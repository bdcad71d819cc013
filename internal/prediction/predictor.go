package prediction

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ModelUsedMock 推理失败时的退回结果
const ModelUsedMock = "mock_data_fallback"

const (
	mockConfidence = 0.75
	mockNote       = "Using mock data due to model prediction failure"
)

// ErrModelNotLoaded 模型文件缺失或无法解析
var ErrModelNotLoaded = errors.New("prediction model not loaded")

// Condition 预测出的病症 / 创面说明
type Condition struct {
	Name        string   `json:"name"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	RiskFactors []string `json:"risk_factors"`
}

func (c Condition) clone() Condition {
	c.RiskFactors = append([]string{}, c.RiskFactors...)
	return c
}

// ModelStatus *-model-status 响应
type ModelStatus struct {
	ModelLoaded bool   `json:"model_loaded"`
	ModelPath   string `json:"model_path"`
	ModelExists bool   `json:"model_exists"`
	Status      string `json:"status"`
}

// slot 懒加载的模型；加载失败不缓存，下次请求重试
type slot[T any] struct {
	path string
	load func(path string) (T, error)

	mu     sync.Mutex
	model  T
	loaded bool
}

func newSlot[T any](path string, load func(string) (T, error)) *slot[T] {
	return &slot[T]{path: path, load: load}
}

func (s *slot[T]) get() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.model, nil
	}
	m, err := s.load(s.path)
	if err != nil {
		var zero T
		return zero, err
	}
	s.model, s.loaded = m, true
	return m, nil
}

func (s *slot[T]) set(m T) {
	s.mu.Lock()
	s.model, s.loaded = m, true
	s.mu.Unlock()
}

func (s *slot[T]) status() ModelStatus {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	_, err := os.Stat(s.path)
	st := ModelStatus{ModelLoaded: loaded, ModelPath: s.path, ModelExists: err == nil, Status: "not_loaded"}
	if loaded {
		st.Status = "ready"
	}
	return st
}

// modelName 文件名去掉扩展名
func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
