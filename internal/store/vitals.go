package store

import (
	"context"
	"encoding/json"
	"fmt"

	"icu-monitor/internal/models"
)

const vitalsKeyPrefix = "icu:vitals:"

// VitalsStore 每个患者仅保留最新一条标准化 vitals
type VitalsStore struct {
	kv KV
}

func NewVitalsStore(kv KV) *VitalsStore { return &VitalsStore{kv: kv} }

func vitalsKey(patientID string) string { return vitalsKeyPrefix + patientID }

// Put 覆盖写入
func (s *VitalsStore) Put(ctx context.Context, v *models.StandardVitals) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}
	return s.kv.Set(ctx, vitalsKey(v.PatientID), string(raw), 0)
}

// Latest 未写入过返回 ErrMiss
func (s *VitalsStore) Latest(ctx context.Context, patientID string) (*models.StandardVitals, error) {
	raw, err := s.kv.Get(ctx, vitalsKey(patientID))
	if err != nil {
		return nil, err
	}
	var v models.StandardVitals
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("unmarshal vitals %s: %w", patientID, err)
	}
	return &v, nil
}

// PatientIDs 有实时数据的患者
func (s *VitalsStore) PatientIDs(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ScanKeys(ctx, vitalsKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(vitalsKeyPrefix):])
	}
	return ids, nil
}
