package feed

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrInvalidNote 笔记校验失败
var ErrInvalidNote = errors.New("invalid note")

const (
	minDoctorNameLen = 2
	minNoteLen       = 10
)

// Note 医生对患者的临床笔记（仅本地保存）
type Note struct {
	ID         string    `json:"id" yaml:"id"`
	PatientID  string    `json:"patient_id" yaml:"patient_id"`
	DoctorName string    `json:"doctor_name" yaml:"doctor_name"`
	Note       string    `json:"note" yaml:"note"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// NoteBook 笔记列表，新笔记在前
type NoteBook struct {
	mu    sync.RWMutex
	notes []Note
	now   func() time.Time
}

func NewNoteBook(initial ...Note) *NoteBook {
	return &NoteBook{notes: append([]Note(nil), initial...), now: time.Now}
}

// Add 校验后插入到最前；id 为 note-<毫秒时间戳>
func (b *NoteBook) Add(patientID, doctorName, text string) (Note, error) {
	if patientID == "" {
		return Note{}, fmt.Errorf("%w: no patient selected", ErrInvalidNote)
	}
	if utf8.RuneCountInString(doctorName) < minDoctorNameLen {
		return Note{}, fmt.Errorf("%w: Name must be at least %d characters.", ErrInvalidNote, minDoctorNameLen)
	}
	if utf8.RuneCountInString(text) < minNoteLen {
		return Note{}, fmt.Errorf("%w: Note must be at least %d characters.", ErrInvalidNote, minNoteLen)
	}
	now := b.now()
	n := Note{
		ID:         fmt.Sprintf("note-%d", now.UnixMilli()),
		PatientID:  patientID,
		DoctorName: doctorName,
		Note:       text,
		Timestamp:  now,
	}
	b.mu.Lock()
	b.notes = append([]Note{n}, b.notes...)
	b.mu.Unlock()
	return n, nil
}

// ForPatient 某患者的笔记，新的在前
func (b *NoteBook) ForPatient(patientID string) []Note {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Note
	for _, n := range b.notes {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	return out
}

// All 全部笔记副本
func (b *NoteBook) All() []Note {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Note(nil), b.notes...)
}
