package playback

import (
	"time"

	"icu-monitor/internal/models"
	"icu-monitor/internal/vitals"
)

// TimestampLayout 与推送中 last_update_ts 的格式一致
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Player 逐 window 回放；非并发安全，由广播 goroutine 独占
type Player struct {
	data      *Dataset
	evaluator *vitals.Evaluator
	cache     map[string]models.RosterPatient
	window    int
	now       func() time.Time
}

// NewPlayer 创建回放器
func NewPlayer(data *Dataset, evaluator *vitals.Evaluator) *Player {
	return &Player{
		data:      data,
		evaluator: evaluator,
		cache:     map[string]models.RosterPatient{},
		now:       time.Now,
	}
}

// Window 当前 window
func (p *Player) Window() int { return p.window }

// Next 生成当前 window 的整表并前进一格（超过最大 window 回到 0）
// 数据为空时返回 nil
func (p *Player) Next() []models.RosterPatient {
	if p.data.Empty() {
		return nil
	}
	roster := p.Snapshot(p.window)
	p.window++
	if p.window > p.data.MaxWindow() {
		p.window = 0
	}
	return roster
}

// Snapshot 某 window 的整表：有数据的患者重新判定并缓存；缺席的患者用缓存或占位
func (p *Player) Snapshot(window int) []models.RosterPatient {
	roster := make([]models.RosterPatient, 0, len(TargetPatients))
	for _, id := range TargetPatients {
		row, ok := p.data.Row(window, id)
		if !ok {
			cached, hit := p.cache[id]
			if !hit {
				cached = Placeholder(id)
				p.cache[id] = cached
			}
			roster = append(roster, cached)
			continue
		}

		res := p.evaluator.EvaluateRow(id, row)
		w := window
		ts := p.now().UTC().Format(TimestampLayout)
		patient := models.RosterPatient{
			PatientID:      id,
			Name:           NameFor(id),
			Room:           RoomFor(id),
			Vitals:         res.Vitals,
			Alarms:         res.Alarms,
			AIPrediction:   res.AIPrediction,
			LastSeenWindow: &w,
			LastUpdateTS:   &ts,
		}
		p.cache[id] = patient
		roster = append(roster, patient)
	}
	return roster
}

// Placeholder 从未出现过的患者
func Placeholder(id string) models.RosterPatient {
	empty := func() models.VitalReading { return models.VitalReading{Value: nil, Status: models.VitalStable} }
	return models.RosterPatient{
		PatientID: id,
		Name:      NameFor(id),
		Room:      RoomFor(id),
		Vitals: map[string]models.VitalReading{
			vitals.NameHR:   empty(),
			vitals.NameRR:   empty(),
			vitals.NameSpO2: empty(),
			vitals.NameSBP:  empty(),
			vitals.NameDBP:  empty(),
		},
		Alarms:       []models.AlarmEntry{},
		AIPrediction: &models.AIPrediction{RiskScorePercent: 0, IsAtRisk: false},
	}
}
