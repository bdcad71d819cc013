package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/vitals"
)

// ContentType xlsx 响应头
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheet 一个工作表：表头 + 行
type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// PatientHeader 医院患者名册表头
var PatientHeader = []string{
	"Patient Code", "First Name", "Last Name", "Date of Birth", "Gender",
	"Room", "Bed", "Department ID", "Urgency", "Admission Date", "Discharge Date", "Active",
}

// RosterHeader 实时 roster 表头
var RosterHeader = []string{
	"Patient ID", "Name", "Room", "Bed",
	vitals.NameHR, vitals.NameRR, vitals.NameSpO2, vitals.NameSBP, vitals.NameDBP,
	"Alarms", "Risk %",
}

// InventoryHeader 监护仪清单表头
var InventoryHeader = []string{"Device ID", "Room", "Bed", "Type", "Status"}

// PatientRoster 医院患者名册
func PatientRoster(hospitalName string, patients []*domain.Patient) ([]byte, error) {
	rows := make([][]any, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []any{
			p.PatientCode, p.FirstName, p.LastName, dateOrEmpty(p.DateOfBirth), deref(p.Gender),
			deref(p.RoomNumber), deref(p.BedNumber), int64OrEmpty(p.DepartmentID), deref(p.Urgency),
			dateOrEmpty(p.AdmissionDate), dateOrEmpty(p.DischargeDate), yesNo(p.IsActive),
		})
	}
	name := "Patients"
	if hospitalName != "" {
		name = sheetName(hospitalName)
	}
	return build(sheet{
		name:    name,
		headers: PatientHeader,
		widths:  []float64{14, 16, 16, 14, 10, 10, 10, 14, 12, 20, 20, 8},
		rows:    rows,
	})
}

// LiveRoster 当前 /ws 推送的 roster
func LiveRoster(roster []models.RosterPatient) ([]byte, error) {
	rows := make([][]any, 0, len(roster))
	for _, p := range roster {
		alarms := make([]string, 0, len(p.Alarms))
		for _, a := range p.Alarms {
			alarms = append(alarms, a.Vital+" "+a.Value)
		}
		risk := ""
		if p.AIPrediction != nil && p.AIPrediction.Error == "" {
			risk = vitals.FormatValue(p.AIPrediction.RiskScorePercent)
		}
		rows = append(rows, []any{
			p.PatientID, p.Name, p.Room, p.Bed,
			vital(p, vitals.NameHR), vital(p, vitals.NameRR), vital(p, vitals.NameSpO2),
			vital(p, vitals.NameSBP), vital(p, vitals.NameDBP),
			strings.Join(alarms, "; "), risk,
		})
	}
	return build(sheet{
		name:    "Roster",
		headers: RosterHeader,
		widths:  []float64{12, 22, 10, 10, 8, 8, 8, 8, 8, 36, 10},
		rows:    rows,
	})
}

// Inventory 库存汇总 + 监护仪清单，assigned 为已绑定设备
func Inventory(inv models.MonitorInventory, catalog []models.CatalogMonitor, assigned map[string]bool) ([]byte, error) {
	summary := sheet{
		name:    "Summary",
		headers: []string{"Metric", "Count"},
		widths:  []float64{20, 10},
		rows: [][]any{
			{"Total Monitors", inv.TotalMonitors},
			{"Active Assigned", inv.ActiveAssigned},
			{"Free Available", inv.FreeAvailable},
			{"Maintenance", inv.Maintenance},
			{"Critical", inv.Critical},
		},
	}
	monitors := sheet{
		name:    "Monitors",
		headers: InventoryHeader,
		widths:  []float64{28, 10, 10, 12, 12},
	}
	for _, m := range catalog {
		status := "available"
		if assigned[m.DeviceID] {
			status = "assigned"
		}
		monitors.rows = append(monitors.rows, []any{m.DeviceID, m.Room, m.Bed, m.Type, status})
	}
	return build(summary, monitors)
}

// build 生成工作簿；第一个 sheet 为活动表，默认 Sheet1 删除
func build(sheets ...sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		index, err := f.NewSheet(s.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	for col, header := range s.headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(s.name, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(s.widths) {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(s.name, name, name, s.widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for r, row := range s.rows {
		for c, v := range row {
			if v == nil || v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(s.name, cell, v); err != nil {
				return fmt.Errorf("failed to set cell value at row %d, col %d: %w", r+2, c+1, err)
			}
		}
	}
	return nil
}

// sheetName Excel 表名最长 31 字符，不允许 : \ / ? * [ ]
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, s)
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}

func vital(p models.RosterPatient, name string) string {
	v, ok := p.Vitals[name]
	if !ok || v.Value == nil {
		return ""
	}
	return *v.Value
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64OrEmpty(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func dateOrEmpty(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
