package playback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// TargetPatients 回放的 16 位患者，推送顺序与此一致
var TargetPatients = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16"}

// PatientNames 回放患者显示名
var PatientNames = map[string]string{
	"1":  "J. Sonib",
	"2":  "A. Patel",
	"3":  "M. Dash",
	"4":  "S. Choudhury",
	"5":  "K. Chauhan",
	"6":  "T. Sachdev",
	"7":  "P. Singh",
	"8":  "R. Sharma",
	"9":  "H. Mehta",
	"10": "N. Khan",
	"11": "C. Shekhar",
	"12": "A. Das",
	"13": "E. Kumar",
	"14": "B. Verma",
	"15": "S. Pattnaik",
	"16": "T. Srivastava",
}

var (
	// ErrNoPatientColumn CSV 缺少 patientid 列
	ErrNoPatientColumn = errors.New("critical column 'patientid' not found in CSV")
	// ErrNoTargetRows 目标患者无数据
	ErrNoTargetRows = errors.New("no data found for target patients")
	// ErrBadWindow 窗口号为 NaN、Inf 或超出 int32
	ErrBadWindow = errors.New("window is not a finite integer")

	digits = regexp.MustCompile(`\d+`)
)

// NameFor 显示名，未知 id 为 "Patient <id>"
func NameFor(id string) string {
	if n, ok := PatientNames[id]; ok {
		return n
	}
	return "Patient " + id
}

// RoomFor 房间号 10<末位>-A
func RoomFor(id string) string {
	if id == "" {
		return "Unknown"
	}
	return "10" + id[len(id)-1:] + "-A"
}

// Dataset 按 window 分组的回放数据
type Dataset struct {
	byWindow  map[int][]map[string]string
	maxWindow int
	rows      int
}

// MaxWindow 最大 window
func (d *Dataset) MaxWindow() int { return d.maxWindow }

// Rows 过滤后的行数
func (d *Dataset) Rows() int { return d.rows }

// Empty 是否无数据
func (d *Dataset) Empty() bool { return d == nil || d.rows == 0 }

// Row 某 window 某患者的第一行
func (d *Dataset) Row(window int, patientID string) (map[string]string, bool) {
	for _, r := range d.byWindow[window] {
		if r["patientid"] == patientID {
			return r, true
		}
	}
	return nil, false
}

// LoadFile 从文件加载
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playback csv: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load 解析 CSV：列名规范化为小写下划线，patientid 归一为数字串，只保留目标患者
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make([]string, len(header))
	pidIdx := -1
	for i, c := range header {
		cols[i] = NormalizeColumn(c)
		if cols[i] == "patientid" {
			pidIdx = i
		}
	}
	if pidIdx < 0 {
		return nil, ErrNoPatientColumn
	}

	targets := make(map[string]bool, len(TargetPatients))
	for _, id := range TargetPatients {
		targets[id] = true
	}

	ds := &Dataset{byWindow: map[int][]map[string]string{}}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				row[c] = rec[i]
			}
		}

		pid, ok := NormalizePatientID(row["patientid"])
		if !ok || !targets[pid] {
			continue
		}
		row["patientid"] = pid

		window, err := parseWindow(row["window"])
		if err != nil {
			return nil, fmt.Errorf("invalid window %q for patient %s: %w", row["window"], pid, err)
		}
		ds.byWindow[window] = append(ds.byWindow[window], row)
		if ds.rows == 0 || window > ds.maxWindow {
			ds.maxWindow = window
		}
		ds.rows++
	}

	if ds.rows == 0 {
		return nil, ErrNoTargetRows
	}
	return ds, nil
}

// NormalizeColumn " HR Mean " -> "hr_mean"
func NormalizeColumn(c string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(c), " ", "_"))
}

// NormalizePatientID 取第一段数字并去掉前导 0："P010" -> "10"
func NormalizePatientID(raw string) (string, bool) {
	m := digits.FindString(raw)
	if m == "" {
		return "", false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

func parseWindow(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, ErrBadWindow
	}
	return int(f), nil
}
