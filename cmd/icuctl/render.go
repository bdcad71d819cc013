package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"icu-monitor/internal/feed"
	"icu-monitor/internal/models"
	"icu-monitor/internal/vitals"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	statusStyle = map[string]lipgloss.Style{
		models.VitalCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		models.VitalWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"normal":             lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

// watchView 一帧的展示数据
type watchView struct {
	Roster    []models.RosterPatient
	Alarms    []feed.Alarm
	Focus     int
	Visible   []int
	Locked    bool
	Connected bool
}

func styled(status, text string) string {
	if s, ok := statusStyle[status]; ok {
		return s.Render(text)
	}
	return text
}

func vitalCell(p models.RosterPatient, name string) string {
	v := feed.Lookup(p, name)
	return styled(feed.VitalStatus(v), feed.FormatVital(v))
}

// renderWatch 焦点患者详情 + 分页列表 + 报警
func renderWatch(w io.Writer, v watchView) {
	state := "connected"
	if !v.Connected {
		state = "disconnected"
	}
	if v.Locked {
		state += ", focus locked"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("ICU roster: %d patients, %d alarms", len(v.Roster), len(v.Alarms)))+
		" "+labelStyle.Render("("+state+")"))

	if len(v.Roster) == 0 {
		fmt.Fprintln(w, labelStyle.Render("no patients"))
		return
	}

	if v.Focus >= 0 && v.Focus < len(v.Roster) {
		p := v.Roster[v.Focus]
		fmt.Fprintln(w, focusStyle.Render(fmt.Sprintf("▶ %s  %s", p.Name, p.Room)))
		fmt.Fprintf(w, "  HR %s  SpO₂ %s  BP %s  RR %s  risk %s\n",
			vitalCell(p, vitals.NameHR),
			vitalCell(p, vitals.NameSpO2),
			styled(feed.BPStatus(p.Vitals), feed.FormatBP(p.Vitals)),
			vitalCell(p, vitals.NameRR),
			riskCell(p.AIPrediction),
		)
	}

	fmt.Fprintln(w)
	for _, i := range v.Visible {
		if i < 0 || i >= len(v.Roster) {
			continue
		}
		p := v.Roster[i]
		marker := " "
		if i == v.Focus {
			marker = "▶"
		}
		fmt.Fprintf(w, "%s %-20s %-8s HR %-5s SpO₂ %-5s BP %s\n",
			marker, p.Name, p.Room,
			vitalCell(p, vitals.NameHR),
			vitalCell(p, vitals.NameSpO2),
			styled(feed.BPStatus(p.Vitals), feed.FormatBP(p.Vitals)),
		)
	}

	if len(v.Alarms) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Alarms"))
	for _, a := range v.Alarms {
		fmt.Fprintf(w, "  %s %s (%s): %s\n",
			styled(strings.ToLower(a.Type), a.Type), a.PatientName, a.Room, a.Message)
	}
}

func riskCell(ai *models.AIPrediction) string {
	switch {
	case ai == nil:
		return feed.DisplayMissing
	case ai.Error != "":
		return feed.DisplayNoValue
	case ai.IsAtRisk:
		return styled(models.VitalCritical, fmt.Sprintf("%.1f%%", ai.RiskScorePercent))
	}
	return fmt.Sprintf("%.1f%%", ai.RiskScorePercent)
}

// filterRoster 名字、房间或 id 包含搜索词（不区分大小写）
func filterRoster(roster []models.RosterPatient, term string) []models.RosterPatient {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return roster
	}
	out := make([]models.RosterPatient, 0, len(roster))
	for _, p := range roster {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Room), term) ||
			strings.Contains(p.PatientID, term) {
			out = append(out, p)
		}
	}
	return out
}
