package restoreplanhandler

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Kargones/backupchain/internal/entity/backupchain"
	"github.com/Kargones/backupchain/internal/pkg/output"
)

// PlanData — результат команды nr-restore-plan.
type PlanData struct {
	// RestoreTime — целевой момент; nil — последнее состояние.
	RestoreTime *time.Time `json:"restore_time,omitempty"`
	// Source — источник истории: mssql или file.
	Source string `json:"source"`
	// Records — сколько записей истории получено.
	Records  int            `json:"records"`
	Plans    []DatabasePlan `json:"plans"`
	Failures []Failure      `json:"failures,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// DatabasePlan — план восстановления одной базы.
type DatabasePlan struct {
	Database  string               `json:"database"`
	Continued bool                 `json:"continued,omitempty"`
	Truncated bool                 `json:"truncated,omitempty"`
	Baseline  backupchain.Baseline `json:"baseline"`
	Steps     []Step               `json:"steps"`
}

// Step — один бэкап в порядке применения.
type Step struct {
	Order       int             `json:"order"`
	Type        string          `json:"type"`
	BackupSetID string          `json:"backup_set_id"`
	Files       []string        `json:"files"`
	Position    int             `json:"position,omitempty"`
	FirstLSN    backupchain.LSN `json:"first_lsn"`
	LastLSN     backupchain.LSN `json:"last_lsn"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	SizeBytes   int64           `json:"size_bytes,omitempty"`
}

// Failure — база, для которой план не построен.
type Failure struct {
	Database string `json:"database"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func newPlanData(res *backupchain.Result, opts backupchain.Options, source string, records int) *PlanData {
	data := &PlanData{
		Source:   source,
		Records:  records,
		Plans:    make([]DatabasePlan, 0, len(res.Plans)),
		Warnings: res.Warnings,
	}
	if !opts.RestoreTime.IsZero() {
		t := opts.RestoreTime
		data.RestoreTime = &t
	}
	for _, name := range res.Databases() {
		data.Plans = append(data.Plans, newDatabasePlan(res.Plans[name]))
	}
	for _, f := range res.Failures {
		failure := Failure{Database: f.Database, Code: f.Code()}
		if f.Err != nil {
			failure.Message = f.Err.Message
		}
		data.Failures = append(data.Failures, failure)
	}
	return data
}

func newDatabasePlan(p *backupchain.Plan) DatabasePlan {
	records := p.Records()
	dp := DatabasePlan{
		Database:  p.Database,
		Continued: p.Continued,
		Truncated: p.Truncated,
		Baseline:  p.Baseline,
		Steps:     make([]Step, 0, len(records)),
	}
	for i, r := range records {
		dp.Steps = append(dp.Steps, Step{
			Order:       i + 1,
			Type:        r.Type.String(),
			BackupSetID: r.BackupSetID,
			Files:       r.FullName,
			Position:    r.Position,
			FirstLSN:    r.FirstLSN,
			LastLSN:     r.LastLSN,
			Start:       r.Start,
			End:         r.End,
			SizeBytes:   r.SizeBytes,
		})
	}
	return dp
}

// StepCount возвращает общее число бэкапов во всех планах.
func (d *PlanData) StepCount() int {
	n := 0
	for _, p := range d.Plans {
		n += len(p.Steps)
	}
	return n
}

var stepLabels = map[string]string{
	"Full":         "FULL",
	"Differential": "DIFF",
	"Log":          "LOG ",
}

// WriteText выводит планы в человекочитаемом виде.
func (d *PlanData) WriteText(w io.Writer) error {
	target := "последнее состояние"
	if d.RestoreTime != nil {
		target = d.RestoreTime.Format(time.RFC3339)
	}
	if _, err := fmt.Fprintf(w, "\n=== ПЛАН ВОССТАНОВЛЕНИЯ ===\nЦелевой момент: %s\nИсточник: %s, записей: %d\n",
		target, d.Source, d.Records); err != nil {
		return err
	}

	for _, p := range d.Plans {
		if err := p.writeText(w); err != nil {
			return err
		}
	}

	if len(d.Failures) > 0 {
		if _, err := fmt.Fprintln(w, "\nБез плана:"); err != nil {
			return err
		}
		for _, f := range d.Failures {
			if _, err := fmt.Fprintf(w, "  ❌ %s [%s] %s\n",
				output.SanitizeValue(f.Database), f.Code, output.SanitizeValue(f.Message)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, "=== КОНЕЦ ПЛАНА ===")
	return err
}

func (p DatabasePlan) writeText(w io.Writer) error {
	var flags []string
	if p.Continued {
		flags = append(flags, "продолжение")
	}
	if p.Truncated {
		flags = append(flags, "⚠️ цепочка журналов прервана")
	}
	header := output.SanitizeValue(p.Database)
	if len(flags) > 0 {
		header += " (" + strings.Join(flags, ", ") + ")"
	}
	if _, err := fmt.Fprintf(w, "\n%s\n  основание: %s, LSN %s\n", header, p.Baseline.Source, p.Baseline.LSN); err != nil {
		return err
	}
	for _, s := range p.Steps {
		files := make([]string, len(s.Files))
		for i, f := range s.Files {
			files[i] = output.SanitizeValue(f)
		}
		if _, err := fmt.Fprintf(w, "  %d. %s %s..%s  %s\n",
			s.Order, stepLabels[s.Type], s.FirstLSN, s.LastLSN, strings.Join(files, ", ")); err != nil {
			return err
		}
	}
	return nil
}
