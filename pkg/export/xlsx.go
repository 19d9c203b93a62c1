// Package export writes the tracker to spreadsheet formats.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mklimuk/job-pilot/pkg/query"
	"github.com/mklimuk/job-pilot/pkg/stats"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

const (
	SheetApplications = "Applications"
	SheetSummary      = "Summary"
	SheetFollowUps    = "Follow-ups"
)

// Options control what is exported.
type Options struct {
	IncludeHidden bool
	HorizonDays   int
	Now           time.Time
}

// Rows returns the header followed by one row per exported application, in
// tracker column order.
func Rows(apps []tracker.Application, includeHidden bool) [][]string {
	rows := [][]string{tracker.Header()}
	for _, e := range query.Collect(query.Apply(apps, query.Filter{IncludeHidden: includeHidden})) {
		rows = append(rows, tracker.Row(e.App))
	}
	return rows
}

// WriteXLSX writes a workbook with the applications, a status summary and
// upcoming follow-ups.
func WriteXLSX(w io.Writer, apps []tracker.Application, opts Options) error {
	f, err := build(apps, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, apps []tracker.Application, opts Options) error {
	f, err := build(apps, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(apps []tracker.Application, opts Options) (*excelize.File, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetApplications); err != nil {
		f.Close()
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1A1A2E"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func() error{
		func() error { return writeApplications(f, apps, opts, header) },
		func() error { return writeSummary(f, apps, opts, header) },
		func() error { return writeFollowUps(f, apps, opts, header) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, fmt.Errorf("build workbook: %w", err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeApplications(f *excelize.File, apps []tracker.Application, opts Options, header int) error {
	var rows [][]any
	for _, r := range Rows(apps, opts.IncludeHidden) {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := writeTable(f, SheetApplications, rows, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), len(rows))
	if err != nil {
		return err
	}
	if err := f.AutoFilter(SheetApplications, "A1:"+last, nil); err != nil {
		return err
	}
	return f.SetColWidth(SheetApplications, "A", "B", 24)
}

func writeSummary(f *excelize.File, apps []tracker.Application, opts Options, header int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	s := stats.Compute(apps, stats.Options{IncludeHidden: opts.IncludeHidden})
	rows := [][]any{
		{"Metric", "Value"},
		{"Total", s.Total},
		{"Applied", s.Applied},
		{"Not applied", s.NotApplied},
		{"Interviewing", s.Interviewing},
		{"Offers", s.Offers},
		{"Rejected", s.Rejected},
		{"Hidden", s.Hidden},
		{"Response rate", fmt.Sprintf("%.0f%%", s.ResponseRate*100)},
		{},
		{"Status", "Count"},
	}
	for _, c := range s.ByStatus {
		rows = append(rows, []any{string(c.Status), c.Count})
	}
	if s.Unknown > 0 {
		rows = append(rows, []any{"unknown", s.Unknown})
	}
	if err := writeTable(f, SheetSummary, rows, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 22)
}

func writeFollowUps(f *excelize.File, apps []tracker.Application, opts Options, header int) error {
	if _, err := f.NewSheet(SheetFollowUps); err != nil {
		return err
	}
	rows := [][]any{{"Company", "Position", "Status", "Next Follow-Up", "Days"}}
	for _, fu := range stats.Overdue(apps, opts.Now, opts.IncludeHidden) {
		rows = append(rows, []any{fu.App.Company, fu.App.Position, fu.App.Status.Display(), fu.App.NextFollowUpDate, fu.DaysUntil})
	}
	for _, fu := range stats.Upcoming(apps, opts.Now, opts.HorizonDays, opts.IncludeHidden) {
		rows = append(rows, []any{fu.App.Company, fu.App.Position, fu.App.Status.Display(), fu.App.NextFollowUpDate, fu.DaysUntil})
	}
	return writeTable(f, SheetFollowUps, rows, header)
}
