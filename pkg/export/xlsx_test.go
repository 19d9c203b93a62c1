package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mklimuk/job-pilot/pkg/tracker"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleApps() []tracker.Application {
	return []tracker.Application{
		{Company: "Acme", Position: "SRE", Status: tracker.StatusApplied, NextFollowUpDate: "2026-03-12", Priority: tracker.PriorityHigh},
		{Company: "Globex", Position: "Dev", Status: tracker.StatusNotApplied},
		{Company: "Initech", Position: "Ops", Status: tracker.StatusRejected, Hidden: true, HideReason: "Low Compensation"},
		{Company: "Hooli", Position: "PM", Status: tracker.StatusPhoneScreenScheduled, NextFollowUpDate: "2026-03-05"},
	}
}

func TestRowsSkipHidden(t *testing.T) {
	rows := Rows(sampleApps(), false)
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Company" || rows[1][0] != "Acme" || rows[3][0] != "Hooli" {
		t.Errorf("unexpected rows %v", rows)
	}
	if len(Rows(sampleApps(), true)) != 5 {
		t.Error("include hidden should export every record")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleApps(), Options{Now: now, HorizonDays: 7}); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 3 || got[0] != SheetApplications {
		t.Errorf("sheets = %v", got)
	}

	rows, err := f.GetRows(SheetApplications)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][len(tracker.Header())-1] != "Hide Reason" {
		t.Errorf("applications sheet = %v", rows)
	}
	if rows[1][0] != "Acme" || rows[1][5] != "Applied" {
		t.Errorf("first record = %v", rows[1])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatal(err)
	}
	if summary[1][0] != "Total" || summary[1][1] != "3" {
		t.Errorf("summary = %v", summary[:3])
	}

	follow, err := f.GetRows(SheetFollowUps)
	if err != nil {
		t.Fatal(err)
	}
	if len(follow) != 3 || follow[1][0] != "Hooli" || follow[2][0] != "Acme" || follow[2][4] != "2" {
		t.Errorf("follow-ups = %v", follow)
	}
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.xlsx")
	if err := SaveXLSX(path, sampleApps(), Options{Now: now}); err != nil {
		t.Fatalf("SaveXLSX: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	v, err := f.GetCellValue(SheetApplications, "A2")
	if err != nil || v != "Acme" {
		t.Errorf("A2 = %q, %v", v, err)
	}
}
