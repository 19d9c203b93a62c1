package tracker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

type column struct {
	name     string
	required bool
	get      func(*Application) string
	set      func(*Application, string)
}

// columns is the on-disk layout, in header order.
var columns = []column{
	{"Company", true, func(a *Application) string { return a.Company }, func(a *Application, v string) { a.Company = v }},
	{"Position", true, func(a *Application) string { return a.Position }, func(a *Application, v string) { a.Position = v }},
	{"Location", true, func(a *Application) string { return a.Location }, func(a *Application, v string) { a.Location = v }},
	{"Salary (Base)", true, func(a *Application) string { return a.SalaryBase }, func(a *Application, v string) { a.SalaryBase = v }},
	{"Total Comp Est.", true, func(a *Application) string { return a.TotalComp }, func(a *Application, v string) { a.TotalComp = v }},
	{"Status", true, func(a *Application) string { return string(a.Status) }, func(a *Application, v string) { a.Status = Status(v) }},
	{"Applied Date", true, func(a *Application) string { return a.AppliedDate }, func(a *Application, v string) { a.AppliedDate = v }},
	{"Job URL", true, func(a *Application) string { return a.JobURL }, func(a *Application, v string) { a.JobURL = v }},
	{"Contact Name", true, func(a *Application) string { return a.ContactName }, func(a *Application, v string) { a.ContactName = v }},
	{"Contact Email", true, func(a *Application) string { return a.ContactEmail }, func(a *Application, v string) { a.ContactEmail = v }},
	{"Contact Phone", true, func(a *Application) string { return a.ContactPhone }, func(a *Application, v string) { a.ContactPhone = v }},
	{"Last Contact Date", true, func(a *Application) string { return a.LastContactDate }, func(a *Application, v string) { a.LastContactDate = v }},
	{"Next Follow-Up", true, func(a *Application) string { return a.NextFollowUpDate }, func(a *Application, v string) { a.NextFollowUpDate = v }},
	{"Interview Stage", true, func(a *Application) string { return a.InterviewStage }, func(a *Application, v string) { a.InterviewStage = v }},
	{"Notes", true, func(a *Application) string { return a.Notes }, func(a *Application, v string) { a.Notes = v }},
	{"Priority", true, func(a *Application) string { return string(a.Priority) }, func(a *Application, v string) { a.Priority = Priority(v) }},
	{"Hidden", true, func(a *Application) string { return formatHidden(a.Hidden) }, func(a *Application, v string) { a.Hidden = parseHidden(v) }},
	{"Hide Reason", false, func(a *Application) string { return a.HideReason }, func(a *Application, v string) { a.HideReason = v }},
}

// Header returns the column names written to the tracker file.
func Header() []string {
	h := make([]string, len(columns))
	for i, c := range columns {
		h[i] = c.name
	}
	return h
}

// Row returns the values of a in header order.
func Row(a Application) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = c.get(&a)
	}
	return row
}

func parseHidden(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

func formatHidden(h bool) string {
	if h {
		return "yes"
	}
	return ""
}

// Decode reads a tracker file. Columns are matched by header name, so
// reordered files load; unknown columns are ignored.
func Decode(r io.Reader) ([]Application, error) {
	apps, _, err := decode(r)
	return apps, err
}

// decode also returns the header names that match no tracker column. Those
// columns are not written back by Encode.
func decode(r io.Reader) ([]Application, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &ValidationError{Field: "header", Line: 1, Msg: "file is empty"}
	}
	if err != nil {
		return nil, nil, csvError(err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	var unknown []string
	for name := range index {
		if name != "" && !slices.ContainsFunc(columns, func(c column) bool { return c.name == name }) {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)

	var missing []string
	for _, c := range columns {
		if _, ok := index[c.name]; !ok && c.required {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Field: "header", Line: 1, Msg: "missing columns " + strings.Join(missing, ", ")}
	}

	var apps []Application
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		if blank(row) {
			continue
		}
		if len(row) < len(header) {
			return nil, nil, &ValidationError{
				Field: "row",
				Line:  line,
				Msg:   fmt.Sprintf("has %d fields, header has %d", len(row), len(header)),
			}
		}

		var a Application
		for _, c := range columns {
			if i, ok := index[c.name]; ok {
				c.set(&a, row[i])
			}
		}
		if strings.TrimSpace(a.Company) == "" {
			return nil, nil, &ValidationError{Field: "Company", Line: line, Msg: "is empty"}
		}
		apps = append(apps, a)
	}
	return apps, unknown, nil
}

// Encode writes the header followed by apps.
func Encode(w io.Writer, apps []Application) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, a := range apps {
		if err := cw.Write(Row(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ValidationError{Field: "row", Line: pe.Line, Msg: pe.Err.Error()}
	}
	return err
}
