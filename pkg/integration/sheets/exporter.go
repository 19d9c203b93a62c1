package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/job-pilot/pkg/export"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// ValuesAPI is the part of Client the exporter uses. *Client implements it.
type ValuesAPI interface {
	UpdateValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
	ClearValues(ctx context.Context, spreadsheetID, range_ string) error
}

// Exporter replaces the contents of one tab with the tracker rows.
type Exporter struct {
	api           ValuesAPI
	spreadsheetID string
	tab           string
}

func NewExporter(api ValuesAPI, spreadsheetID, tab string) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet ID is required")
	}
	if tab == "" {
		tab = "Applications"
	}
	return &Exporter{api: api, spreadsheetID: spreadsheetID, tab: tab}, nil
}

// Export clears the tab and writes the header plus every record. Hidden
// records are included only when includeHidden is set. It returns the
// number of records written.
func (e *Exporter) Export(ctx context.Context, apps []tracker.Application, includeHidden bool) (int, error) {
	rows := export.Rows(apps, includeHidden)
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		row := make([]interface{}, len(r))
		for j, v := range r {
			row[j] = v
		}
		values[i] = row
	}

	if err := e.api.ClearValues(ctx, e.spreadsheetID, quote(e.tab)); err != nil {
		return 0, fmt.Errorf("sheets: failed to clear %s: %w", e.tab, err)
	}
	if err := e.api.UpdateValues(ctx, e.spreadsheetID, quote(e.tab)+"!A1", values); err != nil {
		return 0, fmt.Errorf("sheets: failed to write %s: %w", e.tab, err)
	}
	return len(values) - 1, nil
}

// quote wraps a tab name for A1 notation.
func quote(tab string) string {
	return "'" + tab + "'"
}
