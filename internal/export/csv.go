// Package export turns activity records into tabular rows for CSV files and spreadsheets.
package export

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"tempo/internal/core"
)

// Header is the first row of every export.
var Header = []string{"Date", "Activity", "Duration (min)", "Notes"}

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\ufeff"

// Rows returns one row per record, newest date first and newest id first within a day.
// The input slice is not modified.
func Rows(records []core.ActivityRecord) [][]string {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.ActivityRecord) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, []string{r.Date.String(), r.Activity, strconv.Itoa(r.DurationMinutes), r.Notes})
	}
	return rows
}

// WriteCSV writes a BOM, the header and every record to w.
func WriteCSV(w io.Writer, records []core.ActivityRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(Rows(records)); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
