package google

import (
	"strconv"

	"tempo/internal/core"
	"tempo/internal/export"
)

// toValues converts records into the values matrix sent to the Sheets API.
// Durations go out as numbers so the sheet can sum them.
func toValues(records []core.ActivityRecord) [][]any {
	rows := export.Rows(records)
	out := make([][]any, 0, len(rows)+1)
	out = append(out, toAny(export.Header))
	for _, row := range rows {
		vals := toAny(row)
		if n, err := strconv.Atoi(row[2]); err == nil {
			vals[2] = n
		}
		out = append(out, vals)
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
