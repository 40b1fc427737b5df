package collect

import (
	"fmt"

	"benritz/bondmetrics/internal/types"
)

// Entry is one bond waiting to be computed. Line is the 1-based position in
// its source (workbook row, table row, queue message).
type Entry struct {
	ID     string
	Source string
	Line   int
	Params types.BondParams
	Err    error
}

func (e Entry) Label() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s:%d", e.Source, e.Line)
}

// ComputeAll runs the metrics engine over every valid entry, keeping input
// order. Entries that carry an error, or whose params fail validation, are
// returned as failures.
func ComputeAll(entries []Entry) ([]types.MetricsRecord, []Entry) {
	records := make([]types.MetricsRecord, 0, len(entries))
	var failures []Entry

	for _, e := range entries {
		if e.Err == nil {
			e.Err = e.Params.Validate()
		}

		if e.Err != nil {
			failures = append(failures, e)
			continue
		}

		m := types.ComputeMetrics(e.Params)
		records = append(records, types.NewMetricsRecord(e.Label(), e.Source, e.Params, m))
	}

	return records, failures
}
