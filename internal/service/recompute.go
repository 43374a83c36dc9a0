package service

import "cruce-web/internal/models"

// Recompute regroups the given rows by item code and derives the grouped initial quantity
// and both percentages from scratch. Any prior value of those fields is ignored, so the result
// always reflects exactly the rows passed in. The input is not modified.
func Recompute(table models.ResultTable) models.ResultTable {
	if table == nil {
		return nil
	}

	totals := make(map[string]float64, len(table))
	for _, row := range table {
		totals[row.ItemCode] += row.InitialQty
	}

	out := table.Clone()
	for i := range out {
		grouped := totals[out[i].ItemCode]
		out[i].GroupedInitial = grouped
		if grouped == 0 {
			out[i].Remaining = models.Percent{}
			out[i].Sold = models.Percent{}
			continue
		}
		remaining := out[i].CurrentStock * 100 / grouped
		out[i].Remaining = models.NewPercent(remaining)
		out[i].Sold = models.NewPercent(100 - remaining)
	}
	return out
}

// RecomputeRecords coerces raw driver records and recomputes them.
func RecomputeRecords(records []models.Record) models.ResultTable {
	return Recompute(models.TableFromRecords(records))
}
