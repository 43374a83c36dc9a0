package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToFloat coerces a driver value to a number. Missing or non-numeric values become zero.
func ToFloat(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case []byte:
		return parseNumber(string(n))
	case string:
		return parseNumber(n)
	default:
		return parseNumber(fmt.Sprint(n))
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// finite maps NaN and the infinities to zero, like any other non-numeric value.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ToString renders a driver value as text. Dates keep only the calendar day.
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// RowFromRecord maps a raw record onto a ResultRow. Derived fields are left for post-aggregation.
func RowFromRecord(rec Record) ResultRow {
	return ResultRow{
		ItemCode:         ToString(rec[ColItemCode]),
		Reference:        ToString(rec[ColReference]),
		BrandCode:        ToString(rec[ColBrandCode]),
		Brand:            ToString(rec[ColBrand]),
		Name:             ToString(rec[ColName]),
		Manufacturer:     ToString(rec[ColManufacturer]),
		ManufacturerCode: ToString(rec[ColManufacturerCode]),
		CategoryCode:     ToString(rec[ColCategoryCode]),
		Category:         ToString(rec[ColCategory]),
		Line:             ToString(rec[ColLine]),
		InitialQty:       ToFloat(rec[ColInitialQty]),
		CurrentStock:     ToFloat(rec[ColCurrentStock]),
		Correction:       int(ToFloat(rec[ColCorrection])),
		TransferNumber:   ToString(rec[ColTransferNumber]),
		ArrivalDate:      ToString(rec[ColArrivalDate]),
		Note:             ToString(rec[ColNote]),
		ReceivingCode:    ToString(rec[ColReceivingCode]),
	}
}

// TableFromRecords maps every record, preserving order.
func TableFromRecords(records []Record) ResultTable {
	table := make(ResultTable, 0, len(records))
	for _, rec := range records {
		table = append(table, RowFromRecord(rec))
	}
	return table
}

// MissingColumns lists the names in required that are absent from columns.
func MissingColumns(columns, required []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
