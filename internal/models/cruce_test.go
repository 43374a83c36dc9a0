package models

import (
	"errors"
	"reflect"
	"testing"
)

func TestDateOptionStartDate(t *testing.T) {
	if got, _ := DateFrom2023.StartDate(); got != "2023-01-01" {
		t.Errorf("expected 2023-01-01, got %q", got)
	}
	if got, _ := DateFrom2024.StartDate(); got != "2024-01-01" {
		t.Errorf("expected 2024-01-01, got %q", got)
	}

	_, err := DateOption(7).StartDate()
	var fErr *FilterValidationError
	if !errors.As(err, &fErr) {
		t.Fatalf("expected FilterValidationError, got %v", err)
	}
	if fErr.Field != "fecha_option" {
		t.Errorf("expected field fecha_option, got %q", fErr.Field)
	}
}

func TestExcludedCodes(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{",", nil},
		{" , ", nil},
		{"a1", []string{"A1"}},
		{" a1 ,, b2 ,", []string{"A1", "B2"}},
	}
	for _, tt := range tests {
		got := QueryFilterSet{ExcludeReceiving: tt.raw}.ExcludedCodes()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.raw, tt.want, got)
		}
	}
}

func TestNormalizedDefaults(t *testing.T) {
	f := QueryFilterSet{Category: "  BEBIDAS ", ItemCode: " "}.Normalized()
	if f.Category != "BEBIDAS" || f.ItemCode != "" {
		t.Errorf("expected trimmed fields, got %+v", f)
	}
	if f.DateOption != DefaultDateOption {
		t.Errorf("expected default date option, got %d", f.DateOption)
	}
}

func TestResultRowValuesOrder(t *testing.T) {
	row := ResultRow{ItemCode: "A1", Remaining: NewPercent(50), Sold: Percent{}}
	values := row.Values()
	if len(values) != len(ReportColumns) {
		t.Fatalf("expected %d values, got %d", len(ReportColumns), len(values))
	}
	if values[0] != "A1" {
		t.Errorf("expected item code first, got %v", values[0])
	}
	if values[len(values)-2] != "50,00%" || values[len(values)-1] != "0%" {
		t.Errorf("expected formatted percentages last, got %v %v", values[len(values)-2], values[len(values)-1])
	}
}
