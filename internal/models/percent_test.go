package models

import (
	"encoding/json"
	"testing"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50, "50,00%"},
		{33.33333, "33,33%"},
		{66.666666, "66,67%"},
		{0, "0,00%"},
		{-0.001, "0,00%"},
		{-12.5, "-12,50%"},
		{1234.5, "1234,50%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestPercentString(t *testing.T) {
	if got := (Percent{}).String(); got != "0%" {
		t.Errorf("expected %q, got %q", "0%", got)
	}
	if got := NewPercent(0).String(); got != "0,00%" {
		t.Errorf("expected %q, got %q", "0,00%", got)
	}
}

func TestPercentJSON(t *testing.T) {
	row := struct {
		Queda   Percent `json:"Queda"`
		Vendido Percent `json:"Vendido"`
	}{Queda: NewPercent(12.346), Vendido: Percent{}}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"Queda":"12,35%","Vendido":"0%"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back struct {
		Queda   Percent `json:"Queda"`
		Vendido Percent `json:"Vendido"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Queda.Valid || back.Queda.Value != 12.35 {
		t.Errorf("expected 12.35, got %+v", back.Queda)
	}
	if back.Vendido.Valid {
		t.Errorf("expected invalid percent for 0%%, got %+v", back.Vendido)
	}
}

func TestParsePercentRejectsGarbage(t *testing.T) {
	if _, err := ParsePercent("abc%"); err == nil {
		t.Error("expected error")
	}
}
