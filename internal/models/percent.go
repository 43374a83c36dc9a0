package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Percent is a derived percentage. Valid is false when the group total was zero,
// in which case it renders as "0%" without decimals.
type Percent struct {
	Value float64
	Valid bool
}

// NewPercent wraps a computed value.
func NewPercent(v float64) Percent {
	return Percent{Value: v, Valid: true}
}

func (p Percent) String() string {
	if !p.Valid {
		return "0%"
	}
	return FormatPercent(p.Value)
}

// FormatPercent renders v with two decimals, a comma decimal separator and a "%" suffix.
// The output never depends on the process locale.
func FormatPercent(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return strings.Replace(strconv.FormatFloat(rounded, 'f', 2, 64), ".", ",", 1) + "%"
}

// ParsePercent is the inverse of FormatPercent. It also accepts "0%" and a dot separator.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	return v, nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "0%" {
		*p = Percent{}
		return nil
	}
	v, err := ParsePercent(s)
	if err != nil {
		return err
	}
	*p = NewPercent(v)
	return nil
}
