package domain

import (
	"encoding/json"
	"strconv"
)

// NotApplicable is how a percentage without a denominator is rendered
const NotApplicable = "N/A"

// Percentage is a compliance percentage that can be "not applicable".
// A not applicable percentage is distinct from 0%.
type Percentage struct {
	Value      float64
	Applicable bool
}

// Ratio builds a percentage from a numerator and denominator
func Ratio(num, den int) Percentage {
	if den <= 0 {
		return Percentage{}
	}
	return Percentage{Value: 100 * float64(num) / float64(den), Applicable: true}
}

// Format renders the percentage with the given precision, or N/A
func (p Percentage) Format(precision int) string {
	if !p.Applicable {
		return NotApplicable
	}
	return strconv.FormatFloat(p.Value, 'f', precision, 64)
}

// String renders the percentage with two decimals
func (p Percentage) String() string {
	return p.Format(2)
}

// MarshalJSON encodes a not applicable percentage as null
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Applicable {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (p *Percentage) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Percentage{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Percentage{Value: v, Applicable: true}
	return nil
}
