package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayouts are tried in order when no layouts are configured
var DefaultDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Excel stores dates as days since 1899-12-30 (with the 1900 leap year bug
// folded into that epoch).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Serial numbers outside this window are treated as plain numbers, not dates.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// DateParser turns cell text into calendar dates
type DateParser struct {
	layouts []string
}

// NewDateParser creates a parser for the given layouts
func NewDateParser(layouts []string) *DateParser {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &DateParser{layouts: layouts}
}

// Parse returns the date at midnight UTC. Excel serial numbers are accepted.
func (p *DateParser) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= minExcelSerial && serial <= maxExcelSerial {
			days := int(math.Floor(serial))
			return excelEpoch.AddDate(0, 0, days), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// Valid reports whether value parses as a date
func (p *DateParser) Valid(value string) bool {
	_, err := p.Parse(value)
	return err == nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
