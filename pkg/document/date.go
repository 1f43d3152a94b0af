package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. A nil *Date encodes as null.
type Date struct {
	time.Time
}

// NewDate returns the date for year, month, day in UTC.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s in DateLayout.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("document: parse date %q: %w", s, err)
	}
	return &Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD". A nil *Date field is
// written as null by encoding/json without reaching this method.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("document: date must be a string: %w", err)
	}
	parsed, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// UnmarshalYAML accepts "YYYY-MM-DD" scalars.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return nil
	}
	parsed, err := ParseDate(strings.TrimSpace(node.Value))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
