package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used on the wire and in SQL arguments.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as a calendar date.
var ErrInvalidDate = errors.New("invalid date; expected YYYY-MM-DD")

// Date is a calendar date without a time of day. The zero Date encodes as null.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC date.
func Today() Date {
	return NewDate(time.Now().UTC())
}

// dateTimeLayouts are the timestamp forms accepted for DATE fields. Zoned
// values keep their local calendar day; zoneless ones are read as written.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate reads YYYY-MM-DD. DATETIME-style timestamps, with or without a
// zone or fractional seconds, are accepted and truncated to their date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String returns YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	unq, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(unq)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Arg returns the value bound to a DATE placeholder: the formatted date, or nil.
func (d Date) Arg() any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
