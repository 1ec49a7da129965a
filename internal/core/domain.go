package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date layout used for storage, JSON and user input.
const DateLayout = "2006-01-02"

// MaxActivityLength bounds the activity label.
const MaxActivityLength = 200

type (
	// Date is a calendar date without time of day, always normalised to UTC midnight.
	Date struct {
		time.Time
	}

	// ActivityRecord is one logged activity.
	ActivityRecord struct {
		ID              int64  `json:"id"`
		Date            Date   `json:"date"`
		Activity        string `json:"activity"`
		DurationMinutes int    `json:"duration_minutes"`
		Notes           string `json:"notes,omitempty"`
	}
)

// Error categories. Concrete errors wrap one of these so callers can use errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

var (
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyActivity    = fmt.Errorf("%w: empty activity name", ErrValidation)
	ErrActivityTooLong  = fmt.Errorf("%w: activity name too long (max %d characters)", ErrValidation, MaxActivityLength)
	ErrNegativeDuration = fmt.Errorf("%w: negative duration", ErrValidation)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the number of calendar days from o to d.
func (d Date) DaysSince(o Date) int {
	return int(d.Time.Sub(o.Time) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Within reports whether d falls in the inclusive range [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (r ActivityRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(r.Activity)
	if name == "" {
		return ErrEmptyActivity
	}
	if len(name) > MaxActivityLength {
		return ErrActivityTooLong
	}
	if r.DurationMinutes < 0 {
		return ErrNegativeDuration
	}
	return nil
}
