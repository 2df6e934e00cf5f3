package entity

import (
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	clockTimeLayout = "15:04"
)

// ClockTime is a zero-padded 24h "HH:MM" wall-clock time. Because of the padding,
// plain string comparison orders values chronologically.
type ClockTime string

func ParseClockTime(s string) (ClockTime, error) {
	if len(s) != len(clockTimeLayout) {
		return "", fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}
	if _, err := time.Parse(clockTimeLayout, s); err != nil {
		return "", fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}
	return ClockTime(s), nil
}

func (ct ClockTime) Valid() bool {
	_, err := ParseClockTime(string(ct))
	return err == nil
}

func (ct ClockTime) String() string {
	return string(ct)
}

// Scan accepts both "HH:MM" and "HH:MM:SS" values coming from the database.
func (ct *ClockTime) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = v.Format(clockTimeLayout)
	default:
		return fmt.Errorf("cannot scan type %T into ClockTime", value)
	}
	if len(s) > len(clockTimeLayout) {
		s = s[:len(clockTimeLayout)]
	}
	*ct = ClockTime(s)
	return nil
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// Moment splits a wall-clock instant into the calendar date and HH:MM time in loc.
func Moment(now time.Time, loc *time.Location) (string, ClockTime) {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout), ClockTime(now.Format(clockTimeLayout))
}
