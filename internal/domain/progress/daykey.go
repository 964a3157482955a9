package progress

import (
	"errors"
	"strings"
	"time"
)

// DayKeyLayout is the calendar-day bucket format. Day keys are always UTC.
const DayKeyLayout = "2006-01-02"

var ErrInvalidDayKey = errors.New("invalid day key")

// DayKey buckets an instant into its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Truncate(24 * time.Hour).Format(DayKeyLayout)
}

func ParseDayKey(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, strings.TrimSpace(day), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDayKey
	}
	return t, nil
}

// ShiftDay moves a day key by n calendar days.
func ShiftDay(day string, n int) (string, error) {
	t, err := ParseDayKey(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayKeyLayout), nil
}

func PreviousDay(day string) (string, error) {
	return ShiftDay(day, -1)
}

func DayWeekday(day string) (time.Weekday, error) {
	t, err := ParseDayKey(day)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// CompareDays orders two well-formed day keys; the fixed-width layout sorts lexically.
func CompareDays(a, b string) int {
	return strings.Compare(a, b)
}
