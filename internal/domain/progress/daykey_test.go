package progress

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "2024-02-29"},
		{time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC), "2024-02-29"},
		{time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC), "2024-03-01"},
		{time.Date(2024, 3, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)), "2024-03-01"},
		{time.Date(2024, 3, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600)), "2024-02-29"},
	}
	for _, tc := range cases {
		if got := DayKey(tc.at); got != tc.want {
			t.Fatalf("DayKey(%v): got %s want %s", tc.at, got, tc.want)
		}
	}
}

func TestShiftDayAcrossMonthAndYear(t *testing.T) {
	if got, _ := PreviousDay("2024-03-01"); got != "2024-02-29" {
		t.Fatalf("PreviousDay leap: %s", got)
	}
	if got, _ := ShiftDay("2023-12-31", 1); got != "2024-01-01" {
		t.Fatalf("ShiftDay year: %s", got)
	}
	if _, err := ShiftDay("nope", 1); err != ErrInvalidDayKey {
		t.Fatalf("ShiftDay invalid: %v", err)
	}
}

func TestDayWeekday(t *testing.T) {
	wd, err := DayWeekday("2024-05-13")
	if err != nil || wd != time.Monday {
		t.Fatalf("DayWeekday: %v %v", wd, err)
	}
}

func TestCapHistoryKeepsNewest(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	got := CapHistory(in, 3)
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Fatalf("got %v", got)
	}
	if got := CapHistory(in, 0); len(got) != 5 {
		t.Fatalf("zero cap should not trim: %v", got)
	}
}
