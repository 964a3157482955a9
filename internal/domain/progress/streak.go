package progress

import (
	"sort"
	"time"
)

// StreakEvent is a qualifying (first) completion as seen by the streak calculator.
type StreakEvent struct {
	Day   string
	Score float64
	At    time.Time
}

type StreakTransition string

const (
	StreakStarted  StreakTransition = "started"
	StreakExtended StreakTransition = "extended"
	StreakReset    StreakTransition = "reset"
	StreakSameDay  StreakTransition = "same_day"
)

type StreakOutcome struct {
	Transition StreakTransition
	NewBadges  []Badge
}

// Updated reports whether the streak counter moved.
func (o StreakOutcome) Updated() bool {
	return o.Transition != "" && o.Transition != StreakSameDay
}

// HeadlineBadge is the single badge to surface for this event: the highest
// milestone unlocked by it, or nil.
func (o StreakOutcome) HeadlineBadge() *Badge {
	if len(o.NewBadges) == 0 {
		return nil
	}
	best := o.NewBadges[0]
	for _, b := range o.NewBadges[1:] {
		if b.Milestone > best.Milestone {
			best = b
		}
	}
	return &best
}

// AdvanceStreak applies one qualifying completion to prev. Day comparisons use
// day-key arithmetic, never elapsed hours.
func AdvanceStreak(prev StreakSnapshot, ev StreakEvent, milestones []Milestone) (StreakSnapshot, StreakOutcome, error) {
	weekday, err := DayWeekday(ev.Day)
	if err != nil {
		return prev, StreakOutcome{}, err
	}
	yesterday, err := PreviousDay(ev.Day)
	if err != nil {
		return prev, StreakOutcome{}, err
	}

	next := prev
	next.Badges = append([]Badge(nil), prev.Badges...)
	var out StreakOutcome

	switch last := prev.LastActivityDate; {
	case last == "":
		next.CurrentStreak = 1
		next.StreakStartDate = ev.Day
		out.Transition = StreakStarted
	case CompareDays(last, ev.Day) >= 0:
		// Already counted today. A last-activity ahead of today only happens with
		// a lagging clock and is treated the same way.
		out.Transition = StreakSameDay
	case last == yesterday && prev.CurrentStreak > 0:
		next.CurrentStreak = prev.CurrentStreak + 1
		out.Transition = StreakExtended
	default:
		next.CurrentStreak = 1
		next.StreakStartDate = ev.Day
		out.Transition = StreakReset
	}
	if out.Transition != StreakSameDay {
		next.LastActivityDate = ev.Day
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	out.NewBadges = unlockBadges(&next, milestones, ev.At)

	slot := next.Weekly[weekday]
	if slot.Date == ev.Day && slot.Completed {
		if ev.Score > slot.Score {
			slot.Score = ev.Score
		}
	} else {
		slot = WeeklySlot{Date: ev.Day, Completed: true, Score: ev.Score}
	}
	next.Weekly[weekday] = slot

	return next, out, nil
}

func unlockBadges(snap *StreakSnapshot, milestones []Milestone, at time.Time) []Badge {
	ordered := append([]Milestone(nil), milestones...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Days < ordered[j].Days })

	have := make(map[int]bool, len(snap.Badges))
	for _, b := range snap.Badges {
		have[b.Milestone] = true
	}
	var unlocked []Badge
	for _, m := range ordered {
		if m.Days <= 0 || m.Days > snap.CurrentStreak || have[m.Days] {
			continue
		}
		b := Badge{BadgeID: m.BadgeID, Name: m.Name, Milestone: m.Days, UnlockedAt: at.UTC()}
		snap.Badges = append(snap.Badges, b)
		unlocked = append(unlocked, b)
		have[m.Days] = true
	}
	return unlocked
}

// EffectiveStreak is the streak as it should be displayed on day today: a
// streak whose last activity is older than yesterday is already broken.
func EffectiveStreak(snap StreakSnapshot, today string) int {
	if snap.LastActivityDate == "" {
		return 0
	}
	if CompareDays(snap.LastActivityDate, today) >= 0 {
		return snap.CurrentStreak
	}
	if yesterday, err := PreviousDay(today); err == nil && snap.LastActivityDate == yesterday {
		return snap.CurrentStreak
	}
	return 0
}

// LastSevenDays projects the weekday cache onto the window ending today,
// oldest first. Slots left over from earlier weeks read as not completed.
func LastSevenDays(snap StreakSnapshot, today string) []WeeklySlot {
	out := make([]WeeklySlot, 0, 7)
	for i := 6; i >= 0; i-- {
		day, err := ShiftDay(today, -i)
		if err != nil {
			return nil
		}
		wd, _ := DayWeekday(day)
		slot := snap.Weekly[wd]
		if slot.Date != day {
			slot = WeeklySlot{Date: day}
		}
		out = append(out, slot)
	}
	return out
}

// NextMilestone is the smallest milestone above current, or nil past the last one.
func NextMilestone(current int, milestones []Milestone) *Milestone {
	var next *Milestone
	for i := range milestones {
		m := milestones[i]
		if m.Days <= current {
			continue
		}
		if next == nil || m.Days < next.Days {
			next = &m
		}
	}
	return next
}
