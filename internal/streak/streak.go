// Package streak derives daily logging streaks from the activity log and
// grants coin rewards for them.
package streak

import "finflow/internal/core"

// LookbackDays bounds the window the best streak is computed over.
const LookbackDays = 365

// DayStatus is a calendar marker state.
type DayStatus string

const (
	Done    DayStatus = "done"
	NotDone DayStatus = "not-done"
	Future  DayStatus = "future"
	Today   DayStatus = "today"
)

type Marker struct {
	Date   core.Date
	Status DayStatus
}

func activeDays(entries []core.HabitLogEntry) map[core.Date]bool {
	active := make(map[core.Date]bool, len(entries))
	for _, e := range entries {
		if e.Count > 0 {
			active[e.Date] = true
		}
	}
	return active
}

// ComputeStreak walks back from today. The current streak is zero when
// today has no activity yet. The best streak covers the trailing
// LookbackDays days and is never less than the current one.
func ComputeStreak(entries []core.HabitLogEntry, today core.Date) core.StreakState {
	active := activeDays(entries)

	state := core.StreakState{CompletedToday: active[today]}
	for d := today; active[d]; d = d.AddDays(-1) {
		state.Current++
	}

	run := 0
	for d := today.AddDays(-(LookbackDays - 1)); !d.After(today.Time); d = d.AddDays(1) {
		if !active[d] {
			run = 0
			continue
		}
		run++
		if run > state.Best {
			state.Best = run
		}
	}
	if state.Current > state.Best {
		state.Best = state.Current
	}
	return state
}

// TwoWeekCalendar returns 14 markers from the Monday of the previous ISO
// week through the Sunday of the current one.
func TwoWeekCalendar(entries []core.HabitLogEntry, today core.Date) []Marker {
	active := activeDays(entries)
	start := today.ISOWeekStart().AddDays(-7)

	markers := make([]Marker, 14)
	for i := range markers {
		d := start.AddDays(i)
		status := NotDone
		switch {
		case active[d]:
			status = Done
		case d == today:
			status = Today
		case d.After(today.Time):
			status = Future
		}
		markers[i] = Marker{Date: d, Status: status}
	}
	return markers
}
