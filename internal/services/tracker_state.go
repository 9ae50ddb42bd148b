package services

import (
	"apptime/internal/calendar"
)

// StateKind tags the tracker cursor
type StateKind int

const (
	StateIdle StateKind = iota
	StateFocused
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateFocused:
		return "focused"
	default:
		return "unknown"
	}
}

// State is the tracker cursor. Entity and SessionStart are meaningful only
// when Kind is StateFocused; SessionStart is the start of the current day
// segment, so it moves forward on every midnight split.
type State struct {
	Kind         StateKind
	Entity       string
	SessionStart uint32
}

// Idle reports whether nothing is being tracked
func (s State) Idle() bool {
	return s.Kind == StateIdle
}

func idleState() State {
	return State{Kind: StateIdle}
}

func focusedState(entity string, start uint32) State {
	return State{Kind: StateFocused, Entity: entity, SessionStart: start}
}

type writeKind int

const (
	writeInsert writeKind = iota
	writeExtend
)

// write is one store mutation of a tick. For extends, segmentStart is the
// start of the row being extended and is used to recreate it when missing.
type write struct {
	kind         writeKind
	entity       string
	ts           uint32
	segmentStart uint32
}

// tickPlan is everything one sample changes
type tickPlan struct {
	writes []write
	next   State
	splits int
}

func (p tickPlan) empty() bool {
	return len(p.writes) == 0
}

func (p tickPlan) switched(prev State) bool {
	return p.next.Kind != prev.Kind || p.next.Entity != prev.Entity
}

// planTick computes the writes and the next cursor for a sample of entity
// taken at now. An empty entity means nothing is focused. now must not be
// earlier than prev.SessionStart.
func planTick(prev State, entity string, now uint32) tickPlan {
	plan := tickPlan{next: prev}

	if prev.Kind == StateFocused {
		current := prev.Entity
		segmentStart := prev.SessionStart

		sessionDay := calendar.FromTimestamp(segmentStart)
		days := calendar.DaysBetweenDayStarts(sessionDay, calendar.FromTimestamp(now))
		for i := 1; i <= days; i++ {
			midnight := calendar.Timestamp(calendar.DayStartAfter(sessionDay, i))
			if midnight <= segmentStart || midnight > now {
				continue
			}
			plan.writes = append(plan.writes,
				write{kind: writeExtend, entity: current, ts: midnight, segmentStart: segmentStart},
				write{kind: writeInsert, entity: current, ts: midnight},
			)
			segmentStart = midnight
			plan.splits++
		}

		plan.writes = append(plan.writes, write{kind: writeExtend, entity: current, ts: now, segmentStart: segmentStart})
		plan.next = focusedState(current, segmentStart)
	}

	switch {
	case entity == "":
		plan.next = idleState()
	case prev.Kind == StateFocused && entity == prev.Entity:
		// same session, already extended
	default:
		plan.writes = append(plan.writes, write{kind: writeInsert, entity: entity, ts: now})
		plan.next = focusedState(entity, now)
	}

	return plan
}
