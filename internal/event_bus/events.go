package event_bus

import "time"

// Events that trigger a settlement recomputation. The settlement engine
// subscribes to all three in the application wiring.
const (
	AssignmentsImportedEvent    EventType = "assignments.imported"
	OverridesChangedEvent       EventType = "overrides.changed"
	EligibilityModeChangedEvent EventType = "settlement.eligibility_mode_changed"
)

type AssignmentsImported struct {
	Count int
}

type OverridesChanged struct {
	// Scope is "row" or "day".
	Scope        string
	RowID        string
	InstructorID string
	Date         time.Time
	Removed      bool
}

type EligibilityModeChanged struct {
	Mode string
}
