package app

import "fmt"

// MutationState tracks one in-flight mutation of a UI region.
type MutationState int

const (
	Idle MutationState = iota
	Submitting
	Settled
	Failed
)

func (s MutationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("MutationState(%d)", int(s))
	}
}

// Busy reports whether the region must be disabled.
func (s MutationState) Busy() bool {
	return s == Submitting
}

func transition(from, to MutationState) error {
	switch from {
	case Idle, Settled, Failed:
		if to == Submitting {
			return nil
		}
	case Submitting:
		if to == Settled || to == Failed {
			return nil
		}
	}
	return fmt.Errorf("disallowed mutation transition: %s -> %s", from, to)
}

const RegionNewObjective = "objectives/new"

// ObjectiveRegion is the region key guarding an objective's title, deletion
// and key result creation.
func ObjectiveRegion(objectiveId string) string {
	return "objectives/" + objectiveId
}

func KeyResultRegion(objectiveId, keyResultId string) string {
	return "objectives/" + objectiveId + "/key-results/" + keyResultId
}
