package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultTarget float64 = 100
	DefaultMetric         = "%"

	placeholderPrefix = "draft-"
)

type KeyResult struct {
	Id          string  `json:"id"`
	Description string  `json:"description"`
	Current     float64 `json:"progress"`
	Target      float64 `json:"target"`
	Metric      string  `json:"metric"`
}

// Percentage is the bounded display percentage of the key result.
func (kr KeyResult) Percentage() int {
	return Percentage(kr.Current, kr.Target)
}

func (kr KeyResult) IsCompleted() bool {
	return IsCompleted(kr.Current, kr.Target)
}

type Objective struct {
	Id         string      `json:"id"`
	Title      string      `json:"title"`
	KeyResults []KeyResult `json:"keyResults"`
}

func (o Objective) Percentage() int {
	return ObjectivePercentage(o)
}

// IsComplete reports whether the aggregated percentage is exactly 100.
func (o Objective) IsComplete() bool {
	return ObjectivePercentage(o) == 100
}

// KeyResult returns the key result with the given id.
func (o Objective) KeyResult(id string) (KeyResult, bool) {
	for _, kr := range o.KeyResults {
		if kr.Id == id {
			return kr, true
		}
	}
	return KeyResult{}, false
}

// Clone returns a deep copy so callers can hand out objectives without aliasing
// the owner's key result slice.
func (o Objective) Clone() Objective {
	c := o
	if o.KeyResults != nil {
		c.KeyResults = make([]KeyResult, len(o.KeyResults))
		copy(c.KeyResults, o.KeyResults)
	}
	return c
}

// NewPlaceholderID returns an id for a locally drafted entry. Placeholder ids
// never reach the persistence service.
func NewPlaceholderID() string {
	return placeholderPrefix + uuid.New().String()
}

func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// ClampCurrent keeps a measurement non-negative before it is displayed or submitted.
func ClampCurrent(current float64) float64 {
	if current < 0 || math.IsNaN(current) {
		return 0
	}
	return current
}
