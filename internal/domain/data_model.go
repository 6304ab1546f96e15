package domain

import (
	"fmt"
	"math"
	"strings"
)

// KeyResultDraft is an unsaved key result. LocalId is a placeholder used to
// address the entry while it is edited.
type KeyResultDraft struct {
	LocalId     string  `json:"-" yaml:"local_id,omitempty"`
	Description string  `json:"description" yaml:"description"`
	Current     float64 `json:"progress" yaml:"current"`
	Target      float64 `json:"target" yaml:"target"`
	Metric      string  `json:"metric" yaml:"metric"`
}

// WithDefaults fills the fields the persistence service expects when the
// caller left them unset. A zero target is the unset value and becomes
// DefaultTarget; negative targets are rejected by Validate.
func (d KeyResultDraft) WithDefaults() KeyResultDraft {
	d.Description = strings.TrimSpace(d.Description)
	d.Current = ClampCurrent(d.Current)
	if d.Target == 0 {
		d.Target = DefaultTarget
	}
	if strings.TrimSpace(d.Metric) == "" {
		d.Metric = DefaultMetric
	}
	return d
}

func (d KeyResultDraft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return NewValidationError("description", "key result description must not be empty")
	}
	if err := ValidateMeasure("current", d.Current); err != nil {
		return err
	}
	if err := ValidateMeasure("target", d.Target); err != nil {
		return err
	}
	if d.Target < 0 {
		return NewValidationError("target", "target must not be negative")
	}
	return nil
}

// ValidateMeasure rejects NaN and infinite measurements, which the
// persistence service cannot store.
func ValidateMeasure(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError(field, fmt.Sprintf("%s must be a finite number", field))
	}
	return nil
}

type ObjectiveDraft struct {
	Title      string           `yaml:"title"`
	KeyResults []KeyResultDraft `yaml:"key_results"`
}

func (d ObjectiveDraft) Validate() error {
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	for _, kr := range d.KeyResults {
		if err := kr.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewValidationError("title", "objective title must not be empty")
	}
	return nil
}
