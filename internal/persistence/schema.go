package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixbrock/okrs/internal/domain"
)

// wireId accepts identifiers encoded either as JSON strings or numbers.
type wireId string

func (i *wireId) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = wireId(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*i = wireId(n.String())
	return nil
}

// wireNumber accepts plain numbers; numeric strings are coerced for services
// that serialize decimals as text.
type wireNumber float64

func (n *wireNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("number expected, got %q", s)
		}
		*n = wireNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = wireNumber(f)
	return nil
}

type keyResultRecord struct {
	Id          *wireId     `json:"id"`
	Description *string     `json:"description"`
	Progress    *wireNumber `json:"progress"`
	Current     *wireNumber `json:"current"`
	Target      *wireNumber `json:"target"`
	Metric      *string     `json:"metric"`
}

type objectiveRecord struct {
	Id              *wireId           `json:"id"`
	Title           *string           `json:"title"`
	KeyResults      []keyResultRecord `json:"keyResults"`
	KeyResultsSnake []keyResultRecord `json:"key_results"`
}

type objectiveBody struct {
	Title string `json:"title"`
}

type keyResultBody struct {
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
	Target      float64 `json:"target"`
	Metric      string  `json:"metric"`
}

type progressBody struct {
	Progress float64 `json:"progress"`
}

type generateBody struct {
	Prompt string `json:"prompt"`
}

type generatedRecord struct {
	Objective  json.RawMessage   `json:"objective"`
	KeyResults []keyResultRecord `json:"keyResults"`
}

var errMissingId = errors.New("missing id")

// draft coerces a record into key result fields, filling the defaults for
// missing target, metric and progress.
func (r keyResultRecord) draft() domain.KeyResultDraft {
	d := domain.KeyResultDraft{Target: domain.DefaultTarget, Metric: domain.DefaultMetric}
	if r.Description != nil {
		d.Description = strings.TrimSpace(*r.Description)
	}
	switch {
	case r.Progress != nil:
		d.Current = float64(*r.Progress)
	case r.Current != nil:
		d.Current = float64(*r.Current)
	}
	d.Current = domain.ClampCurrent(d.Current)
	if r.Target != nil {
		d.Target = float64(*r.Target)
	}
	if r.Metric != nil && strings.TrimSpace(*r.Metric) != "" {
		d.Metric = strings.TrimSpace(*r.Metric)
	}
	return d
}

func (r keyResultRecord) toDomain() (domain.KeyResult, error) {
	if r.Id == nil || *r.Id == "" {
		return domain.KeyResult{}, fmt.Errorf("key result: %w", errMissingId)
	}
	d := r.draft()
	return domain.KeyResult{
		Id:          string(*r.Id),
		Description: d.Description,
		Current:     d.Current,
		Target:      d.Target,
		Metric:      d.Metric,
	}, nil
}

func (r objectiveRecord) toDomain() (domain.Objective, error) {
	if r.Id == nil || *r.Id == "" {
		return domain.Objective{}, fmt.Errorf("objective: %w", errMissingId)
	}
	o := domain.Objective{Id: string(*r.Id), KeyResults: []domain.KeyResult{}}
	if r.Title != nil {
		o.Title = strings.TrimSpace(*r.Title)
	}

	records := r.KeyResults
	if records == nil {
		records = r.KeyResultsSnake
	}
	for _, kr := range records {
		k, err := kr.toDomain()
		if err != nil {
			return domain.Objective{}, fmt.Errorf("objective %s: %w", o.Id, err)
		}
		o.KeyResults = append(o.KeyResults, k)
	}
	return o, nil
}

func (r generatedRecord) toDomain() (domain.ObjectiveDraft, error) {
	d := domain.ObjectiveDraft{}

	raw := bytes.TrimSpace(r.Objective)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &d.Title); err != nil {
			return d, err
		}
	default:
		var obj struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return d, fmt.Errorf("objective: %w", err)
		}
		d.Title = obj.Title
	}
	d.Title = strings.TrimSpace(d.Title)

	for _, kr := range r.KeyResults {
		d.KeyResults = append(d.KeyResults, kr.draft())
	}
	return d, nil
}
