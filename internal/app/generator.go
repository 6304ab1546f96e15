package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixbrock/okrs/internal/domain"
	"gopkg.in/yaml.v3"
)

type GeneratorRepo interface {
	Generate(ctx context.Context, prompt string) (*domain.ObjectiveDraft, error)
}

var ErrUnknownDraftEntry = errors.New("unknown draft key result")

// Draft is an editable, unsaved suggestion. Editing it never touches the
// network.
type Draft struct {
	Prompt                string `yaml:"prompt,omitempty"`
	domain.ObjectiveDraft `yaml:",inline"`
}

// NewDraft assigns placeholder ids to every key result of d.
func NewDraft(prompt string, d domain.ObjectiveDraft) *Draft {
	draft := &Draft{Prompt: prompt, ObjectiveDraft: d}
	draft.KeyResults = append([]domain.KeyResultDraft(nil), d.KeyResults...)
	draft.ensureIds()
	return draft
}

func (d *Draft) ensureIds() {
	for i := range d.KeyResults {
		if !domain.IsPlaceholderID(d.KeyResults[i].LocalId) {
			d.KeyResults[i].LocalId = domain.NewPlaceholderID()
		}
	}
}

func (d *Draft) SetTitle(title string) {
	d.Title = title
}

// AddKeyResult appends kr and returns its placeholder id.
func (d *Draft) AddKeyResult(kr domain.KeyResultDraft) string {
	kr.LocalId = domain.NewPlaceholderID()
	d.KeyResults = append(d.KeyResults, kr)
	return kr.LocalId
}

func (d *Draft) UpdateKeyResult(localId string, edit func(kr *domain.KeyResultDraft)) error {
	for i := range d.KeyResults {
		if d.KeyResults[i].LocalId == localId {
			edit(&d.KeyResults[i])
			d.KeyResults[i].LocalId = localId
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownDraftEntry, localId)
}

func (d *Draft) RemoveKeyResult(localId string) error {
	for i := range d.KeyResults {
		if d.KeyResults[i].LocalId == localId {
			d.KeyResults = append(d.KeyResults[:i], d.KeyResults[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownDraftEntry, localId)
}

func SaveDraft(w io.Writer, d *Draft) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return enc.Close()
}

func LoadDraft(r io.Reader) (*Draft, error) {
	var d Draft
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d.ensureIds()
	return &d, nil
}

// PartialCommitError reports a commit that persisted the objective but not
// all of its key results. Nothing is rolled back: the objective stays on the
// service with the key results created before the failure.
type PartialCommitError struct {
	ObjectiveId string
	Created     int
	Total       int
	FailedIndex int
	Err         error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("partial commit: objective %s persisted with %d of %d key results, key result %d failed: %v",
		e.ObjectiveId, e.Created, e.Total, e.FailedIndex+1, e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }

type Generator struct {
	repo       GeneratorRepo
	controller *Controller
}

func NewGenerator(repo GeneratorRepo, controller *Controller) *Generator {
	return &Generator{repo: repo, controller: controller}
}

// Generate asks the suggestion service for a draft. The result is advisory.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Draft, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewValidationError("prompt", "prompt must not be empty")
	}

	suggestion, err := g.repo.Generate(ctx, prompt)
	if err != nil {
		g.controller.logger.Error(fmt.Sprintf("Error occured: %s", err.Error()), "op", "generate_draft")
		return nil, err
	}

	return NewDraft(prompt, *suggestion), nil
}

// Commit creates the objective, then each key result in order against the new
// objective id. The collection is refreshed afterwards whatever the outcome,
// since a partial commit leaves data on the service.
func (g *Generator) Commit(ctx context.Context, draft *Draft) (*domain.Objective, error) {
	if draft == nil {
		return nil, domain.NewValidationError("draft", "draft must not be empty")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	c := g.controller
	var created *domain.Objective

	err := c.mutate(ctx, "commit_draft", RegionNewObjective, func(ctx context.Context) error {
		var err error
		created, err = c.objectives.Insert(ctx, draft.Title)
		if err != nil {
			return err
		}

		for i, kr := range draft.KeyResults {
			kr.LocalId = ""
			saved, err := c.keyResults.Insert(ctx, created.Id, kr.WithDefaults())
			if err != nil {
				return &PartialCommitError{
					ObjectiveId: created.Id,
					Created:     i,
					Total:       len(draft.KeyResults),
					FailedIndex: i,
					Err:         err,
				}
			}
			created.KeyResults = append(created.KeyResults, *saved)
		}
		return nil
	})

	var partial *PartialCommitError
	if errors.As(err, &partial) {
		if refreshErr := c.Refresh(ctx); refreshErr != nil {
			return created, errors.Join(err, refreshErr)
		}
		return created, err
	}
	if err != nil {
		return nil, err
	}

	return created, nil
}
