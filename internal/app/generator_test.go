package app_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
	"github.com/felixbrock/okrs/internal/persistence"
	"github.com/felixbrock/okrs/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suggestion = `{
	"objective": "Improve onboarding",
	"keyResults": [
		{"description": "Cut setup time", "progress": 0, "target": 30, "metric": "minutes"},
		{"description": "Activation rate"}
	]
}`

func newGenerator(t *testing.T) (*testutil.FakeService, *app.Controller, *app.Generator) {
	t.Helper()
	svc, c := newController(t)
	repo := persistence.GeneratorRepo{BaseHeaders: persistence.Headers("secret"), BaseUrl: svc.URL, Client: svc.Client()}
	return svc, c, app.NewGenerator(repo, c)
}

func TestGenerateProducesEditableDraft(t *testing.T) {
	svc, c, g := newGenerator(t)
	svc.Generated = suggestion

	draft, err := g.Generate(context.Background(), "help new users")
	require.NoError(t, err)
	assert.Equal(t, "help new users", draft.Prompt)
	assert.Equal(t, "Improve onboarding", draft.Title)
	require.Len(t, draft.KeyResults, 2)
	for _, kr := range draft.KeyResults {
		assert.True(t, domain.IsPlaceholderID(kr.LocalId))
	}
	assert.Equal(t, domain.DefaultTarget, draft.KeyResults[1].Target)
	assert.Equal(t, domain.DefaultMetric, draft.KeyResults[1].Metric)

	assert.Equal(t, []string{"POST /ai/generate-okr"}, svc.Requests(), "generating persists nothing")
	assert.Empty(t, c.Store().Snapshot().Objectives)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	svc, _, g := newGenerator(t)

	_, err := g.Generate(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, svc.Requests())
}

func TestDraftEditing(t *testing.T) {
	draft := app.NewDraft("", domain.ObjectiveDraft{
		Title:      "Draft",
		KeyResults: []domain.KeyResultDraft{{Description: "One"}, {Description: "Two"}},
	})

	draft.SetTitle("Renamed")
	id := draft.AddKeyResult(domain.KeyResultDraft{Description: "Three", Target: 3})
	assert.True(t, domain.IsPlaceholderID(id))

	first := draft.KeyResults[0].LocalId
	require.NoError(t, draft.UpdateKeyResult(first, func(kr *domain.KeyResultDraft) {
		kr.Description = "One, edited"
		kr.LocalId = "overwritten"
	}))
	assert.Equal(t, first, draft.KeyResults[0].LocalId)
	assert.Equal(t, "One, edited", draft.KeyResults[0].Description)

	require.NoError(t, draft.RemoveKeyResult(draft.KeyResults[1].LocalId))
	assert.ErrorIs(t, draft.RemoveKeyResult("draft-missing"), app.ErrUnknownDraftEntry)
	assert.ErrorIs(t, draft.UpdateKeyResult("draft-missing", func(*domain.KeyResultDraft) {}), app.ErrUnknownDraftEntry)

	assert.Equal(t, "Renamed", draft.Title)
	require.Len(t, draft.KeyResults, 2)
	assert.Equal(t, "Three", draft.KeyResults[1].Description)
}

func TestDraftFileRoundTrip(t *testing.T) {
	draft := app.NewDraft("grow", domain.ObjectiveDraft{
		Title:      "Grow",
		KeyResults: []domain.KeyResultDraft{{Description: "Signups", Current: 2, Target: 20, Metric: "users"}},
	})

	var buf bytes.Buffer
	require.NoError(t, app.SaveDraft(&buf, draft))
	assert.Contains(t, buf.String(), "title: Grow")
	assert.Contains(t, buf.String(), "key_results:")

	loaded, err := app.LoadDraft(&buf)
	require.NoError(t, err)
	assert.Equal(t, draft.Prompt, loaded.Prompt)
	assert.Equal(t, draft.KeyResults, loaded.KeyResults)
}

func TestLoadDraftAssignsMissingIds(t *testing.T) {
	loaded, err := app.LoadDraft(bytes.NewBufferString("title: Hand written\nkey_results:\n  - description: First\n"))
	require.NoError(t, err)
	require.Len(t, loaded.KeyResults, 1)
	assert.True(t, domain.IsPlaceholderID(loaded.KeyResults[0].LocalId))
}

func TestCommitCreatesObjectiveThenKeyResults(t *testing.T) {
	ctx := context.Background()
	svc, c, g := newGenerator(t)
	svc.Generated = suggestion

	draft, err := g.Generate(ctx, "help new users")
	require.NoError(t, err)
	draft.SetTitle("Improve onboarding fast")

	o, err := g.Commit(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "Improve onboarding fast", o.Title)
	require.Len(t, o.KeyResults, 2)
	for _, kr := range o.KeyResults {
		assert.False(t, domain.IsPlaceholderID(kr.Id))
	}

	assert.Equal(t, []string{
		"POST /ai/generate-okr",
		"POST /objectives",
		"POST /objectives/" + o.Id + "/key-results",
		"POST /objectives/" + o.Id + "/key-results",
		"GET /objectives",
	}, svc.Requests())

	stored := svc.Objectives()
	require.Len(t, stored, 1)
	assert.Equal(t, "Cut setup time", stored[0].KeyResults[0].Description)
	assert.Equal(t, "Activation rate", stored[0].KeyResults[1].Description)
	require.Len(t, c.Store().Snapshot().Objectives, 1)
	assert.Equal(t, app.Settled, c.State(app.RegionNewObjective))
}

func TestCommitRejectsInvalidDraftBeforeAnyCall(t *testing.T) {
	svc, _, g := newGenerator(t)

	draft := app.NewDraft("", domain.ObjectiveDraft{
		Title:      "Valid title",
		KeyResults: []domain.KeyResultDraft{{Description: "ok"}, {Description: " "}},
	})
	_, err := g.Commit(context.Background(), draft)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = g.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, svc.Requests())
}

func TestPartialCommitIsReported(t *testing.T) {
	ctx := context.Background()
	svc, c, g := newGenerator(t)

	draft := app.NewDraft("", domain.ObjectiveDraft{
		Title:      "Partial",
		KeyResults: []domain.KeyResultDraft{{Description: "First"}, {Description: "Second"}, {Description: "Third"}},
	})
	svc.Fail(testutil.Failure{Match: "POST /objectives/1/key-results", Status: http.StatusBadGateway, Skip: 1})

	o, err := g.Commit(ctx, draft)
	require.Error(t, err)

	var partial *app.PartialCommitError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "1", partial.ObjectiveId)
	assert.Equal(t, 1, partial.Created)
	assert.Equal(t, 3, partial.Total)
	assert.Equal(t, 1, partial.FailedIndex)
	assert.ErrorIs(t, err, domain.ErrServer)

	require.NotNil(t, o)
	assert.Equal(t, "Partial", o.Title)
	require.Len(t, o.KeyResults, 1)

	snapshot := c.Store().Snapshot()
	require.Len(t, snapshot.Objectives, 1, "the objective stays and is shown")
	require.Len(t, snapshot.Objectives[0].KeyResults, 1)
	assert.Equal(t, "First", snapshot.Objectives[0].KeyResults[0].Description)
	posts := 0
	for _, req := range svc.Requests() {
		if req == "POST /objectives/1/key-results" {
			posts++
		}
	}
	assert.Equal(t, 2, posts, "no key result is attempted after the failure")
	assert.Equal(t, app.Failed, c.State(app.RegionNewObjective))
}
