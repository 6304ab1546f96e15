package components

import (
	"bytes"
	"context"
	"testing"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestIndexRendersObjectives(t *testing.T) {
	html := render(t, Index(app.IndexData{
		Notice: "Saved <now>",
		Objectives: []app.ObjectiveView{{
			Id:         "1",
			Title:      "Ship <v1>",
			Percentage: 50,
			State:      app.Submitting,
			KeyResults: []app.KeyResultView{{
				ObjectiveId:       "1",
				Id:                "2",
				Description:       "Features",
				Metric:            "features",
				Current:           5,
				Target:            10,
				Percentage:        50,
				Preview:           true,
				PreviewCurrent:    7.5,
				PreviewPercentage: 75,
			}},
		}},
	}))

	assert.Contains(t, html, "Ship &lt;v1&gt;")
	assert.NotContains(t, html, "Ship <v1>")
	assert.Contains(t, html, "Saved &lt;now&gt;")
	assert.Contains(t, html, `<section class="objective" id="objective-1" data-state="submitting">`)
	assert.Contains(t, html, `<fieldset disabled>`)
	assert.Contains(t, html, "5/10 features")
	assert.Contains(t, html, "&rarr; 7.5 (75%)")
	assert.Contains(t, html, `action="/objectives/1/key-results/2/progress"`)
	assert.Contains(t, html, `value="7.5"`)
}

func TestIndexWithoutObjectives(t *testing.T) {
	html := render(t, Index(app.IndexData{Error: &app.ErrCtx{Code: 502, Title: "Service unreachable", Msg: "try again"}}))

	assert.Contains(t, html, "No objectives yet.")
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "Service unreachable")
}

func TestDraftRendersEditableRows(t *testing.T) {
	draft := app.NewDraft("grow", domain.ObjectiveDraft{
		Title:      "Grow",
		KeyResults: []domain.KeyResultDraft{{Description: "Signups", Target: 20, Metric: "users"}},
	})

	html := render(t, Draft(app.DraftData{Draft: draft}))
	assert.Contains(t, html, `name="count" value="1"`)
	assert.Contains(t, html, `name="description_0" required value="Signups"`)
	assert.Contains(t, html, `name="target_0" type="number" step="any" min="0" value="20"`)
	assert.Contains(t, html, `name="remove_0"`)

	assert.Contains(t, render(t, Draft(app.DraftData{})), `name="count" value="0"`)
}

func TestErrorPage(t *testing.T) {
	html := render(t, Error(app.ErrCtx{Code: 404, Title: "Not found", Msg: "gone"}))
	assert.Contains(t, html, "<title>Not found</title>")
	assert.Contains(t, html, "<h1>404</h1>")
}

func TestLayoutIsSelfContained(t *testing.T) {
	html := render(t, Index(app.IndexData{}))
	assert.Contains(t, html, "<style>")
	assert.NotContains(t, html, `rel="stylesheet"`, "no assets outside the served routes")
	assert.Contains(t, html, "</main></body></html>")
}

func TestActionsEscapeIds(t *testing.T) {
	html := render(t, Index(app.IndexData{Objectives: []app.ObjectiveView{{Id: "a/b", Title: "x"}}}))
	assert.Contains(t, html, `action="/objectives/a%2Fb/rename"`)
}
