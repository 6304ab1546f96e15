// Package components renders the HTML pages of the OKR tracker.
package components

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/felixbrock/okrs/internal/app"
)

type Component = templ.Component

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:56rem}` +
	`.banner{padding:.5rem 1rem;margin:1rem 0}.banner.error{background:#fde2e1}.banner.notice{background:#e3f6e5}` +
	`.objective{border-top:1px solid #ddd;padding:1rem 0}.complete h2,.completed .description{color:#2e7d32}` +
	`.preview{color:#888;margin-left:.5rem}fieldset{border:0;padding:0;display:inline}progress{width:10rem}` +
	`.danger{color:#b00020}`

// html writes markup, keeping the first write error so callers need not
// check every call.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		fn(ctx, h)
		return h.err
	})
}

// action builds a sanitized form target from path segments.
func action(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return templ.EscapeString(string(templ.URL(fmt.Sprintf(format, args...))))
}

// layout wraps the children passed with templ.WithChildren in the page shell.
func layout(title string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(`</title><style>` + stylesheet + `</style></head><body><main>`)
		h.render(ctx, templ.GetChildren(ctx))
		h.raw(`</main></body></html>`)
	})
}

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(title).Render(templ.WithChildren(ctx, body), w)
	})
}

func Index(data app.IndexData) Component {
	return page("Objectives", component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Objectives</h1>`)
		h.render(ctx, banner(data.Error, data.Notice))

		h.raw(`<form method="post" action="/generate" class="generate">`)
		h.raw(`<input name="prompt" placeholder="Describe a goal and let the assistant draft OKRs">`)
		h.raw(`<button type="submit">Suggest</button></form>`)

		h.raw(`<form method="post" action="/objectives" class="new-objective">`)
		h.raw(`<input name="title" placeholder="New objective" required>`)
		h.raw(`<button type="submit">Add objective</button></form>`)

		if len(data.Objectives) == 0 {
			h.raw(`<p class="empty">No objectives yet.</p>`)
			return
		}

		for _, o := range data.Objectives {
			h.render(ctx, objective(o))
		}
	}))
}

func banner(errCtx *app.ErrCtx, notice string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		if errCtx != nil {
			h.raw(`<div class="banner error" role="alert"><strong>`)
			h.text(errCtx.Title)
			h.raw(`</strong> `)
			h.text(errCtx.Msg)
			h.raw(`</div>`)
		}
		if notice != "" {
			h.raw(`<div class="banner notice">`)
			h.text(notice)
			h.raw(`</div>`)
		}
	})
}

func disabled(state app.MutationState) string {
	if state.Busy() {
		return " disabled"
	}
	return ""
}

func objective(o app.ObjectiveView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		class := "objective"
		if o.Complete {
			class += " complete"
		}

		h.rawf(`<section class="%s" id="objective-%s" data-state="%s">`, class, templ.EscapeString(o.Id), o.State)
		h.raw(`<header><h2>`)
		h.text(o.Title)
		h.rawf(`</h2><span class="percentage">%d%%</span>`, o.Percentage)
		h.render(ctx, progressBar(o.Percentage))
		h.raw(`</header>`)

		h.rawf(`<fieldset%s>`, disabled(o.State))
		h.rawf(`<form method="post" action="%s"><input name="title" value="`, action("/objectives/%s/rename", o.Id))
		h.text(o.Title)
		h.raw(`" required><button type="submit">Rename</button></form>`)
		h.rawf(`<form method="post" action="%s"><input type="hidden" name="confirm" value="yes">`, action("/objectives/%s/delete", o.Id))
		h.raw(`<button type="submit" class="danger">Delete objective</button></form>`)
		h.raw(`</fieldset>`)

		h.raw(`<ul class="key-results">`)
		for _, kr := range o.KeyResults {
			h.render(ctx, keyResult(kr))
		}
		h.raw(`</ul>`)

		h.rawf(`<form method="post" action="%s" class="new-key-result"><fieldset%s>`, action("/objectives/%s/key-results", o.Id), disabled(o.State))
		h.raw(`<input name="description" placeholder="Key result" required>`)
		h.raw(`<input name="current" type="number" step="any" min="0" value="0">`)
		h.raw(`<input name="target" type="number" step="any" min="0" value="100">`)
		h.raw(`<input name="metric" placeholder="%">`)
		h.raw(`<button type="submit">Add key result</button></fieldset></form>`)
		h.raw(`</section>`)
	})
}

func keyResult(kr app.KeyResultView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		class := "key-result"
		if kr.Completed {
			class += " completed"
		}

		h.rawf(`<li class="%s" data-state="%s"><span class="description">`, class, kr.State)
		h.text(kr.Description)
		h.raw(`</span> <span class="measure">`)
		h.text(fmt.Sprintf("%s/%s %s", formatNumber(kr.Current), formatNumber(kr.Target), kr.Metric))
		h.rawf(`</span> <span class="percentage">%d%%</span>`, kr.Percentage)
		if kr.Preview {
			h.rawf(`<span class="preview" title="not saved yet">&rarr; %s (%d%%)</span>`, templ.EscapeString(formatNumber(kr.PreviewCurrent)), kr.PreviewPercentage)
		}
		h.render(ctx, progressBar(kr.Percentage))

		value := kr.Current
		if kr.Preview {
			value = kr.PreviewCurrent
		}
		h.rawf(`<fieldset%s>`, disabled(kr.State))
		h.rawf(`<form method="post" action="%s"><input name="current" type="number" step="any" min="0" value="%s">`,
			action("/objectives/%s/key-results/%s/progress", kr.ObjectiveId, kr.Id), templ.EscapeString(formatNumber(value)))
		h.rawf(`<button type="submit" formaction="%s">Preview</button><button type="submit">Save</button></form>`,
			action("/objectives/%s/key-results/%s/preview", kr.ObjectiveId, kr.Id))
		h.rawf(`<form method="post" action="%s"><input type="hidden" name="confirm" value="yes"><button type="submit" class="danger">Delete</button></form>`,
			action("/objectives/%s/key-results/%s/delete", kr.ObjectiveId, kr.Id))
		h.raw(`</fieldset></li>`)
	})
}

func progressBar(percentage int) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.rawf(`<progress max="100" value="%d"></progress>`, percentage)
	})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Draft renders the editable suggestion. Nothing on this page is persisted
// until the form is committed.
func Draft(data app.DraftData) Component {
	d := data.Draft
	if d == nil {
		d = &app.Draft{}
	}

	return page("Suggested objective", component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Suggested objective</h1>`)
		h.render(ctx, banner(data.Error, ""))

		h.raw(`<form method="post" action="/generate/commit" class="draft">`)
		h.raw(`<input type="hidden" name="prompt" value="`)
		h.text(d.Prompt)
		h.raw(`"><label>Objective <input name="title" required value="`)
		h.text(d.Title)
		h.rawf(`"></label><input type="hidden" name="count" value="%d"><ol>`, len(d.KeyResults))

		for i, kr := range d.KeyResults {
			h.rawf(`<li><input name="description_%d" required value="`, i)
			h.text(kr.Description)
			h.rawf(`"><input name="current_%d" type="number" step="any" min="0" value="%s">`, i, formatNumber(kr.Current))
			h.rawf(`<input name="target_%d" type="number" step="any" min="0" value="%s">`, i, formatNumber(kr.Target))
			h.rawf(`<input name="metric_%d" value="`, i)
			h.text(kr.Metric)
			h.rawf(`"><label><input type="checkbox" name="remove_%d" value="1"> drop</label></li>`, i)
		}

		h.raw(`</ol><button type="submit">Create objective</button> <a href="/">Discard</a></form>`)
	}))
}

func Error(errCtx app.ErrCtx) Component {
	return page(errCtx.Title, component(func(ctx context.Context, h *html) {
		h.rawf(`<h1>%d</h1>`, errCtx.Code)
		h.render(ctx, banner(&errCtx, ""))
		h.raw(`<a href="/">Back to objectives</a>`)
	}))
}
