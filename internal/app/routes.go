package app

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixbrock/okrs/internal/domain"
)

func (a App) page(code int, errCtx *ErrCtx, notice string) *ComponentResponse {
	data := IndexData{
		Objectives: a.Controller.Store().Snapshot().Views(),
		Error:      errCtx,
		Notice:     notice,
	}
	return &ComponentResponse{Component: a.ComponentBuilder.Index(data), Code: code, Message: "OK", ContentType: "text/html; charset=utf-8"}
}

// result renders the objectives page after an action, with the failure
// banner when err is set.
func (a App) result(err error, notice string) *ComponentResponse {
	if err != nil {
		errCtx := errCtxFor(err)
		resp := a.page(errCtx.Code, &errCtx, "")
		resp.Error = err
		return resp
	}
	return a.page(http.StatusOK, nil, notice)
}

func (a App) notFound(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	errCtx := get404()
	errCtx.Msg = "Sorry, we couldn't find the page you were looking for."
	return &ComponentResponse{Component: a.ComponentBuilder.Error(errCtx), Code: errCtx.Code, Message: errCtx.Msg}
}

func (a App) index(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	err := a.Controller.Refresh(r.Context())
	return a.result(err, "")
}

func (a App) createObjective(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	o, err := a.Controller.CreateObjective(r.Context(), r.FormValue("title"))
	if err != nil {
		return a.result(err, "")
	}
	return a.result(nil, fmt.Sprintf("Created %q.", o.Title))
}

func (a App) renameObjective(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	_, err := a.Controller.RenameObjective(r.Context(), r.PathValue("id"), r.FormValue("title"))
	return a.result(err, "Objective renamed.")
}

func (a App) deleteObjective(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.FormValue("confirm") != "yes" {
		return a.result(domain.NewValidationError("confirm", "deleting an objective needs confirmation"), "")
	}
	err := a.Controller.DeleteObjective(r.Context(), r.PathValue("id"))
	return a.result(err, "Objective deleted.")
}

func (a App) addKeyResult(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	draft, err := keyResultFromForm(r, "")
	if err != nil {
		return a.result(err, "")
	}
	_, err = a.Controller.AddKeyResult(r.Context(), r.PathValue("id"), draft)
	return a.result(err, "Key result added.")
}

func (a App) previewProgress(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	current, err := formFloat(r, "current", 0)
	if err != nil {
		return a.result(err, "")
	}
	a.Controller.EchoProgress(r.PathValue("id"), r.PathValue("krId"), current)
	return a.result(nil, "")
}

func (a App) updateProgress(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	current, err := formFloat(r, "current", 0)
	if err != nil {
		return a.result(err, "")
	}
	_, err = a.Controller.UpdateProgress(r.Context(), r.PathValue("id"), r.PathValue("krId"), current)
	return a.result(err, "Progress saved.")
}

func (a App) deleteKeyResult(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.FormValue("confirm") != "yes" {
		return a.result(domain.NewValidationError("confirm", "deleting a key result needs confirmation"), "")
	}
	err := a.Controller.DeleteKeyResult(r.Context(), r.PathValue("id"), r.PathValue("krId"))
	return a.result(err, "Key result deleted.")
}

func (a App) generate(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	draft, err := a.Generator.Generate(r.Context(), r.FormValue("prompt"))
	if err != nil {
		return a.result(err, "")
	}
	return &ComponentResponse{Component: a.ComponentBuilder.Draft(DraftData{Draft: draft}), Code: http.StatusOK, Message: "OK"}
}

func (a App) commitDraft(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	draft, err := draftFromForm(r)
	if err != nil {
		errCtx := errCtxFor(err)
		return &ComponentResponse{Component: a.ComponentBuilder.Draft(DraftData{Draft: draft, Error: &errCtx}), Code: errCtx.Code, Error: err}
	}

	o, err := a.Generator.Commit(r.Context(), draft)
	if err != nil {
		return a.result(err, "")
	}
	return a.result(nil, fmt.Sprintf("Created %q with %d key results.", o.Title, len(o.KeyResults)))
}

func formFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewValidationError(key, fmt.Sprintf("%s must be a number", key))
	}
	if err := domain.ValidateMeasure(key, v); err != nil {
		return 0, err
	}
	return v, nil
}

func keyResultFromForm(r *http.Request, suffix string) (domain.KeyResultDraft, error) {
	current, err := formFloat(r, "current"+suffix, 0)
	if err != nil {
		return domain.KeyResultDraft{}, err
	}
	target, err := formFloat(r, "target"+suffix, domain.DefaultTarget)
	if err != nil {
		return domain.KeyResultDraft{}, err
	}
	return domain.KeyResultDraft{
		Description: r.FormValue("description" + suffix),
		Current:     current,
		Target:      target,
		Metric:      r.FormValue("metric" + suffix),
	}, nil
}

// maxDraftKeyResults bounds the rows a submitted draft form may carry.
const maxDraftKeyResults = 25

// draftFromForm rebuilds an edited draft. Key result fields are suffixed
// with their position ("description_0", "target_0", ...); rows whose
// "remove_N" box is ticked are skipped.
func draftFromForm(r *http.Request) (*Draft, error) {
	if err := r.ParseForm(); err != nil {
		return nil, domain.NewValidationError("form", "malformed form")
	}

	count, err := strconv.Atoi(r.FormValue("count"))
	if err != nil || count < 0 {
		count = 0
	}

	draft := NewDraft(r.FormValue("prompt"), domain.ObjectiveDraft{Title: r.FormValue("title")})
	if count > maxDraftKeyResults {
		return draft, domain.NewValidationError("count", fmt.Sprintf("a draft holds at most %d key results", maxDraftKeyResults))
	}
	for i := 0; i < count; i++ {
		suffix := "_" + strconv.Itoa(i)
		if r.FormValue("remove"+suffix) != "" {
			continue
		}
		kr, err := keyResultFromForm(r, suffix)
		if err != nil {
			return draft, err
		}
		draft.AddKeyResult(kr)
	}

	if err := draft.Validate(); err != nil {
		return draft, err
	}
	return draft, nil
}
