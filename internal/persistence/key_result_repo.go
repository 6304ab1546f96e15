package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixbrock/okrs/internal/domain"
)

type KeyResultRepo struct {
	BaseHeaders []string
	BaseUrl     string
	Client      *http.Client
}

func (r KeyResultRepo) url(objectiveId, keyResultId string) string {
	base := fmt.Sprintf("%s/objectives/%s/key-results", strings.TrimRight(r.BaseUrl, "/"), url.PathEscape(objectiveId))
	if keyResultId == "" {
		return base
	}
	return fmt.Sprintf("%s/%s", base, url.PathEscape(keyResultId))
}

// Insert creates a key result. Target defaults to 100, metric to "%" and
// current to 0 when left unset.
func (r KeyResultRepo) Insert(ctx context.Context, objectiveId string, draft domain.KeyResultDraft) (*domain.KeyResult, error) {
	if err := checkId("objective id", objectiveId); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	draft = draft.WithDefaults()
	body, err := json.Marshal(keyResultBody{
		Description: draft.Description,
		Progress:    draft.Current,
		Target:      draft.Target,
		Metric:      draft.Metric,
	})

	if err != nil {
		return nil, err
	}

	return r.write(ctx, "create key result", http.MethodPost, r.url(objectiveId, ""), body, http.StatusOK, http.StatusCreated)
}

func (r KeyResultRepo) UpdateProgress(ctx context.Context, objectiveId string, keyResultId string, current float64) (*domain.KeyResult, error) {
	if err := checkId("objective id", objectiveId); err != nil {
		return nil, err
	}
	if err := checkId("key result id", keyResultId); err != nil {
		return nil, err
	}
	if err := domain.ValidateMeasure("current", current); err != nil {
		return nil, err
	}

	body, err := json.Marshal(progressBody{Progress: domain.ClampCurrent(current)})

	if err != nil {
		return nil, err
	}

	return r.write(ctx, "update key result progress", http.MethodPatch, r.url(objectiveId, keyResultId), body, http.StatusOK)
}

func (r KeyResultRepo) Delete(ctx context.Context, objectiveId string, keyResultId string) error {
	if err := checkId("objective id", objectiveId); err != nil {
		return err
	}
	if err := checkId("key result id", keyResultId); err != nil {
		return err
	}

	_, err := send(ctx, r.Client, reqConfig{
		Op:      "delete key result",
		Method:  http.MethodDelete,
		Url:     r.url(objectiveId, keyResultId),
		Headers: r.BaseHeaders},
		http.StatusOK, http.StatusNoContent)

	return err
}

func (r KeyResultRepo) write(ctx context.Context, op, method, target string, body []byte, expectedResCodes ...int) (*domain.KeyResult, error) {
	record, err := request[keyResultRecord](ctx, r.Client, reqConfig{
		Op:      op,
		Method:  method,
		Url:     target,
		Body:    body,
		Headers: r.BaseHeaders},
		expectedResCodes...)

	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &domain.ServerError{Op: op, Err: fmt.Errorf("empty response body")}
	}

	kr, err := record.toDomain()
	if err != nil {
		return nil, &domain.ServerError{Op: op, Err: err}
	}

	return &kr, nil
}
