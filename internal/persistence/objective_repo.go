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

type ObjectiveRepo struct {
	BaseHeaders []string
	BaseUrl     string
	Client      *http.Client
}

func (r ObjectiveRepo) url(id string) string {
	base := strings.TrimRight(r.BaseUrl, "/") + "/objectives"
	if id == "" {
		return base
	}
	return fmt.Sprintf("%s/%s", base, url.PathEscape(id))
}

func (r ObjectiveRepo) List(ctx context.Context) ([]domain.Objective, error) {
	const op = "list objectives"

	records, err := request[[]objectiveRecord](ctx, r.Client, reqConfig{
		Op:      op,
		Method:  http.MethodGet,
		Url:     r.url(""),
		Headers: r.BaseHeaders},
		http.StatusOK)

	if err != nil {
		return nil, err
	}

	objectives := []domain.Objective{}
	if records == nil {
		return objectives, nil
	}

	for _, record := range *records {
		o, err := record.toDomain()
		if err != nil {
			return nil, &domain.ServerError{Op: op, Err: err}
		}
		objectives = append(objectives, o)
	}

	return objectives, nil
}

func (r ObjectiveRepo) Insert(ctx context.Context, title string) (*domain.Objective, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	return r.write(ctx, "create objective", http.MethodPost, r.url(""), strings.TrimSpace(title))
}

func (r ObjectiveRepo) Update(ctx context.Context, id string, title string) (*domain.Objective, error) {
	if err := checkId("objective id", id); err != nil {
		return nil, err
	}
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}

	return r.write(ctx, "update objective", http.MethodPatch, r.url(id), strings.TrimSpace(title))
}

func (r ObjectiveRepo) Delete(ctx context.Context, id string) error {
	if err := checkId("objective id", id); err != nil {
		return err
	}

	_, err := send(ctx, r.Client, reqConfig{
		Op:      "delete objective",
		Method:  http.MethodDelete,
		Url:     r.url(id),
		Headers: r.BaseHeaders},
		http.StatusOK, http.StatusNoContent)

	return err
}

func (r ObjectiveRepo) write(ctx context.Context, op, method, target, title string) (*domain.Objective, error) {
	body, err := json.Marshal(objectiveBody{Title: title})

	if err != nil {
		return nil, err
	}

	record, err := request[objectiveRecord](ctx, r.Client, reqConfig{
		Op:      op,
		Method:  method,
		Url:     target,
		Body:    body,
		Headers: r.BaseHeaders},
		http.StatusOK, http.StatusCreated)

	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &domain.ServerError{Op: op, Err: fmt.Errorf("empty response body")}
	}

	o, err := record.toDomain()
	if err != nil {
		return nil, &domain.ServerError{Op: op, Err: err}
	}

	return &o, nil
}
