package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixbrock/okrs/internal/domain"
	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/time/rate"
)

// GeneratorRepo talks to the OKR suggestion service. Its output is advisory
// and is never persisted by this repo.
type GeneratorRepo struct {
	BaseHeaders []string
	BaseUrl     string
	Client      *http.Client
	// Limiter throttles prompts sent to the service; nil disables throttling.
	Limiter *rate.Limiter
}

func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (r GeneratorRepo) Generate(ctx context.Context, prompt string) (*domain.ObjectiveDraft, error) {
	const op = "generate okr"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.NewValidationError("prompt", "prompt must not be empty")
	}

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, &domain.TransportError{Op: op, Err: err}
		}
	}

	body, err := json.Marshal(generateBody{Prompt: prompt})

	if err != nil {
		return nil, err
	}

	raw, err := send(ctx, r.Client, reqConfig{
		Op:      op,
		Method:  http.MethodPost,
		Url:     strings.TrimRight(r.BaseUrl, "/") + "/ai/generate-okr",
		Body:    body,
		Headers: r.BaseHeaders},
		http.StatusOK, http.StatusCreated)

	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &domain.ServerError{Op: op, Err: fmt.Errorf("empty response body")}
	}

	record, err := decodeGenerated(raw)
	if err != nil {
		return nil, &domain.ServerError{Op: op, Err: err}
	}

	draft, err := record.toDomain()
	if err != nil {
		return nil, &domain.ServerError{Op: op, Err: err}
	}

	return &draft, nil
}

// decodeGenerated accepts the service payload directly, or as a JSON string
// holding model output that may need repair.
func decodeGenerated(raw []byte) (*generatedRecord, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = []byte(text)
	}

	var record generatedRecord
	if err := json.Unmarshal(raw, &record); err == nil {
		return &record, nil
	}

	slog.Warn("generator returned malformed json, attempting repair")
	fixed, err := jsonrepair.JSONRepair(string(raw))
	if err != nil {
		return nil, fmt.Errorf("repair generator payload: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &record); err != nil {
		return nil, fmt.Errorf("decode repaired generator payload: %w", err)
	}

	return &record, nil
}
