package persistence

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
)

const maxResponseBytes = 4 << 20

type reqConfig struct {
	Op      string
	Method  string
	Url     string
	Headers []string
	Body    []byte
}

// send performs one call against a remote service and returns the raw body.
// There is no retry: callers decide whether to re-trigger the action.
func send(ctx context.Context, client *http.Client, config reqConfig, expectedResCodes ...int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, config.Method, config.Url, bytes.NewBuffer(config.Body))

	if err != nil {
		return nil, &domain.TransportError{Op: config.Op, Err: err}
	}

	for i := 0; i < len(config.Headers); i++ {
		headerKV := strings.SplitN(config.Headers[i], ":", 2)
		if len(headerKV) != 2 {
			continue
		}
		req.Header.Add(strings.TrimSpace(headerKV[0]), strings.TrimSpace(headerKV[1]))
	}
	if config.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)

	if err != nil {
		return nil, &domain.TransportError{Op: config.Op, Err: err}
	}

	body, err := app.Read(resp.Body, maxResponseBytes)

	if err != nil {
		if app.IsResponseTooLarge(err) {
			return nil, &domain.ServerError{Op: config.Op, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, &domain.TransportError{Op: config.Op, Err: err}
	}

	if !slices.Contains(expectedResCodes, resp.StatusCode) {
		return nil, &domain.ServerError{Op: config.Op, StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	return body, nil
}

// request sends the call and decodes the JSON response. An empty body yields
// a nil result.
func request[T any](ctx context.Context, client *http.Client, config reqConfig, expectedResCodes ...int) (*T, error) {
	body, err := send(ctx, client, config, expectedResCodes...)

	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var t *T
	t, err = app.ReadJSON[T](body)

	if err != nil {
		return nil, &domain.ServerError{Op: config.Op, Err: err}
	}

	return t, nil
}

func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Headers builds the authentication headers the persistence service expects.
func Headers(apiKey string) []string {
	if apiKey == "" {
		return nil
	}
	return []string{
		"apikey: " + apiKey,
		"Authorization: Bearer " + apiKey,
	}
}

func checkId(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError(field, field+" must not be empty")
	}
	if domain.IsPlaceholderID(id) {
		return domain.NewValidationError(field, field+" refers to an unsaved draft")
	}
	return nil
}
