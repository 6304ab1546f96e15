package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
	"github.com/felixbrock/okrs/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, svc *testutil.FakeService, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(append([]string{"--base-url", svc.URL, "--api-key", "secret"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newService(t *testing.T) *testutil.FakeService {
	t.Helper()
	svc := testutil.NewFakeService()
	t.Cleanup(svc.Close)
	return svc
}

func TestCommandsRoundTrip(t *testing.T) {
	svc := newService(t)

	out, err := run(t, svc, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No objectives yet.")

	out, err = run(t, svc, "create", "Ship", "v1")
	require.NoError(t, err)
	assert.Contains(t, out, "created objective Ship v1 (1)")

	out, err = run(t, svc, "add-kr", "1", "Features shipped", "--target", "10", "--metric", "features")
	require.NoError(t, err)
	assert.Contains(t, out, "added key result Features shipped (2) 0/10 features")

	out, err = run(t, svc, "progress", "1", "2", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Features shipped now at 5/10 features (50%), objective at 50%")

	out, err = run(t, svc, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ship v1")
	assert.Contains(t, out, "5/10 features")
	assert.Contains(t, out, "50%")

	out, err = run(t, svc, "rename", "1", "Ship", "v2")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed objective 1 to Ship v2")

	_, err = run(t, svc, "delete-kr", "1", "2")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, svc, "delete-kr", "1", "2", "--yes")
	require.NoError(t, err)

	_, err = run(t, svc, "delete", "1", "-y")
	require.NoError(t, err)
	assert.Empty(t, svc.Objectives())
}

func TestProgressRejectsNonNumbers(t *testing.T) {
	svc := newService(t)

	_, err := run(t, svc, "progress", "1", "2", "half")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, svc, "progress", "1", "2", "NaN")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, svc, "add-kr", "1", "Signups", "--target", "Inf")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = run(t, svc, "add-kr", "1", "Signups", "--target=-5")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, svc.Requests())
}

func TestGenerateThenCommitDraftFile(t *testing.T) {
	svc := newService(t)
	svc.Generated = `{"objective": {"title": "Improve onboarding"}, "keyResults": [{"description": "Cut setup time", "target": 30, "metric": "minutes"}]}`
	path := filepath.Join(t.TempDir(), "draft.yaml")

	out, err := run(t, svc, "generate", "help", "new", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Objective: Improve onboarding")
	assert.Contains(t, out, "1. Cut setup time 0/30 minutes")

	_, err = run(t, svc, "generate", "--out", path, "help new users")
	require.NoError(t, err)
	assert.Empty(t, svc.Objectives(), "generating never persists")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "title: Improve onboarding")

	out, err = run(t, svc, "commit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "created objective Improve onboarding (1) with 1 key results")

	stored := svc.Objectives()
	require.Len(t, stored, 1)
	require.Len(t, stored[0].KeyResults, 1)
	assert.Equal(t, "minutes", stored[0].KeyResults[0].Metric)
}

func TestCommitRejectsMalformedDraftFile(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: [unterminated"), 0o600))

	_, err := run(t, svc, "commit", path)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, svc.Requests())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("OKRS_BASE_URL", "http://okrs.test/")
	t.Setenv("OKRS_API_KEY", "k")
	t.Setenv("OKRS_REQUEST_TIMEOUT", "5s")
	t.Setenv("OKRS_GENERATOR_RATE", "0.5")

	cfg, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, "http://okrs.test", cfg.BaseUrl)
	assert.Equal(t, "http://okrs.test", cfg.GeneratorUrl)
	assert.Equal(t, "k", cfg.ApiKey)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0.5, cfg.GeneratorRate)
	assert.Equal(t, "8000", cfg.Port)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "okrs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://file.test\ngenerator_url: http://ai.test\nlog_format: json\n"), 0o600))

	v := newViper()
	require.NoError(t, readConfigFile(v, path))
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "http://file.test", cfg.BaseUrl)
	assert.Equal(t, "http://ai.test", cfg.GeneratorUrl)
	assert.Equal(t, "json", cfg.LogFormat)

	assert.Error(t, readConfigFile(newViper(), filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLoadConfigRequiresBaseUrl(t *testing.T) {
	v := newViper()
	v.Set("base_url", "")
	_, err := loadConfig(v)
	assert.Error(t, err)
}

func TestFailureMessages(t *testing.T) {
	assert.Contains(t, failure(domain.NewValidationError("title", "objective title must not be empty")), "invalid input: objective title must not be empty")
	assert.Contains(t, failure(&domain.ServerError{Op: "delete objective", StatusCode: 404}), "not found")
	assert.Contains(t, failure(&app.PartialCommitError{ObjectiveId: "7", Created: 1, Total: 3}), "objective 7 exists with 1 of 3 key results")
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[....................]", bar(0))
	assert.Equal(t, "[##########..........]", bar(50))
	assert.Equal(t, "[####################]", bar(100))
}
