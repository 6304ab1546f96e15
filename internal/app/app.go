package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Port           string
	BaseUrl        string
	GeneratorUrl   string
	ApiKey         string
	GeneratorRate  float64
	GeneratorBurst int
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

type IndexData struct {
	Objectives []ObjectiveView
	Error      *ErrCtx
	Notice     string
}

type DraftData struct {
	Draft *Draft
	Error *ErrCtx
}

// ComponentBuilder holds the page constructors, injected by main so this
// package does not depend on the markup.
type ComponentBuilder struct {
	Index func(IndexData) templ.Component
	Draft func(DraftData) templ.Component
	Error func(ErrCtx) templ.Component
}

type App struct {
	Controller       *Controller
	Generator        *Generator
	ComponentBuilder ComponentBuilder
	Gatherer         prometheus.Gatherer
	Config           Config
}

func (a App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", ComponentHandler(a.notFound))
	mux.Handle("GET /{$}", ComponentHandler(a.index))
	mux.Handle("POST /objectives", ComponentHandler(a.createObjective))
	mux.Handle("POST /objectives/{id}/rename", ComponentHandler(a.renameObjective))
	mux.Handle("POST /objectives/{id}/delete", ComponentHandler(a.deleteObjective))
	mux.Handle("POST /objectives/{id}/key-results", ComponentHandler(a.addKeyResult))
	mux.Handle("POST /objectives/{id}/key-results/{krId}/preview", ComponentHandler(a.previewProgress))
	mux.Handle("POST /objectives/{id}/key-results/{krId}/progress", ComponentHandler(a.updateProgress))
	mux.Handle("POST /objectives/{id}/key-results/{krId}/delete", ComponentHandler(a.deleteKeyResult))
	mux.Handle("POST /generate", ComponentHandler(a.generate))
	mux.Handle("POST /generate/commit", ComponentHandler(a.commitDraft))

	gatherer := a.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

func (a App) Start() error {
	port := a.Config.Port
	if port == "" {
		port = "8000"
	}

	slog.Info(fmt.Sprintf("App running on %s...", port))
	return http.ListenAndServe(":"+port, a.Handler())
}
