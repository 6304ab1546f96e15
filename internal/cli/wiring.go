package cli

import (
	"net/http"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/components"
	"github.com/felixbrock/okrs/internal/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type runtime struct {
	app      app.App
	registry *prometheus.Registry
}

func build(cfg app.Config) runtime {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	headers := persistence.Headers(cfg.ApiKey)

	objectiveRepo := persistence.ObjectiveRepo{BaseHeaders: headers, BaseUrl: cfg.BaseUrl, Client: client}
	keyResultRepo := persistence.KeyResultRepo{BaseHeaders: headers, BaseUrl: cfg.BaseUrl, Client: client}
	generatorRepo := persistence.GeneratorRepo{
		BaseHeaders: headers,
		BaseUrl:     cfg.GeneratorUrl,
		Client:      client,
		Limiter:     persistence.NewLimiter(cfg.GeneratorRate, cfg.GeneratorBurst),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	controller := app.NewController(objectiveRepo, keyResultRepo, app.NewStore(), app.MustNewMetrics(registry))

	componentBuilder := app.ComponentBuilder{
		Index: components.Index,
		Draft: components.Draft,
		Error: components.Error,
	}

	return runtime{
		app: app.App{
			Controller:       controller,
			Generator:        app.NewGenerator(generatorRepo, controller),
			ComponentBuilder: componentBuilder,
			Gatherer:         registry,
			Config:           cfg,
		},
		registry: registry,
	}
}
