// Command safetycored runs the reference collaborator server: the core
// service over a durable store, exposed via HTTP and WebSocket push.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"safetycore/internal/blob"
	"safetycore/internal/collab/httpapi"
	"safetycore/internal/config"
	"safetycore/internal/core"
	"safetycore/internal/infra/persistence"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	engine := core.NewDefaultRulesEngine()
	store, err := persistence.Open(engine)
	if err != nil {
		logger.Error("open persistent store", "error", err)
		os.Exit(1)
	}

	attachments, err := blob.Open(context.Background())
	if err != nil {
		logger.Error("open blob store", "error", err)
		os.Exit(1)
	}

	metrics := core.NewPrometheusMetricsRecorder(nil)
	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetrics(metrics),
		core.WithAttachments(attachments),
	)

	srv := httpapi.NewServer(svc)
	logger.Info("starting collaborator server",
		"addr", cfg.HTTPAddr,
		"storage_driver", cfg.StorageDriver,
		"blob_driver", string(attachments.Driver()),
	)
	if err := srv.Run(cfg.HTTPAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
