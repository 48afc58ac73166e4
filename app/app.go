package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"github.com/tech-arch1tect/authcore/services/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	fx       *fx.App
	config   *config.Config
	logger   *logging.Service
	db       *gorm.DB
	sessions *session.Service
	metrics  *metrics.Recorder
	audit    *audit.Service
}

func (a *App) Start(ctx context.Context) error {
	if err := a.fx.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("authcore started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	err := a.fx.Stop(ctx)
	if err != nil {
		a.logger.Error("failed to stop application gracefully", zap.Error(err))
	}
	_ = a.logger.Sync()
	return err
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info("received shutdown signal, stopping gracefully", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = a.Stop(ctx)
}

func (a *App) Sessions() *session.Service {
	return a.sessions
}

func (a *App) Database() *gorm.DB {
	return a.db
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Audit() *audit.Service {
	return a.audit
}

// Metrics is nil when metrics are disabled.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}

// MetricsHandler serves the Prometheus exposition for mounting on the host's
// router. It responds 404 when metrics are disabled.
func (a *App) MetricsHandler() http.Handler {
	return a.metrics.Handler()
}
