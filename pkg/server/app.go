package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	domrepo "TradeScope/internal/domain/repository"
	pkgch "TradeScope/pkg/clickhouse"
	"TradeScope/pkg/config"
	xhttp "TradeScope/pkg/http"
	applogger "TradeScope/pkg/logger"
	"TradeScope/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	handlers  []xhttp.Handler
	queue     *queue.RedisQueue
	archive   domrepo.RunArchive
	publisher domrepo.DecisionPublisher
	chClient  *pkgch.Client

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Archive, publisher and
// chClient may be nil when the corresponding backend is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handlers []xhttp.Handler,
	q *queue.RedisQueue,
	archive domrepo.RunArchive,
	publisher domrepo.DecisionPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handlers:  handlers,
		queue:     q,
		archive:   archive,
		publisher: publisher,
		chClient:  chClient,
	}
}

// routes composes several route registrars into one.
type routes []xhttp.Handler

func (r routes) RegisterRoutes(e *echo.Echo) {
	for _, h := range r {
		h.RegisterRoutes(e)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.archive != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.archive.Init(initCtx); err != nil {
			a.log.Warn("run archive init failed", applogger.Error(err))
		}
		initCancel()
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.log.Error("queue start failed", applogger.Error(err))
			return err
		}
	}

	a.httpServer = xhttp.NewServer(routes(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.httpServer.Echo().GET("/health", a.health)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

// health reports liveness plus reachability of optional backends.
func (a *App) health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if a.chClient != nil {
		if err := a.chClient.Health(c.Request().Context()); err != nil {
			status["clickhouse"] = err.Error()
			status["status"] = "degraded"
		}
	}
	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
