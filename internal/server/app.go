// Package server wires the portfolio components together and runs the
// HTTP API until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/config"
	"github.com/dmitrijs2005/portfolio/internal/server/httpapi"
	"github.com/dmitrijs2005/portfolio/internal/server/notify"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/dmitrijs2005/portfolio/internal/server/throttle"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler *httpapi.Handler
}

// NewLogger builds the JSON logger at the configured level.
func NewLogger(w io.Writer, level string) (logging.Logger, error) {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.NewJSON(w, l), nil
}

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	d, err := dbx.ParseDialect(c.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}

	db, err := repomanager.Open(ctx, d, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewRepositoryManager(d)
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migrations: %w", err)
	}
	return db, m, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	db, m, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	var limiter throttle.Limiter = throttle.Disabled{}
	if c.RedisURL != "" {
		app.redis, err = throttle.Connect(c.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		limiter = throttle.NewRedisLimiter(app.redis, c.LoginMaxAttempts, c.LoginWindow)
	}

	var notifier notify.Notifier
	if c.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:        c.SMTPHost,
			Port:        c.SMTPPort,
			Username:    c.SMTPUsername,
			Password:    c.SMTPPassword,
			From:        c.SMTPFrom,
			ImplicitTLS: c.SMTPImplicitTLS,
		})
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	as := services.NewAuthService(db, m, issuer, limiter, c.StoreTimeout, logger)
	cs := services.NewContentService(db, m, c.StoreTimeout)
	rs := services.NewRequestService(db, m, notifier, services.RequestServiceConfig{
		AdminEmail:    c.AdminEmail,
		StoreTimeout:  c.StoreTimeout,
		NotifyTimeout: c.NotifyTimeout,
	}, logger)

	var metrics *httpapi.Metrics
	if c.MetricsEnabled {
		metrics = httpapi.NewMetrics()
	}

	app.handler = httpapi.NewHandler(httpapi.Config{
		AccessCookieName:  c.AccessCookieName,
		RefreshCookieName: c.RefreshCookieName,
		SecureCookies:     c.SecureCookies,
	}, as, cs, rs, issuer, metrics, logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.handler.Routes(), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
