package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/cmd/internal/auth/api"
	"atrium/cmd/internal/auth/session"
)

// App owns the process-lifetime objects: config, logger, DB pool, metrics,
// the auth handler, and the ledger sweeper.
type App struct {
	cfg     Config
	log     *slog.Logger
	pool    *pgxpool.Pool
	metrics *Metrics
	auth    *api.Handler
	sweeper *session.Sweeper
}

// New builds the app. A missing ATRIUM_DATABASE_URL degrades to a server
// that answers health probes and returns 503 from auth endpoints; anything
// else that fails is a hard startup error.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: NewAppMetrics(),
	}

	dbEnabled := cfg.DatabaseURL != ""
	if dbEnabled {
		if err := Migrate(ctx, log, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	} else {
		log.Warn("db.disabled", "reason", "ATRIUM_DATABASE_URL not set")
	}

	// Token config is only needed when auth is live; a degraded instance
	// without a DB serves health probes only.
	var sessCfg session.Config
	if dbEnabled {
		var err error
		sessCfg, err = session.LoadConfigFromEnv()
		if err != nil {
			a.pool.Close()
			return nil, err
		}
	}

	auth, err := api.NewHandler(log, a.pool, api.LoadConfigFromEnv(), sessCfg, dbEnabled, a.metrics.Auth)
	if err != nil {
		if a.pool != nil {
			a.pool.Close()
		}
		return nil, err
	}
	a.auth = auth

	if dbEnabled {
		a.sweeper = session.NewSweeper(log, session.NewPostgresStore(a.pool), sessCfg)
	}

	return a, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	mux := http.NewServeMux()
	registerHTTP(mux, a.cfg, a.pool, a.auth, a.metrics)

	var handler http.Handler = mux
	handler = WithCORS(handler, a.cfg.CORSAllowedOrigins, a.cfg.CORSAllowCredentials, a.cfg.CORSMaxAgeSeconds)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	if a.sweeper != nil {
		go a.sweeper.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http.listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("http.shutdown.begin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http.shutdown.fail", "err", err)
		return err
	}
	a.log.Info("http.shutdown.done")
	return nil
}

// Close releases pooled resources and flushes in-flight audit writes.
func (a *App) Close() {
	if a.auth != nil {
		a.auth.DrainAudit()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func nonZeroDuration(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func nonZeroInt(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}
