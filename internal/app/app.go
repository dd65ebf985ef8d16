package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/florist-storefront/internal/catalog"
	"github.com/xenking/florist-storefront/internal/domain/order"
	"github.com/xenking/florist-storefront/internal/handler"
	"github.com/xenking/florist-storefront/internal/persist"
	"github.com/xenking/florist-storefront/internal/session"
	"github.com/xenking/florist-storefront/internal/storage/memory"
	"github.com/xenking/florist-storefront/internal/storage/postgres"
	"github.com/xenking/florist-storefront/internal/storage/redis"
	"github.com/xenking/florist-storefront/pkg/health"
	"github.com/xenking/florist-storefront/pkg/httpmiddleware"
)

const serviceName = "storefront"

// backends are the storage implementations chosen by configuration.
type backends struct {
	payloads persist.Storage
	markers  persist.Markers
	orders   order.Repository
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects to PostgreSQL and Redis when configured, falling back
// to in-memory storage otherwise. Readiness checks are registered for every
// remote backend.
func openBackends(ctx context.Context, lg *zap.Logger, cfg *Config, hc *health.Health) (_ *backends, rerr error) {
	b := &backends{}
	defer func() {
		if rerr != nil {
			b.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		b.closers = append(b.closers, pool.Close)

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		b.payloads = postgres.NewPayloadStorage(pool)
		b.orders = postgres.NewOrderRepository(pool)
		hc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	} else {
		lg.Warn("No database configured, payloads and orders are kept in memory")
		b.payloads = memory.NewStorage()
		b.orders = memory.NewOrders()
	}

	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })

		b.markers = redis.NewMarkers(rdb, serviceName+":")
		hc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(health.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})))
	} else {
		lg.Warn("No Redis configured, persistence markers are kept in memory")
		b.markers = memory.NewMarkers()
	}

	return b, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.CatalogURL),
	)

	healthSvc := health.New()

	b, err := openBackends(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer b.Close()

	srv, err := newServer(ctx, lg, cfg, b, healthSvc, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Catalog.Timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           srv.handler,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSvc.Run(gCtx, 10*time.Second)
	})
	g.Go(func() error {
		return srv.sessions.Run(gCtx)
	})
	g.Go(func() error {
		// Graceful shutdown: stop advertising readiness, drain, then stop.
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// server is the assembled HTTP stack and the session registry behind it.
type server struct {
	handler  http.Handler
	sessions *session.Registry
}

// newServer wires the session registry, catalog client, checkout service and
// handlers over b, and wraps them in the middleware chain.
func newServer(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	b *backends,
	healthSvc *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*server, error) {
	metrics, err := persist.NewMetrics(mp)
	if err != nil {
		return nil, errors.Wrap(err, "create persistence metrics")
	}

	sessions := session.NewRegistry(b.payloads, b.markers, session.Options{
		IdleTTL:         cfg.Session.IdleTTL,
		SweepInterval:   cfg.Session.SweepInterval,
		CartMaxAge:      cfg.Persistence.CartMaxAge,
		FavoritesMaxAge: cfg.Persistence.FavoritesMaxAge,
		Locale:          cfg.LocaleTag(),
		Logger:          lg.Named("session"),
		Metrics:         metrics,
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("sessions", time.Second, health.SessionCountCheck(sessions.Len, cfg.Session.MaxSessions))

	catalogClient, err := catalog.New(cfg.CatalogURL, catalog.WithHTTPClient(&http.Client{
		Timeout: cfg.Catalog.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		),
	}))
	if err != nil {
		return nil, errors.Wrap(err, "create catalog client")
	}

	h := handler.New(sessions, catalogClient, order.NewService(b.orders, tp))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	return &server{
		sessions: sessions,
		handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				Methods: []string{http.MethodPost, http.MethodPut, http.MethodDelete},
			}),
			httpmiddleware.Session(httpmiddleware.SessionConfig{
				Cookie: cfg.Session.Cookie,
				MaxAge: cfg.Session.CookieMaxAge,
				Secure: cfg.Session.SecureCookie,
			}),
			httpmiddleware.Instrument(serviceName, tp, mp),
			httpmiddleware.LogRequests(),
		),
	}, nil
}
