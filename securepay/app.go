package securepay

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"github.com/alovak/securepay/internal/metrics"
	"github.com/alovak/securepay/internal/middleware"
	"github.com/alovak/securepay/internal/security"
	"github.com/alovak/securepay/internal/store/boltstore"
	"github.com/alovak/securepay/internal/store/redisstore"
	"github.com/alovak/securepay/internal/token"
)

// App is the main application, it contains all the components of the securepay
// service and is responsible for starting and stopping them.
type App struct {
	srv    *http.Server
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	config *Config
	store  CardStore
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "securepay"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	master, err := a.config.SecretProvider().Secret(ctx)
	if err != nil {
		return fmt.Errorf("loading master secret: %w", err)
	}
	defer security.Wipe(master)
	if len(master) < token.MinSecretLength {
		return fmt.Errorf("master secret must be at least %d bytes", token.MinSecretLength)
	}

	tokenKey, err := security.DeriveKey(master, security.LabelTokenSigning)
	if err != nil {
		return err
	}
	defer security.Wipe(tokenKey)
	panKey, err := security.DeriveKey(master, security.LabelPANHash)
	if err != nil {
		return err
	}

	codec, err := token.NewCodec(tokenKey)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	cards, err := a.openStore(ctx, panKey)
	if err != nil {
		return err
	}
	a.store = cards

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc := NewService(codec, cards, a.config,
		WithLogger(a.logger),
		WithMetrics(m),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(a.logger))
	router.Use(middleware.NewStructuredLogger(a.logger))
	router.Use(middleware.Latency(m))

	api := NewAPI(svc)
	api.AppendRoutes(router)
	if a.config.DevRoutes {
		a.logger.Warn("dev routes enabled")
		api.AppendDevRoutes(router)
	}

	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Ready(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		cards.Close()
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

// openStore selects the card store backend. mem is refused unless explicitly
// allowed for tests.
func (a *App) openStore(ctx context.Context, panKey []byte) (CardStore, error) {
	a.logger.Info("opening card store", slog.String("backend", a.config.RepoBackend))

	switch a.config.RepoBackend {
	case "pg":
		if a.config.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", a.config.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := NewPGRepository(db, panKey)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil
	case "bolt":
		return boltstore.Open(a.config.BoltPath, panKey)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: a.config.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return redisstore.New(client, a.config.RedisKeyPrefix, panKey), nil
	case "mem":
		if !a.config.AllowMemBackend {
			return nil, fmt.Errorf("mem repository is disabled at runtime; set ALLOW_MEM_BACKEND_FOR_TESTS=true only in tests")
		}
		return NewRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported REPO_BACKEND=%s", a.config.RepoBackend)
	}
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.logger.Error("shutting down http server", "err", err)
		}
	}

	a.wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("closing card store", "err", err)
		}
	}

	a.logger.Info("app stopped")
}
