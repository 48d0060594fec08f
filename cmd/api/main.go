package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	amqppublisher "github.com/weddingpass/pass-api/internal/adapters/amqp/publisher"
	"github.com/weddingpass/pass-api/internal/adapters/httpapi"
	memevents "github.com/weddingpass/pass-api/internal/adapters/memory/events"
	memidempotency "github.com/weddingpass/pass-api/internal/adapters/memory/idempotency"
	memmessagerepo "github.com/weddingpass/pass-api/internal/adapters/memory/messagerepo"
	memreservationrepo "github.com/weddingpass/pass-api/internal/adapters/memory/reservationrepo"
	memsessionstore "github.com/weddingpass/pass-api/internal/adapters/memory/sessionstore"
	postgres "github.com/weddingpass/pass-api/internal/adapters/postgres"
	pgidempotency "github.com/weddingpass/pass-api/internal/adapters/postgres/idempotency"
	pgmessagerepo "github.com/weddingpass/pass-api/internal/adapters/postgres/messagerepo"
	pgreservationrepo "github.com/weddingpass/pass-api/internal/adapters/postgres/reservationrepo"
	redissessionstore "github.com/weddingpass/pass-api/internal/adapters/redis/sessionstore"
	"github.com/weddingpass/pass-api/internal/adapters/sqlite"
	sqliteidempotency "github.com/weddingpass/pass-api/internal/adapters/sqlite/idempotency"
	sqlitemessagerepo "github.com/weddingpass/pass-api/internal/adapters/sqlite/messagerepo"
	sqlitereservationrepo "github.com/weddingpass/pass-api/internal/adapters/sqlite/reservationrepo"
	"github.com/weddingpass/pass-api/internal/app/auth"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/platform/auth/tokens"
	platformclock "github.com/weddingpass/pass-api/internal/platform/clock"
	"github.com/weddingpass/pass-api/internal/platform/config"
	"github.com/weddingpass/pass-api/internal/platform/logging"
	"github.com/weddingpass/pass-api/internal/ports/out/events"
	idempotencyport "github.com/weddingpass/pass-api/internal/ports/out/idempotency"
	messagerepoport "github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
	reservationrepoport "github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
	sessionstoreport "github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

func main() {
	cfg, err := config.Load(getenv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("invalid log config: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

type stores struct {
	reservations reservationrepoport.Repository
	messages     messagerepoport.Repository
	idem         idempotencyport.Store
	cleanup      func()
}

func openStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (stores, error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.MaxConns})
		if err != nil {
			return stores{}, fmt.Errorf("postgres: %w", err)
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return stores{}, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		logger.Info("storage ready", zap.String("backend", "postgres"))
		return stores{
			reservations: pgreservationrepo.NewRepo(pool),
			messages:     pgmessagerepo.NewRepo(pool),
			idem:         pgidempotency.NewStore(pool),
			cleanup:      pool.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("sqlite: %w", err)
		}
		if cfg.AutoMigrate {
			if err := sqlite.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return stores{}, fmt.Errorf("sqlite migrate: %w", err)
			}
		}
		logger.Info("storage ready", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLitePath))
		return stores{
			reservations: sqlitereservationrepo.NewRepo(db),
			messages:     sqlitemessagerepo.NewRepo(db),
			idem:         sqliteidempotency.NewStore(db),
			cleanup:      func() { _ = db.Close() },
		}, nil
	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		return stores{
			reservations: memreservationrepo.NewRepo(),
			messages:     memmessagerepo.NewRepo(),
			idem:         memidempotency.NewStore(),
			cleanup:      func() {},
		}, nil
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()
	event, err := cfg.Event.Domain()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.cleanup()

	var publisher events.Publisher
	switch cfg.Events.Backend {
	case "amqp":
		p := amqppublisher.New(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		defer func() { _ = p.Close() }()
		publisher = p
	default:
		publisher = memevents.NewRecorder(1000)
	}

	reservationsSvc := reservations.NewService(st.reservations, clk, event, publisher, logger.Named("reservations"))
	messagesSvc := messages.NewService(st.messages, clk, publisher, logger.Named("messages"))

	var (
		authSvc *auth.Service
		authMW  func(http.Handler) http.Handler
	)
	switch cfg.Auth.Mode {
	case "dev":
		logger.Warn("dev auth mode: admin routes trust X-Debug-Subject")
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevSubject)
	default:
		var sessions sessionstoreport.Store
		if cfg.Sessions.Backend == "redis" {
			client := goredis.NewClient(&goredis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer func() { _ = client.Close() }()
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			sessions = redissessionstore.NewStore(client, clk)
		} else {
			sessions = memsessionstore.NewStore(clk)
		}
		admins := make([]auth.Admin, 0)
		for _, a := range cfg.Auth.AllAdmins() {
			admins = append(admins, auth.Admin{Email: a.Email, PasswordHash: a.PasswordHash})
		}
		tm := tokens.NewManager(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.SessionTTL, clk)
		authSvc = auth.NewService(admins, tm, sessions, clk, publisher, logger.Named("auth"))
		authMW = httpapi.NewAuthMiddleware(authSvc)
	}

	var limiter *httpapi.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	api := httpapi.NewServer(reservationsSvc, messagesSvc, authSvc, st.idem, clk, logger.Named("http"))
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("auth", cfg.Auth.Mode),
			zap.Int("maxCapacity", event.MaxCapacity),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
