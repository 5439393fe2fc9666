// server wires high-level dependencies, exposes the HTTP router, and keeps
// the process lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatehouse/internal/auth/authz"
	"gatehouse/internal/auth/service"
	accountstore "gatehouse/internal/auth/store/account"
	sessionstore "gatehouse/internal/auth/store/session"
	"gatehouse/internal/auth/token"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/db"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/logger"
	"gatehouse/internal/platform/metrics"
	platformredis "gatehouse/internal/platform/redis"
	httptransport "gatehouse/internal/transport/http"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/audit/interceptor"
	"gatehouse/pkg/platform/audit/publisher"
	auditmemory "gatehouse/pkg/platform/audit/store/memory"
	auditpostgres "gatehouse/pkg/platform/audit/store/postgres"
	"gatehouse/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Session store preference: Redis, then PostgreSQL, then in-memory.
	var sessions sessionstore.Store
	switch {
	case rdb != nil:
		sessions = sessionstore.NewRedis(rdb.Client)
	case pool != nil:
		sessions = sessionstore.NewPostgres(pool)
	default:
		log.Warn("no session backend configured, using in-memory store")
		sessions = sessionstore.NewInMemory()
	}

	var accounts accountstore.Store
	var auditStore audit.Store
	if pool != nil {
		accounts = accountstore.NewPostgres(pool)
		auditStore = auditpostgres.New(pool)
	} else {
		accounts = accountstore.NewInMemory()
		auditStore = auditmemory.New()
	}

	codec, err := token.NewCodec(token.DeriveKey(cfg.TokenKey))
	if err != nil {
		log.Error("token codec init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	recorder := audit.NewRecorder(cfg.AuditQueueSize, log, m)
	auth := service.New(sessions, accounts, codec, log, m, recorder)

	var pub worker.Publisher
	kafka, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	if kafka != nil {
		defer kafka.Close()
		pub = kafka
	}
	auditWorker := worker.New(auditStore, recorder.Entries(), pub, log)

	// Session snapshots let mutations on /api/.../sessions carry a
	// before-image; other entity types belong to the embedding application.
	sources := interceptor.NewSources()
	sources.Register(audit.EntitySession, func(ctx context.Context, entityID string) (json.RawMessage, error) {
		sessionID, err := id.ParseSessionID(entityID)
		if err != nil {
			return nil, nil
		}
		s, err := sessions.FindByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"id":           s.ID.String(),
			"user_id":      s.UserID.String(),
			"ip":           s.IP,
			"agent":        s.Agent,
			"last_used_at": s.LastUsedAt,
			"created_at":   s.CreatedAt,
			"revoked_at":   s.RevokedAt,
		})
	})

	audits := interceptor.New(recorder, interceptor.NewResolver(interceptor.DefaultRules()...), sources, log)

	admins := make([]id.UserID, 0, len(cfg.AdminUsers))
	for _, raw := range cfg.AdminUsers {
		adminID, err := id.ParseUserID(raw)
		if err != nil {
			log.Warn("skipping invalid admin user id", "value", raw)
			continue
		}
		admins = append(admins, adminID)
	}

	handler := httptransport.NewHandler(auth, auditStore, authz.NewStatic(admins), log)
	router := httptransport.NewRouter(handler, audits, m, nil)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting gatehouse", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	log.Info("gatehouse stopped")
}
