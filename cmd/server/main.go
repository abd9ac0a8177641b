// Command server runs the rollcall operations service: health and
// metrics endpoints plus an HTTP trigger for the import pipeline.
// Member data is stored in SQLite by default, or PostgreSQL when a DSN
// is configured.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/audit"
	"rollcall/internal/backup"
	groupservice "rollcall/internal/group/service"
	httpapi "rollcall/internal/http"
	"rollcall/internal/importer"
	importmetrics "rollcall/internal/importer/metrics"
	membershipservice "rollcall/internal/membership/service"
	personservice "rollcall/internal/person/service"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/storage/postgres"
	"rollcall/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, closePublisher, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	imp, closeStore, err := buildPipeline(ctx, cfg, log, publisher)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := httpapi.NewHandler(imp, log)
	srv := httpserver.New(cfg.Addr, httpapi.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildPublisher(cfg config.Config, log *slog.Logger) (audit.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NoopPublisher{}, func() {}, nil
	}
	kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit publisher enabled", "topic", cfg.KafkaTopic)
	return kafka, kafka.Close, nil
}

// buildPipeline wires the stores, services and import engine. With
// PostgreSQL the backup collaborator is not applicable, so imports run
// against the ensured schema without a rename step.
func buildPipeline(ctx context.Context, cfg config.Config, log *slog.Logger, publisher audit.Publisher) (*importer.Importer, func(), error) {
	metrics := importmetrics.New()

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store := postgres.New(db)
		if err := store.Init(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		imp := assemble(log, publisher, metrics,
			store, store.Groups(), store.Memberships(),
			backupless{}, importer.InitializerFunc(store.Init))
		return imp, func() { _ = db.Close() }, nil
	}

	store := sqlite.New(cfg.DatabasePath)
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	snap := backup.New(cfg.DatabasePath, backup.AlwaysConfirm, backup.WithLogger(log))
	imp := assemble(log, publisher, metrics,
		store, store.Groups(), store.Memberships(),
		snap, importer.InitializerFunc(store.Reopen))
	return imp, func() { _ = store.Close() }, nil
}

type personStore = personservice.Store
type groupStore = groupservice.Store
type membershipStore = membershipservice.Store

func assemble(
	log *slog.Logger,
	publisher audit.Publisher,
	metrics *importmetrics.Metrics,
	persons personStore,
	groups groupStore,
	memberships membershipStore,
	snap importer.Backup,
	init importer.Initializer,
) *importer.Importer {
	personSvc := personservice.New(persons,
		personservice.WithLogger(log),
		personservice.WithAuditPublisher(publisher))
	membershipSvc := membershipservice.New(memberships, persons, groups,
		membershipservice.WithLogger(log))
	groupSvc := groupservice.New(groups, persons, membershipSvc,
		groupservice.WithLogger(log),
		groupservice.WithAuditPublisher(publisher))

	return importer.New(snap, init, personSvc, groupSvc, membershipSvc,
		importer.WithLogger(log),
		importer.WithMetrics(metrics),
		importer.WithAuditPublisher(publisher))
}

// backupless satisfies the backup contract for stores that are not a
// single movable file.
type backupless struct{}

func (backupless) Snapshot(context.Context) (bool, error) { return true, nil }
