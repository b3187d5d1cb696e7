// Package server owns the process lifecycle: it opens the store, cache and
// disk, builds the HTTP kernel, serves HTTP and gRPC, and shuts both down on
// SIGINT or SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/medstore/app/jobs"
	"github.com/shashiranjanraj/medstore/app/listeners"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/repositories/memstore"
	"github.com/shashiranjanraj/medstore/app/repositories/mongostore"
	"github.com/shashiranjanraj/medstore/app/repositories/sqlstore"
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/config"
	"github.com/shashiranjanraj/medstore/internal/kernel"
	"github.com/shashiranjanraj/medstore/pkg/auth"
	"github.com/shashiranjanraj/medstore/pkg/cache"
	"github.com/shashiranjanraj/medstore/pkg/database"
	"github.com/shashiranjanraj/medstore/pkg/event"
	"github.com/shashiranjanraj/medstore/pkg/grpc"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/middleware"
	"github.com/shashiranjanraj/medstore/pkg/migration"
	"github.com/shashiranjanraj/medstore/pkg/schedule"
	"github.com/shashiranjanraj/medstore/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// OpenStore connects the configured DB_DRIVER. SQL drivers are migrated
// and mongo indexes are ensured before the store is returned.
func OpenStore(ctx context.Context) (repositories.Store, error) {
	driver := config.DatabaseDriver()

	switch driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil

	case "mongo":
		client, db, err := database.OpenMongo(ctx, config.MongoURI(), config.MongoDatabase(), config.DBTimeout())
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, db, config.MongoTransactions())

		ictx, cancel := context.WithTimeout(ctx, config.DBTimeout())
		defer cancel()
		if err := s.EnsureIndexes(ictx); err != nil {
			_ = s.Close(context.Background())
			return nil, fmt.Errorf("mongo: ensure indexes: %w", err)
		}
		logger.Info("database connected", "driver", driver, "database", config.MongoDatabase())
		return s, nil

	default:
		db, err := database.OpenSQL(driver, config.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		s := sqlstore.New(db)

		ran, err := migration.New(db).Run()
		if err != nil {
			_ = s.Close(context.Background())
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database connected", "driver", driver, "migrated", len(ran))
		return s, nil
	}
}

// Start boots every dependency and blocks until the process is signalled
// or the HTTP listener fails.
func Start() error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := middleware.TrustProxies(config.TrustedProxies()...); err != nil {
		return err
	}

	flushLogs, err := logger.Setup()
	if err != nil {
		logger.Warn("mongo log sink disabled", "error", err)
	}
	defer flushLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	var c *cache.Cache
	if addr := config.RedisAddr(); addr != "" {
		c, err = cache.Connect(ctx, addr, config.RedisPassword(), config.CacheTTL())
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", "addr", addr, "error", err)
			c = nil
		}
	}
	defer c.Close()

	disk, err := storage.Open(ctx, config.StorageDefault())
	if err != nil {
		logger.Warn("storage unavailable, imports will not be archived", "error", err)
		disk = nil
	}

	signer, err := auth.NewSigner(config.JWTSecret(), config.JWTTTL())
	if err != nil {
		return err
	}

	listeners.Register(c)

	jobCtx, stopJobs := context.WithCancel(ctx)
	sched := schedule.New()
	jobs.NewStockWatch(store, config.LowStockThreshold(), config.ExpiryWarningDays()).
		Schedule(sched, config.StockWatchInterval())
	sched.Start(jobCtx)
	defer func() {
		stopJobs()
		sched.Wait()
	}()

	handler := kernel.NewHTTPKernel(kernel.Deps{
		Store:  store,
		Cache:  c,
		Disk:   disk,
		Signer: signer,
		Seed: services.SeedPasswords{
			Admin: config.SeedAdminPassword(),
			Staff: config.SeedStaffPassword(),
		},
		LowStock:    config.LowStockThreshold(),
		MaxUpload:   config.MaxUploadBytes(),
		RateLimit:   config.RateLimit(),
		CORSOrigins: config.CORSOrigins(),
	})

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if port := config.GRPCPort(); port != "" {
		gs, err := grpc.Start(port, store.Ping)
		if err != nil {
			return err
		}
		defer grpc.Stop(gs)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	event.Drain()
	logger.Info("server stopped")
	return nil
}
