// Package server boots drivebox: configuration, logging, database, cache,
// blob storage, queue workers, the WebSocket hub and the scheduler, then
// serves the HTTP API until the context is cancelled.
//
// Subsystems that only degrade the service when absent (Redis, the Mongo
// log sink, the gRPC health endpoint) log a warning and continue; the rest
// abort the boot.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"drivebox/app/controllers"
	"drivebox/app/events"
	appgraphql "drivebox/app/graphql"
	"drivebox/app/jobs"
	"drivebox/app/notifications"
	"drivebox/app/repositories"
	"drivebox/app/routes"
	"drivebox/app/services"
	"drivebox/config"
	"drivebox/pkg/cache"
	"drivebox/pkg/database"
	pkggraphql "drivebox/pkg/graphql"
	"drivebox/pkg/grpc"
	"drivebox/pkg/logger"
	"drivebox/pkg/metrics"
	"drivebox/pkg/middleware"
	"drivebox/pkg/migration"
	"drivebox/pkg/notification"
	"drivebox/pkg/queue"
	"drivebox/pkg/reqid"
	"drivebox/pkg/router"
	"drivebox/pkg/schedule"
	"drivebox/pkg/storage"
	"drivebox/pkg/ws"
)

// shutdownGrace bounds how long in-flight requests get to finish once the
// stop signal arrives.
const shutdownGrace = 15 * time.Second

// Start boots every subsystem and serves HTTP until ctx is cancelled or the
// listener fails.
func Start(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if uri := config.LogMongoURI(); uri != "" {
		if err := logger.AttachMongo(uri, config.LogMongoDB(), config.LogMongoCollection()); err != nil {
			logger.Warn("boot: mongo log sink unavailable", "error", err)
		}
	}
	defer logger.Shutdown()

	db, err := database.Connect()
	if err != nil {
		return err
	}
	if err := migration.New(db).Run(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := cache.Connect(); err != nil {
		logger.Warn("boot: redis unavailable; cache and token denylist degraded", "error", err)
	}
	notification.SetSlackWebhook(config.SlackWebhook())

	disk, err := storage.Connect()
	if err != nil {
		return err
	}

	queue.UseDB(db)
	if config.QueueDriver() == "redis" && cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	jobs.UseDisk(disk)
	jobs.Register()
	queue.StartWorkers(ctx, config.QueueWorkers())

	hub := ws.NewHub()
	go hub.Run(ctx)
	events.RegisterListeners(hub)

	users := repositories.NewUserRepository(db)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)

	authSvc := services.NewAuthService(users)
	folderSvc := services.NewFolderService(folders, files)
	fileSvc := services.NewFileService(files, disk, services.UploadPolicy{
		MaxBytes:     config.MaxUploadBytes(),
		AllowedTypes: config.AllowedContentTypes(),
	})
	sweepSvc := services.NewSweepService(files, disk, config.SweepGracePeriod(), config.SweepWorkers())
	adminSvc := services.NewAdminService(users, folders, files, sweepSvc)

	schema, err := appgraphql.NewSchema(authSvc, folderSvc)
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	r := router.New()
	// Order matters here: metrics wraps everything so recovered panics are
	// still counted, the request ID has to exist before the logger runs,
	// and the rate limiter sits innermost so preflights pass through CORS.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(200, time.Minute))

	routes.RegisterOps(r)
	routes.RegisterAPI(r, routes.Deps{
		Auth:    controllers.NewAuthController(authSvc),
		Folders: controllers.NewFolderController(folderSvc),
		Files:   controllers.NewFileController(fileSvc),
		Admin:   controllers.NewAdminController(adminSvc),
		WS:      controllers.NewWSController(hub),
		GraphQL: pkggraphql.Handler(schema),
	})

	RegisterSweep(ctx, sweepSvc)
	schedule.Start(ctx)

	if port := config.GRPCPort(); port != "" {
		gsrv, _, err := grpc.Start(port)
		if err != nil {
			logger.Warn("boot: grpc health endpoint unavailable", "error", err)
		} else {
			defer grpc.Stop(gsrv)
		}
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("boot: listening",
		"addr", srv.Addr, "env", config.AppEnv(), "disk", disk.Name())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("boot: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RegisterSweep puts the orphan-blob reconciliation pass on the scheduler.
// The sweep runs off the boot context so shutdown also stops a pass that is
// mid-flight. Shared with the standalone scheduler command.
func RegisterSweep(ctx context.Context, sweep *services.SweepService) {
	if !config.SweepEnabled() {
		return
	}
	secs := int(config.SweepInterval() / time.Second)
	if secs < 60 {
		secs = 60
	}
	schedule.Every(secs).Seconds().Name("blob-sweep").WithoutOverlapping().Run(func() {
		removed, err := sweep.Run(ctx)
		if err != nil {
			logger.Error("sweep: failed", "error", err)
			return
		}
		if removed > 0 && config.SlackWebhook() != "" {
			notification.SendAsync("", &notifications.SweepAlert{Removed: removed})
		}
	})
}
