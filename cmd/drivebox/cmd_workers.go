package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"drivebox/app/jobs"
	"drivebox/app/repositories"
	"drivebox/app/services"
	"drivebox/config"
	"drivebox/internal/server"
	"drivebox/pkg/cache"
	"drivebox/pkg/notification"
	"drivebox/pkg/queue"
	"drivebox/pkg/schedule"
	"drivebox/pkg/storage"
)

var queueWorkersFlag int

// bootStorage opens the database and the configured blob disk; every worker
// command needs both.
func bootStorage() (storage.Disk, *gorm.DB, error) {
	db, err := bootDB()
	if err != nil {
		return nil, nil, err
	}
	disk, err := storage.Connect()
	if err != nil {
		return nil, nil, err
	}
	return disk, db, nil
}

func newSweepService(disk storage.Disk, db *gorm.DB) *services.SweepService {
	files := repositories.NewFileRepository(db)
	return services.NewSweepService(files, disk, config.SweepGracePeriod(), config.SweepWorkers())
}

// drivebox queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		disk, db, err := bootStorage()
		if err != nil {
			return err
		}
		if err := cache.Connect(); err != nil {
			fmt.Println("⚠️  Redis unavailable; falling back to the in-memory queue driver.")
		}
		queue.UseDB(db)
		if config.QueueDriver() == "redis" && cache.RDB != nil {
			queue.SetDriver(queue.NewRedisDriver(cache.RDB))
		}
		jobs.UseDisk(disk)
		jobs.Register()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}

		fmt.Printf("🚀 Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		fmt.Println("\n⚡ Queue worker stopped.")
		return nil
	},
}

// drivebox schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		disk, db, err := bootStorage()
		if err != nil {
			return err
		}
		notification.SetSlackWebhook(config.SlackWebhook())
		server.RegisterSweep(ctx, newSweepService(disk, db))

		tasks := schedule.List()
		if len(tasks) == 0 {
			fmt.Println("No scheduled tasks registered.")
		} else {
			fmt.Println("Registered scheduled tasks:")
			for _, t := range tasks {
				fmt.Printf("  • %s (%s)\n", t.ID, t.Spec)
			}
		}

		fmt.Println("🕐 Scheduler started. Press Ctrl+C to stop.")
		schedule.Start(ctx)

		<-ctx.Done()
		fmt.Println("\n⚡ Scheduler stopped.")
		return nil
	},
}

// drivebox sweep:run
var sweepRunCmd = &cobra.Command{
	Use:   "sweep:run",
	Short: "Run the orphan-blob sweep once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		disk, db, err := bootStorage()
		if err != nil {
			return err
		}

		removed, err := newSweepService(disk, db).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("✅  Sweep finished: %d orphaned blob(s) removed.\n", removed)
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default: QUEUE_WORKERS)")
}
