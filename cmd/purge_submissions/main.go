// Command purge_submissions deletes contact submissions older than the
// retention period. Run it from cron or a scheduled job.
//
// Usage:
//
//	go run ./cmd/purge_submissions [--days 60] [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mrxstudio/internal/config"
	"mrxstudio/internal/database"
	"mrxstudio/internal/domain"
	"mrxstudio/internal/logger"
	"mrxstudio/internal/services"
)

func main() {
	days := flag.Int("days", 0, "Retention in days (defaults to RETENTION_DAYS)")
	dryRun := flag.Bool("dry-run", false, "Only count what would be deleted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(os.Stdout, "INFO")
		logger.Fatal("failed to load config", "error", err)
	}
	logger.SetupDefault(os.Stdout, cfg.App.LogLevel)

	if *days <= 0 {
		*days = cfg.Retention.Days
	}
	retention := time.Duration(*days) * 24 * time.Hour

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	if *dryRun {
		var n int64
		cutoff := now.Add(-retention)
		if err := db.WithContext(ctx).Model(&domain.Submission{}).Where("created_at < ?", cutoff).Count(&n).Error; err != nil {
			logger.Fatal("failed to count expired submissions", "error", err)
		}
		fmt.Printf("%d submissions older than %s would be deleted\n", n, cutoff.Format(time.RFC3339))
		return
	}

	review := services.NewReviewService(services.NewGormSubmissionStore(db))
	n, err := review.Purge(ctx, retention, now)
	if err != nil {
		logger.Fatal("purge failed", "error", err)
	}
	slog.Info("expired submissions purged", "deleted", n, "retention_days", *days)
}
