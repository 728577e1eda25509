package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jose/sera/backend/internal/ingest"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/pkg/logger"
)

// DailyImportJob imports wearable data every morning and recomputes
// readiness for the affected dates.
type DailyImportJob struct {
	importer *ingest.Importer
	engine   *readiness.Engine
	logger   *logger.Logger
}

// NewDailyImportJob creates a new daily import job
func NewDailyImportJob(importer *ingest.Importer, engine *readiness.Engine, log *logger.Logger) *DailyImportJob {
	return &DailyImportJob{
		importer: importer,
		engine:   engine,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyImportJob) Name() string {
	return "daily_import"
}

// Schedule returns the cron schedule (every day at 6:30 AM)
func (j *DailyImportJob) Schedule() string {
	return "0 30 6 * * *" // 6:30 AM daily (with seconds)
}

// Run imports yesterday and today, then recomputes readiness for both.
// Yesterday is re-imported because recovery scores often land after
// midnight.
func (j *DailyImportJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled wearable import")

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)

	if _, err := j.importer.ImportRange(ctx, yesterday, today); err != nil {
		return fmt.Errorf("import wearable data: %w", err)
	}

	for _, date := range []time.Time{yesterday, today} {
		if _, err := j.engine.ComputeForDate(ctx, date); err != nil {
			return fmt.Errorf("compute readiness for %s: %w", date.Format("2006-01-02"), err)
		}
	}

	j.logger.Info("Scheduled wearable import completed successfully")
	return nil
}

// ReadinessRefreshJob recomputes today's readiness during the day so
// late-arriving data shows up without waiting for the next import.
type ReadinessRefreshJob struct {
	engine *readiness.Engine
	logger *logger.Logger
}

// NewReadinessRefreshJob creates a new readiness refresh job
func NewReadinessRefreshJob(engine *readiness.Engine, log *logger.Logger) *ReadinessRefreshJob {
	return &ReadinessRefreshJob{
		engine: engine,
		logger: log,
	}
}

// Name returns the job name
func (j *ReadinessRefreshJob) Name() string {
	return "readiness_refresh"
}

// Schedule returns the cron schedule (every 3 hours)
func (j *ReadinessRefreshJob) Schedule() string {
	return "0 0 */3 * * *" // Every 3 hours
}

// Run recomputes readiness for today
func (j *ReadinessRefreshJob) Run(ctx context.Context) error {
	if _, err := j.engine.ComputeForDate(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("compute readiness: %w", err)
	}
	return nil
}
