package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/internal/pipeline"
	"github.com/wonny/holdwatch/pkg/logger"
)

// DailyRunJob runs the holdings pipeline for the current date
// ⭐ SSOT: 일일 실행 스케줄은 이 Job에서만
type DailyRunJob struct {
	runner   *pipeline.Runner
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

// NewDailyRunJob creates the daily job with a cron expression (seconds first)
func NewDailyRunJob(runner *pipeline.Runner, schedule string, log *logger.Logger) *DailyRunJob {
	return &DailyRunJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *DailyRunJob) Name() string {
	return "daily_run"
}

// Schedule returns the cron schedule
func (j *DailyRunJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline for today's date
func (j *DailyRunJob) Run(ctx context.Context) error {
	date := j.now().Format(contracts.DateLayout)

	res, err := j.runner.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("daily run %s: %w", date, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   date,
		"run_id": res.RunID,
		"rows":   res.Summary.Rows,
	}).Info("Daily run finished")
	return nil
}
