// Package scheduler runs the batch pipeline on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/quantfolio/analytics-engine/internal/config"
	"github.com/quantfolio/analytics-engine/internal/service"
)

// Scheduler triggers the daily pipeline run. Each run advances every active
// portfolio through yesterday; today's close is not yet known when the job
// fires.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *service.PipelineService
	cfg      config.SchedulerConfig
	logger   *zap.Logger
}

// New creates a Scheduler from the given configuration. The scheduler is
// inert until Start is called.
func New(pipeline *service.PipelineService, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the batch job and starts the cron loop. It is a no-op
// when the scheduler is disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Spec, s.runOnce)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.cfg.Spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	s.logger.Info("batch pipeline run starting", zap.String("through", yesterday.Format("2006-01-02")))
	if err := s.pipeline.RunDaily(context.Background(), yesterday); err != nil {
		s.logger.Error("batch pipeline run finished with errors", zap.Error(err))
		return
	}
	s.logger.Info("batch pipeline run finished")
}
