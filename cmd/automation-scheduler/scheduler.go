// Package main provides the scheduler that fires schedule.tick workflows on
// their cron expressions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bloomandco/automation/pkg/dispatcher"
	"github.com/bloomandco/automation/pkg/models"
	"github.com/bloomandco/automation/pkg/persistence"
)

const defaultSyncInterval = 30 * time.Second

// Scheduler keeps one cron entry per active schedule.tick workflow. The
// entry set is re-synced from persistence on an interval, so activating or
// pausing a workflow takes effect without a restart.
type Scheduler struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	dispatcher   *dispatcher.Dispatcher
	syncInterval time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID // workflow id -> cron entry
	exprs   map[string]string       // workflow id -> registered cron expression
}

func NewScheduler(p persistence.Persistence, d *dispatcher.Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger:       logger.With("module", "scheduler"),
		persistence:  p,
		dispatcher:   d,
		syncInterval: defaultSyncInterval,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		entries: make(map[string]cron.EntryID),
		exprs:   make(map[string]string),
	}
}

// Start syncs entries, runs the cron loop and blocks until SIGINT or SIGTERM.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		return err
	}

	s.cron.Start()

	s.logger.InfoContext(ctx, "Scheduler started", "sync_interval", s.syncInterval)

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to sync schedules", "error", err)
			}
		case <-sigChan:
			s.logger.InfoContext(ctx, "Shutting down scheduler...")
			<-s.cron.Stop().Done()

			return nil
		case <-ctx.Done():
			<-s.cron.Stop().Done()

			return ctx.Err()
		}
	}
}

// Sync reconciles cron entries with the active schedule.tick workflows.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.persistence.Workflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	wanted := make(map[string]string)

	for _, workflow := range workflows {
		if workflow.Status != models.WorkflowStatusActive || workflow.TriggerType != models.TriggerTypeScheduleTick {
			continue
		}

		expr, _ := workflow.TriggerConfig["cron"].(string)
		if expr == "" {
			s.logger.WarnContext(ctx, "Active schedule workflow has no cron expression", "workflow_id", workflow.ID)

			continue
		}

		wanted[workflow.ID] = expr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for workflowID, entryID := range s.entries {
		if expr, ok := wanted[workflowID]; ok && expr == s.exprs[workflowID] {
			continue
		}

		s.cron.Remove(entryID)
		delete(s.entries, workflowID)
		delete(s.exprs, workflowID)
	}

	for workflowID, expr := range wanted {
		if _, ok := s.entries[workflowID]; ok {
			continue
		}

		entryID, err := s.cron.AddFunc(expr, s.fire(workflowID))
		if err != nil {
			s.logger.ErrorContext(ctx, "Invalid cron expression",
				"workflow_id", workflowID, "cron", expr, "error", err)

			continue
		}

		s.entries[workflowID] = entryID
		s.exprs[workflowID] = expr

		s.logger.InfoContext(ctx, "Scheduled workflow", "workflow_id", workflowID, "cron", expr)
	}

	return nil
}

func (s *Scheduler) fire(workflowID string) func() {
	return func() {
		ctx := context.Background()
		logger := s.logger.With("workflow_id", workflowID)

		logger.InfoContext(ctx, "Schedule fired")

		jobID, err := s.dispatcher.TriggerWorkflow(ctx, workflowID, models.TriggerTypeScheduleTick, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			logger.ErrorContext(ctx, "Failed to trigger scheduled workflow", "error", err)

			return
		}

		logger.InfoContext(ctx, "Enqueued scheduled run", "job_id", jobID)
	}
}
