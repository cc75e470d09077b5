package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/OpenDocFlow/docflow/internal/workflow/service"
)

// Scheduler runs the periodic goal-reminder sweep: every unachieved goal
// whose due date has passed gets a reminder notification to each of its
// resolved recipients.
type Scheduler struct {
	cron     *cron.Cron
	goals    service.GoalRepository
	dir      service.Directory
	notifier service.Notifier
	timeout  time.Duration
}

// New creates a scheduler. The sweep runs on the given cron expression.
func New(goals service.GoalRepository, dir service.Directory, notifier service.Notifier, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		goals:    goals,
		dir:      dir,
		notifier: notifier,
		timeout:  timeout,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runSweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("goal reminder scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("goal reminder scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.SweepDueGoals(ctx); err != nil {
		slog.Error("goal reminder sweep failed", "error", err)
	}
}

// SweepDueGoals notifies the recipients of every overdue, unachieved goal.
// Per-goal failures are logged and do not stop the sweep.
func (s *Scheduler) SweepDueGoals(ctx context.Context) error {
	goals, err := s.goals.ListUnachievedDueGoals(ctx)
	if err != nil {
		return err
	}

	for i := range goals {
		goal := &goals[i]
		recipients, err := service.GoalRecipients(ctx, s.dir, goal)
		if err != nil {
			slog.Warn("failed to resolve goal reminder recipients", "goal_id", goal.ID, "error", err)
			continue
		}
		for _, userID := range recipients {
			err := s.notifier.Notify(ctx, userID, "goal_due", map[string]any{
				"goalId":     goal.ID,
				"workflowId": goal.WorkflowID,
				"title":      goal.Title,
				"dueDate":    goal.DueDate,
			})
			if err != nil {
				slog.Warn("failed to send goal reminder", "goal_id", goal.ID, "user_id", userID, "error", err)
			}
		}
	}
	return nil
}
