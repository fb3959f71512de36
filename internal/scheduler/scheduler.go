// Package scheduler runs the recurring care sweep: on a cron
// schedule it surfaces overdue tasks and backfills follow-up
// occurrences for recurring templates.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/log"
	"gorm.io/gorm"
)

type Scheduler struct {
	db       *gorm.DB
	schedule cron.Schedule
	location *time.Location
}

// New parses the cron expression (five fields, standard
// minute..day-of-week) and optional timezone.
func New(dbConn *gorm.DB, expr, timezone string) (*Scheduler, error) {
	if dbConn == nil {
		return nil, errors.New("scheduler requires a database connection")
	}

	parser := cron.NewParser(
		cron.Minute |
			cron.Hour |
			cron.Dom |
			cron.Month |
			cron.Dow,
	)

	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}

	var loc *time.Location
	if timezone != "" {
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, err
		}
	}

	return &Scheduler{db: dbConn, schedule: sched, location: loc}, nil
}

// Start blocks, sweeping on every schedule tick until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info("care scheduler listening")

	for {
		select {
		case <-time.After(time.Until(s.nextTick())):
			if err := s.Sweep(ctx); err != nil {
				log.Error("care sweep failure", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) nextTick() time.Time {
	base := time.Now()
	if s.location != nil {
		base = base.In(s.location)
	}
	return s.schedule.Next(base)
}

// Sweep runs one pass: log the overdue backlog and ensure
// every recurring template has a pending follow-up for each
// plant it was completed on. The backfill is idempotent, so
// completions recorded while the server was down are caught
// up on the next tick.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	var overdue int64
	if err := s.db.WithContext(ctx).Model(&models.CareTask{}).
		Where("completed_at IS NULL AND due_at < ?", now).
		Count(&overdue).Error; err != nil {
		return err
	}

	if overdue > 0 {
		log.Warn("overdue care tasks", "count", overdue)
	}

	created, err := s.backfill(ctx)
	if err != nil {
		return err
	}

	log.Info("care sweep complete", "overdue", overdue, "backfilled", created)
	return nil
}

func (s *Scheduler) backfill(ctx context.Context) (int, error) {
	templates := make(models.TaskTemplates, 0)
	if err := s.db.WithContext(ctx).
		Where("interval_days > 0 AND one_shot = ?", false).
		Find(&templates).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, template := range templates {
		n, err := s.backfillTemplate(ctx, template)
		if err != nil {
			return created, err
		}
		created += n
	}

	return created, nil
}

// backfillTemplate creates one follow-up per plant that has
// completed the template's task but has no open occurrence.
func (s *Scheduler) backfillTemplate(ctx context.Context, template *models.TaskTemplate) (int, error) {
	var plantIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.CareTask{}).
		Where("template_id = ? AND completed_at IS NOT NULL", template.ID).
		Distinct().
		Pluck("plant_id", &plantIDs).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, plantID := range plantIDs {
		var open int64
		if err := s.db.WithContext(ctx).Model(&models.CareTask{}).
			Where("template_id = ? AND plant_id = ? AND completed_at IS NULL", template.ID, plantID).
			Count(&open).Error; err != nil {
			return created, err
		}
		if open > 0 {
			continue
		}

		var last models.CareTask
		if err := s.db.WithContext(ctx).
			Where("template_id = ? AND plant_id = ? AND completed_at IS NOT NULL", template.ID, plantID).
			Order("due_at DESC").
			First(&last).Error; err != nil {
			return created, err
		}

		next := &models.CareTask{
			ID:         uuid.New(),
			PlantID:    plantID,
			TemplateID: &template.ID,
			Name:       template.Name,
			Category:   template.Category,
			Priority:   template.Priority,
			DueAt:      last.DueAt.AddDate(0, 0, template.IntervalDays),
		}

		if err := s.db.WithContext(ctx).Create(next).Error; err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
