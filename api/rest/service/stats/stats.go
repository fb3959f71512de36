package stats

import (
	"context"
	"time"

	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/gorm"
)

// StatsResponse is the top-level statistics payload.
type StatsResponse struct {
	Plants      PlantStats   `json:"plants"`
	Tasks       TaskStats    `json:"tasks"`
	Assignments ChainStats   `json:"assignments"`
	MostOverdue []NeedyPlant `json:"most_overdue"`
}

// PlantStats contains aggregate plant statistics.
type PlantStats struct {
	Total int64 `json:"total"`
}

// TaskStats contains aggregate care-task statistics.
type TaskStats struct {
	Total           int64   `json:"total"`
	Open            int64   `json:"open"`
	Overdue         int64   `json:"overdue"`
	CompletedLast30 int64   `json:"completed_last_30d"`
	CompletionRate  float64 `json:"completion_rate"`
}

// ChainStats contains aggregate assignment statistics.
type ChainStats struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// NeedyPlant describes a plant with outstanding overdue
// tasks.
type NeedyPlant struct {
	PlantID      string `json:"plant_id"`
	Name         string `json:"name"`
	OverdueTasks int64  `json:"overdue_tasks"`
}

// Service provides statistics queries.
type Service struct {
	ctx context.Context
	db  *gorm.DB
}

// New creates a Service with the default DB connection.
func New(ctx context.Context) *Service {
	return &Service{ctx: ctx, db: db.Connection()}
}

// WithDatabase overrides the DB connection.
func (s *Service) WithDatabase(conn *gorm.DB) *Service {
	s.db = conn
	return s
}

// Get computes aggregate statistics across plants, tasks and
// assignments.
func (s *Service) Get() (*StatsResponse, error) {
	resp := &StatsResponse{}
	now := time.Now().UTC()

	s.db.WithContext(s.ctx).Model(&models.Plant{}).Count(&resp.Plants.Total)

	s.db.WithContext(s.ctx).Model(&models.CareTask{}).Count(&resp.Tasks.Total)

	s.db.WithContext(s.ctx).Model(&models.CareTask{}).
		Where("completed_at IS NULL").
		Count(&resp.Tasks.Open)

	s.db.WithContext(s.ctx).Model(&models.CareTask{}).
		Where("completed_at IS NULL AND due_at < ?", now).
		Count(&resp.Tasks.Overdue)

	since := now.Add(-30 * 24 * time.Hour)
	s.db.WithContext(s.ctx).Model(&models.CareTask{}).
		Where("completed_at >= ?", since).
		Count(&resp.Tasks.CompletedLast30)

	if resp.Tasks.Total > 0 {
		resp.Tasks.CompletionRate = float64(resp.Tasks.Total-resp.Tasks.Open) / float64(resp.Tasks.Total)
	}

	for status, dest := range map[models.AssignmentStatus]*int64{
		models.AssignmentStatusActive:    &resp.Assignments.Active,
		models.AssignmentStatusCompleted: &resp.Assignments.Completed,
		models.AssignmentStatusCancelled: &resp.Assignments.Cancelled,
	} {
		s.db.WithContext(s.ctx).Model(&models.ChainAssignment{}).
			Where("status = ?", status).
			Count(dest)
	}

	// Top plants by overdue tasks (up to 5)
	type overdueRow struct {
		PlantID      string
		OverdueTasks int64
	}
	var rows []overdueRow
	s.db.WithContext(s.ctx).Model(&models.CareTask{}).
		Select("plant_id, COUNT(*) as overdue_tasks").
		Where("completed_at IS NULL AND due_at < ?", now).
		Group("plant_id").
		Order("overdue_tasks DESC").
		Limit(5).
		Scan(&rows)

	resp.MostOverdue = make([]NeedyPlant, 0, len(rows))
	for _, row := range rows {
		resp.MostOverdue = append(resp.MostOverdue, NeedyPlant{
			PlantID:      row.PlantID,
			Name:         s.lookupName(row.PlantID),
			OverdueTasks: row.OverdueTasks,
		})
	}

	return resp, nil
}

func (s *Service) lookupName(plantID string) string {
	var plant models.Plant
	if err := s.db.WithContext(s.ctx).Select("name").First(&plant, "id = ?", plantID).Error; err != nil {
		return ""
	}
	return plant.Name
}
