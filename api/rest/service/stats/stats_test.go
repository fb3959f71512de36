package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type StatsSuite struct {
	suite.Suite
	db *gorm.DB
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsSuite))
}

func (s *StatsSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
}

func (s *StatsSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *StatsSuite) service() *Service {
	return &Service{ctx: context.Background(), db: s.db}
}

func (s *StatsSuite) seedPlant(name string) *models.Plant {
	plant := &models.Plant{ID: uuid.New(), Name: name}
	s.Require().NoError(s.db.Create(plant).Error)
	return plant
}

func (s *StatsSuite) seedTask(plantID uuid.UUID, due time.Time, completed *time.Time) {
	task := &models.CareTask{
		ID:          uuid.New(),
		PlantID:     plantID,
		Name:        "water",
		Category:    models.TaskCategoryWatering,
		Priority:    models.TaskPriorityMedium,
		DueAt:       due,
		CompletedAt: completed,
	}
	s.Require().NoError(s.db.Create(task).Error)
}

func (s *StatsSuite) TestEmptyDatabaseReturnsZeros() {
	resp, err := s.service().Get()
	s.Require().NoError(err)

	s.Zero(resp.Plants.Total)
	s.Zero(resp.Tasks.Total)
	s.Zero(resp.Tasks.CompletionRate)
	s.Zero(resp.Assignments.Active)
	s.Empty(resp.MostOverdue)
}

func (s *StatsSuite) TestCompletionRate() {
	plant := s.seedPlant("Yucca")
	now := time.Now().UTC()

	// 3 completed, 1 open = 75%
	for i := 0; i < 3; i++ {
		done := now.Add(-time.Duration(i) * time.Hour)
		s.seedTask(plant.ID, now.Add(-24*time.Hour), &done)
	}
	s.seedTask(plant.ID, now.Add(24*time.Hour), nil)

	resp, err := s.service().Get()
	s.Require().NoError(err)
	s.Equal(int64(4), resp.Tasks.Total)
	s.Equal(int64(1), resp.Tasks.Open)
	s.Equal(int64(3), resp.Tasks.CompletedLast30)
	s.InDelta(0.75, resp.Tasks.CompletionRate, 0.001)
}

func (s *StatsSuite) TestMostOverdueRanking() {
	neglected := s.seedPlant("Neglected")
	cared := s.seedPlant("Cared for")
	past := time.Now().UTC().Add(-72 * time.Hour)

	for i := 0; i < 3; i++ {
		s.seedTask(neglected.ID, past, nil)
	}
	s.seedTask(cared.ID, past, nil)

	resp, err := s.service().Get()
	s.Require().NoError(err)
	s.Equal(int64(4), resp.Tasks.Overdue)
	s.Require().Len(resp.MostOverdue, 2)
	s.Equal("Neglected", resp.MostOverdue[0].Name)
	s.Equal(int64(3), resp.MostOverdue[0].OverdueTasks)
}

func (s *StatsSuite) TestAssignmentCounts() {
	plant := s.seedPlant("Counted")
	ch := &models.TaskChain{ID: uuid.New(), Name: "counting", IsActive: true}
	s.Require().NoError(s.db.Create(ch).Error)

	for _, status := range []models.AssignmentStatus{
		models.AssignmentStatusActive,
		models.AssignmentStatusActive,
		models.AssignmentStatusCompleted,
		models.AssignmentStatusCancelled,
	} {
		a := &models.ChainAssignment{
			ID:        uuid.New(),
			ChainID:   ch.ID,
			PlantID:   plant.ID,
			Status:    status,
			StartedAt: time.Now().UTC(),
		}
		s.Require().NoError(s.db.Create(a).Error)
	}

	resp, err := s.service().Get()
	s.Require().NoError(err)
	s.Equal(int64(2), resp.Assignments.Active)
	s.Equal(int64(1), resp.Assignments.Completed)
	s.Equal(int64(1), resp.Assignments.Cancelled)
}
