package task

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

type TaskSuite struct {
	suite.Suite
	db  *gorm.DB
	svc Task
}

func TestTaskSuite(t *testing.T) {
	suite.Run(t, new(TaskSuite))
}

func (s *TaskSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
	s.svc = &taskService{ctx: context.Background(), db: db}
}

func (s *TaskSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *TaskSuite) seedPlant(name string) *models.Plant {
	plant := &models.Plant{ID: uuid.New(), Name: name}
	s.Require().NoError(s.db.Create(plant).Error)
	return plant
}

func (s *TaskSuite) seedTemplate(template *models.TaskTemplate) *models.TaskTemplate {
	template.ID = uuid.New()
	if template.Priority == "" {
		template.Priority = models.TaskPriorityMedium
	}
	s.Require().NoError(s.db.Create(template).Error)
	return template
}

func (s *TaskSuite) TestCreateDirect() {
	plant := s.seedPlant("Aloe")
	due := time.Now().UTC().Add(24 * time.Hour)

	tasks, err := s.svc.Create(&CreateRequest{
		PlantID:  plant.ID.String(),
		Name:     "water deeply",
		Category: "watering",
		DueAt:    &due,
	})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(plant.ID, tasks[0].PlantID)
	s.Equal(models.TaskPriorityMedium, tasks[0].Priority)
	s.Nil(tasks[0].TemplateID)
}

func (s *TaskSuite) TestCreateFromTemplateCopiesDefaults() {
	plant := s.seedPlant("Basil")
	template := s.seedTemplate(&models.TaskTemplate{
		Name:         "feed",
		Category:     models.TaskCategoryFertilizing,
		Priority:     models.TaskPriorityHigh,
		IntervalDays: 14,
	})

	tasks, err := s.svc.Create(&CreateRequest{
		PlantID:    plant.ID.String(),
		TemplateID: template.ID.String(),
	})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)

	task := tasks[0]
	s.Equal("feed", task.Name)
	s.Equal(models.TaskCategoryFertilizing, task.Category)
	s.Equal(models.TaskPriorityHigh, task.Priority)
	s.Require().NotNil(task.TemplateID)
	s.Equal(template.ID, *task.TemplateID)
	s.WithinDuration(time.Now().UTC().AddDate(0, 0, 14), task.DueAt, time.Minute)
}

func (s *TaskSuite) TestApplyToAllFansOut() {
	s.seedPlant("One")
	s.seedPlant("Two")
	s.seedPlant("Three")
	template := s.seedTemplate(&models.TaskTemplate{
		Name:       "inspect all",
		Category:   models.TaskCategoryInspection,
		ApplyToAll: true,
	})

	tasks, err := s.svc.Create(&CreateRequest{TemplateID: template.ID.String()})
	s.Require().NoError(err)
	s.Len(tasks, 3)

	seen := map[uuid.UUID]bool{}
	for _, task := range tasks {
		seen[task.PlantID] = true
	}
	s.Len(seen, 3)
}

func (s *TaskSuite) TestApplyToAllWithoutPlantsFails() {
	template := s.seedTemplate(&models.TaskTemplate{
		Name:       "inspect all",
		Category:   models.TaskCategoryInspection,
		ApplyToAll: true,
	})

	_, err := s.svc.Create(&CreateRequest{TemplateID: template.ID.String()})
	s.ErrorIs(err, ErrNoPlants)

	var count int64
	s.db.Model(&models.CareTask{}).Count(&count)
	s.Zero(count)
}

func (s *TaskSuite) TestCompleteRecurringSchedulesFollowUp() {
	plant := s.seedPlant("Palm")
	template := s.seedTemplate(&models.TaskTemplate{
		Name:         "water",
		Category:     models.TaskCategoryWatering,
		IntervalDays: 7,
	})

	tasks, err := s.svc.Create(&CreateRequest{
		PlantID:    plant.ID.String(),
		TemplateID: template.ID.String(),
	})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)

	completed := true
	updated, err := s.svc.Update(tasks[0].ID, &UpdateRequest{Completed: &completed})
	s.Require().NoError(err)
	s.NotNil(updated.CompletedAt)

	open := make(models.CareTasks, 0)
	s.Require().NoError(s.db.Where("completed_at IS NULL").Find(&open).Error)
	s.Require().Len(open, 1)
	s.Equal(tasks[0].DueAt.AddDate(0, 0, 7).Unix(), open[0].DueAt.Unix())
}

func (s *TaskSuite) TestCompleteOneShotDoesNotRecur() {
	plant := s.seedPlant("Orchid")
	template := s.seedTemplate(&models.TaskTemplate{
		Name:         "repot",
		Category:     models.TaskCategoryRepotting,
		IntervalDays: 30,
		OneShot:      true,
	})

	tasks, err := s.svc.Create(&CreateRequest{
		PlantID:    plant.ID.String(),
		TemplateID: template.ID.String(),
	})
	s.Require().NoError(err)

	completed := true
	_, err = s.svc.Update(tasks[0].ID, &UpdateRequest{Completed: &completed})
	s.Require().NoError(err)

	var count int64
	s.db.Model(&models.CareTask{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *TaskSuite) TestListOverdue() {
	plant := s.seedPlant("Mint")
	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)

	for _, due := range []time.Time{past, future} {
		due := due
		_, err := s.svc.Create(&CreateRequest{
			PlantID:  plant.ID.String(),
			Name:     "water",
			Category: "watering",
			DueAt:    &due,
		})
		s.Require().NoError(err)
	}

	overdue, err := s.svc.List(&ListRequest{Overdue: true})
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(past.Unix(), overdue[0].DueAt.Unix())
}
