package template

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

type TemplateSuite struct {
	suite.Suite
	db  *gorm.DB
	svc Template
}

func TestTemplateSuite(t *testing.T) {
	suite.Run(t, new(TemplateSuite))
}

func (s *TemplateSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
	s.svc = &templateService{ctx: context.Background(), db: db}
}

func (s *TemplateSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *TemplateSuite) TestCreateDefaultsPriority() {
	t, err := s.svc.Create(&CreateRequest{
		Name:         "weekly watering",
		Category:     "watering",
		IntervalDays: 7,
	})
	s.Require().NoError(err)
	s.Equal(models.TaskPriorityMedium, t.Priority)
	s.Equal(7, t.IntervalDays)
	s.False(t.OneShot)
}

func (s *TemplateSuite) TestCreateValidation() {
	s.Error((&CreateRequest{Category: "watering"}).Validate())
	s.Error((&CreateRequest{Name: "x", Category: "vacuuming"}).Validate())
	s.Error((&CreateRequest{Name: "x", Category: "watering", Priority: "urgent"}).Validate())
	s.Error((&CreateRequest{Name: "x", Category: "watering", IntervalDays: -1}).Validate())
	s.NoError((&CreateRequest{Name: "x", Category: "watering"}).Validate())
}

func (s *TemplateSuite) TestListByCategory() {
	for _, req := range []*CreateRequest{
		{Name: "water", Category: "watering"},
		{Name: "feed", Category: "fertilizing"},
		{Name: "mist", Category: "watering"},
	} {
		_, err := s.svc.Create(req)
		s.Require().NoError(err)
	}

	watering, err := s.svc.List(&ListRequest{Category: "watering"})
	s.Require().NoError(err)
	s.Len(watering, 2)
}

func (s *TemplateSuite) TestChecklistAppendsPositions() {
	t, err := s.svc.Create(&CreateRequest{Name: "repot", Category: "repotting"})
	s.Require().NoError(err)

	first, err := s.svc.AddChecklistItem(t.ID, &ChecklistItemRequest{Text: "prepare soil"})
	s.Require().NoError(err)
	s.Equal(1, first.Position)

	second, err := s.svc.AddChecklistItem(t.ID, &ChecklistItemRequest{Text: "trim roots"})
	s.Require().NoError(err)
	s.Equal(2, second.Position)

	pinned, err := s.svc.AddChecklistItem(t.ID, &ChecklistItemRequest{Text: "water in", Position: 5})
	s.Require().NoError(err)
	s.Equal(5, pinned.Position)

	items, err := s.svc.Checklist(t.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Equal("prepare soil", items[0].Text)
	s.Equal("water in", items[2].Text)
}

func (s *TemplateSuite) TestUpdateChecklistItem() {
	t, err := s.svc.Create(&CreateRequest{Name: "inspect", Category: "inspection"})
	s.Require().NoError(err)

	item, err := s.svc.AddChecklistItem(t.ID, &ChecklistItemRequest{Text: "check leaves"})
	s.Require().NoError(err)

	done := true
	updated, err := s.svc.UpdateChecklistItem(item.ID, &ChecklistItemUpdateRequest{Done: &done})
	s.Require().NoError(err)
	s.True(updated.Done)
}

func (s *TemplateSuite) TestDeleteClearsTaskReferences() {
	t, err := s.svc.Create(&CreateRequest{Name: "prune", Category: "pruning"})
	s.Require().NoError(err)

	_, err = s.svc.AddChecklistItem(t.ID, &ChecklistItemRequest{Text: "sharpen shears"})
	s.Require().NoError(err)

	plant := &models.Plant{ID: uuid.New(), Name: "Ivy"}
	s.Require().NoError(s.db.Create(plant).Error)

	task := &models.CareTask{
		ID:         uuid.New(),
		PlantID:    plant.ID,
		TemplateID: &t.ID,
		Name:       t.Name,
		Category:   t.Category,
		Priority:   t.Priority,
		DueAt:      time.Now().UTC(),
	}
	s.Require().NoError(s.db.Create(task).Error)

	s.Require().NoError(s.svc.Delete(t.ID))

	var items int64
	s.db.Model(&models.ChecklistItem{}).Where("template_id = ?", t.ID).Count(&items)
	s.Zero(items)

	var kept models.CareTask
	s.Require().NoError(s.db.First(&kept, "id = ?", task.ID).Error)
	s.Nil(kept.TemplateID)
	s.Equal("prune", kept.Name)
}
