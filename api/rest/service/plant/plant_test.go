package plant

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

type PlantSuite struct {
	suite.Suite
	db  *gorm.DB
	svc Plant
}

func TestPlantSuite(t *testing.T) {
	suite.Run(t, new(PlantSuite))
}

func (s *PlantSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
	s.svc = &plantService{ctx: context.Background(), db: db}
}

func (s *PlantSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *PlantSuite) TestCreate() {
	acquired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p, err := s.svc.Create(&CreateRequest{
		Name:       "Monstera",
		Species:    "Monstera deliciosa",
		Location:   "living room",
		AcquiredAt: &acquired,
	})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, p.ID)
	s.Equal("Monstera", p.Name)
	s.NotZero(p.CreatedAt)

	got, err := s.svc.Get(p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
}

func (s *PlantSuite) TestCreateRequiresName() {
	s.Error((&CreateRequest{}).Validate())
}

func (s *PlantSuite) TestGetUnknownPlant() {
	_, err := s.svc.Get(uuid.New())
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *PlantSuite) TestListFilters() {
	for _, p := range []*CreateRequest{
		{Name: "Fern", Species: "Nephrolepis", Location: "bathroom"},
		{Name: "Cactus", Species: "Echinopsis", Location: "office"},
		{Name: "Fern 2", Species: "Nephrolepis", Location: "office"},
	} {
		_, err := s.svc.Create(p)
		s.Require().NoError(err)
	}

	all, err := s.svc.List(&ListRequest{})
	s.Require().NoError(err)
	s.Len(all, 3)

	office, err := s.svc.List(&ListRequest{Location: "office"})
	s.Require().NoError(err)
	s.Len(office, 2)

	ferns, err := s.svc.List(&ListRequest{Species: "Nephrolepis", Location: "office"})
	s.Require().NoError(err)
	s.Len(ferns, 1)
	s.Equal("Fern 2", ferns[0].Name)

	limited, err := s.svc.List(&ListRequest{Limit: 2, OrderBy: []string{"name"}})
	s.Require().NoError(err)
	s.Len(limited, 2)
	s.Equal("Cactus", limited[0].Name)
}

func (s *PlantSuite) TestUpdatePartial() {
	p, err := s.svc.Create(&CreateRequest{Name: "Pothos", Location: "shelf"})
	s.Require().NoError(err)

	location := "window"
	updated, err := s.svc.Update(p.ID, &UpdateRequest{Location: &location})
	s.Require().NoError(err)
	s.Equal("window", updated.Location)
	s.Equal("Pothos", updated.Name)
}

func (s *PlantSuite) TestDeleteCascades() {
	p, err := s.svc.Create(&CreateRequest{Name: "Ficus"})
	s.Require().NoError(err)

	task := &models.CareTask{
		ID:       uuid.New(),
		PlantID:  p.ID,
		Name:     "water",
		Category: models.TaskCategoryWatering,
		Priority: models.TaskPriorityMedium,
		DueAt:    time.Now().UTC(),
	}
	s.Require().NoError(s.db.Create(task).Error)

	record := &models.HealthRecord{
		ID:         uuid.New(),
		PlantID:    p.ID,
		Condition:  models.HealthConditionHealthy,
		ObservedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.db.Create(record).Error)

	s.Require().NoError(s.svc.Delete(p.ID))

	var tasks int64
	s.db.Model(&models.CareTask{}).Where("plant_id = ?", p.ID).Count(&tasks)
	s.Zero(tasks)

	var records int64
	s.db.Model(&models.HealthRecord{}).Where("plant_id = ?", p.ID).Count(&records)
	s.Zero(records)

	_, err = s.svc.Get(p.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}
