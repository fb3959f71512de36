package chain

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

type ChainSuite struct {
	suite.Suite
	db  *gorm.DB
	svc Chain
}

func TestChainSuite(t *testing.T) {
	suite.Run(t, new(ChainSuite))
}

func (s *ChainSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
	s.svc = &chainService{ctx: context.Background(), db: db}
}

func (s *ChainSuite) TearDownTest() {
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

func (s *ChainSuite) seedTemplate(name string) *models.TaskTemplate {
	template := &models.TaskTemplate{
		ID:       uuid.New(),
		Name:     name,
		Category: models.TaskCategoryCustom,
		Priority: models.TaskPriorityMedium,
	}
	s.Require().NoError(s.db.Create(template).Error)
	return template
}

func (s *ChainSuite) TestCreateDuplicateName() {
	_, err := s.svc.Create(&CreateRequest{Name: "onboarding"})
	s.Require().NoError(err)

	_, err = s.svc.Create(&CreateRequest{Name: "onboarding"})
	s.ErrorIs(err, ErrDuplicateName)
}

func (s *ChainSuite) TestAddStepAppends() {
	ch, err := s.svc.Create(&CreateRequest{Name: "recovery"})
	s.Require().NoError(err)

	first := s.seedTemplate("quarantine")
	second := s.seedTemplate("treat")

	step1, err := s.svc.AddStep(ch.ID, &StepRequest{TemplateID: first.ID.String()})
	s.Require().NoError(err)
	s.Equal(1, step1.Position)
	s.True(step1.IsRequired)

	step2, err := s.svc.AddStep(ch.ID, &StepRequest{
		TemplateID:       second.ID.String(),
		WaitHours:        48,
		RequiresApproval: true,
		ApprovalRoles:    []string{"owner"},
	})
	s.Require().NoError(err)
	s.Equal(2, step2.Position)
	s.Equal(48, step2.WaitHours)
}

func (s *ChainSuite) TestAddStepDuplicatePosition() {
	ch, err := s.svc.Create(&CreateRequest{Name: "repot flow"})
	s.Require().NoError(err)

	template := s.seedTemplate("repot")

	_, err = s.svc.AddStep(ch.ID, &StepRequest{TemplateID: template.ID.String(), Position: 1})
	s.Require().NoError(err)

	_, err = s.svc.AddStep(ch.ID, &StepRequest{TemplateID: template.ID.String(), Position: 1})
	s.ErrorIs(err, ErrDuplicatePosition)
}

func (s *ChainSuite) TestAddStepUnknownTemplate() {
	ch, err := s.svc.Create(&CreateRequest{Name: "broken"})
	s.Require().NoError(err)

	_, err = s.svc.AddStep(ch.ID, &StepRequest{TemplateID: uuid.NewString()})
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *ChainSuite) TestGetPreloadsOrderedSteps() {
	ch, err := s.svc.Create(&CreateRequest{Name: "ordered"})
	s.Require().NoError(err)

	template := s.seedTemplate("step")
	for _, position := range []int{3, 1, 2} {
		_, err := s.svc.AddStep(ch.ID, &StepRequest{
			TemplateID: template.ID.String(),
			Position:   position,
		})
		s.Require().NoError(err)
	}

	got, err := s.svc.Get(ch.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Steps, 3)
	s.Equal(1, got.Steps[0].Position)
	s.Equal(3, got.Steps[2].Position)
}

func (s *ChainSuite) TestDeleteCascadesSteps() {
	ch, err := s.svc.Create(&CreateRequest{Name: "disposable"})
	s.Require().NoError(err)

	template := s.seedTemplate("only step")
	_, err = s.svc.AddStep(ch.ID, &StepRequest{TemplateID: template.ID.String()})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(ch.ID))

	var steps int64
	s.db.Model(&models.ChainStep{}).Where("chain_id = ?", ch.ID).Count(&steps)
	s.Zero(steps)
}

func (s *ChainSuite) TestDeleteWithActiveAssignment() {
	ch, err := s.svc.Create(&CreateRequest{Name: "in use"})
	s.Require().NoError(err)

	plant := &models.Plant{ID: uuid.New(), Name: "Rubber plant"}
	s.Require().NoError(s.db.Create(plant).Error)

	assignment := &models.ChainAssignment{
		ID:        uuid.New(),
		ChainID:   ch.ID,
		PlantID:   plant.ID,
		Status:    models.AssignmentStatusActive,
		StartedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.db.Create(assignment).Error)

	s.ErrorIs(s.svc.Delete(ch.ID), ErrActiveAssignments)

	// completed assignments don't block deletion
	s.Require().NoError(s.db.Model(assignment).
		Update("status", models.AssignmentStatusCompleted).Error)
	s.Require().NoError(s.svc.Delete(ch.ID))
}
