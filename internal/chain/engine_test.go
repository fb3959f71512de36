package chain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type EngineSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(models.All...))
	s.db = db
	s.engine = NewEngine(db)
}

func (s *EngineSuite) TearDownTest() {
	if s.db == nil {
		return
	}
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func (s *EngineSuite) seedPlant() *models.Plant {
	p := &models.Plant{ID: uuid.New(), Name: "monstera"}
	s.Require().NoError(s.db.Create(p).Error)
	return p
}

func (s *EngineSuite) seedTemplate() *models.TaskTemplate {
	t := &models.TaskTemplate{
		ID:       uuid.New(),
		Name:     "repot",
		Category: models.TaskCategoryRepotting,
		Priority: models.TaskPriorityMedium,
	}
	s.Require().NoError(s.db.Create(t).Error)
	return t
}

// seedChain creates a chain whose steps mirror the given
// approval flags, in order.
func (s *EngineSuite) seedChain(requiresApproval ...bool) (*models.TaskChain, models.ChainSteps) {
	c := &models.TaskChain{
		ID:       uuid.New(),
		Name:     "chain-" + uuid.NewString(),
		IsActive: true,
	}
	s.Require().NoError(s.db.Create(c).Error)

	template := s.seedTemplate()

	steps := make(models.ChainSteps, 0, len(requiresApproval))
	for i, gated := range requiresApproval {
		step := &models.ChainStep{
			ID:               uuid.New(),
			ChainID:          c.ID,
			TemplateID:       template.ID,
			Position:         i + 1,
			IsRequired:       true,
			RequiresApproval: gated,
		}
		s.Require().NoError(s.db.Create(step).Error)
		steps = append(steps, step)
	}

	return c, steps
}

func (s *EngineSuite) TestStartPointsAtFirstStep() {
	c, steps := s.seedChain(false, false)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusActive, a.Status)
	s.Equal(steps[0].ID, *a.CurrentStepID)
	s.Nil(a.CompletedAt)
}

func (s *EngineSuite) TestStartEmptyChainCompletesImmediately() {
	c, _ := s.seedChain()
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusCompleted, a.Status)
	s.Nil(a.CurrentStepID)
	s.NotNil(a.CompletedAt)
}

func (s *EngineSuite) TestStartUnknownChainFails() {
	p := s.seedPlant()

	_, err := s.engine.Start(context.Background(), uuid.New(), p.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *EngineSuite) TestAdvanceThroughChain() {
	c, steps := s.seedChain(false, false, false)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)

	a, err = s.engine.Advance(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(steps[1].ID, *a.CurrentStepID)

	a, err = s.engine.Advance(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(steps[2].ID, *a.CurrentStepID)

	a, err = s.engine.Advance(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusCompleted, a.Status)
	s.Nil(a.CurrentStepID)
	s.NotNil(a.CompletedAt)

	// terminal: further advancement is refused
	_, err = s.engine.Advance(context.Background(), a.ID)
	s.ErrorIs(err, ErrNotActive)
}

// The walkthrough from the plant-care workflow: steps
// [A(no approval), B(gated), C(no approval)].
func (s *EngineSuite) TestApprovalGateWalkthrough() {
	c, steps := s.seedChain(false, true, false)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)
	s.Equal(steps[0].ID, *a.CurrentStepID)

	// completing A advances to B
	a, err = s.engine.Advance(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(steps[1].ID, *a.CurrentStepID)

	// advancing past B without an approval leaves state unchanged
	_, err = s.engine.Advance(context.Background(), a.ID)
	s.ErrorIs(err, ErrApprovalRequired)

	var reread models.ChainAssignment
	s.Require().NoError(s.db.First(&reread, "id = ?", a.ID).Error)
	s.Equal(steps[1].ID, *reread.CurrentStepID)
	s.Equal(models.AssignmentStatusActive, reread.Status)

	// approving B advances to C
	by := "gardener"
	approval, a, err := s.engine.Approve(context.Background(), a.ID, steps[1].ID, true, "looks ready", &by)
	s.Require().NoError(err)
	s.True(approval.Approved)
	s.Equal(steps[2].ID, *a.CurrentStepID)

	// completing C finishes the assignment
	a, err = s.engine.Advance(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusCompleted, a.Status)
	s.Nil(a.CurrentStepID)
}

func (s *EngineSuite) TestRejectionLeavesAssignmentUnchanged() {
	c, steps := s.seedChain(true)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)

	approval, a, err := s.engine.Approve(context.Background(), a.ID, steps[0].ID, false, "not yet", nil)
	s.Require().NoError(err)
	s.False(approval.Approved)
	s.Equal(steps[0].ID, *a.CurrentStepID)
	s.Equal(models.AssignmentStatusActive, a.Status)

	// the rejection is recorded in the append-only log
	var count int64
	s.db.Model(&models.StepApproval{}).
		Where("assignment_id = ? AND step_id = ?", a.ID, steps[0].ID).
		Count(&count)
	s.Equal(int64(1), count)

	// a later approval supersedes it
	_, a, err = s.engine.Approve(context.Background(), a.ID, steps[0].ID, true, "", nil)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusCompleted, a.Status)
}

func (s *EngineSuite) TestApproveNonCurrentStepFails() {
	c, steps := s.seedChain(false, true)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)

	// pointer is on step 1; approving step 2 is refused
	_, _, err = s.engine.Approve(context.Background(), a.ID, steps[1].ID, true, "", nil)
	s.ErrorIs(err, ErrNotCurrentStep)

	_, _, err = s.engine.Approve(context.Background(), a.ID, uuid.New(), true, "", nil)
	s.ErrorIs(err, ErrStepNotFound)
}

func (s *EngineSuite) TestCancel() {
	c, _ := s.seedChain(false, false)
	p := s.seedPlant()

	a, err := s.engine.Start(context.Background(), c.ID, p.ID)
	s.Require().NoError(err)

	a, err = s.engine.Cancel(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(models.AssignmentStatusCancelled, a.Status)

	_, err = s.engine.Cancel(context.Background(), a.ID)
	s.ErrorIs(err, ErrNotActive)

	_, err = s.engine.Advance(context.Background(), a.ID)
	s.ErrorIs(err, ErrNotActive)
}
