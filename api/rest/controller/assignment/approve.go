package assignment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"github.com/verdant-cloud/verdant/internal/chain"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/gorm"
)

type approveResponse struct {
	Approval   *models.StepApproval    `json:"approval"`
	Assignment *models.ChainAssignment `json:"assignment"`
}

// Approve records an approval decision for the assignment's
// current step. An approval advances the assignment; a
// rejection only logs the decision.
func Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	var req assignment.ApproveRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	approval, a, err := assignment.Service(c.Request().Context()).Approve(id, stepID, &req)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, chain.ErrStepNotFound):
		return echo.ErrNotFound
	case errors.Is(err, chain.ErrNotActive),
		errors.Is(err, chain.ErrNotCurrentStep):
		return echo.ErrConflict.SetInternal(err)
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusOK, approveResponse{
			Approval:   approval,
			Assignment: a,
		})
	}
}
