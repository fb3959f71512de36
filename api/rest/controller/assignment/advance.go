package assignment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"github.com/verdant-cloud/verdant/internal/chain"
	"gorm.io/gorm"
)

// Advance completes the assignment's current step and moves
// the pointer forward. Approval-gated steps refuse until an
// approval is on record.
func Advance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	a, err := assignment.Service(c.Request().Context()).Advance(id)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.ErrNotFound
	case errors.Is(err, chain.ErrNotActive),
		errors.Is(err, chain.ErrApprovalRequired):
		return echo.ErrConflict.SetInternal(err)
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusOK, a)
	}
}
