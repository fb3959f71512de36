package assignment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"github.com/verdant-cloud/verdant/internal/chain"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/gorm"
)

type patchRequest struct {
	Status string `json:"status"`
}

// Patch supports one transition: cancelling an active
// assignment. Every other progression goes through the
// advance and approve endpoints.
func Patch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	var req patchRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if req.Status != string(models.AssignmentStatusCancelled) {
		return echo.ErrBadRequest.SetInternal(
			fmt.Errorf("unsupported status transition: %q", req.Status))
	}

	a, err := assignment.Service(c.Request().Context()).Cancel(id)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.ErrNotFound
	case errors.Is(err, chain.ErrNotActive):
		return echo.ErrConflict.SetInternal(err)
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusOK, a)
	}
}
