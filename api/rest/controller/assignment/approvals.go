package assignment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"gorm.io/gorm"
)

// Approvals returns the assignment's full decision log,
// oldest first.
func Approvals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	approvals, err := assignment.Service(c.Request().Context()).Approvals(id)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.ErrNotFound
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusOK, approvals)
	}
}
