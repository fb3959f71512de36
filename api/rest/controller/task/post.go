package task

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/task"
	"gorm.io/gorm"
)

// Post creates a care task. With an apply-to-all template and
// no plant_id the create fans out to every plant, so the
// response is always a list.
func Post(c echo.Context) error {
	var req task.CreateRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := req.Validate(); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	tasks, err := task.Service(c.Request().Context()).Create(&req)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.ErrNotFound
	case errors.Is(err, task.ErrNoPlants):
		return echo.ErrConflict.SetInternal(err)
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusCreated, tasks)
	}
}
