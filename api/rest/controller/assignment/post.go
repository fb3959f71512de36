package assignment

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"gorm.io/gorm"
)

func Post(c echo.Context) error {
	var req assignment.CreateRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := req.Validate(); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	a, err := assignment.Service(c.Request().Context()).Create(&req)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.ErrNotFound
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusCreated, a)
	}
}
