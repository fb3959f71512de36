package plant

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/plant"
)

func Post(c echo.Context) error {
	var req plant.CreateRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := req.Validate(); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	p, err := plant.Service(c.Request().Context()).Create(&req)
	if err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusCreated, p)
}
