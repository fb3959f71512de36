package chain

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/chain"
)

func Post(c echo.Context) error {
	var req chain.CreateRequest

	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	if err := req.Validate(); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	ch, err := chain.Service(c.Request().Context()).Create(&req)

	switch {
	case errors.Is(err, chain.ErrDuplicateName):
		return echo.ErrConflict.SetInternal(err)
	case err != nil:
		return echo.ErrInternalServerError.SetInternal(err)
	default:
		return c.JSON(http.StatusCreated, ch)
	}
}
