package db

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/pkg/db"
)

// Migrate runs schema auto-migration for every model.
func Migrate(c echo.Context) error {
	if err := db.Migrate(); err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.NoContent(http.StatusNoContent)
}
