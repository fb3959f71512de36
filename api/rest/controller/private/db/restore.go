package db

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/internal/transfer"
	"github.com/verdant-cloud/verdant/pkg/db"
)

// Restore replaces the entire database with an uploaded xlsx
// backup. The file may be sent raw or as the "file" part of a
// multipart form.
func Restore(c echo.Context) error {
	body := c.Request().Body

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return echo.ErrBadRequest.SetInternal(err)
		}
		defer f.Close()
		body = f
	}

	if err := transfer.RestoreXLSX(c.Request().Context(), db.Connection(), body); err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.NoContent(http.StatusNoContent)
}
