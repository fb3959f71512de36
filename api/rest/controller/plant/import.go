package plant

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/internal/transfer"
	"github.com/verdant-cloud/verdant/pkg/db"
)

// Import bulk-creates plants from an uploaded CSV body. The
// file may be sent raw or as the "file" part of a multipart
// form.
func Import(c echo.Context) error {
	body := c.Request().Body

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return echo.ErrBadRequest.SetInternal(err)
		}
		defer f.Close()
		body = f
	}

	result, err := transfer.ImportPlantsCSV(c.Request().Context(), db.Connection(), body)
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	return c.JSON(http.StatusOK, result)
}
