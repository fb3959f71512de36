package db

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/internal/transfer"
	"github.com/verdant-cloud/verdant/pkg/db"
)

const backupContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Backup streams a full-database xlsx export.
func Backup(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, backupContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="verdant-backup.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)

	return transfer.ExportXLSX(c.Request().Context(), db.Connection(), c.Response().Writer)
}
