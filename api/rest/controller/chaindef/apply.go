package chaindef

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/internal/chaindef"
	schema "github.com/verdant-cloud/verdant/pkg/chaindef"
	"github.com/verdant-cloud/verdant/pkg/db"
)

type ApplyRequest struct {
	Definitions []schema.Definition `json:"definitions"`
}

type ApplyResponse struct {
	Applied int `json:"applied"`
}

func Apply(c echo.Context) error {
	var req ApplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}
	if len(req.Definitions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "definitions are required")
	}

	importer := chaindef.NewImporter(db.Connection())
	ctx := c.Request().Context()
	applied := 0

	for i := range req.Definitions {
		def := &req.Definitions[i]
		if err := def.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		if _, err := importer.Apply(ctx, def); err != nil {
			if errors.Is(err, chaindef.ErrDuplicateChain) {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			return echo.ErrInternalServerError.SetInternal(err)
		}
		applied++
	}

	return c.JSON(http.StatusOK, ApplyResponse{Applied: applied})
}
