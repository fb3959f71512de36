package chain

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/chain"
)

func List(c echo.Context) error {
	req, err := parseListRequest(c)
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	chains, err := chain.Service(c.Request().Context()).List(req)
	if err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, chains)
}

func parseListRequest(c echo.Context) (req *chain.ListRequest, err error) {
	req = &chain.ListRequest{
		Category: c.QueryParam("category"),
	}

	if active := c.QueryParam("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			return nil, err
		}
		req.Active = &parsed
	}

	if limit := c.QueryParam("limit"); limit != "" {
		if req.Limit, err = strconv.ParseUint(limit, 10, 32); err != nil {
			return nil, err
		}
	}

	if offset := c.QueryParam("offset"); offset != "" {
		if req.Offset, err = strconv.ParseUint(offset, 10, 64); err != nil {
			return nil, err
		}
	}

	if orderBy := c.QueryParam("order_by"); orderBy != "" {
		req.OrderBy = strings.Split(orderBy, ",")
	}

	return
}
