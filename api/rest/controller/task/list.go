package task

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/service/task"
)

func List(c echo.Context) error {
	req, err := parseListRequest(c)
	if err != nil {
		return echo.ErrBadRequest.SetInternal(err)
	}

	tasks, err := task.Service(c.Request().Context()).List(req)
	if err != nil {
		return echo.ErrInternalServerError.SetInternal(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

func parseListRequest(c echo.Context) (req *task.ListRequest, err error) {
	req = &task.ListRequest{
		PlantID:  c.QueryParam("plant_id"),
		Category: c.QueryParam("category"),
	}

	if overdue := c.QueryParam("overdue"); overdue != "" {
		if req.Overdue, err = strconv.ParseBool(overdue); err != nil {
			return nil, err
		}
	}

	if open := c.QueryParam("open"); open != "" {
		if req.Open, err = strconv.ParseBool(open); err != nil {
			return nil, err
		}
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
