package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/gql"
	"github.com/verdant-cloud/verdant/api/rest/bind"
	"github.com/verdant-cloud/verdant/pkg/env"
)

var server *echo.Echo

// Start launches Verdant's API.
func Start(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// health
	e.GET("/health", Health)

	// metrics
	prometheus.NewPrometheus("verdant", nil).Use(e)

	// REST
	bind.All(e.Group("/v1"))

	// GraphQL
	e.GET("/gql", gql.Handler())
	e.POST("/gql", gql.Handler())

	server = e

	return e.Start(fmt.Sprintf(":%v", env.Variables().Port))
}

// Shutdown drains in-flight requests and stops the API.
func Shutdown() error {
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
