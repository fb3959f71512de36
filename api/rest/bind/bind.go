package bind

import (
	"github.com/labstack/echo/v4"
	"github.com/verdant-cloud/verdant/api/rest/controller/assignment"
	"github.com/verdant-cloud/verdant/api/rest/controller/chain"
	"github.com/verdant-cloud/verdant/api/rest/controller/chaindef"
	"github.com/verdant-cloud/verdant/api/rest/controller/health"
	"github.com/verdant-cloud/verdant/api/rest/controller/plant"
	"github.com/verdant-cloud/verdant/api/rest/controller/private/db"
	"github.com/verdant-cloud/verdant/api/rest/controller/stats"
	"github.com/verdant-cloud/verdant/api/rest/controller/task"
	"github.com/verdant-cloud/verdant/api/rest/controller/template"
)

func All(g *echo.Group) {
	Private(g.Group("/private"))
	Public(g)
}

func Public(g *echo.Group) {
	// plants
	{
		g.GET("/plants", plant.List)
		g.GET("/plants/:id", plant.Get)
		g.POST("/plants", plant.Post)
		g.POST("/plants/import", plant.Import)
		g.PATCH("/plants/:id", plant.Patch)
		g.DELETE("/plants/:id", plant.Delete)
	}

	// health records
	{
		g.GET("/plants/:id/health", health.List)
		g.POST("/plants/:id/health", health.Post)
		g.PATCH("/health/:id", health.Patch)
		g.DELETE("/health/:id", health.Delete)
	}

	// task templates
	{
		g.GET("/task-templates", template.List)
		g.GET("/task-templates/:id", template.Get)
		g.POST("/task-templates", template.Post)
		g.PATCH("/task-templates/:id", template.Patch)
		g.DELETE("/task-templates/:id", template.Delete)
		g.GET("/task-templates/:id/checklist", template.Checklist)
		g.POST("/task-templates/:id/checklist", template.PostChecklistItem)
		g.PATCH("/checklist/:id", template.PatchChecklistItem)
		g.DELETE("/checklist/:id", template.DeleteChecklistItem)
	}

	// care tasks
	{
		g.GET("/tasks", task.List)
		g.GET("/tasks/:id", task.Get)
		g.POST("/tasks", task.Post)
		g.PATCH("/tasks/:id", task.Patch)
		g.DELETE("/tasks/:id", task.Delete)
	}

	// task chains
	{
		g.GET("/task-chains", chain.List)
		g.GET("/task-chains/:id", chain.Get)
		g.POST("/task-chains", chain.Post)
		g.PATCH("/task-chains/:id", chain.Patch)
		g.DELETE("/task-chains/:id", chain.Delete)
		g.GET("/task-chains/:id/steps", chain.Steps)
		g.POST("/task-chains/:id/steps", chain.PostStep)
		g.PATCH("/chain-steps/:id", chain.PatchStep)
		g.DELETE("/chain-steps/:id", chain.DeleteStep)
	}

	// chain assignments
	{
		g.GET("/chain-assignments", assignment.List)
		g.GET("/chain-assignments/:id", assignment.Get)
		g.POST("/chain-assignments", assignment.Post)
		g.PATCH("/chain-assignments/:id", assignment.Patch)
		g.DELETE("/chain-assignments/:id", assignment.Delete)
		g.POST("/chain-assignments/:id/advance", assignment.Advance)
		g.POST("/chain-assignments/:id/steps/:step_id/approve", assignment.Approve)
		g.GET("/chain-assignments/:id/approvals", assignment.Approvals)
	}

	// chain definitions
	g.POST("/chaindefs/apply", chaindef.Apply)

	// stats
	g.GET("/stats", stats.Get)
}

func Private(g *echo.Group) {
	DB(g.Group("/db"))
}

func DB(g *echo.Group) {
	g.GET("/backup", db.Backup)
	g.POST("/restore", db.Restore)
	g.POST("/migrate", db.Migrate)
}
