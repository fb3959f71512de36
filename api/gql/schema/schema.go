// Package schema defines Verdant's read-only GraphQL query
// surface over plants, chains, assignments and stats.
package schema

import (
	"errors"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/verdant-cloud/verdant/api/rest/service/assignment"
	"github.com/verdant-cloud/verdant/api/rest/service/chain"
	"github.com/verdant-cloud/verdant/api/rest/service/plant"
	"github.com/verdant-cloud/verdant/api/rest/service/stats"
)

// New instantiates a fresh GraphQL schema for
// Verdant's API.
func New() graphql.SchemaConfig {
	return graphql.SchemaConfig{
		Query: graphql.NewObject(
			graphql.ObjectConfig{
				Name:   "Query",
				Fields: fields(),
			},
		),
	}
}

var plantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Plant",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.ID},
		"name":        &graphql.Field{Type: graphql.String},
		"species":     &graphql.Field{Type: graphql.String},
		"location":    &graphql.Field{Type: graphql.String},
		"acquired_at": &graphql.Field{Type: graphql.DateTime},
		"notes":       &graphql.Field{Type: graphql.String},
		"created_at":  &graphql.Field{Type: graphql.DateTime},
	},
})

var stepType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ChainStep",
	Fields: graphql.Fields{
		"id":                &graphql.Field{Type: graphql.ID},
		"chain_id":          &graphql.Field{Type: graphql.ID},
		"template_id":       &graphql.Field{Type: graphql.ID},
		"position":          &graphql.Field{Type: graphql.Int},
		"is_required":       &graphql.Field{Type: graphql.Boolean},
		"wait_hours":        &graphql.Field{Type: graphql.Int},
		"requires_approval": &graphql.Field{Type: graphql.Boolean},
	},
})

var chainType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TaskChain",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.ID},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"is_active":   &graphql.Field{Type: graphql.Boolean},
		"steps":       &graphql.Field{Type: graphql.NewList(stepType)},
	},
})

var assignmentType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ChainAssignment",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.ID},
		"chain_id":        &graphql.Field{Type: graphql.ID},
		"plant_id":        &graphql.Field{Type: graphql.ID},
		"status":          &graphql.Field{Type: graphql.String},
		"current_step_id": &graphql.Field{Type: graphql.ID},
		"started_at":      &graphql.Field{Type: graphql.DateTime},
		"completed_at":    &graphql.Field{Type: graphql.DateTime},
	},
})

var statsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stats",
	Fields: graphql.Fields{
		"total_plants": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*stats.StatsResponse).Plants.Total, nil
			},
		},
		"open_tasks": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*stats.StatsResponse).Tasks.Open, nil
			},
		},
		"overdue_tasks": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*stats.StatsResponse).Tasks.Overdue, nil
			},
		},
		"completion_rate": &graphql.Field{
			Type: graphql.Float,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*stats.StatsResponse).Tasks.CompletionRate, nil
			},
		},
		"active_assignments": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*stats.StatsResponse).Assignments.Active, nil
			},
		},
	},
})

func fields() graphql.Fields {
	return graphql.Fields{
		"plants": &graphql.Field{
			Type: graphql.NewList(plantType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return plant.Service(p.Context).List(&plant.ListRequest{})
			},
		},
		"plant": &graphql.Field{
			Type: plantType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				raw, ok := p.Args["id"].(string)
				if !ok {
					return nil, errors.New("id is required")
				}

				id, err := uuid.Parse(raw)
				if err != nil {
					return nil, err
				}

				return plant.Service(p.Context).Get(id)
			},
		},
		"taskChains": &graphql.Field{
			Type: graphql.NewList(chainType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return chain.Service(p.Context).List(&chain.ListRequest{})
			},
		},
		"chainAssignments": &graphql.Field{
			Type: graphql.NewList(assignmentType),
			Args: graphql.FieldConfigArgument{
				"status": &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				req := &assignment.ListRequest{}
				if status, ok := p.Args["status"].(string); ok {
					req.Status = status
				}
				return assignment.Service(p.Context).List(req)
			},
		},
		"stats": &graphql.Field{
			Type: statsType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return stats.New(p.Context).Get()
			},
		},
	}
}
