// Package reports is the read-only GraphQL surface over the store used by
// the admin dashboard.
package reports

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/medstore/app/services"
	gql "github.com/shashiranjanraj/medstore/pkg/graphql"
)

var medicineType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Medicine",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"batchNo":      &graphql.Field{Type: graphql.String},
		"expiryDate":   &graphql.Field{Type: graphql.DateTime},
		"manufacturer": &graphql.Field{Type: graphql.String},
		"quantity":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"price":        &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"description":  &graphql.Field{Type: graphql.String},
		"createdAt":    &graphql.Field{Type: graphql.DateTime},
		"updatedAt":    &graphql.Field{Type: graphql.DateTime},
	},
})

var checkupType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Checkup",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"patientName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"age":         &graphql.Field{Type: graphql.Int},
		"gender":      &graphql.Field{Type: graphql.String},
		"contact":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"checkupType": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"totalCost":   &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"createdAt":   &graphql.Field{Type: graphql.DateTime},
	},
})

var leadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Lead",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"contact":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"status":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"notes":     &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var statusCountType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StatusCount",
	Fields: graphql.Fields{
		"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"count":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var summaryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Summary",
	Fields: graphql.Fields{
		"medicineCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"lowStockCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"checkupCount":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"revenue":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"leadsByStatus": &graphql.Field{Type: graphql.NewList(statusCountType)},
	},
})

// NewSchema builds the query root over svc.
func NewSchema(svc *services.ReportService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"medicines": &graphql.Field{
				Type: graphql.NewList(medicineType),
				Args: graphql.FieldConfigArgument{
					"lowStock": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"q":        &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					low, _ := p.Args["lowStock"].(bool)
					q, _ := p.Args["q"].(string)
					return svc.Medicines(p.Context, q, low)
				},
			},
			"checkups": &graphql.Field{
				Type: graphql.NewList(checkupType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.Checkups(p.Context)
				},
			},
			"leads": &graphql.Field{
				Type: graphql.NewList(leadType),
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status, _ := p.Args["status"].(string)
					return svc.Leads(p.Context, status)
				},
			},
			"summary": &graphql.Field{
				Type: summaryType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.Summary(p.Context)
				},
			},
		},
	})
	return gql.NewSchema(query)
}
