package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services. Only the
// public read surface is exposed here; mutations go through REST where the
// auth middleware lives.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	rideType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ride",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"driver_id":          &graphql.Field{Type: graphql.String},
			"departure_city":     &graphql.Field{Type: graphql.String},
			"destination_city":   &graphql.Field{Type: graphql.String},
			"departure_state":    &graphql.Field{Type: graphql.String},
			"destination_state":  &graphql.Field{Type: graphql.String},
			"departure_time":     &graphql.Field{Type: graphql.String},
			"total_seats":        &graphql.Field{Type: graphql.Int},
			"available_seats":    &graphql.Field{Type: graphql.Int},
			"fare_per_seat":      &graphql.Field{Type: graphql.Float},
			"intermediate_stops": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"smoking_allowed":    &graphql.Field{Type: graphql.Boolean},
			"pets_allowed":       &graphql.Field{Type: graphql.Boolean},
			"status":             &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"searchRides": &graphql.Field{
				Type:        graphql.NewList(rideType),
				Description: "Bookable rides on an exact city-to-city route",
				Args: graphql.FieldConfigArgument{
					"from":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"from_state": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"to_state":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"after":      &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter := domain.RideSearch{
						DepartureCity:    p.Args["from"].(string),
						DestinationCity:  p.Args["to"].(string),
						DepartureState:   p.Args["from_state"].(string),
						DestinationState: p.Args["to_state"].(string),
						Limit:            p.Args["limit"].(int),
					}
					if after := p.Args["after"].(string); after != "" {
						t, err := time.Parse(time.RFC3339, after)
						if err != nil {
							return nil, err
						}
						filter.EarliestDeparture = t
					}
					return deps.Rides.Search(p.Context, filter)
				},
			},
			"ride": &graphql.Field{
				Type:        rideType,
				Description: "Get a ride by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Rides.GetByID(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
