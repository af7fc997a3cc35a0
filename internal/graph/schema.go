package graph

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hmans/todograph/internal/logging"
	"github.com/hmans/todograph/internal/upstream"
)

//go:embed schema.graphqls
var SchemaSDL string

// DefaultMaxParallelism bounds concurrently resolving fields per request.
const DefaultMaxParallelism = 10

// ParseSDL parses and validates the embedded schema.
func ParseSDL() (*ast.Schema, error) {
	return gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: SchemaSDL})
}

// Config holds what an executable schema needs.
type Config struct {
	Client         *upstream.Client
	Routes         *Routes
	Log            logrus.FieldLogger
	MaxParallelism int
}

// Schema is the executable GraphQL schema.
type Schema struct {
	exec   *graphql.Schema
	def    *ast.Schema
	routes *Routes
}

// NewSchema parses the schema, checks the route table against it and binds the resolvers.
// Any error here is a startup error.
func NewSchema(cfg Config) (*Schema, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("graph: upstream client is required")
	}
	if cfg.Routes == nil {
		return nil, fmt.Errorf("graph: route table is required")
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.MaxParallelism <= 0 {
		cfg.MaxParallelism = DefaultMaxParallelism
	}

	def, err := ParseSDL()
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if err := cfg.Routes.Validate(def); err != nil {
		return nil, err
	}

	resolver := newResolver(cfg.Client, cfg.Routes, cfg.Log)

	exec, err := graphql.ParseSchema(SchemaSDL, resolver,
		graphql.MaxParallelism(cfg.MaxParallelism),
		graphql.Logger(&logging.PanicLogger{Log: cfg.Log}),
	)
	if err != nil {
		return nil, fmt.Errorf("binding resolvers: %w", err)
	}

	return &Schema{exec: exec, def: def, routes: cfg.Routes}, nil
}

// Exec runs a GraphQL operation.
func (s *Schema) Exec(ctx context.Context, query, operationName string, variables map[string]any) *graphql.Response {
	return s.exec.Exec(ctx, query, operationName, variables)
}

// Definition returns the parsed schema document.
func (s *Schema) Definition() *ast.Schema {
	return s.def
}

// Routes returns the route table the resolvers use.
func (s *Schema) Routes() *Routes {
	return s.routes
}
