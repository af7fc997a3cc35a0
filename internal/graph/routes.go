package graph

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hmans/todograph/internal/config"
)

// Shape describes how an upstream response body maps onto a field value.
type Shape int

const (
	// ShapeOne decodes the body as a single object.
	ShapeOne Shape = iota
	// ShapeMany decodes the body as a list.
	ShapeMany
	// ShapeFirst decodes the body as a list and keeps the first element, or null.
	ShapeFirst
)

func (s Shape) String() string {
	switch s {
	case ShapeOne:
		return "one"
	case ShapeMany:
		return "many"
	case ShapeFirst:
		return "first"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Route binds one GraphQL field to one upstream request.
//
// Path is a template: {name} placeholders are filled from the field's
// arguments or its parent object. Every resolution of the field issues
// exactly one request; nothing is cached or batched across fields.
type Route struct {
	Type   string
	Field  string
	Method string
	Path   string
	Shape  Shape
}

// Key returns the "Type.field" name of the routed field.
func (r Route) Key() string {
	return r.Type + "." + r.Field
}

// Params returns the placeholder names in Path, in order of appearance.
func (r Route) Params() []string {
	var names []string
	rest := r.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}

// Expand fills the path template. Values are path-escaped before the
// query string and query-escaped after it.
func (r Route) Expand(params map[string]string) (string, error) {
	var b strings.Builder
	inQuery := false
	rest := r.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("route %s: unterminated placeholder in %q", r.Key(), r.Path)
		}

		literal := rest[:open]
		if strings.Contains(literal, "?") {
			inQuery = true
		}
		b.WriteString(literal)

		name := rest[open+1 : open+end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("route %s: no value for {%s}", r.Key(), name)
		}
		if inQuery {
			b.WriteString(url.QueryEscape(value))
		} else {
			b.WriteString(url.PathEscape(value))
		}
		rest = rest[open+end+1:]
	}
}

var rootRoutes = []Route{
	{Type: "Query", Field: "getTodos", Method: http.MethodGet, Path: "/todos", Shape: ShapeMany},
	{Type: "Query", Field: "getAllUsers", Method: http.MethodGet, Path: "/users", Shape: ShapeMany},
	{Type: "Query", Field: "getUser", Method: http.MethodGet, Path: "/users/{id}", Shape: ShapeOne},
}

var relationRoutes = map[string][]Route{
	config.RelationsForeignKey: {
		{Type: "Todo", Field: "user", Method: http.MethodGet, Path: "/users/{userId}", Shape: ShapeOne},
		{Type: "User", Field: "todo", Method: http.MethodGet, Path: "/todos?userId={id}&_limit=1", Shape: ShapeFirst},
	},
	config.RelationsLegacy: {
		{Type: "Todo", Field: "user", Method: http.MethodGet, Path: "/users/{id}", Shape: ShapeOne},
		{Type: "User", Field: "todo", Method: http.MethodGet, Path: "/todos/{id}", Shape: ShapeOne},
	},
}

// Routes is the field-to-upstream mapping for one relation mode.
// It is read-only once built.
type Routes struct {
	mode   string
	routes map[string]Route
}

// NewRoutes builds the route table for the given relation mode.
func NewRoutes(mode string) (*Routes, error) {
	relations, ok := relationRoutes[mode]
	if !ok {
		return nil, fmt.Errorf("unknown relation mode %q", mode)
	}

	rt := &Routes{mode: mode, routes: make(map[string]Route)}
	for _, list := range [][]Route{rootRoutes, relations} {
		for _, r := range list {
			rt.routes[r.Key()] = r
		}
	}
	return rt, nil
}

// Mode returns the relation mode the table was built for.
func (rt *Routes) Mode() string {
	return rt.mode
}

// Lookup returns the route for typeName.field.
func (rt *Routes) Lookup(typeName, field string) (Route, bool) {
	r, ok := rt.routes[typeName+"."+field]
	return r, ok
}

// All returns every route sorted by type and field.
func (rt *Routes) All() []Route {
	all := make([]Route, 0, len(rt.routes))
	for _, r := range rt.routes {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Type != all[j].Type {
			return all[i].Type < all[j].Type
		}
		return all[i].Field < all[j].Field
	})
	return all
}

// Validate checks the table against a schema: every route must be a GET
// naming an existing field with a matching list-ness, and every root field
// and every object-typed field must be routed.
func (rt *Routes) Validate(schema *ast.Schema) error {
	var problems []string

	for _, r := range rt.All() {
		if r.Method != http.MethodGet {
			problems = append(problems, fmt.Sprintf("%s: method %s is not allowed, the upstream is read-only", r.Key(), r.Method))
		}
		def := schema.Types[r.Type]
		if def == nil {
			problems = append(problems, fmt.Sprintf("%s: unknown type %s", r.Key(), r.Type))
			continue
		}
		field := def.Fields.ForName(r.Field)
		if field == nil {
			problems = append(problems, fmt.Sprintf("%s: unknown field", r.Key()))
			continue
		}
		isList := field.Type.Elem != nil
		if isList != (r.Shape == ShapeMany) {
			problems = append(problems, fmt.Sprintf("%s: shape %s does not match type %s", r.Key(), r.Shape, field.Type))
		}
		for _, p := range r.Params() {
			if !paramAvailable(schema, def, field, p) {
				problems = append(problems, fmt.Sprintf("%s: placeholder {%s} has no source", r.Key(), p))
			}
		}
	}

	var queryName string
	if schema.Query != nil {
		queryName = schema.Query.Name
	}
	for name, def := range schema.Types {
		if def.Kind != ast.Object || strings.HasPrefix(name, "__") {
			continue
		}
		for _, field := range def.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			target := schema.Types[field.Type.Name()]
			needsRoute := name == queryName || (target != nil && target.Kind == ast.Object)
			if !needsRoute {
				continue
			}
			if _, ok := rt.Lookup(name, field.Name); !ok {
				problems = append(problems, fmt.Sprintf("%s.%s: no route", name, field.Name))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("route table (%s) does not match schema:\n  %s", rt.mode, strings.Join(problems, "\n  "))
	}
	return nil
}

// paramAvailable reports whether a placeholder can be filled, either from a
// field argument or from the parent object. The parent's userId is only
// known to the upstream model, so it is allowed for Todo explicitly.
func paramAvailable(schema *ast.Schema, parent *ast.Definition, field *ast.FieldDefinition, name string) bool {
	if field.Arguments.ForName(name) != nil {
		return true
	}
	if schema.Query != nil && parent.Name == schema.Query.Name {
		return false
	}
	if parent.Fields.ForName(name) != nil {
		return true
	}
	return parent.Name == "Todo" && name == "userId"
}
