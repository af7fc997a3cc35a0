package graph

import (
	"context"
	"fmt"

	"github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"github.com/hmans/todograph/internal/graph/model"
	"github.com/hmans/todograph/internal/upstream"
)

// Resolver is the root resolver for the GraphQL schema.
// Every field it resolves is one upstream request described by the route table.
type Resolver struct {
	client *upstream.Client
	routes *Routes
	log    logrus.FieldLogger
}

func newResolver(client *upstream.Client, routes *Routes, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{client: client, routes: routes, log: log}
}

// GetTodos resolves Query.getTodos.
func (r *Resolver) GetTodos(ctx context.Context) (*[]*TodoResolver, error) {
	todos, err := fetchMany[model.Todo](ctx, r, "Query", "getTodos", nil)
	if err != nil || todos == nil {
		return nil, err
	}
	out := make([]*TodoResolver, len(todos))
	for i, t := range todos {
		out[i] = r.todo(t)
	}
	return &out, nil
}

// GetAllUsers resolves Query.getAllUsers.
func (r *Resolver) GetAllUsers(ctx context.Context) (*[]*UserResolver, error) {
	users, err := fetchMany[model.User](ctx, r, "Query", "getAllUsers", nil)
	if err != nil || users == nil {
		return nil, err
	}
	out := make([]*UserResolver, len(users))
	for i, u := range users {
		out[i] = r.user(u)
	}
	return &out, nil
}

// GetUser resolves Query.getUser(id).
func (r *Resolver) GetUser(ctx context.Context, args struct{ ID graphql.ID }) (*UserResolver, error) {
	u, err := fetchOne[model.User](ctx, r, "Query", "getUser", map[string]string{"id": string(args.ID)})
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) todo(t *model.Todo) *TodoResolver {
	if t == nil {
		return nil
	}
	return &TodoResolver{root: r, todo: t}
}

func (r *Resolver) user(u *model.User) *UserResolver {
	if u == nil {
		return nil
	}
	return &UserResolver{root: r, user: u}
}

// TodoResolver resolves the fields of a Todo.
type TodoResolver struct {
	root *Resolver
	todo *model.Todo
}

func (t *TodoResolver) ID() graphql.ID   { return graphql.ID(t.todo.ID) }
func (t *TodoResolver) Title() string    { return t.todo.Title }
func (t *TodoResolver) Completed() *bool { return t.todo.Completed }

// User resolves Todo.user. The parent todo is logged before the lookup.
func (t *TodoResolver) User(ctx context.Context) (*UserResolver, error) {
	fields := logrus.Fields{
		"id":     t.todo.ID,
		"userId": t.todo.UserID,
		"title":  t.todo.Title,
	}
	if t.todo.Completed != nil {
		fields["completed"] = *t.todo.Completed
	}
	t.root.log.WithFields(fields).Info("resolving todo user")

	u, err := fetchOne[model.User](ctx, t.root, "Todo", "user", map[string]string{
		"id":     string(t.todo.ID),
		"userId": string(t.todo.UserID),
	})
	if err != nil {
		return nil, err
	}
	return t.root.user(u), nil
}

// UserResolver resolves the fields of a User.
type UserResolver struct {
	root *Resolver
	user *model.User
}

func (u *UserResolver) ID() graphql.ID   { return graphql.ID(u.user.ID) }
func (u *UserResolver) Name() string     { return u.user.Name }
func (u *UserResolver) Username() string { return u.user.Username }
func (u *UserResolver) Email() string    { return u.user.Email }
func (u *UserResolver) Phone() string    { return u.user.Phone }

// Todo resolves User.todo.
func (u *UserResolver) Todo(ctx context.Context) (*TodoResolver, error) {
	t, err := fetchOne[model.Todo](ctx, u.root, "User", "todo", map[string]string{"id": string(u.user.ID)})
	if err != nil {
		return nil, err
	}
	return u.root.todo(t), nil
}

// request looks up the route for a field and expands its path.
func (r *Resolver) request(typeName, field string, params map[string]string) (Route, string, error) {
	route, ok := r.routes.Lookup(typeName, field)
	if !ok {
		return Route{}, "", fmt.Errorf("no route for %s.%s", typeName, field)
	}
	path, err := route.Expand(params)
	if err != nil {
		return Route{}, "", err
	}
	r.log.WithFields(logrus.Fields{
		"field": route.Key(),
		"path":  path,
	}).Debug("upstream request")
	return route, path, nil
}

// fetchOne resolves a single-valued field. A null body yields nil, and so
// does a ShapeFirst route when the upstream list is empty.
func fetchOne[T any](ctx context.Context, r *Resolver, typeName, field string, params map[string]string) (*T, error) {
	route, path, err := r.request(typeName, field, params)
	if err != nil {
		return nil, err
	}

	switch route.Shape {
	case ShapeOne:
		var v *T
		if err := r.client.Do(ctx, route.Method, path, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ShapeFirst:
		var list []*T
		if err := r.client.Do(ctx, route.Method, path, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	default:
		return nil, fmt.Errorf("route %s: shape %s is not single-valued", route.Key(), route.Shape)
	}
}

// fetchMany resolves a list field, preserving upstream order. A null body
// yields a nil slice.
func fetchMany[T any](ctx context.Context, r *Resolver, typeName, field string, params map[string]string) ([]*T, error) {
	route, path, err := r.request(typeName, field, params)
	if err != nil {
		return nil, err
	}
	if route.Shape != ShapeMany {
		return nil, fmt.Errorf("route %s: shape %s is not a list", route.Key(), route.Shape)
	}

	var list []*T
	if err := r.client.Do(ctx, route.Method, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}
