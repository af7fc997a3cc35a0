package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/todograph/internal/config"
	"github.com/hmans/todograph/internal/graph"
	"github.com/hmans/todograph/internal/upstream"
	"github.com/hmans/todograph/internal/upstream/upstreamtest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestServer(t *testing.T, opts Options) (*Server, *upstreamtest.Server) {
	t.Helper()
	fake := upstreamtest.NewServer(t)
	logger, _ := logtest.NewNullLogger()

	routes, err := graph.NewRoutes(config.RelationsForeignKey)
	require.NoError(t, err)
	schema, err := graph.NewSchema(graph.Config{
		Client: upstream.New(fake.URL),
		Routes: routes,
		Log:    logger,
	})
	require.NoError(t, err)

	return New(schema, opts, logger), fake
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func postGraphQL(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, gqlResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return rec, resp
}

func TestPostGraphQL(t *testing.T) {
	s, _ := setupTestServer(t, Options{Playground: true})

	rec, resp := postGraphQL(t, s.Handler(), `{"query": "{ getUser(id: \"1\") { id name email } }"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t,
		`{"getUser": {"id": "1", "name": "Leanne Graham", "email": "Sincere@april.biz"}}`,
		string(resp.Data))
}

func TestPostGraphQLVariablesAndOperation(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	body := `{
		"query": "query A { getTodos { id } } query B($id: ID!) { getUser(id: $id) { username } }",
		"operationName": "B",
		"variables": {"id": "2"}
	}`
	rec, resp := postGraphQL(t, s.Handler(), body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"getUser": {"username": "Antonette"}}`, string(resp.Data))
}

func TestPostGraphQLUpstreamError(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	rec, resp := postGraphQL(t, s.Handler(), `{"query": "{ getUser(id: \"999999\") { id } }"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "404")
	assert.JSONEq(t, `{"getUser": null}`, string(resp.Data))
}

func TestPostGraphQLMalformedBody(t *testing.T) {
	s, fake := setupTestServer(t, Options{})

	for _, body := range []string{`{"query": `, `{"variables": {}}`, `[]`} {
		rec, resp := postGraphQL(t, s.Handler(), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.NotEmpty(t, resp.Errors, "body %s", body)
	}
	assert.Zero(t, fake.TotalHits())
}

func TestPlayground(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		s, _ := setupTestServer(t, Options{Playground: true})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("disabled", func(t *testing.T) {
		s, _ := setupTestServer(t, Options{Playground: false})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))

		assert.NotEqual(t, http.StatusOK, rec.Code)
	})
}

func TestCustomPath(t *testing.T) {
	s, _ := setupTestServer(t, Options{Path: "/api/graph"})

	req := httptest.NewRequest(http.MethodPost, "/api/graph", strings.NewReader(`{"query": "{ getAllUsers { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		s, _ := setupTestServer(t, Options{})

		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query": "{ getAllUsers { id } }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", "https://studio.example.com")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		s, _ := setupTestServer(t, Options{})

		req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
		req.Header.Set("Origin", "https://studio.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("restricted origins", func(t *testing.T) {
		s, _ := setupTestServer(t, Options{CORSOrigins: []string{"https://allowed.example.com"}})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://other.example.com")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestListenAndServeBindFailure(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = s.ListenAndServe(context.Background(), l.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}

func TestNewDefaults(t *testing.T) {
	s := New(nil, Options{}, nil)
	assert.Equal(t, "/graphql", s.opts.Path)
	assert.Equal(t, []string{"*"}, s.opts.CORSOrigins)
	assert.Equal(t, logrus.StandardLogger(), s.log)
}
