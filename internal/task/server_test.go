package task_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmarket/taskmarket/internal/task"
	"github.com/taskmarket/taskmarket/pkg/cerr"
)

func newAPIServer(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t, task.DefaultConfig())
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(cerr.NewJSONResponseChiMiddleware())
		task.NewServer(f.engine).RegisterRoutes(r)
	})
	return f, r
}

func doJSON(t *testing.T, handler http.Handler, method, path, account string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if account != "" {
		req.Header.Set(task.AccountHeader, account)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_CreateAndGet(t *testing.T) {
	f, handler := newAPIServer(t)
	f.registerProfiles(t, "alice")

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", "alice", map[string]any{
		"title":    "Translate whitepaper",
		"budget":   100,
		"deadline": baseTime.Add(24 * time.Hour).UnixMilli(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		Task struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "created", created.Task.Status)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/"+created.Task.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
}

func TestServer_MissingAccountHeader(t *testing.T) {
	_, handler := newAPIServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unauthenticated", body.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	f, handler := newAPIServer(t)
	f.registerProfiles(t, "alice")

	// Unknown task id maps to 404.
	rec := doJSON(t, handler, http.MethodGet, "/api/tasks/no-such-id", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Budget over the free balance maps to the failed-precondition status.
	rec = doJSON(t, handler, http.MethodPost, "/api/tasks", "alice", map[string]any{
		"title":    "too expensive",
		"budget":   1_000_000,
		"deadline": baseTime.Add(time.Hour).UnixMilli(),
	})
	assert.Equal(t, cerr.FailedPrecondition.HTTPCode(), rec.Code)

	// Malformed body maps to 400.
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("{not json"))
	req.Header.Set(task.AccountHeader, "alice")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Lifecycle(t *testing.T) {
	f, handler := newAPIServer(t)
	f.registerProfiles(t, "alice", "bob")

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", "alice", map[string]any{
		"title":    "Translate whitepaper",
		"budget":   100,
		"deadline": baseTime.Add(24 * time.Hour).UnixMilli(),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Task.ID

	for _, step := range []struct {
		account string
		action  string
	}{
		{"bob", "start"},
		{"bob", "complete"},
		{"alice", "accept"},
	} {
		rec := doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/tasks/%s/%s", id, step.action), step.account, struct{}{})
		require.Equal(t, http.StatusOK, rec.Code, "step %s: %s", step.action, rec.Body.String())
	}

	assert.Equal(t, uint64(600), f.ledger.FreeBalance("bob"))

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
