package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/entities"
	persistmem "mindweave-backend/infrastructure/persistence/memory"
	"mindweave-backend/internal/service/embedding"
	"mindweave-backend/internal/service/expansion"
	"mindweave-backend/pkg/memory"
)

type fixture struct {
	handler    http.Handler
	engine     *expansion.Engine
	graphStore *persistmem.GraphStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	graphStore := persistmem.NewGraphStore()
	jobStore := persistmem.NewJobStore(0)
	cache := embedding.NewCache(embedding.NewLocalBackend(32), 1000, nil, zap.NewNop())
	governor := memory.NewGovernor(memory.DefaultConfig(), func() (uint64, uint64) { return 100, 1000 }, zap.NewNop())

	registry := expansion.NewRegistry()
	require.NoError(t, registry.Register("mock", expansion.NewMockProvider()))

	engine := expansion.NewEngine(graphStore, jobStore, registry, cache, governor, nil, nil, expansion.DefaultLimits(), zap.NewNop())

	node, err := entities.NewNode("seed-1", "Alpha", 1.0, false, 0)
	require.NoError(t, err)
	graphStore.Seed("user-1", "ctx-1", []*entities.Node{node}, nil)

	router := NewRouter(engine, cache, governor, nil, zap.NewNop(), false)
	return &fixture{handler: router.Setup(), engine: engine, graphStore: graphStore}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, owner string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func startBody() map[string]interface{} {
	return map[string]interface{}{
		"context_ref":      "ctx-1",
		"depth":            1,
		"max_new_per_node": 2,
		"max_total_new":    5,
		"provider_id":      "mock",
	}
}

func (f *fixture) startAndAwait(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/expansions", startBody(), "user-1")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job ports.ExpansionJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	_, err := f.engine.Await(context.Background(), job.ID, 5*time.Second)
	require.NoError(t, err)
	return job.ID
}

func TestStartExpansion_Accepted(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/expansions", startBody(), "user-1")

	require.Equal(t, http.StatusAccepted, rec.Code)
	var job ports.ExpansionJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, ports.JobStatusQueued, job.Status)

	_, err := f.engine.Await(context.Background(), job.ID, 5*time.Second)
	require.NoError(t, err)
}

func TestStartExpansion_RequiresOwnerHeader(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/expansions", startBody(), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartExpansion_RejectsInvalidBody(t *testing.T) {
	f := newFixture(t)

	body := startBody()
	delete(body, "depth")
	rec := f.do(t, http.MethodPost, "/api/expansions", body, "user-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Depth")
}

func TestStartExpansion_EngineValidationMapsTo400(t *testing.T) {
	f := newFixture(t)

	body := startBody()
	body["depth"] = 99
	rec := f.do(t, http.MethodPost, "/api/expansions", body, "user-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestGetExpansion_StatusAndResult(t *testing.T) {
	f := newFixture(t)
	jobID := f.startAndAwait(t)

	statusRec := f.do(t, http.MethodGet, "/api/expansions/"+jobID, nil, "user-1")
	require.Equal(t, http.StatusOK, statusRec.Code)
	var job ports.ExpansionJob
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &job))
	assert.Equal(t, ports.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.ProgressPercent)

	resultRec := f.do(t, http.MethodGet, "/api/expansions/"+jobID+"/result", nil, "user-1")
	require.Equal(t, http.StatusOK, resultRec.Code)
	var result ports.ExpansionResult
	require.NoError(t, json.Unmarshal(resultRec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Nodes)
}

func TestGetExpansion_UnknownJobIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/expansions/missing", nil, "user-1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestCancelExpansion_TerminalJobIs400(t *testing.T) {
	f := newFixture(t)
	jobID := f.startAndAwait(t)

	rec := f.do(t, http.MethodDelete, "/api/expansions/"+jobID, nil, "user-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimilaritySearch_RanksMatches(t *testing.T) {
	f := newFixture(t)

	body := map[string]interface{}{
		"query":      "graph databases",
		"candidates": []string{"graph databases", "cooking recipes"},
		"threshold":  0.9,
		"limit":      5,
	}
	rec := f.do(t, http.MethodPost, "/api/similarity/search", body, "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Matches []embedding.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.Matches)
	assert.Equal(t, "graph databases", response.Matches[0].Text)
}

func TestSimilaritySearch_RejectsEmptyCandidates(t *testing.T) {
	f := newFixture(t)

	body := map[string]interface{}{
		"query":      "anything",
		"candidates": []string{},
	}
	rec := f.do(t, http.MethodPost, "/api/similarity/search", body, "user-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRoundTripOverHTTP(t *testing.T) {
	f := newFixture(t)

	// Warm the cache, export, then import into a fresh fixture
	searchBody := map[string]interface{}{
		"query":      "alpha",
		"candidates": []string{"beta"},
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/similarity/search", searchBody, "user-1").Code)

	exportRec := f.do(t, http.MethodGet, "/api/similarity/snapshot", nil, "user-1")
	require.Equal(t, http.StatusOK, exportRec.Code)

	var snapshot embedding.Snapshot
	require.NoError(t, json.Unmarshal(exportRec.Body.Bytes(), &snapshot))
	assert.Equal(t, embedding.SnapshotVersion, snapshot.Version)
	assert.NotEmpty(t, snapshot.Entries)

	other := newFixture(t)
	importRec := other.do(t, http.MethodPut, "/api/similarity/snapshot", snapshot, "user-1")
	require.Equal(t, http.StatusOK, importRec.Code)
}

func TestSnapshotImport_BadVersionIs422(t *testing.T) {
	f := newFixture(t)

	snapshot := map[string]interface{}{
		"version":   99,
		"modelName": "local-hash-v1",
		"dimension": 32,
		"entries":   map[string]interface{}{},
	}
	rec := f.do(t, http.MethodPut, "/api/similarity/snapshot", snapshot, "user-1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthCheck_ReportsMemoryAndCache(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Status string `json:"status"`
		Memory struct {
			UsageRatio float64 `json:"usage_ratio"`
		} `json:"memory"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.InDelta(t, 0.1, payload.Memory.UsageRatio, 0.001)
}
