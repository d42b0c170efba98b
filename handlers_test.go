package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	books, err := NewPhraseBookCache("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(books.Close)
	return NewServer(books, zap.NewNop())
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["auto_reload"])
}

func TestHandlePlan(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/plan", `{"description":"Solda em altura","work_type":"TRABALHO A QUENTE","number":"12"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		HotWork bool `json:"hot_work"`
		Plan    struct {
			Context struct {
				Flags map[string]bool `json:"flags"`
			} `json:"context"`
			Equipment map[string][]string `json:"equipment"`
		} `json:"plan"`
		Report string `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.HotWork)
	assert.True(t, body.Plan.Context.Flags["open_flame"])
	assert.True(t, body.Plan.Context.Flags["height"])
	assert.Contains(t, body.Plan.Equipment["Óculos"], itemWelderMask)
	assert.Contains(t, body.Report, "[PLAN] Job 12")

	rec = do(t, s, http.MethodGet, "/plan?description=oxicorte", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"oxy_cutting":true`)
}

func TestHandlePlanRequiresText(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/plan", `{"work_type":"TRABALHO A QUENTE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReconcile(t *testing.T) {
	s := newTestServer(t)
	snap := newTestSnapshot("Solda em altura")
	payload, err := json.Marshal(ReconcileRequest{Snapshot: snap, Apply: true})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/reconcile", string(payload))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Actions  []ReconciliationAction `json:"actions"`
		Summary  string                 `json:"summary"`
		Snapshot *FormSnapshot          `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Actions)
	assert.Contains(t, body.Summary, "questionario_pt")
	require.NotNil(t, body.Snapshot)
	for _, q := range body.Snapshot.Sections[SectionEnvironmental] {
		assert.Equal(t, "Não", q.Selected)
	}
}

func TestHandleReconcileDryRun(t *testing.T) {
	payload, err := json.Marshal(ReconcileRequest{Snapshot: newTestSnapshot("Solda")})
	require.NoError(t, err)

	rec := do(t, newTestServer(t), http.MethodPost, "/reconcile", string(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"snapshot":{`)
	assert.Contains(t, rec.Body.String(), `"dry_run":true`)
}

func TestHandleReconcileBadBody(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/reconcile", `{"snapshot":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/admin/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"builtin"`)

	rec = do(t, s, http.MethodGet, "/admin/cache-info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phrase_book"`)
}
