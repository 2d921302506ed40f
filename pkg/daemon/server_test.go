package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/shared-memory/memoryd/test/database"

	"github.com/shared-memory/memoryd/pkg/acb"
	"github.com/shared-memory/memoryd/pkg/audit"
	"github.com/shared-memory/memoryd/pkg/capsule"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/consolidator"
	"github.com/shared-memory/memoryd/pkg/handoff"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/memoryedit"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/store"
)

func newTestServer(t *testing.T, bearerToken string) *Server {
	client := testdb.NewTestClient(t)
	st := store.New(client.Client)
	rec := recorder.New(st, masking.New(""), nil, config.DefaultIngestionConfig(), config.DefaultPrivacyConfig())
	ret := retrieval.New(st, client.DB(), nil, config.DefaultScoringConfig(), config.DefaultRetrievalConfig(), config.DefaultPrivacyConfig())
	acbSvc := acb.New(st, ret, config.DefaultACBConfig(), config.DefaultPrivacyConfig())
	cons := consolidator.New(st, config.DefaultConsolidationConfig())
	ho := handoff.New(st, rec, config.DefaultHandoffConfig())
	cps := capsule.New(st)
	me := memoryedit.New(st)
	auditLogger := audit.New(client.Client)

	cfg := config.DefaultDaemonConfig()
	cfg.BearerToken = bearerToken

	return New(cfg, st, rec, ret, acbSvc, cons, ho, cps, me, auditLogger, nil)
}

func doRequest(t *testing.T, s *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestValidateWiring_AllServicesPresent(t *testing.T) {
	s := newTestServer(t, "")
	assert.NoError(t, s.ValidateWiring())
}

func TestValidateWiring_ReportsMissingServices(t *testing.T) {
	s := &Server{}
	err := s.ValidateWiring()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store")
	assert.Contains(t, err.Error(), "memoryedit")
}

func TestHealth_NeverRequiresBearerToken(t *testing.T) {
	s := newTestServer(t, "secret")
	w := doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRPC_RejectsRequestsWithoutBearerToken(t *testing.T) {
	s := newTestServer(t, "secret")
	w := doRequest(t, s, http.MethodPost, "/rpc", "", rpcRequest{JSONRPC: "2.0", Method: "record_event"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRPC_RejectsWrongBearerToken(t *testing.T) {
	s := newTestServer(t, "secret")
	w := doRequest(t, s, http.MethodPost, "/rpc", "wrong", rpcRequest{JSONRPC: "2.0", Method: "record_event"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRPC_EmptyBearerTokenDisablesAuth(t *testing.T) {
	s := newTestServer(t, "")
	params, _ := json.Marshal(models.RecordEventRequest{
		TenantID:  "tenant-a",
		SessionID: "sess-1",
		AgentID:   "agent-1",
		Channel:   "private",
		ActorType: "agent",
		ActorID:   "agent-1",
		Kind:      "message",
		Content:   map[string]any{"text": "hello there"},
	})
	w := doRequest(t, s, http.MethodPost, "/rpc", "", json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"record_event","params":`+string(params)+`}`))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}

func TestRPC_UnknownMethodIsValidationError(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(t, s, http.MethodPost, "/rpc", "", rpcRequest{JSONRPC: "2.0", Method: "not_a_real_method"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeValidationError, resp.Error.Code)
}

func TestRPC_GetArtifactNotFoundMapsTo404(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(t, s, http.MethodPost, "/rpc", "", map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "get_artifact",
		"params":  map[string]string{"tenant_id": "tenant-a", "artifact_id": "art_missing"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeNotFound, resp.Error.Code)
}

func TestRPC_RecordEventThenGetWakeUpRoundTrips(t *testing.T) {
	s := newTestServer(t, "")

	w := doRequest(t, s, http.MethodPost, "/rpc", "", map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "create_handoff",
		"params": map[string]any{
			"tenant_id":    "tenant-a",
			"session_id":   "sess-1",
			"agent_id":     "agent-1",
			"becoming":     "a more careful reviewer",
			"significance": 0.9,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodPost, "/rpc", "", map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "get_wake_up",
		"params":  map[string]string{"tenant_id": "tenant-a"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)
}

func TestAudit_RecordsOneEntryPerRPCCall(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(t, s, http.MethodPost, "/rpc", "", map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "get_wake_up",
		"params":  map[string]string{"tenant_id": "tenant-a"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	count, err := s.store.Client().AuditLog.Query().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
