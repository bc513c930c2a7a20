package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccsledger/core/audit"
	"ccsledger/core/contract"
	"ccsledger/core/identity"
	"ccsledger/core/storage"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &Server{
		store:    store,
		contract: contract.New(store, audit.NopAuditLogger{}),
		verifier: &identity.TokenVerifier{Secret: testSecret},
	}
}

func signToken(t *testing.T, secret []byte, subject, org, department string) string {
	t.Helper()
	claims := identity.CallerClaims{
		Org:        org,
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func post(t *testing.T, handler http.HandlerFunc, token string, req InvocationRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func TestInvokeRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	w := post(t, s.HandleInvoke, "", InvocationRequest{Function: "CreateCaptureContract", Args: []string{"{}"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvokeRejectsForgedToken(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, []byte("wrong-secret"), "user1", "Org1MSP", "Capture Operator")
	w := post(t, s.HandleInvoke, token, InvocationRequest{Function: "CreateCaptureContract", Args: []string{"{}"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvokeEnforcesRolePolicy(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, testSecret, "user2", "Org2MSP", "Transport Operator")
	w := post(t, s.HandleInvoke, token, InvocationRequest{
		Function: "CreateCaptureContract",
		Args:     []string{`{"projectId":"P1","capturedAmount":10}`},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Org1MSP")
}

func TestInvokeThenQueryRoundTrip(t *testing.T) {
	s := newTestServer(t)
	captureToken := signToken(t, testSecret, "user1", "Org1MSP", "Capture Operator")

	w := post(t, s.HandleInvoke, captureToken, InvocationRequest{
		Function: "CreateCaptureContract",
		Args:     []string{`{"projectId":"P1","csource":"DAC","capturedAmount":120}`},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var receipt InvocationReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	require.NotEmpty(t, receipt.TxID)

	var created struct {
		TransactionID string `json:"transactionId"`
	}
	require.NoError(t, json.Unmarshal(receipt.Result, &created))
	assert.Equal(t, receipt.TxID, created.TransactionID)

	w = post(t, s.HandleQuery, captureToken, InvocationRequest{
		Function: "getAssetByID",
		Args:     []string{created.TransactionID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(receipt.Result, &rec))
	assert.Equal(t, "agreement", rec["docType"])
	assert.Equal(t, "user1", rec["createdBy"])
	assert.Equal(t, 120.0, rec["capturedAmount"])
}

func TestQueryMissingAssetIs404(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, testSecret, "user1", "Org1MSP", "Capture Operator")
	w := post(t, s.HandleQuery, token, InvocationRequest{Function: "getAssetByID", Args: []string{"ghost"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryRejectsMutations(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, testSecret, "user1", "Org1MSP", "Capture Operator")
	w := post(t, s.HandleQuery, token, InvocationRequest{
		Function: "CreateCaptureContract",
		Args:     []string{`{"projectId":"P1","capturedAmount":10}`},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvokeBadRequests(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, testSecret, "user1", "Org1MSP", "Capture Operator")

	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.HandleInvoke(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s.HandleInvoke, token, InvocationRequest{Function: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s.HandleInvoke, token, InvocationRequest{
		Function: "CreateCaptureContract",
		Args:     []string{`{"projectId":"P1","capturedAmount":-1}`},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvokeRejectsGET(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.HandleInvoke(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.HandleLiveness(w, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
	var live LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &live))
	assert.True(t, live.Alive)

	w = httptest.NewRecorder()
	s.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.True(t, ready.Ready)

	w = httptest.NewRecorder()
	s.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, NodeVersion(), status.Version)
	assert.Equal(t, APIVersion(), status.APIVersion)

	w = httptest.NewRecorder()
	s.HandleNodeHealth(w, httptest.NewRequest(http.MethodGet, "/nodehealth", nil))
	var health NodeHealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
}
