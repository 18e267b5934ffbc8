// internal/api/api_integration_test.go
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "marketplace-core/internal"
	"marketplace-core/internal/api/middleware"
	"marketplace-core/internal/config"
	"marketplace-core/internal/domain"
)

const testSecret = "integration-secret"

var (
	owner  = domain.Actor{ID: "owner-1", Role: domain.RoleOwner}
	agency = domain.Actor{ID: "agency-1", Role: domain.RoleAgency}
	admin  = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	system = domain.SystemActor
)

// newTestServer starts the full HTTP stack on a fresh in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	testApp := app.NewApplication()
	err := testApp.InitializeWithConfig(context.Background(), &config.AppConfig{
		LogLevel:           "error",
		StoreDriver:        config.StoreDriverMemory,
		JWTSecret:          testSecret,
		CORSAllowedOrigins: []string{"*"},
	})
	require.NoError(t, err)

	server := httptest.NewServer(testApp.HTTPHandler)
	t.Cleanup(func() {
		server.Close()
		_ = testApp.Shutdown(context.Background())
	})
	return server
}

func tokenFor(t *testing.T, actor domain.Actor) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)
	return token
}

// makeRequest sends body as JSON on behalf of actor and decodes the JSON response, if any.
func makeRequest(t *testing.T, server *httptest.Server, actor *domain.Actor, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *actor))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(respBody) > 0 {
		require.NoError(t, json.Unmarshal(respBody, &out), string(respBody))
	}
	return resp.StatusCode, out
}

func decimalField(t *testing.T, m map[string]interface{}, key string) decimal.Decimal {
	t.Helper()
	s, ok := m[key].(string)
	require.True(t, ok, "%s is not a decimal string: %v", key, m[key])
	return decimal.RequireFromString(s)
}

func attach(t *testing.T, server *httptest.Server, payload map[string]interface{}) string {
	t.Helper()
	status, body := makeRequest(t, server, &system, http.MethodPost, "/applications", map[string]interface{}{
		"owner_id":         owner.ID,
		"service_type_key": "visa",
		"reference_type":   domain.ReferenceVisaRequest,
		"reference_id":     fmt.Sprintf("visa-%d", time.Now().UnixNano()),
		"payload":          payload,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func credit(t *testing.T, server *httptest.Server, ownerID, amount string) map[string]interface{} {
	t.Helper()
	status, body := makeRequest(t, server, &system, http.MethodPost, "/wallets/"+ownerID+"/credit", map[string]interface{}{
		"amount":         amount,
		"description":    "Gateway top up",
		"reference_type": domain.ReferenceGatewayPayment,
		"reference_id":   fmt.Sprintf("pay-%d", time.Now().UnixNano()),
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body
}

func TestHealthAndAuthentication(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ := makeRequest(t, server, nil, http.MethodGet, "/wallets/owner-1", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-2", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestWalletIntegration(t *testing.T) {
	server := newTestServer(t)
	credit(t, server, owner.ID, "1000.00")

	t.Run("InsufficientFunds", func(t *testing.T) {
		status, body := makeRequest(t, server, &system, http.MethodPost, "/wallets/owner-1/debit", map[string]interface{}{
			"amount": "1200.00", "reference_type": domain.ReferenceFlightBooking, "reference_id": "fl-1",
		})
		assert.Equal(t, http.StatusPaymentRequired, status)
		assert.Equal(t, "insufficient_funds", body["code"])
	})

	t.Run("OwnersCannotPost", func(t *testing.T) {
		status, _ := makeRequest(t, server, &owner, http.MethodPost, "/wallets/owner-1/debit", map[string]interface{}{
			"amount": "1", "reference_type": domain.ReferenceFlightBooking, "reference_id": "fl-1",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("DebitAndReverse", func(t *testing.T) {
		status, debit := makeRequest(t, server, &system, http.MethodPost, "/wallets/owner-1/debit", map[string]interface{}{
			"amount": "250", "reference_type": domain.ReferenceHotelBooking, "reference_id": "h-1",
		})
		require.Equal(t, http.StatusCreated, status, debit)
		assert.True(t, decimalField(t, debit, "balance_after").Equal(decimal.NewFromInt(750)))

		path := fmt.Sprintf("/transactions/%s/reverse", debit["id"])
		status, _ = makeRequest(t, server, &owner, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, reversal := makeRequest(t, server, &admin, http.MethodPost, path, map[string]string{"description": "hotel cancelled"})
		require.Equal(t, http.StatusCreated, status, reversal)
		assert.Equal(t, "credit", reversal["direction"])

		status, body := makeRequest(t, server, &admin, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "already_reversed", body["code"])
	})

	t.Run("HistoryAndVerification", func(t *testing.T) {
		status, page := makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-1/transactions?limit=2", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(3), page["total_count"])
		assert.Len(t, page["data"], 2)

		status, body := makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-1/transactions?limit=1000000", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_input", body["code"])

		status, _ = makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-1/verify", nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, report := makeRequest(t, server, &admin, http.MethodGet, "/wallets/owner-1/verify", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, report["balanced"])
		assert.True(t, decimalField(t, report, "stored").Equal(decimal.NewFromInt(1000)))
	})

	t.Run("FrozenWallet", func(t *testing.T) {
		status, _ := makeRequest(t, server, &admin, http.MethodPost, "/wallets/owner-1/freeze", nil)
		require.Equal(t, http.StatusOK, status)

		status, body := makeRequest(t, server, &system, http.MethodPost, "/wallets/owner-1/debit", map[string]interface{}{
			"amount": "1", "reference_type": domain.ReferenceCVOrder, "reference_id": "cv-1",
		})
		assert.Equal(t, http.StatusLocked, status)
		assert.Equal(t, "wallet_frozen", body["code"])

		status, _ = makeRequest(t, server, &admin, http.MethodPost, "/wallets/owner-1/unfreeze", nil)
		require.Equal(t, http.StatusOK, status)
	})
}

func TestQuoteAcceptanceIntegration(t *testing.T) {
	server := newTestServer(t)
	credit(t, server, owner.ID, "1000")
	appID := attach(t, server, map[string]interface{}{"country": "JP"})
	expiresAt := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)

	submit := func(price string) string {
		status, body := makeRequest(t, server, &agency, http.MethodPost, "/applications/"+appID+"/quotes",
			map[string]interface{}{"price": price, "expires_at": expiresAt})
		require.Equal(t, http.StatusCreated, status, body)
		return body["id"].(string)
	}
	quoteA := submit("500")
	quoteB := submit("450")

	status, _ := makeRequest(t, server, &agency, http.MethodPost, fmt.Sprintf("/applications/%s/quotes/%s/accept", appID, quoteB), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, approved := makeRequest(t, server, &owner, http.MethodPost, fmt.Sprintf("/applications/%s/quotes/%s/accept", appID, quoteB), nil)
	require.Equal(t, http.StatusOK, status, approved)
	assert.Equal(t, "approved", approved["status"])
	assert.True(t, decimalField(t, approved, "amount").Equal(decimal.NewFromInt(450)))

	status, body := makeRequest(t, server, &owner, http.MethodPost, fmt.Sprintf("/applications/%s/quotes/%s/accept", appID, quoteA), nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_resolved", body["code"])

	status, quotes := makeRequest(t, server, &owner, http.MethodGet, "/applications/"+appID+"/quotes", nil)
	require.Equal(t, http.StatusOK, status)
	byID := map[string]string{}
	for _, q := range quotes["data"].([]interface{}) {
		quote := q.(map[string]interface{})
		byID[quote["id"].(string)] = quote["status"].(string)
	}
	assert.Equal(t, map[string]string{quoteA: "rejected", quoteB: "accepted"}, byID)

	status, wallet := makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimalField(t, wallet, "balance").Equal(decimal.NewFromInt(550)))

	status, body = makeRequest(t, server, &agency, http.MethodPost, "/applications/"+appID+"/quotes",
		map[string]interface{}{"price": "10", "expires_at": expiresAt})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "application_not_accepting_quotes", body["code"])
}

func TestApplicationWorkflowIntegration(t *testing.T) {
	server := newTestServer(t)

	status, draft := makeRequest(t, server, &owner, http.MethodPost, "/applications/drafts",
		map[string]interface{}{"service_type_key": "translation", "payload": map[string]interface{}{"pages": 4}})
	require.Equal(t, http.StatusCreated, status, draft)
	draftID := draft["id"].(string)

	status, body := makeRequest(t, server, &admin, http.MethodPost, "/applications/"+draftID+"/transitions",
		map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_state_transition", body["code"])

	status, _ = makeRequest(t, server, &agency, http.MethodGet, "/applications/"+draftID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, updated := makeRequest(t, server, &owner, http.MethodPatch, "/applications/"+draftID,
		map[string]interface{}{"payload": map[string]interface{}{"pages": 5, "amount": "80"}})
	require.Equal(t, http.StatusOK, status, updated)
	assert.True(t, decimalField(t, updated, "amount").Equal(decimal.NewFromInt(80)))

	status, submitted := makeRequest(t, server, &owner, http.MethodPost, "/applications/"+draftID+"/transitions",
		map[string]string{"status": "pending"})
	require.Equal(t, http.StatusOK, status, submitted)
	assert.Equal(t, "pending", submitted["status"])

	status, queue := makeRequest(t, server, &agency, http.MethodGet, "/applications?status=pending", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), queue["total_count"])

	status, _ = makeRequest(t, server, &owner, http.MethodDelete, "/applications/"+draftID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = makeRequest(t, server, &owner, http.MethodPost, "/applications/"+draftID+"/cancel-with-refund",
		map[string]string{"refund_amount": "80"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["code"])

	status, cancelled := makeRequest(t, server, &admin, http.MethodPost, "/applications/"+draftID+"/cancel-with-refund",
		map[string]string{"refund_amount": "60"})
	require.Equal(t, http.StatusOK, status, cancelled)
	assert.Equal(t, "cancelled", cancelled["application"].(map[string]interface{})["status"])

	status, wallet := makeRequest(t, server, &owner, http.MethodGet, "/wallets/owner-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimalField(t, wallet, "balance").Equal(decimal.NewFromInt(60)))

	status, second := makeRequest(t, server, &owner, http.MethodPost, "/applications/drafts",
		map[string]interface{}{"service_type_key": "translation"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = makeRequest(t, server, &owner, http.MethodDelete, "/applications/"+second["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = makeRequest(t, server, &owner, http.MethodPost, "/applications", map[string]interface{}{
		"owner_id": owner.ID, "service_type_key": "visa", "reference_type": "visa_request", "reference_id": "v-1",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = makeRequest(t, server, &owner, http.MethodPost, "/applications/drafts", "not an object")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body["code"])
}
