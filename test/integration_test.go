package test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberBody struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	Duration   string  `json:"duration"`
	AmountPaid float64 `json:"amountPaid"`
	Due        float64 `json:"due"`
}

type historyBody struct {
	ID       string `json:"id"`
	MemberID string `json:"memberId"`
	Action   string `json:"action"`
}

func TestMemberLifecycleOverHTTP(t *testing.T) {
	server := NewTestServer(t)
	token := server.BootstrapAdmin(t)

	// Register a member.
	resp := server.DoJSON(t, http.MethodPost, "/api/members", token, map[string]any{
		"name":       "Ana",
		"phone":      "555-0100",
		"email":      "ana@example.com",
		"duration":   "1 Month",
		"amountPaid": 1000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[memberBody](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "1 Month", created.Duration)

	// Patch only the due amount.
	resp = server.DoJSON(t, http.MethodPut, "/api/members/"+created.ID, token, map[string]any{
		"due": 200,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[memberBody](t, resp)
	assert.Equal(t, 200.0, updated.Due)
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, 1000.0, updated.AmountPaid)

	// Delete, then find the Deleted entry on the history log.
	resp = server.DoJSON(t, http.MethodDelete, "/api/members/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decodeBody[[]historyBody](t, resp)
	require.Len(t, entries, 3)
	assert.Equal(t, "Deleted", entries[0].Action)

	// Restore from the Deleted entry: new id, same business fields.
	resp = server.DoJSON(t, http.MethodPost, "/api/members/restore/"+entries[0].ID, token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	restored := decodeBody[memberBody](t, resp)
	assert.NotEqual(t, created.ID, restored.ID)
	assert.Equal(t, "Ana", restored.Name)
	assert.Equal(t, "555-0100", restored.Phone)
	assert.Equal(t, 200.0, restored.Due)

	// Restoring the same entry again conflicts on the phone number.
	resp = server.DoJSON(t, http.MethodPost, "/api/members/restore/"+entries[0].ID, token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRestoreOfNonDeletedEntryIsRejected(t *testing.T) {
	server := NewTestServer(t)
	token := server.BootstrapAdmin(t)

	resp := server.DoJSON(t, http.MethodPost, "/api/members", token, map[string]any{
		"name": "Bo", "phone": "555-0101",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodGet, "/api/history", token, nil)
	entries := decodeBody[[]historyBody](t, resp)
	require.Len(t, entries, 1)
	require.Equal(t, "Created", entries[0].Action)

	resp = server.DoJSON(t, http.MethodPost, "/api/members/restore/"+entries[0].ID, token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestRoleEnforcement(t *testing.T) {
	server := NewTestServer(t)
	adminToken := server.BootstrapAdmin(t)

	// Admin registers a regular operator account.
	resp := server.DoJSON(t, http.MethodPost, "/api/auth/register", adminToken, map[string]string{
		"username": "frontdesk",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	userToken := server.LoginAs(t, "frontdesk", "secret1")

	// Operators can list members but not create them.
	resp = server.DoJSON(t, http.MethodGet, "/api/members", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodPost, "/api/members", userToken, map[string]any{
		"name": "Cy", "phone": "555-0102",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// History is admin only.
	resp = server.DoJSON(t, http.MethodGet, "/api/history", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Operators cannot mint more accounts.
	resp = server.DoJSON(t, http.MethodPost, "/api/auth/register", userToken, map[string]string{
		"username": "other", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthenticationRequired(t *testing.T) {
	server := NewTestServer(t)
	server.BootstrapAdmin(t)

	resp := server.DoJSON(t, http.MethodGet, "/api/members", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodGet, "/api/members", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Fee plans stay readable without credentials.
	resp = server.DoJSON(t, http.MethodGet, "/api/fees", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestFeePlansOverHTTP(t *testing.T) {
	server := NewTestServer(t)
	token := server.BootstrapAdmin(t)

	resp := server.DoJSON(t, http.MethodPost, "/api/fees", token, map[string]any{
		"planName": "Monthly", "amount": 1000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodPost, "/api/fees", token, map[string]any{
		"planName": "Monthly", "amount": 1200,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = server.DoJSON(t, http.MethodGet, "/api/fees", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	plans := decodeBody[[]map[string]any](t, resp)
	assert.Len(t, plans, 1)
}

func TestReceiptDownload(t *testing.T) {
	server := NewTestServer(t)
	token := server.BootstrapAdmin(t)

	resp := server.DoJSON(t, http.MethodPost, "/api/members", token, map[string]any{
		"name": "Dee", "phone": "555-0103", "amountPaid": 500, "due": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[memberBody](t, resp)

	req, _ := http.NewRequest(http.MethodGet, server.URL()+"/api/members/"+created.ID+"/receipt", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	got, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer got.Body.Close()

	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "application/pdf", got.Header.Get("Content-Type"))
}

func TestProfileAndRefresh(t *testing.T) {
	server := NewTestServer(t)
	token := server.BootstrapAdmin(t)

	resp := server.DoJSON(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "admin", profile["username"])
	assert.Equal(t, "admin", profile["role"])
	assert.NotContains(t, profile, "passwordHash")

	resp = server.DoJSON(t, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decodeBody[map[string]string](t, resp)
	assert.NotEmpty(t, refreshed["token"])
}
