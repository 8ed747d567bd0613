package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/code-mentor/internal/assistant"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/server"
)

// scriptedAssistant returns a fixed answer so the full HTTP flow can run
// without talking to OpenAI.
type scriptedAssistant struct {
	response string
	tokens   int
}

func (s *scriptedAssistant) Process(ctx context.Context, req assistant.Request) *assistant.Result {
	return &assistant.Result{
		Success:    true,
		Response:   s.response,
		TokensUsed: s.tokens,
		Model:      "test-model",
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(server.Config{
		DBPath:    ":memory:",
		JWTSecret: "e2e-test-secret-that-is-long-enough",
	}, logger, &scriptedAssistant{response: "Use sorted(my_list).", tokens: 42})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	return srv.Handler()
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

func register(t *testing.T, h http.Handler, username, email, password string) authResponse {
	t.Helper()
	rr := do(h, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+username+`","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, "register %s: %s", username, rr.Body.String())

	var res authResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotEmpty(t, res.Token)
	return res
}

// TestFullFlow drives the complete life of a user through the real router:
// register, failed login, login, ask a question, read history, delete the
// session, confirm the history is empty again.
func TestFullFlow(t *testing.T) {
	h := newTestServer(t)

	reg := register(t, h, "alice", "a@x.com", "pw123")
	assert.Equal(t, "user registered successfully", reg.Message)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Empty(t, reg.User.PasswordHash, "password hash must never be serialized")

	// Wrong password is rejected.
	rr := do(h, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Correct login issues a fresh token.
	rr = do(h, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login authResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&login))
	require.NotEmpty(t, login.Token)
	require.NotNil(t, login.User.LastLoginAt, "login must stamp last_login_at")

	// Ask the assistant a question.
	rr = do(h, http.MethodPost, "/api/code-assist", login.Token,
		`{"query":"How do I sort a list?","code_context":"my_list = [3,1,2]"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var assist struct {
		Success    bool    `json:"success"`
		Response   string  `json:"response"`
		TokensUsed int     `json:"tokens_used"`
		SessionID  *string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&assist))
	assert.True(t, assist.Success)
	assert.Equal(t, "Use sorted(my_list).", assist.Response)
	assert.Equal(t, 42, assist.TokensUsed)
	require.NotNil(t, assist.SessionID, "session must be persisted")

	// The question shows up in history.
	rr = do(h, http.MethodGet, "/api/history", login.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Success  bool                `json:"success"`
		Sessions []model.CodeSession `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, *assist.SessionID, list.Sessions[0].ID)
	assert.Equal(t, "How do I sort a list?", list.Sessions[0].Query)
	assert.Equal(t, "python", list.Sessions[0].Language, "language defaults when omitted")

	// Single-session detail matches.
	rr = do(h, http.MethodGet, "/api/history/"+*assist.SessionID, login.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	// Delete it, then the list is empty.
	rr = do(h, http.MethodDelete, "/api/history/"+*assist.SessionID, login.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/api/history", login.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list.Sessions = nil
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Empty(t, list.Sessions)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h := newTestServer(t)

	register(t, h, "alice", "a@x.com", "pw123")

	rr := do(h, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","email":"other@x.com","password":"pw456"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var res struct {
		Message string `json:"message"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "username already exists", res.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/code-assist"},
		{http.MethodGet, "/api/history"},
		{http.MethodGet, "/api/history/some-id"},
		{http.MethodDelete, "/api/history/some-id"},
		{http.MethodDelete, "/api/history/clear"},
	} {
		rr := do(h, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestHistoryIsolation(t *testing.T) {
	h := newTestServer(t)

	alice := register(t, h, "alice", "a@x.com", "pw123")
	bob := register(t, h, "bob", "b@x.com", "pw456")

	rr := do(h, http.MethodPost, "/api/code-assist", bob.Token, `{"query":"bob question"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var assist struct {
		SessionID *string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&assist))
	require.NotNil(t, assist.SessionID)

	// Alice sees an empty history and cannot reach bob's session.
	rr = do(h, http.MethodGet, "/api/history", alice.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Sessions []model.CodeSession `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Empty(t, list.Sessions)

	rr = do(h, http.MethodGet, "/api/history/"+*assist.SessionID, alice.Token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, http.MethodDelete, "/api/history/"+*assist.SessionID, alice.Token, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Bob still has his session.
	rr = do(h, http.MethodGet, "/api/history/"+*assist.SessionID, bob.Token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHistoryClear(t *testing.T) {
	h := newTestServer(t)

	alice := register(t, h, "alice", "a@x.com", "pw123")

	for _, q := range []string{"first", "second", "third"} {
		rr := do(h, http.MethodPost, "/api/code-assist", alice.Token, `{"query":"`+q+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := do(h, http.MethodDelete, "/api/history/clear", alice.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/api/history", alice.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Sessions []model.CodeSession `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Empty(t, list.Sessions)

	// Clearing again is still a success.
	rr = do(h, http.MethodDelete, "/api/history/clear", alice.Token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
