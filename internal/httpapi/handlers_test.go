package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inbox-platform/internal/auth"
	"inbox-platform/internal/channels"
	"inbox-platform/internal/connections"
	"inbox-platform/internal/inbox"
	"inbox-platform/internal/otp"
	"inbox-platform/internal/user"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// captureGateway behaves like the mock gateway but keeps the last OTP
// so tests can complete the login flow.
type captureGateway struct {
	channels.MockGateway
	lastCode string
}

func (g *captureGateway) DeliverCode(ctx context.Context, method, phone, code string) error {
	g.lastCode = code
	return nil
}

func newTestRouter() (*gin.Engine, *captureGateway) {
	gw := &captureGateway{MockGateway: *channels.NewMockGateway(nil)}

	users := user.NewMemoryRepo()
	otps := otp.NewMemoryStore()
	threads := inbox.NewMemoryRepo()
	conns := connections.NewMemoryRepo(threads)

	authSvc := auth.NewService(users, otps, gw, auth.MockTokenCodec{}, 120*time.Second)
	inboxSvc := inbox.NewService(threads, gw)
	connSvc := connections.NewService(conns, threads, gw)

	r := gin.New()
	Register(r, Handlers{
		Auth:        authSvc,
		Inbox:       inboxSvc,
		Connections: connSvc,
	}, auth.RequireUser(authSvc))
	return r, gw
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func login(t *testing.T, r *gin.Engine, gw *captureGateway, phone string) string {
	t.Helper()

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/send-otp", "", gin.H{"phone": phone})
	if w.Code != http.StatusOK {
		t.Fatalf("send-otp: %d %s", w.Code, w.Body.String())
	}
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"phone": phone, "code": gw.lastCode})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-otp: %d %s", w.Code, w.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("no token in %v", resp)
	}
	return token
}

func TestAuthFlow(t *testing.T) {
	r, gw := newTestRouter()

	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/send-otp", "", gin.H{"phone": "+5511999991234", "method": "sms"})
	if w.Code != http.StatusOK {
		t.Fatalf("send-otp: %d %s", w.Code, w.Body.String())
	}
	if resp["expires_in"].(float64) != 120 {
		t.Fatalf("unexpected expires_in %v", resp["expires_in"])
	}
	if resp["message"] != "Code sent via sms" {
		t.Fatalf("unexpected message %v", resp["message"])
	}

	w, resp = doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"phone": "+5511999991234", "code": gw.lastCode})
	if w.Code != http.StatusOK {
		t.Fatalf("verify-otp: %d %s", w.Code, w.Body.String())
	}
	if resp["is_first_login"] != true {
		t.Fatalf("expected first login, got %v", resp)
	}
	token := resp["token"].(string)
	if !strings.HasPrefix(token, "mock_token_") {
		t.Fatalf("unexpected token %q", token)
	}
	u := resp["user"].(map[string]any)
	if u["name"] != "Usuário 1234" || u["plan"] != user.PlanTrial {
		t.Fatalf("unexpected user %v", u)
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	if resp["user"].(map[string]any)["phone"] != "+5511999991234" {
		t.Fatalf("unexpected me payload %v", resp)
	}

	// Missing, malformed and unknown-user tokens.
	if w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", "not-a-token", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", "mock_token_ghost", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestOTPErrorStatuses(t *testing.T) {
	r, gw := newTestRouter()

	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/send-otp", "", gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing phone, got %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"phone": "+55", "code": "123456"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown phone, got %d", w.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/auth/send-otp", "", gin.H{"phone": "+55"})
	wrong := "000000"
	if wrong == gw.lastCode {
		wrong = "000001"
	}
	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"phone": "+55", "code": wrong}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong code, got %d", w.Code)
	}
	// The stored code survives the failed attempt.
	if w, _ := doJSON(t, r, http.MethodPost, "/api/auth/verify-otp", "", gin.H{"phone": "+55", "code": gw.lastCode}); w.Code != http.StatusOK {
		t.Fatalf("expected login after mismatch, got %d", w.Code)
	}
}

func TestConnectionLifecycle(t *testing.T) {
	r, gw := newTestRouter()
	token := login(t, r, gw, "+5511999990000")

	w, resp := doJSON(t, r, http.MethodPost, "/api/connections", token, gin.H{
		"type":     "WA",
		"token":    "wa-credential-12345",
		"metadata": gin.H{"phone_number_id": "123"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	conn := resp["connection"].(map[string]any)
	connID := conn["id"].(string)
	if conn["status"] != connections.StatusActive {
		t.Fatalf("expected ACTIVE, got %v", conn["status"])
	}
	if _, exposed := conn["token_ref"]; exposed {
		t.Fatal("token_ref must not be serialized")
	}

	// Connecting seeds a demo thread on that channel.
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads?channel=whatsapp", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("threads: %d %s", w.Code, w.Body.String())
	}
	threads := resp["threads"].([]any)
	if len(threads) != 1 {
		t.Fatalf("expected 1 seeded thread, got %d", len(threads))
	}
	th := threads[0].(map[string]any)
	if th["contact_name"] != "João Silva" || th["unread_count"].(float64) != 1 {
		t.Fatalf("unexpected seeded thread %v", th)
	}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/connections", token, gin.H{"type": "WA", "token": "another-cred-99999"}); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate type, got %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, "/api/connections", token, gin.H{"type": "FB", "token": "whatever-cred-123"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, "/api/connections", token, gin.H{"type": "TG", "token": "short"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid credential, got %d", w.Code)
	}

	w, resp = doJSON(t, r, http.MethodPost, "/api/connections/"+connID+"/test", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("test: %d %s", w.Code, w.Body.String())
	}
	result := resp["result"].(map[string]any)
	if result["success"] != true || result["message"] != "Conexão WA funcionando corretamente" {
		t.Fatalf("unexpected test result %v", result)
	}

	// Deleting the connection removes its channel's threads.
	if w, _ = doJSON(t, r, http.MethodDelete, "/api/connections/"+connID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("threads after delete: %d", w.Code)
	}
	if len(resp["threads"].([]any)) != 0 {
		t.Fatalf("expected no threads after cascade, got %v", resp["threads"])
	}
	if w, _ = doJSON(t, r, http.MethodDelete, "/api/connections/"+connID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", w.Code)
	}
}

func TestThreadAndDraftEndpoints(t *testing.T) {
	r, gw := newTestRouter()
	token := login(t, r, gw, "+5511999990000")

	w, _ := doJSON(t, r, http.MethodPost, "/api/connections", token, gin.H{"type": "TG", "token": "bot123:abcdef"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create connection: %d %s", w.Code, w.Body.String())
	}
	w, resp := doJSON(t, r, http.MethodGet, "/api/threads", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("threads: %d", w.Code)
	}
	threadID := resp["threads"].([]any)[0].(map[string]any)["id"].(string)

	// Send a reply; the thread moves to OPEN.
	w, resp = doJSON(t, r, http.MethodPost, "/api/threads/"+threadID+"/messages", token, gin.H{"body": "Oi Maria, tudo bem?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]any)
	if data["direction"] != inbox.DirectionOut || data["status"] != inbox.MessageStatusSent {
		t.Fatalf("unexpected message %v", data)
	}
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads/"+threadID+"/messages", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("messages: %d", w.Code)
	}
	if resp["thread"].(map[string]any)["status"] != inbox.ThreadStatusOpen {
		t.Fatalf("expected OPEN thread, got %v", resp["thread"])
	}
	if len(resp["messages"].([]any)) != 2 {
		t.Fatalf("expected 2 messages, got %v", resp["messages"])
	}

	if w, _ = doJSON(t, r, http.MethodPost, "/api/threads/"+threadID+"/messages", token, gin.H{"body": ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", w.Code)
	}
	if w, _ = doJSON(t, r, http.MethodGet, "/api/threads/missing/messages", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown thread, got %d", w.Code)
	}

	w, resp = doJSON(t, r, http.MethodPut, "/api/threads/"+threadID+"/status", token, gin.H{"status": "DONE"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
	if resp["thread"].(map[string]any)["status"] != inbox.ThreadStatusDone {
		t.Fatalf("expected DONE, got %v", resp["thread"])
	}
	if w, _ = doJSON(t, r, http.MethodPut, "/api/threads/"+threadID+"/status", token, gin.H{"status": "ARCHIVED"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", w.Code)
	}

	// Draft lifecycle.
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads/"+threadID+"/draft", token, nil)
	if w.Code != http.StatusOK || resp["draft"] != nil {
		t.Fatalf("expected null draft, got %d %v", w.Code, resp)
	}
	w, resp = doJSON(t, r, http.MethodPost, "/api/threads/"+threadID+"/draft", token, gin.H{"content": "rascunho"})
	if w.Code != http.StatusOK {
		t.Fatalf("save draft: %d %s", w.Code, w.Body.String())
	}
	draftID := resp["draft"].(map[string]any)["id"].(string)
	w, resp = doJSON(t, r, http.MethodPost, "/api/threads/"+threadID+"/draft", token, gin.H{"content": "rascunho final"})
	if w.Code != http.StatusOK {
		t.Fatalf("update draft: %d", w.Code)
	}
	if resp["draft"].(map[string]any)["id"].(string) != draftID {
		t.Fatal("expected upsert to reuse the draft row")
	}
	if resp["draft"].(map[string]any)["content"] != "rascunho final" {
		t.Fatalf("unexpected draft %v", resp["draft"])
	}
	if w, _ = doJSON(t, r, http.MethodDelete, "/api/threads/"+threadID+"/draft", token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete draft: %d", w.Code)
	}
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads/"+threadID+"/draft", token, nil)
	if w.Code != http.StatusOK || resp["draft"] != nil {
		t.Fatalf("expected draft gone, got %d %v", w.Code, resp)
	}
}

func TestThreadsAreScopedToUser(t *testing.T) {
	r, gw := newTestRouter()
	tokenA := login(t, r, gw, "+5511999990001")
	tokenB := login(t, r, gw, "+5511999990002")

	w, _ := doJSON(t, r, http.MethodPost, "/api/connections", tokenA, gin.H{"type": "IG", "token": "ig-credential-12345"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	w, resp := doJSON(t, r, http.MethodGet, "/api/threads", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("threads: %d", w.Code)
	}
	threadID := resp["threads"].([]any)[0].(map[string]any)["id"].(string)

	if w, _ = doJSON(t, r, http.MethodGet, "/api/threads/"+threadID+"/messages", tokenB, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign thread, got %d", w.Code)
	}
	w, resp = doJSON(t, r, http.MethodGet, "/api/threads", tokenB, nil)
	if w.Code != http.StatusOK || len(resp["threads"].([]any)) != 0 {
		t.Fatalf("expected empty inbox for other user, got %v", resp)
	}
}
