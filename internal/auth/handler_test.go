package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pec-ai/auth/internal/auth"
	"github.com/pec-ai/auth/internal/status"
)

func setupTestServer(t *testing.T, exposeCodes bool) *httptest.Server {
	t.Helper()

	authSvc, _, db := setupAuthTestService(t)

	mux := http.NewServeMux()
	auth.NewHandler(authSvc, exposeCodes).RegisterRoutes(mux)
	status.NewHandler(db).RegisterRoutes(mux)

	server := httptest.NewServer(authSvc.Middleware(mux))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

// codeFromDevMessage extracts the plaintext code from the dev-mode send
// response ("dev mode: code=123456, ...").
func codeFromDevMessage(t *testing.T, message string) string {
	t.Helper()

	_, rest, found := strings.Cut(message, "code=")
	if !found {
		t.Fatalf("expected dev-mode message with code, got %q", message)
	}
	code, _, _ := strings.Cut(rest, ",")
	return code
}

func TestHandler_SMSRegisterLoginFlow(t *testing.T) {
	server := setupTestServer(t, true)

	resp, body := postJSON(t, server.URL+"/api/auth/sms/send", map[string]string{
		"phone":   testPhone,
		"purpose": "register",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send code: expected status 200, got %d", resp.StatusCode)
	}
	if body["expires_in_seconds"].(float64) != 300 {
		t.Fatalf("expected 300 second expiry, got %v", body["expires_in_seconds"])
	}
	code := codeFromDevMessage(t, body["message"].(string))

	resp, body = postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"sms_code": code,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d (%v)", resp.StatusCode, body)
	}
	accessToken, _ := body["access_token"].(string)
	if accessToken == "" || body["refresh_token"] == "" {
		t.Fatalf("expected token pair, got %v", body)
	}
	if body["token_type"] != "bearer" {
		t.Fatalf("expected bearer token type, got %v", body["token_type"])
	}

	// the access token authenticates /api/auth/me
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected status 200, got %d", meResp.StatusCode)
	}
	var me map[string]any
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me["phone"] != testPhone {
		t.Fatalf("expected phone %q, got %v", testPhone, me["phone"])
	}
	if me["isActive"] != true {
		t.Fatalf("expected active user, got %v", me["isActive"])
	}
}

func TestHandler_SendCode_HidesCodeWithoutDevFlag(t *testing.T) {
	server := setupTestServer(t, false)

	resp, body := postJSON(t, server.URL+"/api/auth/sms/send", map[string]string{
		"phone": testPhone,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	message := body["message"].(string)
	if strings.Contains(message, "code=") {
		t.Fatalf("expected code to be withheld, got %q", message)
	}
}

func TestHandler_Register_MapsConflict(t *testing.T) {
	server := setupTestServer(t, true)

	resp, _ := postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	resp, body := postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d (%v)", resp.StatusCode, body)
	}
}

func TestHandler_Login_MapsCredentialErrors(t *testing.T) {
	server := setupTestServer(t, true)

	resp, _ := postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, server.URL+"/api/auth/login", map[string]string{
		"phone":    testPhone,
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}

	resp, _ = postJSON(t, server.URL+"/api/auth/login", map[string]string{
		"phone": testPhone,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing credential, got %d", resp.StatusCode)
	}
}

func TestHandler_Login_MapsLockedCode(t *testing.T) {
	server := setupTestServer(t, true)

	resp, _ := postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d", resp.StatusCode)
	}
	resp, body := postJSON(t, server.URL+"/api/auth/sms/send", map[string]string{
		"phone": testPhone,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send code: expected status 200, got %d", resp.StatusCode)
	}
	code := codeFromDevMessage(t, body["message"].(string))
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		resp, _ = postJSON(t, server.URL+"/api/auth/login", map[string]string{
			"phone":    testPhone,
			"sms_code": wrong,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("wrong guess %d: expected status 400, got %d", i+1, resp.StatusCode)
		}
	}

	resp, _ = postJSON(t, server.URL+"/api/auth/login", map[string]string{
		"phone":    testPhone,
		"sms_code": code,
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 once locked, got %d", resp.StatusCode)
	}
}

func TestHandler_Refresh_RotatesTokens(t *testing.T) {
	server := setupTestServer(t, true)

	resp, body := postJSON(t, server.URL+"/api/auth/register", map[string]string{
		"phone":    testPhone,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected status 200, got %d", resp.StatusCode)
	}
	refreshToken := body["refresh_token"].(string)

	resp, body = postJSON(t, server.URL+"/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected status 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("expected rotated token pair, got %v", body)
	}

	resp, _ = postJSON(t, server.URL+"/api/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestHandler_Health_IsPublic(t *testing.T) {
	server := setupTestServer(t, false)

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}
