package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientValidatesBaseURL(t *testing.T) {
	if _, err := NewClient(""); err != ErrBaseURLRequired {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
	for _, bad := range []string{"not a url", "example.com/api", "://missing"} {
		if _, err := NewClient(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	c, err := NewClient("https://api.example.com/v1/")
	if err != nil {
		t.Fatalf("valid url rejected: %v", err)
	}
	if c.baseURL != "https://api.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.baseURL)
	}
}

func TestValidateTemporaryTokenFormEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != validatePath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("token"); got != "tmp-1" {
			t.Errorf("unexpected token field %q", got)
		}
		if ua := r.Header.Get("User-Agent"); ua != "probe/1" {
			t.Errorf("unexpected user agent %q", ua)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"valid":         true,
			"email":         "alice@example.com",
			"temp_password": "temp-pass",
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithUserAgent("probe/1"))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	out, err := client.ValidateTemporaryToken(context.Background(), "tmp-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !out.Valid || out.Email != "alice@example.com" || out.TempPassword != "temp-pass" {
		t.Fatalf("unexpected validation: %+v", out)
	}
}

func TestValidateTemporaryTokenRejectionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	out, err := client.ValidateTemporaryToken(context.Background(), "tmp-1")
	if err != nil {
		t.Fatalf("rejection must not be a transport error: %v", err)
	}
	if out.Valid {
		t.Fatalf("401 must map to invalid token")
	}
}

func TestValidateTemporaryTokenTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := client.ValidateTemporaryToken(context.Background(), "tmp-1"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestLoginPostsJSONAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != loginPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds["email"] != "alice@example.com" || creds["password"] != "temp-pass" {
			t.Errorf("unexpected credentials %v", creds)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"token":   "bearer-1",
			"user":    map[string]string{"name": "Alice"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	out, err := client.Login(context.Background(), "alice@example.com", "temp-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !out.Success || out.Token != "bearer-1" {
		t.Fatalf("unexpected login result: %+v", out)
	}
	if len(out.User) == 0 {
		t.Fatalf("expected raw user payload")
	}
}

func TestLoginRejectionSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "account suspended",
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	out, err := client.Login(context.Background(), "alice@example.com", "x")
	if err != nil {
		t.Fatalf("decodable rejection must not error: %v", err)
	}
	if out.Success || out.Message != "account suspended" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestLoginUndecodableRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "<html>gateway error</html>", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	out, err := client.Login(context.Background(), "alice@example.com", "x")
	if err != nil {
		t.Fatalf("undecodable non-2xx must fold into rejection: %v", err)
	}
	if out.Success || out.Message == "" {
		t.Fatalf("expected synthetic rejection message, got %+v", out)
	}
}

func TestLogoutSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != logoutPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer bearer-1" {
			t.Errorf("unexpected authorization %q", auth)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := client.Logout(context.Background(), "bearer-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestLogoutNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := client.Logout(context.Background(), "bearer-1"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
