package account

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthsync/hms-client/internal/platform/session"
)

func newTestHandler(token string) (*Handler, *echo.Echo) {
	svc, _ := newTestService(token)
	return NewHandler(svc), echo.New()
}

func post(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler(signedToken(t, time.Now().Add(time.Hour)))
	c, rec := post(e, `{"email":"r@h.test","password":"secret"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "token") {
		t.Errorf("token must not be returned to the browser: %s", body)
	}
	if !strings.Contains(body, `"displayName":"Asha Rao"`) || !strings.Contains(body, "expiresAt") {
		t.Errorf("unexpected profile: %s", body)
	}
}

func TestHandler_Login_Unauthorized(t *testing.T) {
	h, e := newTestHandler("opaque-token")
	c, _ := post(e, `{"email":"r@h.test","password":"wrong"}`)

	var httpErr *echo.HTTPError
	if err := h.Login(c); !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if httpErr.Message != "Invalid email or password" {
		t.Errorf("unexpected message %v", httpErr.Message)
	}
}

func TestHandler_Login_ErrorStatuses(t *testing.T) {
	transport := errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
	tests := []struct {
		name    string
		auth    *mockAuth
		store   session.Store
		body    string
		code    int
		message string
	}{
		{"missing fields", &mockAuth{token: "t"}, session.NewMemoryStore(), `{"password":"secret"}`,
			http.StatusBadRequest, "email and password are required"},
		{"api unreachable", &mockAuth{token: "t", err: transport}, session.NewMemoryStore(), `{"email":"r@h.test","password":"secret"}`,
			http.StatusBadGateway, "Login failed"},
		{"store failure", &mockAuth{token: "t"}, &brokenStore{}, `{"email":"r@h.test","password":"secret"}`,
			http.StatusInternalServerError, "Could not store the session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(NewService(tt.auth, tt.store, zerolog.Nop()))
			c, _ := post(echo.New(), tt.body)

			var httpErr *echo.HTTPError
			if err := h.Login(c); !errors.As(err, &httpErr) || httpErr.Code != tt.code {
				t.Fatalf("expected %d, got %v", tt.code, err)
			}
			if httpErr.Message != tt.message {
				t.Errorf("expected message %q, got %v", tt.message, httpErr.Message)
			}
		})
	}
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler("opaque-token")
	c, rec := post(e, `{"firstName":"Mina","lastName":"K","email":"m@h.test","password":"x"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_Register_UpstreamMessage(t *testing.T) {
	h, e := newTestHandler("opaque-token")
	c, _ := post(e, `{"firstName":"Mina","lastName":"K","email":"taken@h.test","password":"x"}`)

	var httpErr *echo.HTTPError
	if err := h.Register(c); !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
	if httpErr.Message != "Email already registered" {
		t.Errorf("unexpected message %v", httpErr.Message)
	}
}

func TestHandler_MeAndLogout(t *testing.T) {
	h, e := newTestHandler("opaque-token")

	c, _ := post(e, "")
	var httpErr *echo.HTTPError
	if err := h.Me(c); !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %v", err)
	}

	c, _ = post(e, `{"email":"r@h.test","password":"secret"}`)
	h.Login(c)

	c, rec := post(e, "")
	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"userType":"RECEPTIONIST"`) {
		t.Errorf("unexpected profile %s", rec.Body.String())
	}

	c, rec = post(e, "")
	if err := h.Logout(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%v)", rec.Code, err)
	}
	c, _ = post(e, "")
	if err := h.Me(c); err == nil {
		t.Error("expected 401 after logout")
	}
}
