package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/utils"
)

const testSecret = "unit-test-secret"

func runGuard(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, reached
}

func TestSessionAuthMissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec, reached := runGuard(t, SessionAuth(testSecret), req)

	if reached {
		t.Fatal("handler reached without a session token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionAuthGarbageToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-jwt"})
	rec, reached := runGuard(t, SessionAuth(testSecret), req)

	if reached {
		t.Fatal("handler reached with an unparseable token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewSessionToken("some-other-secret", 7, "Dana", 15)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok.Token})
	rec, reached := runGuard(t, SessionAuth(testSecret), req)

	if reached {
		t.Fatal("handler reached with a token signed by another key")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSessionAuthValidCookie(t *testing.T) {
	tok, err := utils.NewSessionToken(testSecret, 7, "Dana", 15)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok.Token})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := SessionAuth(testSecret)(func(c echo.Context) error {
		if c.Get("account_id") == nil {
			t.Error("account_id not set in context")
		}
		if name, _ := c.Get("account_name").(string); name != "Dana" {
			t.Errorf("account_name = %q, want %q", name, "Dana")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSessionAuthBearerFallback(t *testing.T) {
	tok, err := utils.NewSessionToken(testSecret, 3, "Avi", 15)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec, reached := runGuard(t, SessionAuth(testSecret), req)

	if !reached {
		t.Fatal("handler not reached with a valid bearer token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestPageAuthRedirectsToLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec, reached := runGuard(t, PageAuth(testSecret), req)

	if reached {
		t.Fatal("handler reached without a session token")
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
}
