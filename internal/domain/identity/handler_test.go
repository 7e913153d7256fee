package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	return NewHandler(newTestService(t, NewMemoryUserRepo())), echo.New()
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError %d, got %v", code, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_Signup(t *testing.T) {
	h, e := newTestHandler(t)
	c, rec := postJSON(e, `{"username":"alice","password":"s3cret!"}`)
	if err := h.Signup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response must not echo password data: %s", rec.Body.String())
	}

	c, _ = postJSON(e, `{"username":"alice","password":"s3cret!"}`)
	expectStatus(t, h.Signup(c), http.StatusBadRequest)

	c, _ = postJSON(e, `{"username":"bob"}`)
	expectStatus(t, h.Signup(c), http.StatusBadRequest)
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler(t)
	h.svc.Signup(context.Background(), Credentials{Username: "alice", Password: "s3cret!"})

	c, rec := postJSON(e, `{"username":"alice","password":"s3cret!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tok.AccessToken == "" || tok.Role != RoleUser {
		t.Errorf("unexpected token response %s", rec.Body.String())
	}

	c, _ = postJSON(e, `{"username":"alice","password":"bad"}`)
	expectStatus(t, h.Login(c), http.StatusUnauthorized)
}

func TestHandler_AdminLogin(t *testing.T) {
	h, e := newTestHandler(t)
	ctx := context.Background()
	h.svc.Signup(ctx, Credentials{Username: "alice", Password: "s3cret!"})
	h.svc.CreateUser(ctx, Credentials{Username: "root", Password: "adminpass"}, RoleAdmin)

	c, rec := postJSON(e, `{"username":"root","password":"adminpass"}`)
	if err := h.AdminLogin(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"role":"admin"`) {
		t.Errorf("expected admin role, got %s", rec.Body.String())
	}

	c, _ = postJSON(e, `{"username":"alice","password":"s3cret!"}`)
	expectStatus(t, h.AdminLogin(c), http.StatusForbidden)

	c, _ = postJSON(e, `{"username":"root","password":"nope"}`)
	expectStatus(t, h.AdminLogin(c), http.StatusUnauthorized)
}
