package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Env:            "test",
		StoreDriver:    driver,
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		JWTIssuer:      "medroute-test",
		JWTTTL:         time.Hour,
		CORSOrigins:    []string{"*"},
		BodyLimit:      "64K",
		RequestTimeout: 5 * time.Second,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	st, err := openStores(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	t.Cleanup(st.close)
	svc, err := loadTriage(cfg)
	if err != nil {
		t.Fatalf("load triage: %v", err)
	}
	return newServer(cfg, zerolog.Nop(), st, svc)
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	cred := map[string]string{"username": username, "password": password}
	if rec := do(t, e, http.MethodPost, "/api/v1/auth/signup", "", cred); rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
	rec := do(t, e, http.MethodPost, "/api/v1/auth/login", "", cred)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil || tok.AccessToken == "" {
		t.Fatalf("login %s: no token in %s", username, rec.Body.String())
	}
	return tok.AccessToken
}

func TestServer_TriageThenBook(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(driver)
			cfg.SQLitePath = filepath.Join(t.TempDir(), "medroute.db")
			e := newTestServer(t, cfg)

			rec := do(t, e, http.MethodPost, "/api/v1/predict", "", map[string]string{"symptoms": "I feel feverish and dizzy"})
			if rec.Code != http.StatusOK {
				t.Fatalf("predict: expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var triaged struct {
				Disease    string   `json:"disease"`
				Department string   `json:"department"`
				Doctors    []string `json:"doctors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &triaged); err != nil {
				t.Fatal(err)
			}
			if triaged.Department != "Cardiology" || len(triaged.Doctors) == 0 {
				t.Fatalf("unexpected triage %+v", triaged)
			}

			appt := map[string]string{
				"disease":    triaged.Disease,
				"department": triaged.Department,
				"doctor":     triaged.Doctors[0],
				"date":       "2026-11-02",
				"time_slot":  "10:00 AM",
			}

			if rec := do(t, e, http.MethodPost, "/api/v1/appointments", "", appt); rec.Code != http.StatusUnauthorized {
				t.Fatalf("anonymous booking: expected 401, got %d", rec.Code)
			}

			alice := login(t, e, "alice", "alice-pass")
			bob := login(t, e, "bob", "bob-pass")

			rec = do(t, e, http.MethodPost, "/api/v1/appointments", alice, appt)
			if rec.Code != http.StatusCreated {
				t.Fatalf("book: expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			var created struct {
				Appointment struct {
					ID       int64  `json:"id"`
					Username string `json:"username"`
				} `json:"appointment"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
				t.Fatal(err)
			}
			if created.Appointment.Username != "alice" {
				t.Errorf("expected booking owned by alice, got %q", created.Appointment.Username)
			}

			if rec := do(t, e, http.MethodPost, "/api/v1/appointments", bob, appt); rec.Code != http.StatusConflict {
				t.Fatalf("double booking: expected 409, got %d: %s", rec.Code, rec.Body.String())
			}

			rec = do(t, e, http.MethodGet, "/api/v1/booked-slots?doctor=Dr.+Mehta&date=2026-11-02", "", nil)
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "10:00 AM") {
				t.Fatalf("booked slots: got %d %s", rec.Code, rec.Body.String())
			}

			if rec := do(t, e, http.MethodGet, "/api/v1/admin/appointments", alice, nil); rec.Code != http.StatusForbidden {
				t.Errorf("admin listing as user: expected 403, got %d", rec.Code)
			}

			// Bob cannot cancel Alice's appointment, but the call still succeeds.
			cancelPath := fmt.Sprintf("/api/v1/appointments/%d", created.Appointment.ID)
			if rec := do(t, e, http.MethodDelete, cancelPath, bob, nil); rec.Code != http.StatusOK {
				t.Fatalf("foreign cancel: expected 200, got %d", rec.Code)
			}
			if rec := do(t, e, http.MethodPost, "/api/v1/appointments", bob, appt); rec.Code != http.StatusConflict {
				t.Fatalf("slot should still be held after foreign cancel, got %d", rec.Code)
			}

			if rec := do(t, e, http.MethodDelete, cancelPath, alice, nil); rec.Code != http.StatusOK {
				t.Fatalf("cancel: expected 200, got %d", rec.Code)
			}
			if rec := do(t, e, http.MethodPost, "/api/v1/appointments", bob, appt); rec.Code != http.StatusCreated {
				t.Fatalf("rebook after cancel: expected 201, got %d: %s", rec.Code, rec.Body.String())
			}

			rec = do(t, e, http.MethodGet, "/api/v1/appointments", alice, nil)
			if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "10:00 AM") {
				t.Errorf("alice should have no appointments left, got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	e := newTestServer(t, testConfig(config.DriverMemory))

	rec := do(t, e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"driver":"memory"`) {
		t.Errorf("health: got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
	if rec := do(t, e, http.MethodGet, "/health/db", "", nil); rec.Code != http.StatusOK {
		t.Errorf("db health: got %d", rec.Code)
	}

	do(t, e, http.MethodPost, "/api/v1/predict", "", map[string]string{"symptoms": "nothing recognisable here"})
	rec = do(t, e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "triage_requests_total") {
		t.Error("expected triage counter in metrics output")
	}
}

func TestServer_DevModeAllowsAnonymousBooking(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.Env = "development"
	e := newTestServer(t, cfg)

	appt := map[string]string{
		"disease": "Migraine", "department": "Neurology", "doctor": "Dr. Rao",
		"date": "2026-11-03", "time_slot": "11:00 AM",
	}
	rec := do(t, e, http.MethodPost, "/api/v1/appointments", "", appt)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected dev booking to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"dev-user"`) {
		t.Errorf("expected dev-user owner, got %s", rec.Body.String())
	}
}

func TestTriageCommand(t *testing.T) {
	t.Setenv("TRIAGE_CATALOG_PATH", "")
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"triage", "I", "feel", "feverish", "and", "dizzy"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("triage command: %v", err)
	}
	if !strings.Contains(out.String(), `"department": "Cardiology"`) {
		t.Errorf("unexpected output %s", out.String())
	}
}
