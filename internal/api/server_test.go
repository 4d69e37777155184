package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/elaw611/isy-bridge/internal/audit"
	"github.com/elaw611/isy-bridge/internal/auth"
	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/entity"
	"github.com/elaw611/isy-bridge/internal/infrastructure/config"
	"github.com/elaw611/isy-bridge/internal/infrastructure/influxdb"
	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
	"github.com/elaw611/isy-bridge/internal/isy"
)

const (
	testUsername = "bridge-admin"
	testPassword = "correct-horse-battery-staple"
	testSecret   = "test-secret-key-that-is-long-enough"
)

// mockHistory serves canned state history.
type mockHistory struct {
	entries []entity.StateHistoryEntry
}

func (h *mockHistory) RecordStateChange(context.Context, string, entity.State, string) error {
	return nil
}

func (h *mockHistory) GetHistory(_ context.Context, _ string, _ int) ([]entity.StateHistoryEntry, error) {
	return h.entries, nil
}

func (h *mockHistory) PruneHistory(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// mockMetrics serves canned telemetry points.
type mockMetrics struct {
	points []influxdb.MetricPoint
}

func (m *mockMetrics) QueryEntityMetrics(context.Context, string, time.Time, time.Time) ([]influxdb.MetricPoint, error) {
	return m.points, nil
}

func (m *mockMetrics) IsConnected() bool { return true }

// mockAudit serves canned control events.
type mockAudit struct {
	result *audit.ListResult
}

func (a *mockAudit) Create(context.Context, *audit.Event) error { return nil }

func (a *mockAudit) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	result := *a.result
	result.Limit = filter.Limit
	result.Offset = filter.Offset
	return &result, nil
}

// testRegistry builds a registry with a light, a program, and a variable.
func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()

	res := classify.NewResult()
	res.Nodes[classify.CategoryLight] = append(res.Nodes[classify.CategoryLight], &isy.Node{
		Address: "11 22 33 1",
		Name:    "Living Room Lamp",
		Kind:    isy.KindDevice,
		Enabled: true,
		Status:  isy.Property{ID: "ST", Value: "255", Formatted: "On"},
	})
	res.Programs[classify.CategorySwitch] = append(res.Programs[classify.CategorySwitch], classify.Program{
		Name:   "Porch Light",
		Status: &isy.Program{ID: "0012", Name: "status", Status: true},
	})
	res.Variables[classify.CategorySensor] = append(res.Variables[classify.CategorySensor], classify.Variable{
		Descriptor: classify.VariableDescriptor{ID: 3, Type: 2, Name: "House Mode"},
		Name:       "house_mode",
		Value:      &isy.Variable{ID: 3, Type: 2, Name: "house_mode", Value: 2},
	})

	reg := entity.NewRegistry()
	reg.Load(res)
	return reg
}

// testServer builds a server with mocks and returns its router.
func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"}, "test")

	s, err := New(Deps{
		Config: config.APIConfig{
			Enabled: true,
			Auth:    config.APIAuthConfig{Username: testUsername, PasswordHash: hash},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
		},
		Logger:   logger,
		Registry: testRegistry(t),
		History: &mockHistory{entries: []entity.StateHistoryEntry{
			{ID: 1, EntityID: "11 22 33 1", State: entity.State{"value": 255}, Source: "event", CreatedAt: time.Now().UTC()},
		}},
		Metrics: &mockMetrics{points: []influxdb.MetricPoint{
			{Time: time.Now().UTC(), Field: "value", Value: 255},
		}},
		Audit: &mockAudit{result: &audit.ListResult{
			Events: []audit.Event{{ID: "evt-1", EntityID: "11 22 33 1", Control: "RR", Value: 28, Source: "device"}},
			Total:  1,
		}},
		Weather: []classify.WeatherEntry{{Label: "Temperature", Value: "21.5", Unit: "C"}},
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.started = time.Now().UTC()

	return s, s.buildRouter()
}

// loginToken performs a login and returns the bearer token.
func loginToken(t *testing.T, router http.Handler) string {
	t.Helper()

	body, _ := json.Marshal(loginRequest{Username: testUsername, Password: testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling login response: %v", err)
	}
	return resp.Token
}

// entityPath builds an entity URL, escaping the id since ISY addresses
// contain spaces.
func entityPath(id, suffix string) string {
	return "/api/v1/entities/" + url.PathEscape(id) + suffix
}

// authedGet performs an authenticated GET and returns the recorder.
func authedGet(t *testing.T, router http.Handler, token, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	_, router := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestHandleLogin(t *testing.T) {
	_, router := testServer(t)

	token := loginToken(t, router)
	if token == "" {
		t.Fatal("login returned empty token")
	}

	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != testUsername {
		t.Errorf("Subject = %q, want %q", claims.Subject, testUsername)
	}
}

func TestHandleLogin_Rejections(t *testing.T) {
	_, router := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"bridge-admin","password":"wrong"}`, http.StatusUnauthorized},
		{"wrong username", `{"username":"intruder","password":"correct-horse-battery-staple"}`, http.StatusUnauthorized},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"bad json", `not-json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testServer(t)

	// No token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", rec.Code)
	}

	// Garbage token
	rec = authedGet(t, router, "garbage", "/api/v1/entities/")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status with garbage token = %d, want 401", rec.Code)
	}

	// Token signed with a different secret
	forged, err := auth.GenerateToken(testUsername, "another-secret-that-is-long-enough!!", 15)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	rec = authedGet(t, router, forged, "/api/v1/entities/")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status with forged token = %d, want 401", rec.Code)
	}
}

func TestHandleListEntities(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/entities/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Entities []entity.Entity `json:"entities"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}

func TestHandleListEntities_CategoryFilter(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/entities/?category=light")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Entities []entity.Entity `json:"entities"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Entities[0].ID != "11 22 33 1" {
		t.Errorf("entity id = %q, want 11 22 33 1", body.Entities[0].ID)
	}
}

func TestHandleGetEntity(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, entityPath("11 22 33 1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var e entity.Entity
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if e.Name != "Living Room Lamp" {
		t.Errorf("name = %q, want Living Room Lamp", e.Name)
	}

	rec = authedGet(t, router, token, "/api/v1/entities/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for missing entity = %d, want 404", rec.Code)
	}
}

func TestHandleEntityHistory(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, entityPath("11 22 33 1", "/history"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		History []entity.StateHistoryEntry `json:"history"`
		Count   int                        `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}

	rec = authedGet(t, router, token, entityPath("11 22 33 1", "/history?limit=bad"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad limit = %d, want 400", rec.Code)
	}
}

func TestHandleEntityHistory_NotConfigured(t *testing.T) {
	s, _ := testServer(t)
	s.history = nil
	router := s.buildRouter()
	token := loginToken(t, router)

	rec := authedGet(t, router, token, entityPath("11 22 33 1", "/history"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleEntityMetrics(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, entityPath("11 22 33 1", "/metrics"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Points []influxdb.MetricPoint `json:"points"`
		Count  int                    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}

	rec = authedGet(t, router, token, entityPath("11 22 33 1", "/metrics?start=bad"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad start = %d, want 400", rec.Code)
	}
}

func TestHandleEntityMetrics_NotAvailable(t *testing.T) {
	s, _ := testServer(t)
	s.metrics = nil
	router := s.buildRouter()
	token := loginToken(t, router)

	rec := authedGet(t, router, token, entityPath("11 22 33 1", "/metrics"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleCategories(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if len(body.Categories) != 3 {
		t.Errorf("categories = %v, want 3 entries", body.Categories)
	}
}

func TestHandleListPrograms(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/programs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Programs []entity.Entity `json:"programs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if len(body.Programs) != 1 || body.Programs[0].ID != "0012" {
		t.Errorf("programs = %+v, want one program with id 0012", body.Programs)
	}
}

func TestHandleListVariables(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/variables")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Variables []entity.Entity `json:"variables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if len(body.Variables) != 1 || body.Variables[0].ID != "var_2_3" {
		t.Errorf("variables = %+v, want one variable with id var_2_3", body.Variables)
	}
}

func TestHandleWeather(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/weather")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Weather []classify.WeatherEntry `json:"weather"`
		Count   int                     `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body.Count != 1 || body.Weather[0].Label != "Temperature" {
		t.Errorf("weather = %+v, want one Temperature entry", body.Weather)
	}
}

func TestHandleListAudit(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/audit?entity_id="+url.QueryEscape("11 22 33 1")+"&limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result audit.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if result.Total != 1 || len(result.Events) != 1 {
		t.Errorf("result = %+v, want one event", result)
	}

	rec = authedGet(t, router, token, "/api/v1/audit?limit=bad")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad limit = %d, want 400", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	_, router := testServer(t)
	token := loginToken(t, router)

	rec := authedGet(t, router, token, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if body["controller_connected"] != false {
		t.Errorf("controller_connected = %v, want false without a controller", body["controller_connected"])
	}
	if body["metrics_connected"] != true {
		t.Errorf("metrics_connected = %v, want true with mock metrics", body["metrics_connected"])
	}
}
