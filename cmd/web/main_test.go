package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"copurchase-dashboard/internal/config"
	"copurchase-dashboard/internal/dataset"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Data: config.DataConfig{
			Policy:     config.PolicyLenient,
			SearchDirs: []string{dir},
			LeaderRule: config.LeaderRuleContains,
			Workers:    2,
		},
		Session: config.SessionConfig{CookieName: "sid", IdleTimeout: time.Minute},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  100,
			AllowedOrigins:  []string{"http://localhost:8501"},
		},
	}
}

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[dataset.TableName]string{
		dataset.TableGroupBoards: "group_board_id,group_product_id,title,location,status,created_at,deadline,updated_at,current_participants,max_participants\n" +
			"1,1,쌀 공구,강남,공구성공,2024-01-05,2024-01-12,2024-01-10,10,20\n" +
			"2,1,김치 공구,수원,모집중,2024-02-01,2024-02-08,2024-02-02,3,10\n",
		dataset.TableParticipants: "participant_id,group_board_id,user_id,role,joined_at,trade_completed\n" +
			"1,1,10,L,2024-01-05,true\n" +
			"2,1,11,P,2024-01-06,false\n",
	}
	for table, content := range files {
		path := filepath.Join(dir, dataset.SchemeLenient[table])
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	handler, store, err := buildHandler(testConfig(dir), quietLogger())
	if err != nil {
		t.Fatalf("buildHandler() failed: %v", err)
	}

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/regions", http.StatusOK, "application/json"},
		{"/sse/summary", http.StatusOK, "text/event-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("every response should carry a request id")
			}
		})
	}

	// Each data request above arrived without a cookie and got its own
	// session; the page and health check never touch the store.
	if store.Len() != 3 {
		t.Errorf("sessions = %d, want 3", store.Len())
	}
}

func TestBuildHandler_SessionFlow(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	handler, store, err := buildHandler(testConfig(dir), quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v, want one session cookie", cookies)
	}

	get := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(cookies[0])
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w = get(http.MethodGet, "/api/summary")
	var response struct {
		Success bool `json:"success"`
		Data    struct {
			TotalBoards       int `json:"total_boards"`
			TotalParticipants int `json:"total_participants"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success || response.Data.TotalBoards != 2 || response.Data.TotalParticipants != 2 {
		t.Errorf("summary = %+v, want 2 boards and 2 participants", response)
	}
	if store.Len() != 1 {
		t.Errorf("sessions = %d, want 1", store.Len())
	}

	w = get(http.MethodPost, "/api/session/refresh")
	if w.Code != http.StatusOK {
		t.Errorf("refresh status = %d, want 200", w.Code)
	}
}

func TestBuildHandler_CookielessRequestsAreBounded(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	cfg := testConfig(dir)
	cfg.Session.MaxSessions = 5

	handler, store, err := buildHandler(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	for range 40 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}
	if store.Len() != 5 {
		t.Errorf("sessions = %d, want the configured cap of 5", store.Len())
	}
}

func TestBuildHandler_InvalidPolicy(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Data.Policy = "sometimes"

	if _, _, err := buildHandler(cfg, quietLogger()); err == nil {
		t.Error("buildHandler() should reject an unknown policy")
	}
}

func TestWarmUp(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	_, store, err := buildHandler(testConfig(dir), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := warmUp(context.Background(), store, quietLogger()); err != nil {
		t.Fatalf("warmUp() failed: %v", err)
	}
	if store.Len() != 0 {
		t.Error("warm-up should not create a session")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := warmUp(ctx, store, quietLogger()); err == nil {
		t.Error("warmUp() should fail on a cancelled context")
	}
}

func TestHandleDashboard(t *testing.T) {
	w := httptest.NewRecorder()
	handleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("Cache-Control = %q, want %q", cc, cacheMaxAge)
	}
	if !strings.Contains(w.Body.String(), "/sse/summary") {
		t.Error("dashboard should subscribe to the summary stream")
	}
}
