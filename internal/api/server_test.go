package api_test

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

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pagewatch/internal/api"
	"pagewatch/internal/api/types"
	"pagewatch/internal/checks"
	"pagewatch/internal/config"
	"pagewatch/internal/core"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

type stubChecker struct {
	result checks.Result
}

func (s stubChecker) Check(context.Context, string) checks.Result {
	return s.result
}

type envelope struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Data       json.RawMessage           `json:"data"`
	Error      *types.Error              `json:"error"`
	Pagination *types.PaginationResponse `json:"pagination"`
}

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *storage.Storage
	engine  *core.Engine
	broker  *events.Broker
}

func newTestEnv(t *testing.T, startEngine bool) *testEnv {
	t.Helper()

	store, err := storage.New(config.StorageConfig{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	broker := events.NewBroker()
	engine := core.NewEngine(config.SchedulerConfig{
		Interval:    time.Hour,
		WorkerCount: 2,
		QueueSize:   16,
		BatchSize:   10,
	}, store, stubChecker{result: checks.ResponseResult(http.StatusOK, 12)}, broker)

	if startEngine {
		if err := engine.Start(context.Background()); err != nil {
			t.Fatalf("Failed to start engine: %v", err)
		}
		t.Cleanup(engine.Stop)
	}

	srv := api.NewServer(config.ServerConfig{
		Addr: "127.0.0.1:0",
		JWT: config.JWTConfig{
			Secret: "test-secret-that-is-long-enough-for-hs256",
			TTL:    time.Hour,
		},
	}, engine, store, broker)

	return &testEnv{t: t, handler: srv.Handler(), store: store, engine: engine, broker: broker}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("Failed to decode data %q: %v", env.Data, err)
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// login registers a user and returns a bearer token for it.
func (e *testEnv) login(email string) string {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "name": "Tester", "password": "correct-horse",
	})
	expectStatus(e.t, rec, http.StatusCreated)

	rec = e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "correct-horse",
	})
	expectStatus(e.t, rec, http.StatusOK)

	var login struct {
		Token string `json:"token"`
	}
	decode(e.t, rec, &login)
	if login.Token == "" {
		e.t.Fatal("Expected a token")
	}
	return login.Token
}

func (e *testEnv) createWebsite(token, name string) storage.WebsiteWithStats {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/api/v1/websites", token, map[string]string{"name": name})
	expectStatus(e.t, rec, http.StatusCreated)

	var website storage.WebsiteWithStats
	decode(e.t, rec, &website)
	return website
}

func (e *testEnv) createPage(token string, websiteID uint, url string) storage.Page {
	e.t.Helper()

	rec := e.do(http.MethodPost, fmt.Sprintf("/api/v1/websites/%d/pages", websiteID), token, map[string]string{"url": url})
	expectStatus(e.t, rec, http.StatusCreated)

	var page storage.Page
	decode(e.t, rec, &page)
	return page
}

func (e *testEnv) checkTotal(pageID uint) int64 {
	e.t.Helper()
	_, total, err := e.store.ListPageChecks(context.Background(), pageID, 1, 0)
	if err != nil {
		e.t.Fatalf("ListPageChecks failed: %v", err)
	}
	return total
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t, true)

	t.Run("Ping", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/ping", "", nil)
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "pong") {
			t.Errorf("Expected pong, got %s", rec.Body.String())
		}
	})

	t.Run("Health reports components", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/health", "", nil)
		expectStatus(t, rec, http.StatusOK)

		var health struct {
			Status     string `json:"status"`
			Components struct {
				Database struct {
					Status string `json:"status"`
				} `json:"database"`
				Engine struct {
					Status     string `json:"status"`
					QueueDepth int    `json:"queue_depth"`
				} `json:"engine"`
			} `json:"components"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
			t.Fatalf("Failed to decode health: %v", err)
		}
		if health.Status != "healthy" {
			t.Errorf("Expected healthy, got %s", health.Status)
		}
		if health.Components.Database.Status != "healthy" || health.Components.Engine.Status != "healthy" {
			t.Errorf("Unexpected component status: %+v", health.Components)
		}
	})

	t.Run("Request id is generated or echoed", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/ping", "", nil)
		if _, err := uuid.Parse(rec.Header().Get(api.RequestIDHeader)); err != nil {
			t.Errorf("Expected generated uuid, got %q", rec.Header().Get(api.RequestIDHeader))
		}

		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set(api.RequestIDHeader, id)
		rec = httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if got := rec.Header().Get(api.RequestIDHeader); got != id {
			t.Errorf("Expected echoed id %s, got %s", id, got)
		}
	})

	t.Run("Security headers", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/ping", "", nil)
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("Expected X-Content-Type-Options header")
		}
	})

	t.Run("Unknown route", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/nope", "", nil)
		expectStatus(t, rec, http.StatusNotFound)
		if resp := decode(t, rec, nil); resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
			t.Errorf("Expected NOT_FOUND envelope, got %s", rec.Body.String())
		}
	})
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login("alice@example.com")

	t.Run("Duplicate email conflicts", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "ALICE@example.com", "name": "Other", "password": "another-secret",
		})
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("Short password rejected", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": "bob@example.com", "name": "Bob", "password": "short",
		})
		expectStatus(t, rec, http.StatusBadRequest)
		if resp := decode(t, rec, nil); resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("Expected VALIDATION_ERROR, got %s", rec.Body.String())
		}
	})

	t.Run("Wrong password", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "wrong-password",
		})
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("Unknown email", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "nobody@example.com", "password": "correct-horse",
		})
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("Me", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/auth/me", token, nil)
		expectStatus(t, rec, http.StatusOK)

		var user storage.User
		decode(t, rec, &user)
		if user.Email != "alice@example.com" {
			t.Errorf("Expected alice, got %s", user.Email)
		}
		if strings.Contains(rec.Body.String(), "password") {
			t.Error("Password hash must not be exposed")
		}
	})

	t.Run("Protected routes need a valid token", func(t *testing.T) {
		for _, tok := range []string{"", "not-a-jwt"} {
			rec := env.do(http.MethodGet, "/api/v1/websites", tok, nil)
			expectStatus(t, rec, http.StatusUnauthorized)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/websites?access_token="+token, nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestWebsiteAndPageFlow(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login("owner@example.com")

	website := env.createWebsite(token, "Example")
	if website.TotalPagesCount != 0 || !website.IsHealthy {
		t.Errorf("Expected empty healthy website, got %+v", website.WebsiteStats)
	}

	page := env.createPage(token, website.ID, "https://example.com/")

	// Page creation queues a check
	waitFor(t, "initial check", func() bool { return env.checkTotal(page.ID) == 1 })

	t.Run("Page reflects the recorded check", func(t *testing.T) {
		rec := env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d", page.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)

		var got storage.Page
		decode(t, rec, &got)
		if !got.IsUp || got.LastStatusCode == nil || *got.LastStatusCode != http.StatusOK {
			t.Errorf("Expected up page with code 200, got %+v", got)
		}
		if len(got.Checks) != 1 {
			t.Errorf("Expected 1 embedded check, got %d", len(got.Checks))
		}
	})

	t.Run("On-demand check is accepted", func(t *testing.T) {
		rec := env.do(http.MethodPost, fmt.Sprintf("/api/v1/pages/%d/check", page.ID), token, nil)
		expectStatus(t, rec, http.StatusAccepted)
		if resp := decode(t, rec, nil); resp.Message != "Uptime check queued successfully" {
			t.Errorf("Unexpected message %q", resp.Message)
		}
		waitFor(t, "on-demand check", func() bool { return env.checkTotal(page.ID) == 2 })
	})

	t.Run("Check history is paginated", func(t *testing.T) {
		rec := env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d/checks?page=1&page_size=1", page.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)

		var history []storage.PageCheck
		resp := decode(t, rec, &history)
		if len(history) != 1 {
			t.Errorf("Expected 1 check on the page, got %d", len(history))
		}
		if resp.Pagination == nil || resp.Pagination.Total != 2 || resp.Pagination.TotalPages != 2 {
			t.Errorf("Unexpected pagination %+v", resp.Pagination)
		}

		rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/websites/%d/checks", website.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)
		resp = decode(t, rec, &history)
		if len(history) != 2 || history[0].WebsiteID != website.ID {
			t.Errorf("Expected 2 website checks, got %+v", history)
		}

		rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d/checks?page_size=500", page.ID), token, nil)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("Website aggregates", func(t *testing.T) {
		rec := env.do(http.MethodGet, fmt.Sprintf("/api/v1/websites/%d", website.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)

		var got storage.WebsiteWithStats
		decode(t, rec, &got)
		if got.TotalPagesCount != 1 || got.PagesUpCount != 1 || !got.IsHealthy {
			t.Errorf("Unexpected aggregates %+v", got.WebsiteStats)
		}
		if len(got.Pages) != 1 {
			t.Errorf("Expected 1 page, got %d", len(got.Pages))
		}

		rec = env.do(http.MethodGet, "/api/v1/websites", token, nil)
		expectStatus(t, rec, http.StatusOK)
		var list []storage.WebsiteWithStats
		decode(t, rec, &list)
		if len(list) != 1 {
			t.Errorf("Expected 1 website, got %d", len(list))
		}
	})

	t.Run("Update website and page", func(t *testing.T) {
		rec := env.do(http.MethodPatch, fmt.Sprintf("/api/v1/websites/%d", website.ID), token, map[string]string{
			"name": "Renamed", "base_url": "https://example.com",
		})
		expectStatus(t, rec, http.StatusOK)
		var got storage.WebsiteWithStats
		decode(t, rec, &got)
		if got.Name != "Renamed" || got.BaseURL == nil || *got.BaseURL != "https://example.com" {
			t.Errorf("Unexpected website %+v", got.Website)
		}

		rec = env.do(http.MethodPatch, fmt.Sprintf("/api/v1/websites/%d", website.ID), token, map[string]string{
			"base_url": "ftp://example.com",
		})
		expectStatus(t, rec, http.StatusBadRequest)

		rec = env.do(http.MethodPatch, fmt.Sprintf("/api/v1/pages/%d", page.ID), token, map[string]string{
			"url": "https://example.com/about",
		})
		expectStatus(t, rec, http.StatusOK)
		var updated storage.Page
		decode(t, rec, &updated)
		if updated.URL != "https://example.com/about" {
			t.Errorf("Expected new URL, got %s", updated.URL)
		}
	})

	t.Run("Invalid input", func(t *testing.T) {
		rec := env.do(http.MethodPost, fmt.Sprintf("/api/v1/websites/%d/pages", website.ID), token, map[string]string{"url": "not a url"})
		expectStatus(t, rec, http.StatusBadRequest)

		rec = env.do(http.MethodPost, "/api/v1/websites", token, map[string]string{"name": ""})
		expectStatus(t, rec, http.StatusBadRequest)

		rec = env.do(http.MethodGet, "/api/v1/pages/abc", token, nil)
		expectStatus(t, rec, http.StatusBadRequest)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/websites", strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusUnsupportedMediaType)
	})

	t.Run("Deletes cascade", func(t *testing.T) {
		rec := env.do(http.MethodDelete, fmt.Sprintf("/api/v1/pages/%d", page.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)
		if env.checkTotal(page.ID) != 0 {
			t.Error("Expected page checks to be deleted")
		}

		rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d", page.ID), token, nil)
		expectStatus(t, rec, http.StatusNotFound)

		second := env.createPage(token, website.ID, "https://example.com/second")
		waitFor(t, "second page check", func() bool { return env.checkTotal(second.ID) == 1 })

		rec = env.do(http.MethodDelete, fmt.Sprintf("/api/v1/websites/%d", website.ID), token, nil)
		expectStatus(t, rec, http.StatusOK)
		if env.checkTotal(second.ID) != 0 {
			t.Error("Expected website checks to be deleted")
		}

		rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d", second.ID), token, nil)
		expectStatus(t, rec, http.StatusNotFound)
		rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/websites/%d", website.ID), token, nil)
		expectStatus(t, rec, http.StatusNotFound)
	})
}

func TestOwnership(t *testing.T) {
	env := newTestEnv(t, true)
	alice := env.login("alice@example.com")
	bob := env.login("bob@example.com")

	website := env.createWebsite(alice, "Alice")
	page := env.createPage(alice, website.ID, "https://example.com/")

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, fmt.Sprintf("/api/v1/websites/%d", website.ID), nil},
		{http.MethodPatch, fmt.Sprintf("/api/v1/websites/%d", website.ID), map[string]string{"name": "Mine"}},
		{http.MethodDelete, fmt.Sprintf("/api/v1/websites/%d", website.ID), nil},
		{http.MethodGet, fmt.Sprintf("/api/v1/websites/%d/pages", website.ID), nil},
		{http.MethodPost, fmt.Sprintf("/api/v1/websites/%d/pages", website.ID), map[string]string{"url": "https://example.com/x"}},
		{http.MethodGet, fmt.Sprintf("/api/v1/websites/%d/checks", website.ID), nil},
		{http.MethodGet, fmt.Sprintf("/api/v1/pages/%d", page.ID), nil},
		{http.MethodPatch, fmt.Sprintf("/api/v1/pages/%d", page.ID), map[string]string{"url": "https://example.com/y"}},
		{http.MethodDelete, fmt.Sprintf("/api/v1/pages/%d", page.ID), nil},
		{http.MethodPost, fmt.Sprintf("/api/v1/pages/%d/check", page.ID), nil},
		{http.MethodGet, fmt.Sprintf("/api/v1/pages/%d/checks", page.ID), nil},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := env.do(r.method, r.path, bob, r.body)
			expectStatus(t, rec, http.StatusNotFound)
		})
	}

	rec := env.do(http.MethodGet, "/api/v1/websites", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []storage.WebsiteWithStats
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("Expected no websites for bob, got %d", len(list))
	}

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/v1/pages/%d", page.ID), alice, nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestCheckWithStoppedEngine(t *testing.T) {
	env := newTestEnv(t, false)
	token := env.login("idle@example.com")

	website := env.createWebsite(token, "Idle")
	// Creation succeeds even though the initial check cannot be queued
	page := env.createPage(token, website.ID, "https://example.com/")

	rec := env.do(http.MethodPost, fmt.Sprintf("/api/v1/pages/%d/check", page.ID), token, nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if resp := decode(t, rec, nil); resp.Error == nil || resp.Error.Code != "UNAVAILABLE" {
		t.Errorf("Expected UNAVAILABLE, got %s", rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/health", "", nil)
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("Expected degraded health, got %s", rec.Body.String())
	}
}

func TestLiveFeed(t *testing.T) {
	env := newTestEnv(t, true)
	alice := env.login("alice@example.com")
	bob := env.login("bob@example.com")

	website := env.createWebsite(alice, "Live")
	page := env.createPage(alice, website.ID, "https://example.com/")
	waitFor(t, "initial check", func() bool { return env.checkTotal(page.ID) == 1 })

	srv := httptest.NewServer(env.handler)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live"

	t.Run("Rejects missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			t.Fatal("Expected dial to fail")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %+v", resp)
		}
	})

	t.Run("Rejects foreign origin", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://evil.example.org"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+alice, header)
		if err == nil {
			t.Fatal("Expected dial to fail")
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403, got %+v", resp)
		}
	})

	t.Run("Streams own checks only", func(t *testing.T) {
		bobConn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+bob, nil)
		if err != nil {
			t.Fatalf("Bob dial failed: %v", err)
		}
		defer bobConn.Close()

		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+alice, nil)
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer conn.Close()

		waitFor(t, "subscribers", func() bool { return env.broker.SubscriberCount() == 2 })

		rec := env.do(http.MethodPost, fmt.Sprintf("/api/v1/pages/%d/check", page.ID), alice, nil)
		expectStatus(t, rec, http.StatusAccepted)

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev struct {
			PageURL string            `json:"page_url"`
			Check   storage.PageCheck `json:"check"`
		}
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if ev.Check.PageID != page.ID || ev.Check.Status != storage.StatusUp {
			t.Errorf("Unexpected event %+v", ev)
		}
		if ev.PageURL != "https://example.com/" {
			t.Errorf("Unexpected page url %s", ev.PageURL)
		}

		_ = bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		if _, _, err := bobConn.ReadMessage(); err == nil {
			t.Error("Bob must not receive alice's checks")
		}
	})
}
