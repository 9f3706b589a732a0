package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/activity-board/internal/board"
	"github.com/Shivanand-hulikatti/activity-board/internal/metrics"
	"github.com/Shivanand-hulikatti/activity-board/internal/repository"
	"github.com/Shivanand-hulikatti/activity-board/internal/service"
	"github.com/Shivanand-hulikatti/activity-board/internal/session"
)

// backend is an in-memory activities API speaking the same JSON as the real one.
type backend struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*activityDetails
}

type activityDetails struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func newBackend() *backend {
	return &backend{
		order: []string{"Chess Club"},
		byName: map[string]*activityDetails{
			"Chess Club": {Description: "Learn strategies", Schedule: "Fridays, 3:30 PM", MaxParticipants: 10, Participants: []string{"a@x.com"}},
		},
	}
}

func (be *backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/activities", func(w http.ResponseWriter, r *http.Request) {
		be.mu.Lock()
		defer be.mu.Unlock()
		var sb strings.Builder
		sb.WriteString("{")
		for i, name := range be.order {
			if i > 0 {
				sb.WriteString(",")
			}
			k, _ := json.Marshal(name)
			v, _ := json.Marshal(be.byName[name])
			sb.Write(k)
			sb.WriteString(":")
			sb.Write(v)
		}
		sb.WriteString("}")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sb.String())
	})
	r.Post("/activities/{name}/signup", func(w http.ResponseWriter, r *http.Request) {
		be.mu.Lock()
		defer be.mu.Unlock()
		name, email := chi.URLParam(r, "name"), r.URL.Query().Get("email")
		a, ok := be.byName[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Activity not found"})
			return
		}
		if slices.Contains(a.Participants, email) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Already signed up"})
			return
		}
		a.Participants = append(a.Participants, email)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Signed up " + email + " for " + name})
	})
	r.Delete("/activities/{name}/participants", func(w http.ResponseWriter, r *http.Request) {
		be.mu.Lock()
		defer be.mu.Unlock()
		name, email := chi.URLParam(r, "name"), r.URL.Query().Get("email")
		a, ok := be.byName[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Activity not found"})
			return
		}
		i := slices.Index(a.Participants, email)
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Participant not found"})
			return
		}
		a.Participants = slices.Delete(a.Participants, i, i+1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Unregistered " + email + " from " + name})
	})
	return r
}

type testServer struct {
	backend *httptest.Server
	board   *httptest.Server
	client  *http.Client
}

func newTestServer(t *testing.T, csrfKey []byte) *testServer {
	t.Helper()
	be := httptest.NewServer(newBackend().routes())
	t.Cleanup(be.Close)

	m := metrics.New()
	repo, err := repository.NewActivityRepository(be.URL, be.Client(), m)
	if err != nil {
		t.Fatalf("NewActivityRepository: %v", err)
	}
	ctrl := service.NewController(repo, service.Options{
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	sessions := session.NewStore(session.Config{TTL: time.Hour, Metrics: m})
	h := NewBoardHandler(ctrl, sessions)

	srv := httptest.NewServer(NewRouter(h, RouterConfig{CSRFKey: csrfKey, Metrics: m.Handler()}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testServer{backend: be, board: srv, client: &http.Client{Jar: jar}}
}

func (ts *testServer) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := ts.client.Get(ts.board.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	return string(body)
}

func (ts *testServer) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := ts.client.PostForm(ts.board.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (ts *testServer) state(t *testing.T) board.Snapshot {
	t.Helper()
	var snap board.Snapshot
	if err := json.Unmarshal([]byte(ts.get(t, "/board")), &snap); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	return snap
}

func TestIndexRendersActivities(t *testing.T) {
	ts := newTestServer(t, nil)
	body := ts.get(t, "/")

	for _, want := range []string{
		`id="activities-list"`,
		`<div class="activity-card">`,
		`<h4>Chess Club</h4>`,
		"9 spots left",
		`<span class="participant-email">a@x.com</span>`,
		`class="participant-delete"`,
		`<option value="Chess Club">Chess Club</option>`,
		`<div id="message" class="hidden"></div>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if n := strings.Count(body, `class="activity-card"`); n != 1 {
		t.Errorf("expected 1 card, got %d", n)
	}
}

func TestIndexIsIdempotent(t *testing.T) {
	ts := newTestServer(t, nil)
	first := ts.get(t, "/")
	second := ts.get(t, "/")
	if first != second {
		t.Error("two page loads against unchanged data should render identically")
	}
}

func TestSignupFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.get(t, "/")

	status, body := ts.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"new@x.com"}})
	if status != http.StatusOK {
		t.Fatalf("expected redirect to land on the page, got %d", status)
	}
	if !strings.Contains(body, `<span class="participant-email">new@x.com</span>`) {
		t.Error("new participant should be listed")
	}
	if !strings.Contains(body, "8 spots left") {
		t.Error("spots left should drop to 8")
	}
	if !strings.Contains(body, `class="success"`) || !strings.Contains(body, "Signed up new@x.com for Chess Club") {
		t.Error("success banner missing")
	}
	if !strings.Contains(body, `id="email" name="email" required placeholder="your-email@mergington.edu" value=""`) {
		t.Error("email field should be cleared")
	}
}

func TestSignupDuplicateKeepsForm(t *testing.T) {
	ts := newTestServer(t, nil)

	_, body := ts.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"a@x.com"}})
	if !strings.Contains(body, `class="error"`) || !strings.Contains(body, "Already signed up") {
		t.Error("error banner with backend detail missing")
	}

	snap := ts.state(t)
	if snap.Form.Email != "a@x.com" || snap.Form.Activity != "Chess Club" {
		t.Errorf("form should keep its values, got %+v", snap.Form)
	}
	if !strings.Contains(body, `<option value="Chess Club" selected>Chess Club</option>`) {
		t.Error("selected activity should be kept")
	}
}

func TestUnregisterFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.get(t, "/")

	_, body := ts.post(t, "/unregister", url.Values{"activity": {"Chess Club"}, "email": {"a@x.com"}})
	if strings.Contains(body, `<span class="participant-email">a@x.com</span>`) {
		t.Error("participant should be gone")
	}
	if !strings.Contains(body, `<p class="participants-empty">No participants yet</p>`) {
		t.Error("empty placeholder expected")
	}
	if !strings.Contains(body, "10 spots left") {
		t.Error("spots left should be back to 10")
	}
	if !strings.Contains(body, "Unregistered a@x.com from Chess Club") {
		t.Error("success banner missing")
	}
}

func TestUnregisterUnknownParticipant(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.get(t, "/")

	ts.post(t, "/unregister", url.Values{"activity": {"Chess Club"}, "email": {"ghost@x.com"}})
	snap := ts.state(t)
	if snap.Banner == nil || snap.Banner.Kind != board.BannerError || snap.Banner.Text != "Participant not found" {
		t.Errorf("unexpected banner %+v", snap.Banner)
	}
}

func TestBackendDown(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.backend.Close()

	body := ts.get(t, "/")
	if !strings.Contains(body, board.LoadFailureMessage) {
		t.Error("load failure message expected")
	}

	_, body = ts.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"b@x.com"}})
	if !strings.Contains(body, service.MsgSignupTransport) {
		t.Error("generic signup failure message expected")
	}
}

func TestFailedReloadKeepsActivitySelect(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.get(t, "/")
	ts.backend.Close()

	body := ts.get(t, "/")
	if !strings.Contains(body, board.LoadFailureMessage) {
		t.Error("load failure message expected")
	}
	if !strings.Contains(body, `<option value="Chess Club">Chess Club</option>`) {
		t.Error("activity select should still list Chess Club after a failed reload")
	}
}

func TestBoardStateWithoutSessionSetsNoCookie(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.board.URL + "/board")
	if err != nil {
		t.Fatalf("GET /board: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			t.Errorf("GET /board without a session should not start one, got %s", c.Value)
		}
	}
	var snap board.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if snap.Loaded || len(snap.Cards) != 0 {
		t.Errorf("expected an empty board, got %+v", snap)
	}
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	ts := newTestServer(t, []byte(strings.Repeat("k", 32)))

	page := ts.get(t, "/")
	if !strings.Contains(page, `name="gorilla.csrf.Token"`) {
		t.Error("forms should carry the CSRF field")
	}

	status, _ := ts.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"b@x.com"}})
	if status != http.StatusForbidden {
		t.Errorf("expected 403 without token, got %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	if body := ts.get(t, "/health"); !strings.Contains(body, `"ok"`) {
		t.Errorf("unexpected health body %q", body)
	}
	ts.get(t, "/")
	if body := ts.get(t, "/metrics"); !strings.Contains(body, `activity_board_api_requests_total{op="list",outcome="ok"}`) {
		t.Error("list call should be counted")
	}
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t, nil)
	if body := ts.get(t, "/static/styles.css"); !strings.Contains(body, ".participants-empty") {
		t.Error("stylesheet not served")
	}
}

func TestSpotsLeftPlural(t *testing.T) {
	tests := map[int]string{
		0:  "0 spots left",
		1:  "1 spot left",
		9:  "9 spots left",
		10: "10 spots left",
	}
	for n, want := range tests {
		if got := SpotsLeft(n); got != want {
			t.Errorf("SpotsLeft(%d) = %q, want %q", n, got, want)
		}
	}
}
