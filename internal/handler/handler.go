// Package handler contains chi HTTP handlers that translate page requests
// and form posts to and from the board controller.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/activity-board/internal/board"
	"github.com/Shivanand-hulikatti/activity-board/internal/model"
	"github.com/Shivanand-hulikatti/activity-board/internal/service"
	"github.com/Shivanand-hulikatti/activity-board/internal/session"
)

// BoardHandler holds all HTTP handlers for the activity board page.
type BoardHandler struct {
	ctrl     *service.Controller
	sessions *session.Store
}

// NewBoardHandler constructs a BoardHandler.
func NewBoardHandler(ctrl *service.Controller, sessions *session.Store) *BoardHandler {
	return &BoardHandler{ctrl: ctrl, sessions: sessions}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Detail: msg})
}

// parseForm reads the activity and email fields of a board form post.
func parseForm(w http.ResponseWriter, r *http.Request) (activity, email string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.PostForm.Get("activity"), r.PostForm.Get("email"), nil
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Index handles GET /
// A page view is a page load: the activity list is fetched and rendered.
func (h *BoardHandler) Index(w http.ResponseWriter, r *http.Request) {
	b := h.sessions.Board(w, r)

	// Failures are drawn on the board itself.
	_ = h.ctrl.LoadActivities(r.Context(), b)

	if err := renderIndex(w, r, b.Snapshot(h.ctrl.Now())); err != nil {
		slog.Error("render_failed", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Signup handles POST /signup
// Submits the signup form and sends the visitor back to the page.
func (h *BoardHandler) Signup(w http.ResponseWriter, r *http.Request) {
	activity, email, err := parseForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	b := h.sessions.Board(w, r)
	err = h.ctrl.Signup(r.Context(), b, model.SignupForm{Activity: activity, Email: email})
	if err != nil {
		slog.Warn("signup_not_completed", "activity", activity, "error", err.Error())
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Unregister handles POST /unregister
// Submits a participant removal and sends the visitor back to the page.
func (h *BoardHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	activity, email, err := parseForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	b := h.sessions.Board(w, r)
	err = h.ctrl.Unregister(r.Context(), b, model.UnregisterRequest{Activity: activity, Email: email})
	switch {
	case errors.Is(err, service.ErrDuplicateSubmission):
		slog.Info("unregister_duplicate_ignored", "activity", activity, "email", email)
	case err != nil:
		slog.Warn("unregister_not_completed", "activity", activity, "error", err.Error())
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// BoardState handles GET /board
// Returns the visitor's board as JSON without reloading it. Visitors without a
// session get an empty board and no cookie.
func (h *BoardHandler) BoardState(w http.ResponseWriter, r *http.Request) {
	now := h.ctrl.Now()
	b, ok := h.sessions.Lookup(r)
	if !ok {
		b = board.New(now)
	}
	writeJSON(w, http.StatusOK, b.Snapshot(now))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
