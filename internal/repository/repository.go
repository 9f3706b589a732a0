// Package repository talks to the backend activities API.
// It uses net/http directly and maps responses onto model types and errors.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/activity-board/internal/metrics"
	"github.com/Shivanand-hulikatti/activity-board/internal/model"
)

// ErrTransport wraps network failures and response bodies that could not be parsed.
var ErrTransport = errors.New("activities api unreachable")

// APIError is an application-level failure: a non-2xx status from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("activities api: status %d", e.Status)
	}
	return fmt.Sprintf("activities api: status %d: %s", e.Status, e.Detail)
}

// DetailOf returns the backend detail carried by err, if any.
func DetailOf(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// maxBody caps how much of a backend response is read.
const maxBody = 1 << 20

// ActivityRepository handles the backend activities endpoints.
type ActivityRepository struct {
	base    *url.URL
	client  *http.Client
	metrics *metrics.Metrics
}

// NewActivityRepository constructs an ActivityRepository for the API rooted at baseURL.
// A nil client means http.DefaultClient.
func NewActivityRepository(baseURL string, client *http.Client, m *metrics.Metrics) (*ActivityRepository, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ActivityRepository{base: base, client: client, metrics: m}, nil
}

// List returns every activity in the order the backend wrote them.
func (r *ActivityRepository) List(ctx context.Context) (model.Activities, error) {
	var out model.Activities
	if err := r.do(ctx, "list", http.MethodGet, r.endpoint(nil, "activities"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Signup registers email for the named activity and returns the backend message.
func (r *ActivityRepository) Signup(ctx context.Context, activity, email string) (string, error) {
	u := r.endpoint(url.Values{"email": {email}}, "activities", activity, "signup")
	var out model.MessageResponse
	if err := r.do(ctx, "signup", http.MethodPost, u, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Unregister removes email from the named activity and returns the backend message.
func (r *ActivityRepository) Unregister(ctx context.Context, activity, email string) (string, error) {
	u := r.endpoint(url.Values{"email": {email}}, "activities", activity, "participants")
	var out model.MessageResponse
	if err := r.do(ctx, "unregister", http.MethodDelete, u, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// endpoint joins escaped path segments onto the base URL.
func (r *ActivityRepository) endpoint(query url.Values, segments ...string) string {
	u := *r.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = strings.TrimRight(r.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	u.Path = strings.TrimRight(r.base.Path, "/") + "/" + strings.Join(segments, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (r *ActivityRepository) do(ctx context.Context, op, method, target string, dst any) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, ErrTransport):
			outcome = metrics.OutcomeTransport
		case err != nil:
			outcome = metrics.OutcomeRejected
		}
		r.metrics.ObserveAPI(op, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrTransport, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope model.ErrorResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("%w: decode %s error body (status %d): %v", ErrTransport, op, resp.StatusCode, err)
		}
		return &APIError{Status: resp.StatusCode, Detail: envelope.Detail}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrTransport, op, err)
	}
	return nil
}
