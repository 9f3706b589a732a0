// Package service implements the activity board controller: it keeps a
// visitor's board in step with the backend and handles signup and
// unregister actions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/activity-board/internal/board"
	"github.com/Shivanand-hulikatti/activity-board/internal/metrics"
	"github.com/Shivanand-hulikatti/activity-board/internal/model"
	"github.com/Shivanand-hulikatti/activity-board/internal/repository"
)

// Banner texts used when the backend gives no better message.
const (
	MsgSignupFallback       = "An error occurred"
	MsgSignupTransport      = "Failed to sign up. Please try again."
	MsgSignupIncomplete     = "Please choose an activity and enter an email."
	MsgUnregisterFallback   = "Failed to unregister participant"
	MsgUnregisterTransport  = "Failed to unregister participant. Please try again."
	MsgUnregisterIncomplete = "Missing activity or participant."
)

// Banner lifetimes used when Options leaves them unset.
const (
	DefaultSignupBannerTTL     = 5 * time.Second
	DefaultUnregisterBannerTTL = 4 * time.Second
)

// ErrIncompleteForm is returned when a required form field is empty.
var ErrIncompleteForm = errors.New("activity and email are required")

// ErrDuplicateSubmission is returned when a removal control is used while its
// previous request is still in flight.
var ErrDuplicateSubmission = errors.New("unregister already in progress")

// ActivityAPI is the backend the controller synchronises with.
type ActivityAPI interface {
	List(ctx context.Context) (model.Activities, error)
	Signup(ctx context.Context, activity, email string) (string, error)
	Unregister(ctx context.Context, activity, email string) (string, error)
}

// Options tunes a Controller. Zero values pick the defaults.
type Options struct {
	SignupBannerTTL     time.Duration
	UnregisterBannerTTL time.Duration
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
	Now                 func() time.Time
}

// Controller orchestrates board operations against the backend.
type Controller struct {
	api      ActivityAPI
	validate *validator.Validate
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time

	signupTTL     time.Duration
	unregisterTTL time.Duration
}

// NewController constructs a Controller with its dependencies.
func NewController(api ActivityAPI, opts Options) *Controller {
	c := &Controller{
		api:           api,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		metrics:       opts.Metrics,
		log:           opts.Logger,
		now:           opts.Now,
		signupTTL:     opts.SignupBannerTTL,
		unregisterTTL: opts.UnregisterBannerTTL,
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.signupTTL <= 0 {
		c.signupTTL = DefaultSignupBannerTTL
	}
	if c.unregisterTTL <= 0 {
		c.unregisterTTL = DefaultUnregisterBannerTTL
	}
	return c
}

// Now returns the controller's clock reading.
func (c *Controller) Now() time.Time {
	return c.now()
}

// LoadActivities fetches the activity collection and rebuilds the board's list
// and select options. A response that arrives after a newer load was issued
// for the same board is dropped.
func (c *Controller) LoadActivities(ctx context.Context, b *board.Board) error {
	token := b.BeginLoad()

	acts, err := c.api.List(ctx)
	if err != nil {
		c.log.Error("fetch_activities_failed", "error", err.Error(), "load", uint64(token))
		if !b.FailLoad(token) {
			c.metrics.StaleLoad()
		}
		return fmt.Errorf("load activities: %w", err)
	}

	if !b.ApplyActivities(token, acts) {
		c.metrics.StaleLoad()
		c.log.Debug("stale_load_discarded", "load", uint64(token))
	}
	return nil
}

// Signup registers form.Email for form.Activity. On success the form is reset
// and the list reloaded; on failure the form keeps its values.
func (c *Controller) Signup(ctx context.Context, b *board.Board, form model.SignupForm) error {
	b.SetForm(board.Form{Activity: form.Activity, Email: form.Email})

	if err := c.validate.Struct(form); err != nil {
		b.ShowBanner(board.BannerError, MsgSignupIncomplete, c.signupTTL, c.now())
		return fmt.Errorf("%w: %v", ErrIncompleteForm, err)
	}

	msg, err := c.api.Signup(ctx, form.Activity, form.Email)
	if err != nil {
		c.showFailure(b, err, MsgSignupFallback, MsgSignupTransport, c.signupTTL)
		c.log.Error("signup_failed", "activity", form.Activity, "email", form.Email, "error", err.Error())
		return fmt.Errorf("signup: %w", err)
	}

	if msg == "" {
		msg = fmt.Sprintf("Signed up %s for %s", form.Email, form.Activity)
	}
	b.ShowBanner(board.BannerSuccess, msg, c.signupTTL, c.now())
	b.ResetForm()
	c.log.Info("signup", "activity", form.Activity, "email", form.Email)

	// The signup itself succeeded; a failed refresh is already on the board.
	_ = c.LoadActivities(ctx, b)
	return nil
}

// Unregister removes req.Email from req.Activity. The participant's removal
// control is disabled for the duration; it is re-enabled on failure and left
// for the reload to rebuild on success.
func (c *Controller) Unregister(ctx context.Context, b *board.Board, req model.UnregisterRequest) error {
	if err := c.validate.Struct(req); err != nil {
		b.ShowBanner(board.BannerError, MsgUnregisterIncomplete, c.unregisterTTL, c.now())
		return fmt.Errorf("%w: %v", ErrIncompleteForm, err)
	}

	if !b.DisableControl(req.Activity, req.Email) {
		return ErrDuplicateSubmission
	}

	msg, err := c.api.Unregister(ctx, req.Activity, req.Email)
	if err != nil {
		c.showFailure(b, err, MsgUnregisterFallback, MsgUnregisterTransport, c.unregisterTTL)
		b.EnableControl(req.Activity, req.Email)
		c.log.Error("unregister_failed", "activity", req.Activity, "email", req.Email, "error", err.Error())
		return fmt.Errorf("unregister: %w", err)
	}

	if msg == "" {
		msg = "Unregistered " + req.Email
	}
	b.ShowBanner(board.BannerSuccess, msg, c.unregisterTTL, c.now())
	c.log.Info("unregister", "activity", req.Activity, "email", req.Email)

	_ = c.LoadActivities(ctx, b)
	return nil
}

// showFailure puts the backend detail on the banner for application failures
// and the generic text for anything else.
func (c *Controller) showFailure(b *board.Board, err error, fallback, transport string, ttl time.Duration) {
	text := transport
	var apiErr *repository.APIError
	if errors.As(err, &apiErr) {
		text = fallback
		if detail, ok := repository.DetailOf(err); ok {
			text = detail
		}
	}
	b.ShowBanner(board.BannerError, text, ttl, c.now())
}
