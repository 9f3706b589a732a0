// Package board holds the per-visitor state of the activity signup page:
// the activity cards, the activity select, the signup form, the message
// banner and the enabled state of each participant's removal control.
//
// A Board is what the page would otherwise keep in its DOM. The controller
// mutates it, the HTTP layer renders Snapshots of it.
package board

import (
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/activity-board/internal/model"
)

// Static text shown by the page.
const (
	LoadFailureMessage = "Failed to load activities. Please try again later."
	SelectPlaceholder  = "-- Select an activity --"
	EmptyParticipants  = "No participants yet"
)

// BannerKind is the CSS class of the message banner.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a transient status message.
type Banner struct {
	Text      string     `json:"text"`
	Kind      BannerKind `json:"kind"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Visible reports whether the banner is still showing at now.
func (b Banner) Visible(now time.Time) bool {
	return b.Text != "" && now.Before(b.ExpiresAt)
}

// Participant is one row of a card's roster.
type Participant struct {
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

// Card is the rendering of one activity.
type Card struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Schedule     string        `json:"schedule"`
	SpotsLeft    int           `json:"spots_left"`
	Participants []Participant `json:"participants"`
}

// Form holds the values of the signup form.
type Form struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
}

// LoadToken identifies one load of the activity list. Tokens grow monotonically per board.
type LoadToken uint64

type control struct {
	activity string
	email    string
}

// Board is safe for concurrent use.
type Board struct {
	mu sync.Mutex

	issued     LoadToken
	applied    LoadToken
	activities model.Activities
	options    []string
	loadFailed bool

	form     Form
	banner   Banner
	disabled map[control]struct{}

	lastSeen time.Time
}

// New returns an empty board, as the page looks before its first load.
func New(now time.Time) *Board {
	return &Board{
		disabled: make(map[control]struct{}),
		lastSeen: now,
	}
}

// BeginLoad issues the token for a new load of the activity list.
func (b *Board) BeginLoad() LoadToken {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	return b.issued
}

// ApplyActivities replaces the list and the select options with acts.
// It returns false and changes nothing when a newer load has been issued since token.
func (b *Board) ApplyActivities(token LoadToken, acts model.Activities) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.issued {
		return false
	}
	b.applied = token
	b.activities = cloneActivities(acts)
	b.options = acts.Names()
	b.loadFailed = false
	// Rebuilt rows come with fresh, enabled controls.
	clear(b.disabled)
	return true
}

// FailLoad replaces the list area with the load failure message.
// The select options are left as they were. Stale tokens are ignored.
func (b *Board) FailLoad(token LoadToken) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.issued {
		return false
	}
	b.applied = token
	b.activities = nil
	b.loadFailed = true
	clear(b.disabled)
	return true
}

// SetForm records the values typed into the signup form.
func (b *Board) SetForm(f Form) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = f
}

// ResetForm clears the signup form.
func (b *Board) ResetForm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = Form{}
}

// ShowBanner replaces the banner. It hides itself ttl after now; a later
// banner is never hidden by an earlier one's expiry.
func (b *Board) ShowBanner(kind BannerKind, text string, ttl time.Duration, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.banner = Banner{Text: text, Kind: kind, ExpiresAt: now.Add(ttl)}
}

// DisableControl disables the removal control of email in activity.
// It returns false if the control was already disabled.
func (b *Board) DisableControl(activity, email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := control{activity: activity, email: email}
	if _, ok := b.disabled[key]; ok {
		return false
	}
	b.disabled[key] = struct{}{}
	return true
}

// EnableControl re-enables the removal control of email in activity.
func (b *Board) EnableControl(activity, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.disabled, control{activity: activity, email: email})
}

// Touch marks the board as used at now.
func (b *Board) Touch(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen = now
}

// IdleSince returns how long the board has gone unused at now.
func (b *Board) IdleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastSeen)
}

// Snapshot is an immutable copy of the board for rendering.
type Snapshot struct {
	Loaded     bool     `json:"loaded"`
	LoadFailed bool     `json:"load_failed"`
	Cards      []Card   `json:"cards"`
	Options    []string `json:"options"`
	Form       Form     `json:"form"`
	Banner     *Banner  `json:"banner,omitempty"`
}

// Snapshot captures the board as it should be shown at now.
func (b *Board) Snapshot(now time.Time) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Loaded:     b.applied > 0,
		LoadFailed: b.loadFailed,
		Cards:      make([]Card, 0, len(b.activities)),
		Options:    append([]string{}, b.options...),
		Form:       b.form,
	}
	for _, a := range b.activities {
		card := Card{
			Name:         a.Name,
			Description:  a.Description,
			Schedule:     a.Schedule,
			SpotsLeft:    a.SpotsLeft(),
			Participants: make([]Participant, 0, len(a.Participants)),
		}
		for _, p := range a.Participants {
			_, off := b.disabled[control{activity: a.Name, email: p}]
			card.Participants = append(card.Participants, Participant{Email: p, Disabled: off})
		}
		s.Cards = append(s.Cards, card)
	}
	if b.banner.Visible(now) {
		banner := b.banner
		s.Banner = &banner
	}
	return s
}

func cloneActivities(acts model.Activities) model.Activities {
	out := make(model.Activities, len(acts))
	for i, a := range acts {
		a.Participants = slices.Clone(a.Participants)
		out[i] = a
	}
	return out
}
