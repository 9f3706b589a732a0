// Package model defines the core domain types for the activity board.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedActivities is returned when the activities document is not a JSON object.
var ErrMalformedActivities = errors.New("activities payload is not a JSON object")

// Activity is a named event with a schedule, description, capacity and roster.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft returns capacity minus the current roster size.
func (a *Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// Activities is the collection returned by GET /activities, kept in the order
// the backend wrote the keys.
type Activities []Activity

// Names returns the activity names in collection order.
func (as Activities) Names() []string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		names = append(names, a.Name)
	}
	return names
}

// UnmarshalJSON decodes a name → details object without losing key order.
func (as *Activities) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrMalformedActivities
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return ErrMalformedActivities
	}

	out := Activities{}
	var decodeErr error
	root.ForEach(func(key, value gjson.Result) bool {
		var a Activity
		if err := json.Unmarshal([]byte(value.Raw), &a); err != nil {
			decodeErr = fmt.Errorf("decode activity %q: %w", key.String(), err)
			return false
		}
		a.Name = key.String()
		if a.Participants == nil {
			a.Participants = []string{}
		}
		out = append(out, a)
		return true
	})
	if decodeErr != nil {
		return decodeErr
	}

	*as = out
	return nil
}

// MessageResponse is the success envelope of signup and unregister.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope the backend returns with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SignupForm is what a visitor submits from the signup form.
type SignupForm struct {
	Activity string `json:"activity" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// UnregisterRequest identifies the participant row whose removal control was used.
type UnregisterRequest struct {
	Activity string `json:"activity" validate:"required"`
	Email    string `json:"email" validate:"required"`
}
