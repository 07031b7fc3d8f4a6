package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// Event types accepted by Track.
const (
	TypePageView = "pageview"
	TypeEvent    = "event"
)

var (
	ErrMissingFingerprint = errors.New("fingerprint required")
	ErrInvalidPayload     = errors.New("invalid payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TrackRequest is the body of a tracking call.
type TrackRequest struct {
	Type            string         `json:"type" validate:"required,oneof=pageview event"`
	Fingerprint     string         `json:"fingerprint" validate:"max=128"`
	Path            string         `json:"path" validate:"required_if=Type pageview,max=2048"`
	Title           string         `json:"title" validate:"max=512"`
	Referrer        string         `json:"referrer" validate:"max=2048"`
	EventName       string         `json:"eventName" validate:"max=128"`
	EventCategory   string         `json:"eventCategory" validate:"max=128"`
	EventProperties map[string]any `json:"eventProperties"`
	Duration        *int           `json:"duration" validate:"omitempty,min=0"`
	ScrollDepth     *int           `json:"scrollDepth" validate:"omitempty,min=0,max=100"`
	Country         string         `json:"country" validate:"max=64"`
	City            string         `json:"city" validate:"max=128"`
	Region          string         `json:"region" validate:"max=128"`
	Device          string         `json:"device" validate:"max=64"`
	Browser         string         `json:"browser" validate:"max=64"`
	OS              string         `json:"os" validate:"max=64"`
	UTMSource       string         `json:"utmSource" validate:"max=256"`
	UTMMedium       string         `json:"utmMedium" validate:"max=256"`
	UTMCampaign     string         `json:"utmCampaign" validate:"max=256"`
	Ref             string         `json:"ref" validate:"max=256"`
}

// DecodeTrackRequest parses a JSON body. Content type is not checked so
// beacon bodies sent as text/plain are accepted.
func DecodeTrackRequest(body []byte) (*TrackRequest, error) {
	var req TrackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &req, nil
}

// Normalize trims identifiers and applies the ref alias for utm_source.
func (r *TrackRequest) Normalize() {
	r.Fingerprint = strings.TrimSpace(r.Fingerprint)
	r.Type = strings.TrimSpace(r.Type)
	if r.UTMSource == "" && r.Ref != "" {
		r.UTMSource = r.Ref
	}
}

// Validate checks the request. A missing fingerprint is reported before
// any other problem.
func (r *TrackRequest) Validate() error {
	if r.Fingerprint == "" {
		return ErrMissingFingerprint
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
