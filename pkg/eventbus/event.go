// Package eventbus carries identity-change events between services over a
// durable topic exchange. Delivery is at-least-once; consumers must be
// idempotent.
package eventbus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Exchange and routing keys shared by publishers and consumers.
const (
	ExchangeUserEvents = "user_events"

	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"

	SourceAuthService = "auth-service"
)

// ErrMalformedEvent marks a message that can never be processed. Consumers
// acknowledge and drop it instead of requeueing.
var ErrMalformedEvent = errors.New("eventbus: malformed event")

// Event is the wire envelope. The routing key is always Type.
type Event struct {
	Type          string          `json:"event_type"`
	Data          json.RawMessage `json:"event_data"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
}

// NewEvent marshals data into a new envelope stamped with now (UTC).
func NewEvent(eventType, source string, data any, now time.Time) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("eventbus: marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:          eventType,
		Data:          raw,
		Timestamp:     now.UTC(),
		SourceService: source,
	}, nil
}

// Encode returns the JSON body published to the broker.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Bind unmarshals the payload into dst. Failures wrap ErrMalformedEvent.
func (e Event) Bind(dst any) error {
	if len(bytes.TrimSpace(e.Data)) == 0 {
		return fmt.Errorf("%w: empty event_data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// wireEvent accepts timestamps with or without a zone; naive timestamps are
// read as UTC.
type wireEvent struct {
	Type          string          `json:"event_type"`
	Data          json.RawMessage `json:"event_data"`
	Timestamp     string          `json:"timestamp"`
	SourceService string          `json:"source_service"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp, treating zone-less values
// as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Decode parses a message body. Anything that cannot be parsed, or that has
// no event_type, is ErrMalformedEvent.
func Decode(body []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if strings.TrimSpace(w.Type) == "" {
		return Event{}, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}

	e := Event{Type: w.Type, Data: w.Data, SourceService: w.SourceService}
	if w.Timestamp != "" {
		ts, err := ParseTimestamp(w.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		e.Timestamp = ts
	}
	return e, nil
}

// UserPayload is the event_data of user.registered and user.updated.
type UserPayload struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"rbac_role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON reads created_at and updated_at with ParseTimestamp so
// payload timestamps follow the same rules as the envelope's. Absent or
// empty values stay zero.
func (p *UserPayload) UnmarshalJSON(b []byte) error {
	type plain UserPayload
	var w struct {
		plain
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = UserPayload(w.plain)
	if w.CreatedAt != "" {
		ts, err := ParseTimestamp(w.CreatedAt)
		if err != nil {
			return fmt.Errorf("created_at: %w", err)
		}
		p.CreatedAt = ts
	}
	if w.UpdatedAt != "" {
		ts, err := ParseTimestamp(w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("updated_at: %w", err)
		}
		p.UpdatedAt = ts
	}
	return nil
}

// UserDeletedPayload is the event_data of user.deleted.
type UserDeletedPayload struct {
	UserID string `json:"user_id"`
}
