package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/resolution"
)

// EventType defines the type of event
type EventType string

const (
	// EventTypeCardResolved is emitted when every required entity of a
	// submission was selected with confidence at the auto-accept bar
	EventTypeCardResolved EventType = "card.resolved"
	// EventTypeCardReviewRequired is emitted for everything else
	EventTypeCardReviewRequired EventType = "card.review_required"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
}

// CardResolutionEvent carries the full resolution of one submission
type CardResolutionEvent struct {
	BaseEvent
	SubmissionID   string                       `json:"submission_id"`
	SubmittedBy    string                       `json:"submitted_by,omitempty"`
	Outcome        string                       `json:"outcome"`
	ExistingCardID *int64                       `json:"existing_card_id,omitempty"`
	Record         *resolution.ResolutionRecord `json:"record"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
	}
}

// EventTypeFor picks the event type of a resolution
func EventTypeFor(rec *resolution.ResolutionRecord) EventType {
	if rec.FullyResolved && !rec.NeedsReview {
		return EventTypeCardResolved
	}
	return EventTypeCardReviewRequired
}
