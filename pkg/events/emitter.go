// Package events publishes the outcome of crowdsourced card resolutions
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher writes one keyed message. *kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, key string, value any, headers map[string]string) error
}

var _ Publisher = (*kafka.Producer)(nil)

// Emitter handles event emission
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitResolution emits card.resolved or card.review_required for a
// submission, keyed by submission id
func (e *Emitter) EmitResolution(ctx context.Context, sub *models.CardSubmission, rec *resolution.ResolutionRecord) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitResolution")
	defer span.End()

	event := &CardResolutionEvent{
		BaseEvent:      NewBaseEvent(EventTypeFor(rec)),
		SubmissionID:   sub.SubmissionID,
		SubmittedBy:    sub.SubmittedBy,
		Outcome:        rec.Outcome(),
		ExistingCardID: rec.ExistingCardID,
		Record:         rec,
	}

	headers := map[string]string{
		kafka.HeaderEventType:     string(event.EventType),
		kafka.HeaderSchemaVersion: SchemaVersion,
		kafka.HeaderSubmissionID:  sub.SubmissionID,
	}

	if err := e.publisher.Publish(ctx, sub.SubmissionID, event, headers); err != nil {
		tracing.RecordError(span, err)
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"submission_id": sub.SubmissionID,
			"event_type":    event.EventType,
		}).Error("Failed to emit card resolution event")
		return err
	}

	return nil
}
