// Package submissions resolves crowdsourced cards read from Kafka and emits
// the outcome
package submissions

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Submission consume statuses
const (
	statusResolved = "resolved"
	statusInvalid  = "invalid"
	statusFailed   = "failed"
)

// Resolver resolves one card
type Resolver interface {
	Resolve(ctx context.Context, card models.ProvisionalCard) (*resolution.ResolutionRecord, error)
}

// Emitter publishes a resolution
type Emitter interface {
	EmitResolution(ctx context.Context, sub *models.CardSubmission, rec *resolution.ResolutionRecord) error
}

// Handler turns submission messages into resolution events
type Handler struct {
	logger   ectologger.Logger
	resolver Resolver
	emitter  Emitter
	validate *validator.Validate
}

func NewHandler(logger ectologger.Logger, resolver Resolver, emitter Emitter) *Handler {
	return &Handler{
		logger:   logger,
		resolver: resolver,
		emitter:  emitter,
		validate: validator.New(),
	}
}

// Handle is a kafka.MessageHandler. Malformed submissions are dropped with
// kafka.ErrPermanent; catalog and publish failures are returned as-is so the
// message is redelivered.
func (h *Handler) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "submissions.Handler.Handle")
	defer span.End()

	sub, err := msg.ParseSubmission()
	if err == nil {
		err = h.validate.Struct(sub)
	}
	if err != nil {
		metrics.SubmissionsConsumedTotal.WithLabelValues(statusInvalid).Inc()
		return fmt.Errorf("%w: %w", kafka.ErrPermanent, err)
	}

	log := h.logger.WithContext(ctx).WithFields(map[string]any{
		"submission_id": sub.SubmissionID,
		"card_number":   sub.Card.CardNumber,
	})

	rec, err := h.resolver.Resolve(ctx, sub.Card)
	if err != nil {
		metrics.SubmissionsConsumedTotal.WithLabelValues(statusFailed).Inc()
		tracing.RecordError(span, err)
		log.WithError(err).Error("Failed to resolve submission")
		return err
	}

	if err := h.emitter.EmitResolution(ctx, sub, rec); err != nil {
		metrics.SubmissionsConsumedTotal.WithLabelValues(statusFailed).Inc()
		return fmt.Errorf("failed to emit resolution: %w", err)
	}

	metrics.SubmissionsConsumedTotal.WithLabelValues(statusResolved).Inc()
	log.WithField("outcome", rec.Outcome()).Info("Resolved card submission")
	return nil
}
