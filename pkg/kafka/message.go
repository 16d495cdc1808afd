package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Header keys set on produced messages and read from consumed ones
const (
	HeaderEventType     = "event_type"
	HeaderSchemaVersion = "schema_version"
	HeaderSubmissionID  = "submission_id"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// ParseSubmission decodes the message value as a card submission. The
// submission id falls back to the header, then the message key.
func (m *IncomingMessage) ParseSubmission() (*models.CardSubmission, error) {
	var sub models.CardSubmission
	if err := json.Unmarshal(m.Value, &sub); err != nil {
		return nil, fmt.Errorf("invalid card submission: %w", err)
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = m.Headers[HeaderSubmissionID]
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = m.Key
	}
	return &sub, nil
}
