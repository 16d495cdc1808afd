package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type published struct {
	key     string
	value   any
	headers map[string]string
}

type fakePublisher struct {
	messages []published
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, value any, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{key: key, value: value, headers: headers})
	return nil
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, models.ProvisionalCard) (*resolution.ResolutionRecord, error) {
	return nil, errors.New("catalog unavailable")
}

func testEngine() *resolution.Engine {
	cat := &catalog.Memory{
		Sets:    []models.Set{{ID: 1, Name: "Topps Chrome", Year: 2023}},
		Series:  []models.Series{{ID: 10, SetID: 1, Name: "Topps Chrome"}},
		Teams:   []models.Team{{ID: 100, Name: "Los Angeles Angels", City: "Los Angeles", Mascot: "Angels", Abbreviation: "LAA"}},
		Players: []models.Player{{ID: 1000, FirstName: "Mike", LastName: "Trout"}},
		PlayerTeams: []models.PlayerTeam{
			{ID: 5000, PlayerID: 1000, TeamID: 100},
		},
		Cards: []models.Card{{ID: 9000, SeriesID: 10, CardNumber: "27", PlayerTeamIDs: []int64{5000}}},
	}
	return resolution.NewEngine(noopLogger(), cat, matching.DefaultPolicy(), nil)
}

func message(t *testing.T, v any) *kafka.IncomingMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &kafka.IncomingMessage{Key: "msg-key", Value: data, Headers: map[string]string{}}
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		card     models.ProvisionalCard
		wantType events.EventType
		wantCard *int64
	}{
		{
			name:     "fully resolved existing card",
			card:     models.ProvisionalCard{Year: 2023, SetName: "Topps Chrome", CardNumber: "27", PlayerNames: "Mike Trout", TeamNames: "Angels"},
			wantType: events.EventTypeCardResolved,
			wantCard: func() *int64 { id := int64(9000); return &id }(),
		},
		{
			name:     "unknown player needs review",
			card:     models.ProvisionalCard{Year: 2023, SetName: "Topps Chrome", CardNumber: "28", PlayerNames: "Zack Neto", TeamNames: "Angels"},
			wantType: events.EventTypeCardReviewRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			h := NewHandler(noopLogger(), testEngine(), events.NewEmitter(pub, noopLogger()))

			err := h.Handle(context.Background(), message(t, models.CardSubmission{SubmissionID: "sub-1", Card: tt.card}))
			require.NoError(t, err)

			require.Len(t, pub.messages, 1)
			msg := pub.messages[0]
			assert.Equal(t, "sub-1", msg.key)
			assert.Equal(t, string(tt.wantType), msg.headers[kafka.HeaderEventType])

			event, ok := msg.value.(*events.CardResolutionEvent)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, event.EventType)
			assert.Equal(t, "sub-1", event.SubmissionID)
			assert.Equal(t, tt.wantCard, event.ExistingCardID)
			assert.NotEmpty(t, event.EventID)
		})
	}
}

func TestHandler_Handle_Errors(t *testing.T) {
	valid := models.CardSubmission{
		SubmissionID: "sub-2",
		Card:         models.ProvisionalCard{SetName: "Topps Chrome", CardNumber: "1"},
	}

	t.Run("malformed json is permanent", func(t *testing.T) {
		h := NewHandler(noopLogger(), testEngine(), events.NewEmitter(&fakePublisher{}, noopLogger()))
		err := h.Handle(context.Background(), &kafka.IncomingMessage{Value: []byte("{")})
		assert.ErrorIs(t, err, kafka.ErrPermanent)
	})

	t.Run("blank card number is permanent", func(t *testing.T) {
		h := NewHandler(noopLogger(), testEngine(), events.NewEmitter(&fakePublisher{}, noopLogger()))
		err := h.Handle(context.Background(), message(t, models.CardSubmission{
			SubmissionID: "sub-3",
			Card:         models.ProvisionalCard{SetName: "Topps Chrome"},
		}))
		assert.ErrorIs(t, err, kafka.ErrPermanent)
	})

	t.Run("submission id falls back to key", func(t *testing.T) {
		pub := &fakePublisher{}
		h := NewHandler(noopLogger(), testEngine(), events.NewEmitter(pub, noopLogger()))
		require.NoError(t, h.Handle(context.Background(), message(t, map[string]any{
			"card": map[string]any{"set_name": "Topps Chrome", "card_number": "1"},
		})))
		require.Len(t, pub.messages, 1)
		assert.Equal(t, "msg-key", pub.messages[0].key)
	})

	t.Run("resolver failure is retried", func(t *testing.T) {
		h := NewHandler(noopLogger(), failingResolver{}, events.NewEmitter(&fakePublisher{}, noopLogger()))
		err := h.Handle(context.Background(), message(t, valid))
		require.Error(t, err)
		assert.NotErrorIs(t, err, kafka.ErrPermanent)
	})

	t.Run("publish failure is retried", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		h := NewHandler(noopLogger(), testEngine(), events.NewEmitter(pub, noopLogger()))
		err := h.Handle(context.Background(), message(t, valid))
		require.Error(t, err)
		assert.NotErrorIs(t, err, kafka.ErrPermanent)
	})
}
