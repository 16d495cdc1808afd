// Package resolution resolves provisional cards to catalog entities. One
// call builds one reference index and matches every card against it in
// input order.
package resolution

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/index"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// defaultProgressInterval is how many cards are matched between progress updates
const defaultProgressInterval = 25

// ProgressFunc receives the number of cards processed so far
type ProgressFunc func(ctx context.Context, processed int)

type batchOptions struct {
	progress         ProgressFunc
	progressInterval int
}

// BatchOption configures ResolveBatch
type BatchOption func(*batchOptions)

// WithProgress reports progress every interval cards and once at the end.
// A non-positive interval uses the default.
func WithProgress(fn ProgressFunc, interval int) BatchOption {
	return func(o *batchOptions) {
		o.progress = fn
		if interval > 0 {
			o.progressInterval = interval
		}
	}
}

// Engine resolves cards. It never writes to the catalog.
type Engine struct {
	logger  ectologger.Logger
	catalog catalog.Catalog
	builder *index.Builder
	policy  matching.Policy
}

// NewEngine creates an Engine. orgs filters players and teams to the given
// organizations; empty means no filter.
func NewEngine(logger ectologger.Logger, cat catalog.Catalog, policy matching.Policy, orgs []int64) *Engine {
	return &Engine{
		logger:  logger,
		catalog: cat,
		builder: index.NewBuilder(logger, cat, orgs),
		policy:  policy,
	}
}

// Resolve resolves a single submitted card and checks whether an identical
// card already exists in the catalog
func (e *Engine) Resolve(ctx context.Context, card models.ProvisionalCard) (*ResolutionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Engine.Resolve")
	defer span.End()

	records, err := e.ResolveBatch(ctx, []models.ProvisionalCard{card})
	if err != nil {
		return nil, err
	}
	rec := records[0]
	e.attachExistingCard(ctx, &rec)
	return &rec, nil
}

// ResolveBatch resolves cards in input order against one shared reference
// index. The returned records are parallel to cards.
func (e *Engine) ResolveBatch(ctx context.Context, cards []models.ProvisionalCard, opts ...BatchOption) ([]ResolutionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Engine.ResolveBatch")
	defer span.End()

	o := batchOptions{progressInterval: defaultProgressInterval}
	for _, opt := range opts {
		opt(&o)
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"cards": len(cards),
	})

	idx, err := e.builder.Build(ctx, index.DemandFor(cards))
	if err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("Failed to build reference index")
		return nil, fmt.Errorf("failed to build reference index: %w", err)
	}

	m := matching.NewMatcher(idx, e.policy)
	records := make([]ResolutionRecord, len(cards))
	for i, card := range cards {
		records[i] = aggregate(m, card)
		if o.progress != nil && (i+1)%o.progressInterval == 0 && i+1 < len(cards) {
			o.progress(ctx, i+1)
		}
	}

	e.attachAssociations(ctx, records)

	for i := range records {
		metrics.CardsResolvedTotal.WithLabelValues(records[i].Outcome()).Inc()
	}
	if o.progress != nil {
		o.progress(ctx, len(cards))
	}

	log.Info("Resolved card batch")
	return records, nil
}

// attachAssociations looks up every (selected player, selected team) pair of
// the batch in one catalog call. A failure leaves every pair unattached.
func (e *Engine) attachAssociations(ctx context.Context, records []ResolutionRecord) {
	seen := make(map[models.PlayerTeamPair]struct{})
	var pairs []models.PlayerTeamPair
	for i := range records {
		for j := range records[i].Players {
			for _, pair := range playerPairs(&records[i].Players[j]) {
				if _, ok := seen[pair]; ok {
					continue
				}
				seen[pair] = struct{}{}
				pairs = append(pairs, pair)
			}
		}
	}
	if len(pairs) == 0 {
		return
	}

	metrics.CatalogQueriesTotal.WithLabelValues(string(models.EntityTypePlayerTeam)).Inc()
	existing, err := e.catalog.FindExistingPlayerTeamAssociations(ctx, pairs)
	if err != nil {
		metrics.CatalogQueryFailures.WithLabelValues(string(models.EntityTypePlayerTeam)).Inc()
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"pairs": len(pairs),
		}).Warn("Failed to load existing player/team associations")
		return
	}

	byPair := make(map[models.PlayerTeamPair]int64, len(existing))
	for _, pt := range existing {
		byPair[models.PlayerTeamPair{PlayerID: pt.PlayerID, TeamID: pt.TeamID}] = pt.ID
	}

	for i := range records {
		for j := range records[i].Players {
			pr := &records[i].Players[j]
			for _, pair := range playerPairs(pr) {
				if id, ok := byPair[pair]; ok {
					pr.PlayerTeamIDs = append(pr.PlayerTeamIDs, id)
				} else {
					pr.NewAssociations = append(pr.NewAssociations, pair)
				}
			}
		}
	}
}

func playerPairs(pr *PlayerResolution) []models.PlayerTeamPair {
	if pr.Selected == nil {
		return nil
	}
	pairs := make([]models.PlayerTeamPair, 0, len(pr.Teams))
	for _, t := range pr.Teams {
		pairs = append(pairs, models.PlayerTeamPair{PlayerID: pr.Selected.ID, TeamID: t.ID})
	}
	return pairs
}

// attachExistingCard flags a submission that duplicates a catalog card. It
// needs a selected series and every player's associations to already exist.
func (e *Engine) attachExistingCard(ctx context.Context, rec *ResolutionRecord) {
	if rec.SelectedSeries == nil {
		return
	}

	var ids []int64
	for _, p := range rec.Players {
		if p.Selected == nil || len(p.NewAssociations) > 0 {
			return
		}
		ids = append(ids, p.PlayerTeamIDs...)
	}

	metrics.CatalogQueriesTotal.WithLabelValues(string(models.EntityTypeCard)).Inc()
	id, err := e.catalog.FindExistingCard(ctx, rec.SelectedSeries.ID, rec.Card.CardNumber, ids)
	if err != nil {
		metrics.CatalogQueryFailures.WithLabelValues(string(models.EntityTypeCard)).Inc()
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to look up existing card")
		return
	}
	rec.ExistingCardID = id
}
