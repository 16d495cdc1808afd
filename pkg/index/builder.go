package index

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrCatalogUnavailable is returned when every catalog sub-query of a build failed
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Builder loads an Index from the catalog
type Builder struct {
	logger  ectologger.Logger
	catalog catalog.Catalog
	orgs    []int64
}

// NewBuilder creates a Builder. orgs is the organization filter for players
// and teams: the configured organization plus any cross-reference
// organizations. An empty filter loads everything.
func NewBuilder(logger ectologger.Logger, cat catalog.Catalog, orgs []int64) *Builder {
	return &Builder{
		logger:  logger,
		catalog: cat,
		orgs:    slices.Clone(orgs),
	}
}

// loadTracker counts attempted and failed sub-queries across goroutines
type loadTracker struct {
	mu        sync.Mutex
	attempted int
	failed    int
	firstErr  error
}

func (t *loadTracker) record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempted++
	if err != nil {
		t.failed++
		if t.firstErr == nil {
			t.firstErr = err
		}
	}
}

// Build issues one query per distinct set year, one for colors, one batch team
// query, one player query plus one alias query (teams and players in parallel),
// then one series query per candidate set. A failed sub-query leaves that
// entity type empty; if every sub-query fails the build returns
// ErrCatalogUnavailable.
func (b *Builder) Build(ctx context.Context, demand *Demand) (*Index, error) {
	ctx, span := tracing.StartSpan(ctx, "index.Builder.Build")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}()

	log := b.logger.WithContext(ctx).WithFields(map[string]any{
		"sets":    len(demand.Sets),
		"colors":  len(demand.Colors),
		"teams":   len(demand.Teams),
		"players": len(demand.Players),
	})
	log.Debug("Building reference index")

	idx := newIndex()
	tracker := &loadTracker{}

	for _, year := range demand.Years() {
		var filter *int
		if year != 0 {
			y := year
			filter = &y
		}
		sets, ok := query(ctx, b, tracker, models.EntityTypeSet, func() ([]models.Set, error) {
			return b.catalog.FindSets(ctx, filter)
		})
		if ok {
			idx.addSets(year, sets)
		}
	}

	if len(demand.Colors) > 0 {
		if colors, ok := query(ctx, b, tracker, models.EntityTypeColor, func() ([]models.Color, error) {
			return b.catalog.FindColors(ctx)
		}); ok {
			idx.addColors(colors)
		}
	}

	var (
		wg      sync.WaitGroup
		teams   []models.Team
		players []models.PlayerWithTeams
		aliases []models.PlayerAlias
	)

	if len(demand.Teams) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			teams, _ = query(ctx, b, tracker, models.EntityTypeTeam, func() ([]models.Team, error) {
				return b.catalog.FindTeamsMatchingAny(ctx, demand.TeamCandidates(), b.orgs)
			})
		}()
	}

	if len(demand.Players) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var ok bool
			players, ok = query(ctx, b, tracker, models.EntityTypePlayer, func() ([]models.PlayerWithTeams, error) {
				return b.catalog.FindPlayersWithTeams(ctx, b.orgs)
			})
			if !ok {
				return
			}

			// aliases are useless without players
			aliases, _ = query(ctx, b, tracker, models.EntityTypePlayer, func() ([]models.PlayerAlias, error) {
				return b.catalog.FindPlayerAliases(ctx)
			})
		}()
	}

	wg.Wait()
	idx.addTeams(teams)
	idx.addPlayers(players, aliases)

	for _, setID := range b.candidateSetIDs(idx, demand) {
		if series, ok := query(ctx, b, tracker, models.EntityTypeSeries, func() ([]models.Series, error) {
			return b.catalog.FindSeriesBySet(ctx, setID)
		}); ok {
			idx.addSeries(setID, series)
		}
	}

	if tracker.attempted > 0 && tracker.failed == tracker.attempted {
		err := fmt.Errorf("%w: %w", ErrCatalogUnavailable, tracker.firstErr)
		tracing.RecordError(span, err)
		log.WithError(err).Error("Every catalog query failed")
		return nil, err
	}

	tracing.SetAttributes(span, map[string]int{
		"index.teams":    len(idx.teams),
		"index.players":  len(idx.players),
		"index.colors":   len(idx.colors),
		"index.failures": tracker.failed,
	})
	log.WithFields(map[string]any{
		"queries":  tracker.attempted,
		"failures": tracker.failed,
		"duration": time.Since(start).String(),
	}).Info("Reference index built")

	return idx, nil
}

// query runs one catalog sub-query, recording it for metrics and the
// all-failed check. Failures are logged and reported as !ok so the caller
// leaves that entity type empty.
func query[T any](ctx context.Context, b *Builder, tracker *loadTracker, entityType models.EntityType, fn func() (T, error)) (T, bool) {
	metrics.CatalogQueriesTotal.WithLabelValues(string(entityType)).Inc()
	res, err := fn()
	tracker.record(err)
	if err != nil {
		metrics.CatalogQueryFailures.WithLabelValues(string(entityType)).Inc()
		b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity_type": entityType,
		}).Warn("Catalog query failed, continuing with an empty index for this entity type")
		var zero T
		return zero, false
	}
	return res, true
}

// candidateSetIDs returns every loaded set the set matcher could select for
// the batch: same normalized name, or one name containing the other.
func (b *Builder) candidateSetIDs(idx *Index, demand *Demand) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for key := range demand.Sets {
		for _, s := range idx.SetsForYear(key.Year) {
			if s.Norm == "" {
				continue
			}
			if s.Norm != key.Name && !strings.Contains(s.Norm, key.Name) && !strings.Contains(key.Name, s.Norm) {
				continue
			}
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			ids = append(ids, s.ID)
		}
	}
	slices.Sort(ids)
	return ids
}
