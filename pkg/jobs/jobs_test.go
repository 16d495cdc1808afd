package jobs

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	fernredis "github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testStoreLifecycle(t *testing.T, s Store) {
	ctx := context.Background()
	jobID := uuid.New().String()

	_, err := s.Get(ctx, jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, s.Advance(ctx, jobID, 1), ErrJobNotFound)

	require.NoError(t, s.Create(ctx, jobID, 10))
	p, err := s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, p.JobID)
	assert.Equal(t, 10, p.Total)
	assert.Equal(t, 0, p.Processed)
	assert.Equal(t, models.JobStatusPending, p.Status)
	assert.False(t, p.StartedAt.IsZero())

	require.NoError(t, s.Start(ctx, jobID))
	require.NoError(t, s.Advance(ctx, jobID, 4))
	p, err = s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, p.Status)
	assert.Equal(t, 4, p.Processed)
	assert.False(t, p.Done())

	require.NoError(t, s.Fail(ctx, jobID, errors.New("catalog unavailable")))
	p, err = s.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, p.Status)
	assert.Equal(t, "catalog unavailable", p.Error)
	assert.Equal(t, 4, p.Processed, "processed keeps its last value")
	assert.True(t, p.Done())

	other := uuid.New().String()
	require.NoError(t, s.Create(ctx, other, 3))
	require.NoError(t, s.Complete(ctx, other, 3))
	p, err = s.Get(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, p.Status)
	assert.Equal(t, 3, p.Processed)
}

func TestMemoryStore(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())

	t.Run("duplicate id", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Create(context.Background(), "a", 1))
		assert.Error(t, s.Create(context.Background(), "a", 1))
	})

	t.Run("concurrent readers", func(t *testing.T) {
		s := NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "job", 100))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				_ = s.Advance(ctx, "job", i)
			}
		}()
		go func() {
			defer wg.Done()
			last := 0
			for i := 0; i < 100; i++ {
				p, err := s.Get(ctx, "job")
				if assert.NoError(t, err) {
					assert.GreaterOrEqual(t, p.Processed, last)
					last = p.Processed
				}
			}
		}()
		wg.Wait()
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FERN_TEST_REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("Skipping: set FERN_TEST_REDIS_ADDR to run against a redis server")
	}

	host, portStr, _ := strings.Cut(addr, ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client := fernredis.NewClient(fernredis.Config{Host: host, Port: port}, noopLogger())
	if err := client.Connect(context.Background()); err != nil {
		t.Skipf("Skipping: redis at %s is not available: %v", addr, err)
	}
	defer client.Close()

	testStoreLifecycle(t, NewRedisStore(client, time.Minute))
}

// blockingResolver resolves with a real engine once released
type blockingResolver struct {
	engine  *resolution.Engine
	release chan struct{}
	err     error
}

func (b *blockingResolver) ResolveBatch(ctx context.Context, cards []models.ProvisionalCard, opts ...resolution.BatchOption) ([]resolution.ResolutionRecord, error) {
	<-b.release
	if b.err != nil {
		return nil, b.err
	}
	return b.engine.ResolveBatch(ctx, cards, opts...)
}

func testEngine() *resolution.Engine {
	cat := &catalog.Memory{
		Sets:    []models.Set{{ID: 1, Name: "Topps", Year: 2023}},
		Series:  []models.Series{{ID: 10, SetID: 1, Name: "Topps"}},
		Teams:   []models.Team{{ID: 100, Name: "Los Angeles Angels", City: "Los Angeles", Mascot: "Angels", Abbreviation: "LAA"}},
		Players: []models.Player{{ID: 1000, FirstName: "Mike", LastName: "Trout"}},
		PlayerTeams: []models.PlayerTeam{
			{ID: 5000, PlayerID: 1000, TeamID: 100},
		},
	}
	return resolution.NewEngine(noopLogger(), cat, matching.DefaultPolicy(), nil)
}

func TestRunner_SubmitRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore()
	resolver := &blockingResolver{engine: testEngine(), release: make(chan struct{})}
	runner := NewRunner(noopLogger(), resolver, store, RunnerOptions{ProgressInterval: 1})

	jobID, err := runner.SubmitRows(ctx, []models.ImportRow{
		{SourceRow: 2, ProvisionalCard: models.ProvisionalCard{Year: 2023, SetName: "Topps", CardNumber: "1", PlayerNames: "Mike Trout", TeamNames: "Angels"}},
		{SourceRow: 3, ProvisionalCard: models.ProvisionalCard{Year: 2023, SetName: "Topps", CardNumber: "1", PlayerNames: "Shohei Ohtani", TeamNames: "Angels"}},
		{SourceRow: 4},
		{SourceRow: 5, ProvisionalCard: models.ProvisionalCard{Year: 2023, SetName: "Topps", CardNumber: "2", PlayerNames: "Mike Trout", TeamNames: "LAA"}},
	})
	require.NoError(t, err)

	// the job must outlive the request that submitted it
	cancel()

	p, err := store.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Total, "duplicates are merged and blank rows dropped")

	_, err = runner.Results(jobID)
	assert.ErrorIs(t, err, ErrJobRunning)

	close(resolver.release)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	records, err := runner.Wait(waitCtx, jobID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, records[0].Players, 2)
	assert.True(t, records[1].FullyResolved)

	rows, ok := runner.MergedRows(jobID)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mike Trout; Shohei Ohtani", rows[0].PlayerNames)

	p, err = store.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, p.Status)
	assert.Equal(t, 2, p.Processed)

	got, err := runner.Results(jobID)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestRunner_Failure(t *testing.T) {
	store := NewMemoryStore()
	resolver := &blockingResolver{release: make(chan struct{}), err: errors.New("catalog unavailable")}
	close(resolver.release)
	runner := NewRunner(noopLogger(), resolver, store, RunnerOptions{})

	jobID, err := runner.Submit(context.Background(), []models.ProvisionalCard{{SetName: "Topps", CardNumber: "1"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = runner.Wait(ctx, jobID)
	assert.EqualError(t, err, "catalog unavailable")

	p, err := store.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusError, p.Status)
	assert.Equal(t, "catalog unavailable", p.Error)
	assert.Equal(t, 0, p.Processed)
}

func TestRunner_UnknownJob(t *testing.T) {
	runner := NewRunner(noopLogger(), &blockingResolver{}, NewMemoryStore(), RunnerOptions{})

	_, err := runner.Results("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = runner.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunner_ResultTTL(t *testing.T) {
	resolver := &blockingResolver{engine: testEngine(), release: make(chan struct{})}
	close(resolver.release)
	runner := NewRunner(noopLogger(), resolver, NewMemoryStore(), RunnerOptions{ResultTTL: 10 * time.Millisecond})

	jobID, err := runner.Submit(context.Background(), []models.ProvisionalCard{{SetName: "Topps", CardNumber: "1"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = runner.Wait(ctx, jobID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := runner.Results(jobID)
		return errors.Is(err, ErrJobNotFound)
	}, time.Second, 5*time.Millisecond)
}
