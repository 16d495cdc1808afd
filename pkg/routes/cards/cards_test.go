package cards

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/container"
	"github.com/Ramsey-B/fern/pkg/jobs"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

func newServer(t *testing.T, cat catalog.Catalog) *echo.Echo {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	engine := resolution.NewEngine(logger, cat, matching.DefaultPolicy(), nil)
	store := jobs.NewMemoryStore()
	id := "cards-test-" + uuid.NewString()
	_, err := container.New(id, container.Dependencies{
		Logger: logger,
		Engine: engine,
		Runner: jobs.NewRunner(logger, engine, store, jobs.RunnerOptions{}),
		Store:  store,
	})
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Container(id))
	Register(e.Group("/api/v1/cards"))
	return e
}

func testCatalog() *catalog.Memory {
	return &catalog.Memory{
		Sets:        []models.Set{{ID: 1, Name: "Topps Chrome", Year: 2023}},
		Series:      []models.Series{{ID: 10, SetID: 1, Name: "Topps Chrome"}},
		Teams:       []models.Team{{ID: 100, Name: "Los Angeles Angels", City: "Los Angeles", Mascot: "Angels", Abbreviation: "LAA"}},
		Players:     []models.Player{{ID: 1000, FirstName: "Mike", LastName: "Trout"}},
		PlayerTeams: []models.PlayerTeam{{ID: 5000, PlayerID: 1000, TeamID: 100}},
	}
}

func post(t *testing.T, e *echo.Echo, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Resolve(t *testing.T) {
	e := newServer(t, testCatalog())

	rec := post(t, e, "/api/v1/cards/resolve", models.ProvisionalCard{
		Year:        2023,
		SetName:     "Topps Chrome",
		CardNumber:  "27",
		PlayerNames: "Mike Trout",
		TeamNames:   "Angels",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got resolution.ResolutionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.FullyResolved)
	require.Len(t, got.Players, 1)
	require.NotNil(t, got.Players[0].Selected)
	assert.Equal(t, int64(1000), got.Players[0].Selected.ID)
}

func TestHandler_Resolve_Errors(t *testing.T) {
	t.Run("missing card number", func(t *testing.T) {
		rec := post(t, newServer(t, testCatalog()), "/api/v1/cards/resolve", map[string]any{"set_name": "Topps Chrome"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cards/resolve", bytes.NewBufferString("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		newServer(t, testCatalog()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Parse(t *testing.T) {
	rec := post(t, newServer(t, testCatalog()), "/api/v1/cards/parse", ParseRequest{
		PlayerNames: "Mike Trout / Shohei Ohtani",
		TeamNames:   "Angels",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.PlayerFieldEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Mike Trout", entries[0].PlayerName)
	assert.Equal(t, "Shohei Ohtani", entries[1].PlayerName)

	rec = post(t, newServer(t, testCatalog()), "/api/v1/cards/parse", ParseRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Resolve_MissingEngine(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	id := "cards-empty-" + uuid.NewString()
	_, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:           id,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{Enabled: false},
	})
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Container(id))
	Register(e.Group("/api/v1/cards"))

	rec := post(t, e, "/api/v1/cards/resolve", models.ProvisionalCard{
		Year:        2023,
		SetName:     "Topps Chrome",
		CardNumber:  "27",
		PlayerNames: "Mike Trout",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "service unavailable")
}
