package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/context"
)

func newEcho(handler echo.HandlerFunc) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context(), Logger(logger))
	e.GET("/test", handler)
	return e
}

func TestContext(t *testing.T) {
	var gotID, gotMethod, gotRoute string
	e := newEcho(func(c echo.Context) error {
		ctx := c.Request().Context()
		gotID = context.GetRequestID(ctx)
		gotMethod = context.GetMethod(ctx)
		gotRoute = context.GetRoute(ctx)
		return c.NoContent(http.StatusNoContent)
	})

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NotEmpty(t, gotID)
		assert.Equal(t, gotID, rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, http.MethodGet, gotMethod)
		assert.Equal(t, "/test", gotRoute)
	})

	t.Run("keeps caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", gotID)
		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	})
}

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "http error",
			err:         httperror.NewHTTPError(http.StatusNotFound, "import not found"),
			wantCode:    http.StatusNotFound,
			wantMessage: "import not found",
		},
		{
			name:        "echo error",
			err:         echo.NewHTTPError(http.StatusBadRequest, "bad input"),
			wantCode:    http.StatusBadRequest,
			wantMessage: "bad input",
		},
		{
			name:        "plain error is hidden",
			err:         errors.New("connection refused"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(func(c echo.Context) error { return tt.err })

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(echo.HeaderXRequestID, "req-err")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Message, tt.wantMessage)
			assert.Equal(t, "req-err", body.RequestID)
		})
	}
}

func TestContainer(t *testing.T) {
	id := "middleware-test-" + uuid.NewString()
	c, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:           id,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{Enabled: false},
	})
	require.NoError(t, err)
	require.NoError(t, ectoinject.RegisterInstance[string](c, "catalog-v2", "catalog_version"))

	newServer := func(containerID string) *echo.Echo {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		e := echo.New()
		e.HTTPErrorHandler = Error(logger)
		e.Use(Container(containerID))
		e.GET("/test", func(c echo.Context) error {
			_, version, err := ectoinject.GetNamedDependency[string](c.Request().Context(), "catalog_version")
			if err != nil {
				return err
			}
			return c.String(http.StatusOK, version)
		})
		return e
	}

	t.Run("resolves from the active container", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newServer(id).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "catalog-v2", rec.Body.String())
	})

	t.Run("unknown container fails the request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newServer("missing-"+uuid.NewString()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
