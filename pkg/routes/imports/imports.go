package imports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/importer"
	"github.com/Ramsey-B/fern/pkg/jobs"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers import routes
func Register(g *echo.Group) {
	g.POST("", CreateImport)
	g.POST("/upload", UploadImport)
	g.GET("/:id", GetImportProgress)
	g.GET("/:id/results", GetImportResults)
}

// CreateRequest is a pasted table, already split into rows
type CreateRequest struct {
	Rows []models.ImportRow `json:"rows" validate:"required,min=1"`
}

// CreateResponse identifies the started job
type CreateResponse struct {
	JobID string `json:"job_id"`
	Rows  int    `json:"rows"`
}

// CreateImport starts an import from JSON rows
func CreateImport(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.CreateImport")
	defer span.End()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return submit(c, ctx, req.Rows)
}

// UploadImport starts an import from an xlsx checklist. Form fields set_name,
// series_name, year and sheet fill in values the sheet leaves out.
func UploadImport(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.UploadImport")
	defer span.End()

	ctx, limits, err := ectoinject.GetContext[jobs.Limits](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if limits.MaxUploadBytes > 0 && fh.Size > limits.MaxUploadBytes {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", limits.MaxUploadBytes))
	}

	defaults := importer.SheetDefaults{
		SetName:    c.FormValue("set_name"),
		SeriesName: c.FormValue("series_name"),
		Sheet:      c.FormValue("sheet"),
	}
	if y := c.FormValue("year"); y != "" {
		defaults.Year, err = strconv.Atoi(y)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "year must be a number")
		}
	}

	f, err := fh.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer f.Close()

	rows, err := importer.ReadSheet(f, defaults)
	if err != nil {
		tracing.RecordError(span, err)
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(rows) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "checklist has no rows")
	}

	return submit(c, ctx, rows)
}

func submit(c echo.Context, ctx context.Context, rows []models.ImportRow) error {
	ctx, limits, err := ectoinject.GetContext[jobs.Limits](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	if limits.MaxRows > 0 && len(rows) > limits.MaxRows {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("import exceeds %d rows", limits.MaxRows))
	}

	ctx, runner, err := ectoinject.GetContext[*jobs.Runner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	jobID, err := runner.SubmitRows(ctx, rows)
	if err != nil {
		ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
		if logger != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to start import")
		}
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start import")
	}

	return c.JSON(http.StatusAccepted, CreateResponse{JobID: jobID, Rows: len(rows)})
}

// GetImportProgress returns the polling view of a job
func GetImportProgress(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.GetImportProgress")
	defer span.End()

	ctx, store, err := ectoinject.GetContext[jobs.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	p, err := store.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return httperror.NewHTTPError(http.StatusNotFound, "import not found")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import progress")
	}

	return c.JSON(http.StatusOK, p)
}

// ResultRow pairs a merged import row with its resolution
type ResultRow struct {
	SourceRow int                          `json:"source_row"`
	Record    *resolution.ResolutionRecord `json:"record"`
}

// ResultsResponse is the outcome of a finished import
type ResultsResponse struct {
	JobID string      `json:"job_id"`
	Rows  []ResultRow `json:"rows"`
}

// GetImportResults returns the records of a finished import
func GetImportResults(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "imports_handler.GetImportResults")
	defer span.End()

	_, runner, err := ectoinject.GetContext[*jobs.Runner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	jobID := c.Param("id")
	records, err := runner.Results(jobID)
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, "import not found")
	case errors.Is(err, jobs.ErrJobRunning):
		return httperror.NewHTTPError(http.StatusConflict, "import is still running")
	case err != nil:
		return httperror.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	rows, _ := runner.MergedRows(jobID)
	resp := ResultsResponse{JobID: jobID, Rows: make([]ResultRow, len(records))}
	for i := range records {
		resp.Rows[i].Record = &records[i]
		if i < len(rows) {
			resp.Rows[i].SourceRow = rows[i].SourceRow
		}
	}

	return c.JSON(http.StatusOK, resp)
}
