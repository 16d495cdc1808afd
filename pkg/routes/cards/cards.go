package cards

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/cardparse"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers card routes
func Register(g *echo.Group) {
	g.POST("/resolve", ResolveCard)
	g.POST("/parse", ParseCard)
}

// ResolveCard resolves one submitted card
func ResolveCard(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "cards_handler.ResolveCard")
	defer span.End()

	var card models.ProvisionalCard
	if err := c.Bind(&card); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(card); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*resolution.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	rec, err := engine.Resolve(ctx, card)
	if err != nil {
		tracing.RecordError(span, err)
		ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
		if logger != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to resolve card")
		}
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to resolve card")
	}

	return c.JSON(http.StatusOK, rec)
}

// ParseRequest is the body of a parse preview
type ParseRequest struct {
	PlayerNames string `json:"player_names" validate:"required"`
	TeamNames   string `json:"team_names"`
}

// ParseCard previews how a player and team field split and pair up, without
// touching the catalog
func ParseCard(c echo.Context) error {
	_, span := tracing.StartSpan(c.Request().Context(), "cards_handler.ParseCard")
	defer span.End()

	var req ParseRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, cardparse.BuildPlayerFieldEntries(req.PlayerNames, req.TeamNames))
}
