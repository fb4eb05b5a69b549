package rest

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/domain"
	"github.com/totegamma/wbconstraints/internal/present/rest/presenter"
	"github.com/totegamma/wbconstraints/internal/usecase"
	"github.com/totegamma/wbconstraints/internal/utils"
)

var tracer = otel.Tracer("rest")

// DefaultStatuses are returned when a check request names no status.
var DefaultStatuses = usecase.CachedStatuses

type Handler struct {
	results    usecase.ResultsSource
	parameters *usecase.ParameterUsecase
	purge      *usecase.PurgeUsecase
}

func NewHandler(
	results usecase.ResultsSource,
	parameters *usecase.ParameterUsecase,
	purge *usecase.PurgeUsecase,
) *Handler {
	return &Handler{
		results:    results,
		parameters: parameters,
		purge:      purge,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/check", h.handleCheck)
	e.GET("/api/v1/check-parameters", h.handleCheckParameters)
	e.POST("/api/v1/purge", h.handlePurge)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *Handler) handleCheck(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Rest.Handler.Check")
	defer span.End()

	var entityIDs []wbconstraints.EntityID
	for _, raw := range splitList(c.QueryParam("id")) {
		id, err := wbconstraints.ParseEntityID(raw)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		entityIDs = append(entityIDs, id)
	}

	claimIDs := splitList(c.QueryParam("claimid"))
	for _, guid := range claimIDs {
		if _, err := wbconstraints.EntityIDFromGUID(guid); err != nil {
			return presenter.BadRequest(c, err)
		}
	}

	if len(entityIDs) == 0 && len(claimIDs) == 0 {
		return presenter.BadRequestMessage(c, "one of id or claimid is required")
	}

	var constraintIDs []string
	if c.QueryParams().Has("constraintid") {
		constraintIDs = splitList(c.QueryParam("constraintid"))
		if constraintIDs == nil {
			constraintIDs = []string{}
		}
	}

	statuses := DefaultStatuses
	if raw := c.QueryParam("status"); raw != "" {
		statuses = nil
		for _, s := range splitList(raw) {
			if s == "*" {
				statuses = nil
				break
			}
			status, ok := checker.ParseStatus(s)
			if !ok || status == checker.StatusNull {
				return presenter.BadRequestMessage(c, fmt.Sprintf("unknown status %q", s))
			}
			if !slices.Contains(statuses, status) {
				statuses = append(statuses, status)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("entities", len(entityIDs)),
		attribute.Int("claims", len(claimIDs)),
	)

	results, err := h.results.GetResults(ctx, entityIDs, claimIDs, constraintIDs, statuses)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyConstraintFilter) {
			return presenter.BadRequest(c, err)
		}
		span.RecordError(err)
		return presenter.InternalError(c, err)
	}

	response := checkResponse{Results: renderResults(results.Results)}
	if caching := results.Metadata.Caching; caching.IsCached() {
		response.Cached = &cachedView{MaxAge: caching.MaximumAgeInSeconds()}
		return presenter.Cached(c, response, response.Cached.MaxAge)
	}
	return presenter.OK(c, response)
}

func (h *Handler) handleCheckParameters(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Rest.Handler.CheckParameters")
	defer span.End()

	propertyIDs := splitList(c.QueryParam("propertyid"))
	constraintIDs := splitList(c.QueryParam("constraintid"))
	if len(propertyIDs) == 0 && len(constraintIDs) == 0 {
		return presenter.BadRequestMessage(c, "one of propertyid or constraintid is required")
	}

	out := utils.OrderedKVMap[utils.OrderedKVMap[*parameterReport]]{}
	group := func(pid string) utils.OrderedKVMap[*parameterReport] {
		return out.GetOrAdd(pid, func() utils.OrderedKVMap[*parameterReport] {
			return utils.OrderedKVMap[*parameterReport]{}
		})
	}

	for _, raw := range propertyIDs {
		pid, err := wbconstraints.ParsePropertyID(raw)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		reports, err := h.parameters.CheckOnProperty(ctx, pid)
		if err != nil {
			span.RecordError(err)
			return presenter.InternalError(c, err)
		}
		ids := make([]string, 0, len(reports))
		for id := range reports {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		g := group(pid.String())
		for _, id := range ids {
			g.GetOrAdd(id, func() *parameterReport { return toParameterReport(reports[id]) })
		}
	}

	for _, id := range constraintIDs {
		perrs, err := h.parameters.CheckOnConstraintID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return presenter.NotFound(c, err.Error())
			}
			span.RecordError(err)
			return presenter.InternalError(c, err)
		}
		pid, _, _ := strings.Cut(id, "$")
		group(pid).GetOrAdd(id, func() *parameterReport { return toParameterReport(perrs) })
	}

	return presenter.OK(c, echo.Map{"wbcheckconstraintparameters": out})
}

type purgeRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handlePurge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Rest.Handler.Purge")
	defer span.End()

	var req purgeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(req.IDs) == 0 {
		return presenter.BadRequestMessage(c, "ids is required")
	}

	ids := make([]wbconstraints.EntityID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := wbconstraints.ParseEntityID(raw)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		ids = append(ids, id)
	}

	if err := h.purge.Purge(ctx, ids); err != nil {
		span.RecordError(err)
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "purged": ids})
}
