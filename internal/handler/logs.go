package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/auth"
	"github.com/verifixia-ai/verifixia/internal/forensic"
	"github.com/verifixia-ai/verifixia/internal/model"
	"github.com/verifixia-ai/verifixia/internal/report"
	"github.com/verifixia-ai/verifixia/internal/response"
	"github.com/verifixia-ai/verifixia/internal/storage"
)

// Collecting everything for an export or report walks the store page by
// page; this caps the walk.
const maxCollected = 1000

// LogsHandler serves the forensic log API.
type LogsHandler struct {
	Store    *forensic.Store
	Archive  *storage.ArchiveClient // nil when no archive bucket is configured
	Log      zerolog.Logger
	Validate *validator.Validate
}

type liveEventRequest struct {
	EventName   string  `json:"event_name" validate:"required"`
	Prediction  string  `json:"prediction" validate:"omitempty,oneof=Real Fake"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=100"`
	ThreatLevel string  `json:"threat_level" validate:"omitempty,oneof=low medium high unknown"`
	SessionID   string  `json:"session_id"`
}

// filterFromRequest builds the query filter from query params plus the
// caller's identity. An authenticated caller only ever sees their own
// entries; anonymous requests see unowned scope.
func filterFromRequest(c echo.Context) forensic.QueryFilter {
	f := forensic.QueryFilter{
		SourceType: c.QueryParam("source_type"),
		StartDate:  c.QueryParam("start_date"),
		EndDate:    c.QueryParam("end_date"),
	}
	if ident := auth.FromContext(c); ident != nil {
		f.UserID = ident.UID
	}
	return f
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func ownerID(c echo.Context) string {
	if ident := auth.FromContext(c); ident != nil {
		return ident.UID
	}
	return ""
}

// List returns one page of forensic entries, newest first
// (GET /api/logs/forensic). Supports page, page_size, source_type,
// start_date and end_date query params.
func (h *LogsHandler) List(c echo.Context) error {
	page, err := h.Store.Query(
		c.Request().Context(),
		filterFromRequest(c),
		intQueryParam(c, "page", 1),
		intQueryParam(c, "page_size", 0),
	)
	if err != nil {
		return response.InternalError(c, "query forensic logs failed", err.Error())
	}
	return response.OK(c, map[string]any{
		"logs":      page.Items,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	}, "")
}

// Recent returns the newest entries without explicit paging
// (GET /api/logs).
func (h *LogsHandler) Recent(c echo.Context) error {
	page, err := h.Store.Query(c.Request().Context(), filterFromRequest(c), 1, intQueryParam(c, "limit", 20))
	if err != nil {
		return response.InternalError(c, "query forensic logs failed", err.Error())
	}
	return response.OK(c, map[string]any{"logs": page.Items, "total": page.Total}, "")
}

// Delete removes one forensic entry by ID (DELETE /api/logs/forensic/:id).
// An authenticated caller can only delete entries they own.
func (h *LogsHandler) Delete(c echo.Context) error {
	deleted, err := h.Store.Delete(c.Request().Context(), c.Param("id"), ownerID(c))
	if err == forensic.ErrMissingID {
		return response.BadRequest(c, "missing entry id", err.Error())
	}
	if err != nil {
		return response.InternalError(c, "delete forensic entry failed", err.Error())
	}
	if !deleted {
		return response.NotFound(c, "entry not found", "no matching entry for this caller")
	}
	return response.OK(c, map[string]any{"deleted": true, "id": c.Param("id")}, "")
}

// Clear bulk-deletes matching forensic entries
// (DELETE /api/logs/forensic). Honors the same ownership and source_type
// scoping as List.
func (h *LogsHandler) Clear(c echo.Context) error {
	count, err := h.Store.Clear(c.Request().Context(), ownerID(c), c.QueryParam("source_type"))
	if err != nil {
		return response.InternalError(c, "clear forensic logs failed", err.Error())
	}
	return response.OK(c, map[string]any{"deleted": count}, "")
}

// LiveEvent records one live-monitoring event (POST /api/logs/live).
func (h *LogsHandler) LiveEvent(c echo.Context) error {
	var req liveEventRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := h.Validate.Struct(&req); err != nil {
		return response.BadRequest(c, "invalid live event", err.Error())
	}

	entry := model.ForensicLogEntry{
		SourceType:  model.SourceLive,
		EventName:   req.EventName,
		Prediction:  model.Prediction(req.Prediction),
		Confidence:  req.Confidence,
		ThreatLevel: model.ThreatLevel(req.ThreatLevel),
		SessionID:   req.SessionID,
	}
	if ident := auth.FromContext(c); ident != nil {
		entry.UserID = ident.UID
		entry.UserEmail = ident.Email
	}

	stored, err := h.Store.Append(c.Request().Context(), entry)
	if err != nil {
		return response.InternalError(c, "record live event failed", err.Error())
	}
	return response.Created(c, stored, "")
}

// Export uploads the caller's matching entries to the archive bucket as one
// gzip JSON batch (POST /api/logs/forensic/export).
func (h *LogsHandler) Export(c echo.Context) error {
	if h.Archive == nil {
		return response.ServiceUnavailable(c, "archive not configured", "no archive bucket is configured")
	}
	entries, err := h.collect(c.Request().Context(), filterFromRequest(c))
	if err != nil {
		return response.InternalError(c, "collect forensic logs failed", err.Error())
	}
	if len(entries) == 0 {
		return response.BadRequest(c, "nothing to export", "no entries match the filter")
	}
	key, err := h.Archive.ExportBatch(c.Request().Context(), entries)
	if err != nil {
		return response.InternalError(c, "archive export failed", err.Error())
	}
	h.Log.Info().Str("key", key).Int("count", len(entries)).Msg("forensic batch archived")
	return response.OK(c, map[string]any{"key": key, "count": len(entries)}, "")
}

// ExportList lists archived batches (GET /api/logs/forensic/export).
// An optional prefix query param narrows the listing.
func (h *LogsHandler) ExportList(c echo.Context) error {
	if h.Archive == nil {
		return response.ServiceUnavailable(c, "archive not configured", "no archive bucket is configured")
	}
	prefix := c.QueryParam("prefix")
	if prefix == "" {
		prefix = "forensic/"
	}
	batches, err := h.Archive.ListBatches(c.Request().Context(), prefix)
	if err != nil {
		return response.InternalError(c, "list archived batches failed", err.Error())
	}
	return response.OK(c, map[string]any{"batches": batches}, "")
}

// ExportGet downloads one archived batch by object key
// (GET /api/logs/forensic/export/content).
func (h *LogsHandler) ExportGet(c echo.Context) error {
	if h.Archive == nil {
		return response.ServiceUnavailable(c, "archive not configured", "no archive bucket is configured")
	}
	key := c.QueryParam("key")
	if key == "" {
		return response.BadRequest(c, "missing key", "query param key is required")
	}
	entries, err := h.Archive.GetBatch(c.Request().Context(), key)
	if err != nil {
		return response.InternalError(c, "get archived batch failed", err.Error())
	}
	return response.OK(c, map[string]any{"key": key, "entries": entries}, "")
}

// Report renders the caller's matching entries as a PDF summary
// (GET /api/logs/forensic/report).
func (h *LogsHandler) Report(c echo.Context) error {
	entries, err := h.collect(c.Request().Context(), filterFromRequest(c))
	if err != nil {
		return response.InternalError(c, "collect forensic logs failed", err.Error())
	}
	pdf, err := report.Build(entries, ownerID(c), time.Now())
	if err != nil {
		return response.InternalError(c, "render report failed", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="forensic-report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// collect walks Query pages until the filter is exhausted or maxCollected is
// reached, preserving the newest-first order.
func (h *LogsHandler) collect(ctx context.Context, f forensic.QueryFilter) ([]model.ForensicLogEntry, error) {
	var out []model.ForensicLogEntry
	for page := 1; len(out) < maxCollected; page++ {
		p, err := h.Store.Query(ctx, f, page, 100)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if len(out) >= p.Total || len(p.Items) == 0 {
			break
		}
	}
	if len(out) > maxCollected {
		out = out[:maxCollected]
	}
	return out, nil
}
