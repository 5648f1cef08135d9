package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"tgstash/internal/server/service"
	"tgstash/internal/server/store"
)

// Handler contains the HTTP handlers for the tgstash API.
type Handler struct {
	svc         *service.RelayService
	st          store.Store
	maxFileSize int64
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.RelayService, st store.Store, maxFileSize int64) *Handler {
	return &Handler{svc: svc, st: st, maxFileSize: maxFileSize}
}

// HandleUpload handles POST /api/upload.
// Accepts a multipart form with a "file" field and optional "filename" and
// "caption" text fields. Requires a valid admin token (enforced by
// middleware before this handler runs).
func (h *Handler) HandleUpload(c echo.Context) error {
	// FormFile yields the first element when the client repeats the field,
	// so handler logic never sees array-vs-scalar shapes.
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	}

	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "file exceeds maximum allowed size",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	rec, err := h.svc.Upload(
		c.Request().Context(),
		c.FormValue("filename"),
		fileHeader.Filename,
		c.FormValue("caption"),
		src,
	)
	if err != nil {
		return mapServiceError(c, err)
	}

	relayedBytes.Add(float64(fileHeader.Size))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"file":    rec,
	})
}

// HandleFiles handles GET /api/files.
// Returns all file records, newest first.
func (h *Handler) HandleFiles(c echo.Context) error {
	recs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"files": recs})
}

// HandleDownload handles GET /api/download/:id and GET /api/download?id=.
// Redirects to a time-limited delivery URL on the channel.
func (h *Handler) HandleDownload(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		id = c.QueryParam("id")
	}
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing id"})
	}

	url, err := h.svc.Download(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Redirect(http.StatusFound, url)
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including store connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	storeStatus := "connected"

	if err := h.st.Ping(c.Request().Context()); err != nil {
		status = "degraded"
		storeStatus = "error"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": status,
		"store":  storeStatus,
	})
}

// HandleStats handles GET /api/stats.
// Returns aggregate server statistics.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}
	return c.JSON(http.StatusOK, stats)
}

// HandleRoot handles GET /. Liveness banner.
func (h *Handler) HandleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "msg": "Backend is running!"})
}

// mapServiceError translates service-layer errors into appropriate HTTP
// responses. Client-facing messages stay generic; the cause is logged at
// the service layer.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "File not found"})
	case errors.Is(err, service.ErrRelayFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Upload failed"})
	case errors.Is(err, service.ErrStoreFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save file record"})
	case errors.Is(err, service.ErrResolveFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch file from channel"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
