package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Extractions is the slice of extraction.Service the APIs need.
type Extractions interface {
	ProcessUpload(ctx context.Context, up extraction.Upload) extraction.Result
	GetOrder(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error)
	CaseDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error)
}

// Exporter renders stored deadlines as a workbook.
type Exporter interface {
	CaseXLSX(caseNumber string, deadlines []entity.DeadlineRecord) ([]byte, error)
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

type HTTPHandler struct {
	svc      Extractions
	exporter Exporter
	health   HealthFunc
	maxBytes int64
	logger   *slog.Logger
}

func NewHTTPHandler(svc Extractions, exporter Exporter, health HealthFunc, maxBytes int64, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{svc: svc, exporter: exporter, health: health, maxBytes: maxBytes, logger: logger}
}

// Router builds the gin engine with middleware and routes.
func (h *HTTPHandler) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(h.logger))
	router.Use(RequestLogger(h.logger))

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/extractions", h.Upload)
		v1.GET("/orders/:id", h.GetOrder)
		v1.GET("/cases/:case/deadlines", h.CaseDeadlines)
	}
	return router
}

func (h *HTTPHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)}
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}

// Upload accepts multipart form fields "file" (required) and "text" (optional,
// pre-extracted text) and returns the extraction result.
func (h *HTTPHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	var r io.Reader = file
	if h.maxBytes > 0 {
		r = io.LimitReader(file, h.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxBytes)})
		return
	}

	res := h.svc.ProcessUpload(c.Request.Context(), extraction.Upload{
		Filename: header.Filename,
		Data:     data,
		Text:     c.PostForm("text"),
	})
	c.JSON(outcomeStatus(res.Outcome), res)
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return
	}
	rec, deadlines, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": rec, "deadlines": deadlines})
}

// CaseDeadlines lists stored deadlines; ?format=xlsx returns a workbook instead.
func (h *HTTPHandler) CaseDeadlines(c *gin.Context) {
	caseNumber := c.Param("case")
	deadlines, err := h.svc.CaseDeadlines(c.Request.Context(), caseNumber)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	if strings.EqualFold(c.Query("format"), "xlsx") && h.exporter != nil {
		data, err := h.exporter.CaseXLSX(caseNumber, deadlines)
		if err != nil {
			h.logger.Error("export.xlsx.failed", "case_number", caseNumber, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-deadlines.xlsx"`, safeFilename(caseNumber)))
		c.Data(http.StatusOK, xlsxContentType, data)
		return
	}
	if deadlines == nil {
		deadlines = []entity.DeadlineRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"case_number": caseNumber, "deadlines": deadlines})
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
