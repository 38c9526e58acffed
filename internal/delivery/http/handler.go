package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "catalogrank-backend"
	serviceVersion = "1.0.0"
)

// Recommender ranks the catalog against a free-text query
type Recommender interface {
	Recommend(ctx context.Context, catalog *domain.Catalog, query string, topK int) (*domain.RecommendationResult, error)
}

// Analyzer computes catalog statistics
type Analyzer interface {
	Summary(catalog *domain.Catalog) (*domain.AggregateSummary, error)
	PriceDistribution(catalog *domain.Catalog, bins int) (*domain.Histogram, error)
	TopValues(catalog *domain.Catalog, column string, limit int) (domain.CountTable, error)
	TopCategories(catalog *domain.Catalog, limit int) (domain.CountTable, error)
	PriceByCategory(catalog *domain.Catalog) (domain.GroupedMeanTable, error)
}

// HandlerConfig holds request defaults
type HandlerConfig struct {
	DefaultTopK          int
	DefaultBins          int
	DefaultLimit         int
	DefaultCategoryLimit int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog     *domain.Catalog
	recommender Recommender
	analyzer    Analyzer
	cfg         HandlerConfig
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler.
// catalog may be nil when loading failed; catalog endpoints then answer 503.
func NewHandler(catalog *domain.Catalog, recommender Recommender, analyzer Analyzer, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.DefaultBins <= 0 {
		cfg.DefaultBins = 20
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.DefaultCategoryLimit <= 0 {
		cfg.DefaultCategoryLimit = 15
	}

	return &Handler{
		catalog:     catalog,
		recommender: recommender,
		analyzer:    analyzer,
		cfg:         cfg,
		logger:      logging.OrNop(logger),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	rows := 0
	if h.catalog != nil {
		rows = h.catalog.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"service":      serviceName,
		"version":      serviceVersion,
		"catalog_rows": rows,
	})
}

// Chat handles recommendation requests
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	topK := h.cfg.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	result, err := h.recommender.Recommend(c.Request.Context(), h.catalog, req.Message, topK)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Summary returns catalog-wide statistics
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.analyzer.Summary(h.catalog)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type binsQuery struct {
	Bins int `form:"bins" binding:"min=1,max=1000"`
}

// PriceDistribution returns the price histogram
func (h *Handler) PriceDistribution(c *gin.Context) {
	q := binsQuery{Bins: h.cfg.DefaultBins}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bins: " + err.Error()})
		return
	}

	hist, err := h.analyzer.PriceDistribution(h.catalog, q.Bins)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

type limitQuery struct {
	Limit int `form:"limit" binding:"min=1"`
}

// TopValues returns a handler counting a categorical column under the given response key
func (h *Handler) TopValues(column, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := limitQuery{Limit: h.cfg.DefaultLimit}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + err.Error()})
			return
		}

		table, err := h.analyzer.TopValues(h.catalog, column, q.Limit)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, countRows(key, table))
	}
}

// TopCategories returns the most frequent categories
func (h *Handler) TopCategories(c *gin.Context) {
	q := limitQuery{Limit: h.cfg.DefaultCategoryLimit}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: " + err.Error()})
		return
	}

	table, err := h.analyzer.TopCategories(h.catalog, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, countRows("category", table))
}

// PriceByCategory returns mean prices of the most frequent categories
func (h *Handler) PriceByCategory(c *gin.Context) {
	table, err := h.analyzer.PriceByCategory(h.catalog)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if table == nil {
		table = domain.GroupedMeanTable{}
	}
	c.JSON(http.StatusOK, table)
}

// countRows renders a frequency table as [{key: value, "count": n}]
func countRows(key string, table domain.CountTable) []gin.H {
	out := make([]gin.H, 0, len(table))
	for _, vc := range table {
		out = append(out, gin.H{key: vc.Value, "count": vc.Count})
	}
	return out
}

// respondError maps domain errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
