package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"av-maintenance-backend/internal/mw"
	"av-maintenance-backend/internal/report"
	"av-maintenance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	reports *report.Generator
	cache   *cache.Cache
}

// NewHandler creates a new API handler. The cache may be nil when response
// caching is disabled.
func NewHandler(s store.Store, responseCache *cache.Cache) *Handler {
	return &Handler{
		store:   s,
		reports: report.NewGenerator(s),
		cache:   responseCache,
	}
}

// purgeCache invalidates cached GET responses after a mutation.
func (h *Handler) purgeCache() {
	if h.cache != nil {
		mw.Purge(h.cache)
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// respondList wraps slice results with their length.
func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": count})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// respondStoreError maps store errors onto the envelope: missing rows are
// 404, everything else is a 500.
func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "resource not found")
		return
	}
	respondError(c, http.StatusInternalServerError, err.Error())
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional int64 query parameter, nil when absent.
func queryInt64(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &v, true
}

// queryBool parses an optional boolean query parameter, nil when absent.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &v, true
}

// queryInt parses an optional int query parameter with a default.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

// queryDate parses an optional YYYY-MM-DD query parameter, nil when absent.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
