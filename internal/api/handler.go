package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"komal-desk/internal/models"
	"komal-desk/internal/session"
	"komal-desk/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Pinger is a backing store that can be probed for readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name string
	ping Pinger
}

// ActivityLog reads the mutation journal
type ActivityLog interface {
	RecentMutations(ctx context.Context, entity string, limit int) ([]models.MutationRecord, error)
	CleanupRuns(ctx context.Context, limit int) ([]models.CleanupRun, error)
}

// Handler contains HTTP handlers
type Handler struct {
	sessions      *session.Registry
	remote        HealthChecker
	activity      ActivityLog
	limiter       *RateLimiter
	deps          []dependency
	dashboardSize int
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler. activity and limiter may be nil.
func NewHandler(sessions *session.Registry, remote HealthChecker, activity ActivityLog, limiter *RateLimiter, dashboardSize int) *Handler {
	return &Handler{
		sessions:      sessions,
		remote:        remote,
		activity:      activity,
		limiter:       limiter,
		dashboardSize: dashboardSize,
		logger:        util.GetLogger(),
	}
}

// WithDependency adds a backing store that /ready must reach
func (h *Handler) WithDependency(name string, p Pinger) *Handler {
	h.deps = append(h.deps, dependency{name: name, ping: p})
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	if h.limiter != nil {
		router.Use(h.limiter.Middleware())
	}

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/activity", h.listActivity)
		v1.GET("/bits", h.listBits)

		v1.POST("/sessions", h.openSession)

		s := v1.Group("/sessions/:sid")
		s.GET("", h.getSession)
		s.DELETE("", h.closeSession)
		s.GET("/dashboard", h.dashboard)

		h.orderRoutes(s.Group("/orders"))
		h.productRoutes(s.Group("/products"))
		h.brandRoutes(s.Group("/brands"))
		h.retailerRoutes(s.Group("/retailers"))
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the Komal API and every backing store answer
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.remote != nil {
		if err := h.remote.Health(ctx); err != nil {
			h.notReady(c, "komal", err)
			return
		}
	}
	for _, d := range h.deps {
		if err := d.ping.Ping(ctx); err != nil {
			h.notReady(c, d.name, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"sessions": h.sessions.Len(),
		"time":     time.Now().Unix(),
	})
}

func (h *Handler) notReady(c *gin.Context, dependency string, err error) {
	h.logger.Warn("Dependency not reachable", zap.String("dependency", dependency), zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":     "not ready",
		"dependency": dependency,
		"details":    err.Error(),
	})
}

func (h *Handler) listActivity(c *gin.Context) {
	if h.activity == nil {
		c.JSON(http.StatusOK, gin.H{"mutations": []models.MutationRecord{}, "cleanups": []models.CleanupRun{}})
		return
	}
	limit := queryInt(c, "limit", 50)
	mutations, err := h.activity.RecentMutations(c.Request.Context(), c.Query("entity"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	cleanups, err := h.activity.CleanupRuns(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mutations": mutations, "cleanups": cleanups})
}

func (h *Handler) listBits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bits": models.Bits()})
}

type openSessionRequest struct {
	ID string `json:"id"`
}

func (h *Handler) openSession(c *gin.Context) {
	var req openSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	s, resumed, err := h.sessions.Open(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      s.ID,
		"resumed": resumed,
		"state":   s.State(),
	})
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    s.ID,
		"state": s.State(),
	})
}

func (h *Handler) closeSession(c *gin.Context) {
	var err error
	if c.Query("forget") == "true" {
		err = h.sessions.Forget(c.Request.Context(), c.Param("sid"))
	} else {
		err = h.sessions.Close(c.Request.Context(), c.Param("sid"))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dashboard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": s.Orders.Dashboard(queryInt(c, "n", h.dashboardSize))})
}

// session resolves :sid, writing a 404 when it is unknown
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
