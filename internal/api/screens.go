package api

import (
	"context"
	"net/http"

	"komal-desk/internal/derive"
	"komal-desk/internal/models"
	"komal-desk/internal/service"
	"komal-desk/internal/session"

	"github.com/gin-gonic/gin"
)

// lister is what every screen offers for browsing
type lister[T any, F any] interface {
	View() service.View[T, F]
	Reload(ctx context.Context) error
	SetSearch(text string)
	FlushSearch()
}

// filterer is the filter dialog of a screen
type filterer[F any] interface {
	OpenFilters() F
	StageFilter(f F) error
	ClearFilters() error
	DismissFilters()
	ApplyFilters(ctx context.Context) error
}

type searchRequest struct {
	Text  string `json:"text"`
	Flush bool   `json:"flush"`
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// listRoutes registers the browse endpoints of a screen
func listRoutes[T any, F any](h *Handler, g *gin.RouterGroup, pick func(*session.Session) lister[T, F]) {
	g.GET("", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, pick(s).View())
	})

	g.POST("/reload", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		screen := pick(s)
		if err := screen.Reload(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, screen.View())
	})

	g.PUT("/search", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		screen := pick(s)
		screen.SetSearch(req.Text)
		if req.Flush {
			screen.FlushSearch()
		}
		c.JSON(http.StatusAccepted, screen.View())
	})
}

// filterRoutes registers the filter dialog endpoints of a screen
func filterRoutes[T any, F any](h *Handler, g *gin.RouterGroup, pick func(*session.Session) lister[T, F], dialog func(*session.Session) filterer[F]) {
	f := g.Group("/filters")

	f.POST("/open", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"staged": dialog(s).OpenFilters()})
	})

	f.PUT("/staged", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		var staged F
		if err := c.ShouldBindJSON(&staged); err != nil {
			badRequest(c, err)
			return
		}
		if err := dialog(s).StageFilter(staged); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pick(s).View())
	})

	f.POST("/clear", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		if err := dialog(s).ClearFilters(); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pick(s).View())
	})

	f.POST("/apply", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		if err := dialog(s).ApplyFilters(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pick(s).View())
	})

	f.POST("/dismiss", func(c *gin.Context) {
		s, ok := h.session(c)
		if !ok {
			return
		}
		dialog(s).DismissFilters()
		c.JSON(http.StatusOK, pick(s).View())
	})
}

func (h *Handler) orderRoutes(g *gin.RouterGroup) {
	pick := func(s *session.Session) lister[models.Order, derive.OrderFilter] { return s.Orders }
	listRoutes(h, g, pick)
	filterRoutes(h, g, pick, func(s *session.Session) filterer[derive.OrderFilter] { return s.Orders })

	g.POST("", h.createOrder)
	g.POST("/cleanup", h.prepareOrderCleanup)
	g.POST("/cleanup/:planId/confirm", h.confirmOrderCleanup)
	g.GET("/:id", h.getOrder)
	g.PUT("/:id", h.updateOrder)
	g.POST("/:id/complete", h.completeOrder)
	g.DELETE("/:id", h.deleteOrder)
}

func (h *Handler) productRoutes(g *gin.RouterGroup) {
	pick := func(s *session.Session) lister[models.Product, derive.ProductFilter] { return s.Products }
	listRoutes(h, g, pick)
	filterRoutes(h, g, pick, func(s *session.Session) filterer[derive.ProductFilter] { return s.Products })

	g.GET("/brand-names", h.productBrandNames)
	g.POST("", h.createProduct)
	g.PUT("/order", h.reorderProducts)
	g.GET("/:id", h.getProduct)
	g.PUT("/:id", h.updateProduct)
	g.DELETE("/:id", h.deleteProduct)
}

func (h *Handler) brandRoutes(g *gin.RouterGroup) {
	listRoutes(h, g, func(s *session.Session) lister[models.Brand, service.NoFilter] { return s.Brands })

	g.POST("", h.createBrand)
	g.POST("/cleanup", h.cleanupBrands)
	g.PUT("/order", h.reorderBrands)
	g.PUT("/:id", h.updateBrand)
	g.DELETE("/:id", h.deleteBrand)
}

func (h *Handler) retailerRoutes(g *gin.RouterGroup) {
	pick := func(s *session.Session) lister[models.Retailer, derive.RetailerFilter] { return s.Retailers }
	listRoutes(h, g, pick)
	filterRoutes(h, g, pick, func(s *session.Session) filterer[derive.RetailerFilter] { return s.Retailers })

	g.GET("/bits", h.retailerBits)
	g.POST("", h.createRetailer)
	g.PUT("/:id", h.updateRetailer)
	g.DELETE("/:id", h.deleteRetailer)
}
