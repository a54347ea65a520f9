package api

import (
	"net/http"

	"komal-desk/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createOrder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	order, err := s.Orders.Create(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	order, err := s.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) updateOrder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var edit service.OrderEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err)
		return
	}
	order, err := s.Orders.Update(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) completeOrder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	order, err := s.Orders.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) prepareOrderCleanup(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	plan, err := s.Orders.PrepareCleanup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) confirmOrderCleanup(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	result, err := s.Orders.ConfirmCleanup(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) productBrandNames(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	names, err := s.Products.BrandNames(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": names})
}

func (h *Handler) getProduct(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	product, err := s.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	product, err := s.Products.Create(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	product, err := s.Products.Update(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	notice, err := s.Products.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice})
}

func (h *Handler) reorderProducts(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Products.Reorder(c.Request.Context(), req.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Products.View())
}

func (h *Handler) createBrand(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.BrandDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	brand, err := s.Brands.Create(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (h *Handler) updateBrand(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.BrandDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	brand, err := s.Brands.Update(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (h *Handler) deleteBrand(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Brands.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) cleanupBrands(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	result, err := s.Brands.Cleanup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) reorderBrands(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Brands.Reorder(c.Request.Context(), req.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Brands.View())
}

func (h *Handler) retailerBits(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	inUse, err := s.Retailers.BitsInUse(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bits": s.Retailers.Bits(), "inUse": inUse})
}

func (h *Handler) createRetailer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.RetailerDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	retailer, err := s.Retailers.Create(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, retailer)
}

func (h *Handler) updateRetailer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var draft service.RetailerDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	retailer, err := s.Retailers.Update(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, retailer)
}

func (h *Handler) deleteRetailer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Retailers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
