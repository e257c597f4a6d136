package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/usecase"
)

func (h *Handler) handleCreateSite(c *gin.Context) {
	var input usecase.CreateSiteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing JSON body"})
		return
	}

	site, err := h.sites.Create(c.Request.Context(), input)
	if err != nil {
		var vErr *errs.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Validation failed",
				"details": vErr.Issues,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create site"})
		return
	}

	c.JSON(http.StatusCreated, site)
}

func (h *Handler) handleGetSite(c *gin.Context) {
	siteID := c.Param("site_id")

	site, err := h.sites.Get(c.Request.Context(), siteID)
	if err != nil {
		if errors.Is(err, errs.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": fmt.Sprintf("Site not with id:%s not found", siteID),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to fetch site: %s", siteID),
		})
		return
	}

	c.JSON(http.StatusOK, site)
}
