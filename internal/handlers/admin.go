package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminListListings pages over every listing, expired ones included.
func (h HandlerSet) AdminListListings(c *gin.Context) {
	page, err := h.admin.ListListings(c.Request.Context(), pageRequest(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h HandlerSet) AdminUpdateListing(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	patch, err := decodeListingPatch(c.Request.Body, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	listing, err := h.admin.UpdateListing(c.Request.Context(), actor, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "listing updated",
		"listing": listing,
	})
}

func (h HandlerSet) AdminDeleteListing(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.admin.DeleteListing(c.Request.Context(), actor, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
