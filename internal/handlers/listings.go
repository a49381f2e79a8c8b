package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) ListListings(c *gin.Context) {
	page, err := h.listings.List(c.Request.Context(), pageRequest(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h HandlerSet) GetListing(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	listing, err := h.listings.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h HandlerSet) CreateListing(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	input, err := decodeCreateListing(c.Request.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), actor, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "listing created",
		"listing": listing,
	})
}

func (h HandlerSet) UpdateListing(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	patch, err := decodeListingPatch(c.Request.Body, false)
	if err != nil {
		h.respondError(c, err)
		return
	}

	listing, err := h.listings.Update(c.Request.Context(), actor, id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "listing updated",
		"listing": listing,
	})
}

func (h HandlerSet) DeleteListing(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.listings.Delete(c.Request.Context(), actor, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
