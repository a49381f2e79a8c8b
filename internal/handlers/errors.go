package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listinghub/internal/middleware"
	"listinghub/internal/security"
	"listinghub/internal/service"
)

var statusByKind = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// respondError writes the taxonomy status for err. Unclassified errors are
// logged and answered with a generic 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": err.Error()})
			return
		}
	}

	_ = c.Error(err)
	h.log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("request_id", middleware.RequestIDFrom(c)).
		Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func (h HandlerSet) identity(c *gin.Context) (security.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		h.respondError(c, service.ErrUnauthenticated)
	}
	return identity, ok
}

func (h HandlerSet) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, service.Invalidf("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func pageRequest(c *gin.Context) service.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.PageRequest{Page: page, Limit: limit}
}
