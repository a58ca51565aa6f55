package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collection-listing/internal/http/response"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/resourceurl"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/services"
)

type AggregationHandler struct {
	log *logger.Logger
	agg services.AggregationService
}

func NewAggregationHandler(log *logger.Logger, agg services.AggregationService) *AggregationHandler {
	return &AggregationHandler{log: log.With("handler", "AggregationHandler"), agg: agg}
}

// collectionPath reads the required ?path= parameter.
func collectionPath(c *gin.Context) (resourceurl.Path, bool) {
	raw := c.Query("path")
	if raw == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("missing path parameter"))
		return "", false
	}
	p, err := resourceurl.ParsePath(raw)
	if err != nil {
		response.RespondAPIError(c, fmt.Errorf("%v: %w", err, pkgerrors.ErrInvalidArgument), "invalid_argument")
		return "", false
	}
	return p, true
}

func requestToken(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.Token
	}
	return ""
}

// GET /api/aggregation?path=/news
func (h *AggregationHandler) GetAggregation(c *gin.Context) {
	p, ok := collectionPath(c)
	if !ok {
		return
	}
	res, err := h.agg.Resolve(c.Request.Context(), requestToken(c), p)
	if err != nil {
		response.RespondAPIError(c, err, "aggregation_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/aggregation/paths?path=/news
func (h *AggregationHandler) GetAggregationPaths(c *gin.Context) {
	p, ok := collectionPath(c)
	if !ok {
		return
	}
	paths, found := h.agg.AggregationPathsOf(c.Request.Context(), requestToken(c), p)
	if !found {
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("collection %s not found", p))
		return
	}
	if paths == nil {
		paths = []resourceurl.Path{}
	}
	response.RespondOK(c, gin.H{
		"host":  h.agg.LocalHost().String(),
		"paths": paths,
	})
}

// DELETE /api/aggregation?path=/news
func (h *AggregationHandler) InvalidateAggregation(c *gin.Context) {
	p, ok := collectionPath(c)
	if !ok {
		return
	}
	if err := h.agg.Invalidate(c.Request.Context(), p); err != nil {
		h.log.Warn("Aggregation invalidation failed", "path", p.String(), "error", err)
		response.RespondAPIError(c, err, "invalidate_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
