package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collection-listing/internal/http/response"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/services"
)

const maxListingLimit = 200

type ListingHandler struct {
	log     *logger.Logger
	listing services.ListingService
}

func NewListingHandler(log *logger.Logger, listing services.ListingService) *ListingHandler {
	return &ListingHandler{log: log.With("handler", "ListingHandler"), listing: listing}
}

func intParam(c *gin.Context, name string, def, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", name, pkgerrors.ErrInvalidArgument)
	}
	if max > 0 && v > max {
		v = max
	}
	return v, nil
}

// GET /api/listings?path=/news&limit=20&offset=0&type=file
func (h *ListingHandler) List(c *gin.Context) {
	p, ok := collectionPath(c)
	if !ok {
		return
	}
	limit, err := intParam(c, "limit", 20, maxListingLimit)
	if err != nil {
		response.RespondAPIError(c, err, "invalid_argument")
		return
	}
	offset, err := intParam(c, "offset", 0, 0)
	if err != nil {
		response.RespondAPIError(c, err, "invalid_argument")
		return
	}
	types := []string{}
	for _, t := range c.QueryArray("type") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	listing, err := h.listing.List(c.Request.Context(), requestToken(c), p, services.ListingParams{
		Types:  types,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondAPIError(c, err, "listing_failed")
		return
	}
	response.RespondOK(c, listing)
}
