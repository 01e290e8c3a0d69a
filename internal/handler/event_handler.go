package handler

import (
	"errors"
	"net/http"
	"time"

	"gatepass/internal/domain/event"
	"gatepass/internal/repository"
	"gatepass/internal/services"
	"gatepass/internal/transport/httpdto"
	gatepass_errors "gatepass/pkg/errors"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventRepo repository.EventRepository
	statsSvc  *services.StatsService
}

func NewEventHandler(eventRepo repository.EventRepository, statsSvc *services.StatsService) *EventHandler {
	return &EventHandler{eventRepo: eventRepo, statsSvc: statsSvc}
}

func (h *EventHandler) Create(c *gin.Context) {
	var req httpdto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("event name is required", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	evt := event.Event{
		UserID: userID,
		Name:   req.Name,
		Venue:  req.Venue,
	}
	if req.StartsAt != "" {
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid starts_at", "INVALID_REQUEST"))
			return
		}
		evt.StartsAt = &startsAt
	}

	if err := h.eventRepo.Create(c.Request.Context(), &evt); err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(evt))
}

func (h *EventHandler) GetByID(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	evt, err := h.eventRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gatepass_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("event not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(evt))
}

func (h *EventHandler) Stats(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}

	stats, err := h.statsSvc.GetEventStats(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.EventStatsResponse{
		EventID:            stats.EventID.String(),
		TotalGuests:        stats.TotalGuests,
		CheckedInGuests:    stats.CheckedInGuests,
		Remaining:          stats.Remaining(),
		AttendeesTotal:     stats.AttendeesTotal,
		AttendeesCheckedIn: stats.AttendeesCheckedIn,
	}))
}
