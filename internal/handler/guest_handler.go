package handler

import (
	"errors"
	"net/http"

	"gatepass/internal/domain/printjob"
	"gatepass/internal/services"
	"gatepass/internal/transport/httpdto"
	gatepass_errors "gatepass/pkg/errors"

	"github.com/gin-gonic/gin"
)

type GuestHandler struct {
	guestSvc *services.GuestService
}

func NewGuestHandler(guestSvc *services.GuestService) *GuestHandler {
	return &GuestHandler{guestSvc: guestSvc}
}

func (h *GuestHandler) Create(c *gin.Context) {
	var req httpdto.CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	eventID, err := parseUUID(req.EventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event_id", "INVALID_REQUEST"))
		return
	}

	g, err := h.guestSvc.Create(c.Request.Context(), services.CreateGuestRequest{
		EventID:       eventID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		ExtraAdults:   req.ExtraAdults,
		ExtraChildren: req.ExtraChildren,
	})
	if err != nil {
		writeGuestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(g))
}

func (h *GuestHandler) GetByID(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest id", "INVALID_REQUEST"))
		return
	}
	g, err := h.guestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		writeGuestError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(g))
}

func (h *GuestHandler) ListByEvent(c *gin.Context) {
	eventID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	guests, err := h.guestSvc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		writeGuestError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"guests": guests}))
}

func (h *GuestHandler) Update(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.UpdateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	update := services.UpdateGuestRequest{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		ExtraAdults:   req.ExtraAdults,
		ExtraChildren: req.ExtraChildren,
	}
	if req.EventID != nil {
		eventID, err := parseUUID(*req.EventID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event_id", "INVALID_REQUEST"))
			return
		}
		update.EventID = &eventID
	}

	g, err := h.guestSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		writeGuestError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(g))
}

func (h *GuestHandler) Delete(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest id", "INVALID_REQUEST"))
		return
	}
	if err := h.guestSvc.Delete(c.Request.Context(), id); err != nil {
		writeGuestError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *GuestHandler) CheckIn(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if req.VerifiedBy == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("verified_by is required", "INVALID_REQUEST"))
		return
	}

	result, err := h.guestSvc.CheckIn(c.Request.Context(), services.CheckInRequest{
		GuestID:      id,
		VerifiedBy:   req.VerifiedBy,
		Source:       printjob.Source(req.Source),
		EnqueuePrint: req.EnqueuePrint,
	})
	if err != nil {
		writeGuestError(c, err)
		return
	}

	resp := gin.H{"guest": result.Guest}
	if result.PrintJobID.Valid {
		resp["print_job_id"] = result.PrintJobID.UUID.String()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func writeGuestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gatepass_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
	case errors.Is(err, gatepass_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
	}
}
