package handler

import (
	"errors"
	"net/http"
	"strconv"

	"gatepass/internal/repository"
	"gatepass/internal/services"
	"gatepass/internal/transport/httpdto"
	gatepass_errors "gatepass/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gatepass/internal/domain/outbox"
)

// NotifyHandler exposes the enqueue and audit endpoints. Enqueue responses
// report only whether the request was accepted into the outbox; delivery is
// asynchronous.
type NotifyHandler struct {
	outboxSvc *services.OutboxService
	auditRepo repository.AuditLogRepository
	eventRepo repository.EventRepository
}

func NewNotifyHandler(outboxSvc *services.OutboxService, auditRepo repository.AuditLogRepository, eventRepo repository.EventRepository) *NotifyHandler {
	return &NotifyHandler{outboxSvc: outboxSvc, auditRepo: auditRepo, eventRepo: eventRepo}
}

func (h *NotifyHandler) SendEmail(c *gin.Context) {
	var req httpdto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	result, err := h.outboxSvc.EnqueueEmail(c.Request.Context(), services.EnqueueEmailRequest{
		To:        req.To,
		FromEmail: req.FromEmail,
		Subject:   req.Subject,
		HTML:      req.HTML,
		UserID:    userID,
		EventID:   parseNullUUID(req.EventID),
		GuestID:   parseNullUUID(req.GuestID),
		QRRef:     req.QRRef,
		FlyerRef:  req.FlyerRef,
	})
	writeEnqueueResult(c, result, err)
}

func (h *NotifyHandler) SendSMS(c *gin.Context) {
	var req httpdto.SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	result, err := h.outboxSvc.EnqueueSMS(c.Request.Context(), services.EnqueueSMSRequest{
		To:      req.To,
		Body:    req.Body,
		UserID:  userID,
		EventID: parseNullUUID(req.EventID),
		GuestID: parseNullUUID(req.GuestID),
	})
	writeEnqueueResult(c, result, err)
}

func (h *NotifyHandler) SendWhatsApp(c *gin.Context) {
	var req httpdto.SendWhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	result, err := h.outboxSvc.EnqueueWhatsApp(c.Request.Context(), services.EnqueueWhatsAppRequest{
		To:         req.To,
		GuestName:  req.GuestName,
		EventName:  req.EventName,
		TicketCode: req.TicketCode,
		UserID:     userID,
		EventID:    parseNullUUID(req.EventID),
		GuestID:    parseNullUUID(req.GuestID),
	})
	writeEnqueueResult(c, result, err)
}

func (h *NotifyHandler) Resend(c *gin.Context) {
	recordID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid record id", "INVALID_REQUEST"))
		return
	}

	result, err := h.outboxSvc.Resend(c.Request.Context(), recordID)
	if err != nil {
		if errors.Is(err, gatepass_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("record not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	writeEnqueueResult(c, result, nil)
}

func (h *NotifyHandler) SendInvites(c *gin.Context) {
	eventID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.SendInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if !req.Email && !req.WhatsApp {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("no channel selected", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	evt, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, gatepass_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("event not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	summary, err := h.outboxSvc.SendEventInvites(c.Request.Context(), eventID, userID, evt.Name, services.InviteChannels{
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
	}, req.Subject, req.HTML)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendInvitesResponse{
		EmailQueued:    summary.EmailQueued,
		WhatsAppQueued: summary.WhatsAppQueued,
		Rejected:       summary.Rejected,
	}))
}

func (h *NotifyHandler) ListAudit(c *gin.Context) {
	filter := repository.AuditFilter{
		Channel:     outbox.Channel(c.Query("channel")),
		Outcome:     outbox.AuditOutcome(c.Query("outcome")),
		Destination: c.Query("destination"),
		Search:      c.Query("search"),
	}
	if raw := c.Query("guest_id"); raw != "" {
		filter.GuestID = parseNullUUID(raw)
		if !filter.GuestID.Valid {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest_id", "INVALID_REQUEST"))
			return
		}
	}
	if raw := c.Query("event_id"); raw != "" {
		filter.EventID = parseNullUUID(raw)
		if !filter.EventID.Valid {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event_id", "INVALID_REQUEST"))
			return
		}
	}
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid limit", "INVALID_REQUEST"))
		return
	}
	filter.Limit = limit

	entries, err := h.auditRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"entries": entries}))
}

func writeEnqueueResult(c *gin.Context, result services.EnqueueResult, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	resp := httpdto.EnqueueResponse{Success: result.Success, Message: result.Message}
	if result.Success {
		resp.RecordID = result.RecordID.String()
		c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(resp))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

func parseNullUUID(value string) uuid.NullUUID {
	if value == "" {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
