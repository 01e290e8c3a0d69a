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

type PrintHandler struct {
	printSvc *services.PrintService
}

func NewPrintHandler(printSvc *services.PrintService) *PrintHandler {
	return &PrintHandler{printSvc: printSvc}
}

// Enqueue queues a badge print. Used for manual requeues from the admin UI;
// the scanner path enqueues through check-in instead.
func (h *PrintHandler) Enqueue(c *gin.Context) {
	eventID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.EnqueuePrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	guestID, err := parseUUID(req.GuestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest_id", "INVALID_REQUEST"))
		return
	}
	source := printjob.Source(req.Source)
	if source == "" {
		source = printjob.SourceManualRequeue
	}

	job, err := h.printSvc.EnqueueJob(c.Request.Context(), services.EnqueuePrintRequest{
		EventID:     eventID,
		GuestID:     guestID,
		Source:      source,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(job))
}

func (h *PrintHandler) GetJob(c *gin.Context) {
	eventID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	jobID, err := parseUUID(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid job id", "INVALID_REQUEST"))
		return
	}

	job, err := h.printSvc.GetJob(c.Request.Context(), eventID, jobID)
	if err != nil {
		if errors.Is(err, gatepass_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("job not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(job))
}

// AcquireLock takes the per-guest print lock for an admin tab. 409 means
// another tab is printing this guest right now; retry after its TTL.
func (h *PrintHandler) AcquireLock(c *gin.Context) {
	eventID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid event id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.PrintLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	guestID, err := parseUUID(req.GuestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid guest_id", "INVALID_REQUEST"))
		return
	}
	if req.Holder == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("holder is required", "INVALID_REQUEST"))
		return
	}

	if _, err := h.printSvc.AcquirePrintLock(c.Request.Context(), eventID, guestID, req.Holder); err != nil {
		if errors.Is(err, gatepass_errors.ErrConflict) {
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse("guest is already being printed", "LOCKED"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"locked": true}))
}
