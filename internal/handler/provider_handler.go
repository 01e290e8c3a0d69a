package handler

import (
	"errors"
	"net/http"

	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	"gatepass/internal/repository"
	"gatepass/internal/services"
	"gatepass/internal/transport/httpdto"
	gatepass_errors "gatepass/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ProviderHandler struct {
	configRepo repository.ProviderConfigRepository
}

func NewProviderHandler(configRepo repository.ProviderConfigRepository) *ProviderHandler {
	return &ProviderHandler{configRepo: configRepo}
}

func (h *ProviderHandler) Get(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	channel := outbox.Channel(c.Param("channel"))
	if !validChannel(channel) {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid channel", "INVALID_REQUEST"))
		return
	}

	cfg, err := h.configRepo.Get(c.Request.Context(), userID, channel)
	if err != nil {
		if errors.Is(err, gatepass_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("no configuration", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(cfg))
}

func (h *ProviderHandler) Save(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	var req httpdto.SaveProviderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	channel := outbox.Channel(req.Channel)
	settings := providercfg.Settings{
		UserID:  userID,
		Channel: channel,
		Enabled: req.Enabled,
	}
	switch channel {
	case outbox.ChannelEmail:
		if req.Email == nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing email settings", "INVALID_REQUEST"))
			return
		}
		settings.Email = &providercfg.EmailSettings{
			Provider:     providercfg.EmailProvider(req.Email.Provider),
			FromEmail:    req.Email.FromEmail,
			FromName:     req.Email.FromName,
			SMTPHost:     req.Email.SMTPHost,
			SMTPPort:     req.Email.SMTPPort,
			SMTPUser:     req.Email.SMTPUser,
			SMTPPassword: req.Email.SMTPPass,
			APIBaseURL:   req.Email.APIBaseURL,
			APIKey:       req.Email.APIKey,
		}
	case outbox.ChannelSMS:
		if req.SMS == nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing sms settings", "INVALID_REQUEST"))
			return
		}
		settings.SMS = &providercfg.SMSSettings{
			APIBaseURL: req.SMS.APIBaseURL,
			APIKey:     req.SMS.APIKey,
			SenderID:   req.SMS.SenderID,
		}
	case outbox.ChannelWhatsApp:
		if req.WhatsApp == nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing whatsapp settings", "INVALID_REQUEST"))
			return
		}
		settings.WhatsApp = &providercfg.WhatsAppSettings{
			AccessToken:   req.WhatsApp.AccessToken,
			PhoneNumberID: req.WhatsApp.PhoneNumberID,
			TemplateName:  req.WhatsApp.TemplateName,
			TemplateLang:  req.WhatsApp.TemplateLang,
		}
	default:
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid channel", "INVALID_REQUEST"))
		return
	}

	if err := h.configRepo.Save(c.Request.Context(), settings); err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func validChannel(ch outbox.Channel) bool {
	switch ch {
	case outbox.ChannelEmail, outbox.ChannelSMS, outbox.ChannelWhatsApp:
		return true
	}
	return false
}
