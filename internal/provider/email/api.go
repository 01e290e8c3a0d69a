package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
)

// APISender delivers email through a JSON HTTP email API using the per-user
// API key from the provider settings.
type APISender struct {
	client *resty.Client
}

func NewAPISender() *APISender {
	return &APISender{
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

type apiAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

type apiSendRequest struct {
	From        string          `json:"from"`
	FromName    string          `json:"from_name,omitempty"`
	To          string          `json:"to"`
	Subject     string          `json:"subject"`
	HTML        string          `json:"html"`
	Attachments []apiAttachment `json:"attachments,omitempty"`
}

type apiSendResponse struct {
	ID string `json:"id"`
}

func (s *APISender) Send(ctx context.Context, cfg *providercfg.EmailSettings, msg provider.EmailMessage) (provider.Result, error) {
	req := apiSendRequest{
		From:     cfg.FromEmail,
		FromName: cfg.FromName,
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
	}
	if msg.From != "" {
		req.From = msg.From
		req.FromName = ""
	}
	for _, att := range msg.Attachments {
		req.Attachments = append(req.Attachments, apiAttachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     base64.StdEncoding.EncodeToString(att.Data),
		})
	}

	var out apiSendResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		Post(cfg.APIBaseURL + "/v1/messages")
	if err != nil {
		return provider.Result{}, err
	}
	result := provider.Result{
		MessageID:   out.ID,
		RawResponse: resp.String(),
	}
	if resp.IsError() {
		return result, fmt.Errorf("email api returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}
