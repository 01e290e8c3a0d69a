package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
)

// GatewaySender sends plain-text SMS through a JSON HTTP gateway.
type GatewaySender struct {
	client *resty.Client
}

func NewGatewaySender() *GatewaySender {
	return &GatewaySender{
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

type gatewayRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	SenderID string `json:"sender_id,omitempty"`
}

type gatewayResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

func (s *GatewaySender) Send(ctx context.Context, cfg *providercfg.SMSSettings, to, body string) (provider.Result, error) {
	var out gatewayResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", cfg.APIKey).
		SetBody(gatewayRequest{To: to, Body: body, SenderID: cfg.SenderID}).
		SetResult(&out).
		Post(cfg.APIBaseURL + "/v1/sms")
	if err != nil {
		return provider.Result{}, err
	}
	result := provider.Result{
		MessageID:   out.MessageID,
		RawResponse: resp.String(),
	}
	if resp.IsError() {
		return result, fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}
