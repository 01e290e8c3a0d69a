package whatsapp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// CloudAPISender sends WhatsApp template messages through the Cloud API.
type CloudAPISender struct {
	client *resty.Client
}

func NewCloudAPISender() *CloudAPISender {
	return &CloudAPISender{
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

type textParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bodyComponent struct {
	Type       string          `json:"type"`
	Parameters []textParameter `json:"parameters"`
}

type templatePayload struct {
	Name       string          `json:"name"`
	Language   map[string]string `json:"language"`
	Components []bodyComponent `json:"components,omitempty"`
}

type sendRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (s *CloudAPISender) SendTemplate(ctx context.Context, cfg *providercfg.WhatsAppSettings, to string, tpl provider.TemplateMessage) (provider.Result, error) {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	lang := tpl.Language
	if lang == "" {
		lang = "en"
	}

	payload := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: templatePayload{
			Name:     tpl.Name,
			Language: map[string]string{"code": lang},
		},
	}
	if len(tpl.Parameters) > 0 {
		component := bodyComponent{Type: "body"}
		for _, p := range tpl.Parameters {
			component.Parameters = append(component.Parameters, textParameter{Type: "text", Text: p})
		}
		payload.Template.Components = []bodyComponent{component}
	}

	var out sendResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(cfg.AccessToken).
		SetBody(payload).
		SetResult(&out).
		Post(fmt.Sprintf("%s/%s/messages", baseURL, cfg.PhoneNumberID))
	if err != nil {
		return provider.Result{}, err
	}
	result := provider.Result{RawResponse: resp.String()}
	if len(out.Messages) > 0 {
		result.MessageID = out.Messages[0].ID
	}
	if resp.IsError() {
		return result, fmt.Errorf("whatsapp cloud api returned %d: %s", resp.StatusCode(), resp.String())
	}
	return result, nil
}
