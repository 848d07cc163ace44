package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

type SMSConfig struct {
	APIURL   string
	APIKey   string
	SenderID string
	Timeout  time.Duration
}

// SMSClient sends text messages through the SMS provider's HTTP API.
type SMSClient struct {
	cfg    SMSConfig
	client *fasthttp.Client
}

func NewSMSClient(cfg SMSConfig) *SMSClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMSClient{cfg: cfg, client: newClient(cfg.Timeout)}
}

type smsSendRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	SenderID string `json:"sender_id,omitempty"`
}

type smsSendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	ErrorMsg  string `json:"error_message,omitempty"`
}

// Send delivers one SMS and returns the provider message id.
func (c *SMSClient) Send(ctx context.Context, to, body string) (string, error) {
	payload, err := json.Marshal(smsSendRequest{
		To:       to,
		Body:     body,
		SenderID: c.cfg.SenderID,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal sms request")
	}

	respBody, err := doRequest(ctx, c.client, "POST", c.cfg.APIURL+"/v1/sms/send", c.cfg.APIKey, payload, c.cfg.Timeout)
	if err != nil {
		return "", err
	}

	var resp smsSendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal sms response")
	}

	if resp.Status == "FAILED" {
		return resp.MessageID, errors.Errorf("provider rejected message: %s", resp.ErrorMsg)
	}

	return resp.MessageID, nil
}
