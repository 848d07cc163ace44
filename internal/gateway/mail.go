package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

type MailConfig struct {
	APIURL  string
	APIKey  string
	From    string
	Timeout time.Duration
}

// MailClient sends email through the transactional mail provider's HTTP API.
type MailClient struct {
	cfg    MailConfig
	client *fasthttp.Client
}

func NewMailClient(cfg MailConfig) *MailClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MailClient{cfg: cfg, client: newClient(cfg.Timeout)}
}

type mailSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send delivers one email. A non-2xx provider response is a hard failure.
func (c *MailClient) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailSendRequest{
		From:    c.cfg.From,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal mail request")
	}

	_, err = doRequest(ctx, c.client, "POST", c.cfg.APIURL+"/v1/mail/send", c.cfg.APIKey, payload, c.cfg.Timeout)
	return err
}
