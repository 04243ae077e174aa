package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
)

// Sender delivers a single notification over some channel.
type Sender interface {
	Send(ctx context.Context, notification *domain.Notification) error
}

// LogSender writes notifications to the structured log. Used when no delivery
// channel is configured; the downstream mail/SMS provider sits behind the
// webhook in production.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, notification *domain.Notification) error {
	if notification == nil {
		return domain.ErrInvalidPayload
	}
	s.logger.Info("notification dispatched",
		zap.String("kind", string(notification.Kind)),
		zap.String("agent_id", notification.AgentID),
		zap.String("recipient", notification.Recipient))
	return nil
}

// WebhookSender posts notifications as JSON to a delivery endpoint.
type WebhookSender struct {
	url     string
	client  *fasthttp.Client
	timeout time.Duration
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		url: url,
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
	}
}

func (s *WebhookSender) Send(_ context.Context, notification *domain.Notification) error {
	if notification == nil {
		return domain.ErrInvalidPayload
	}
	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
		return err
	}
	if code := resp.StatusCode(); code >= 300 {
		return fmt.Errorf("webhook returned status %d", code)
	}
	return nil
}
