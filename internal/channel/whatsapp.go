package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/config"
	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
)

const (
	whatsAppChannelName = "whatsapp"

	defaultGraphBaseURL  = "https://graph.facebook.com/v19.0"
	whatsAppHTTPTimeout  = 10 * time.Second
	maxGraphErrorBodyLen = 512
)

type whatsAppTextPayload struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

// WhatsAppChannel sends messages through the Meta Graph API.
type WhatsAppChannel struct {
	cfg        config.WhatsAppConfig
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewWhatsAppChannel constructs the channel. A disabled configuration yields a
// functioning channel whose sends all return structured failures.
func NewWhatsAppChannel(cfg config.WhatsAppConfig, logger *logrus.Entry) *WhatsAppChannel {
	if logger == nil {
		logger = logging.Logger()
	}

	return &WhatsAppChannel{
		cfg:     cfg,
		baseURL: defaultGraphBaseURL,
		httpClient: &http.Client{
			Timeout: whatsAppHTTPTimeout,
		},
		logger: logger,
	}
}

// ChannelName identifies the channel in logs and results.
func (c *WhatsAppChannel) ChannelName() string {
	return whatsAppChannelName
}

// Enabled reports whether the channel is configured with credentials.
func (c *WhatsAppChannel) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.AccessToken != "" && c.cfg.PhoneNumberID != ""
}

// SendTextMessage delivers text to one number, or broadcasts to every
// configured deploy recipient when recipient is empty.
func (c *WhatsAppChannel) SendTextMessage(ctx context.Context, message, recipient string) domain.SendResult {
	if !c.Enabled() {
		return domain.FailedSend("whatsapp channel is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(message) == "" {
		return domain.FailedSend("message is empty")
	}

	var targets []string
	if strings.TrimSpace(recipient) != "" {
		targets = []string{strings.TrimSpace(recipient)}
	} else {
		targets = c.cfg.DeployRecipients
	}

	if len(targets) == 0 {
		return domain.FailedSend("no whatsapp recipients configured")
	}

	result := domain.SendResult{TotalRecipients: len(targets)}

	for _, to := range targets {
		recipientResult := domain.RecipientResult{Recipient: to}

		if err := c.postMessage(ctx, message, to); err != nil {
			recipientResult.Error = err.Error()
			c.logger.WithFields(logging.Fields{
				"event":     "whatsapp_send_failed",
				"recipient": to,
			}).WithError(err).Warn("whatsapp message delivery failed")
		} else {
			recipientResult.Success = true
			result.SentTo++
		}

		result.Results = append(result.Results, recipientResult)
	}

	result.Success = result.SentTo > 0
	if !result.Success {
		result.Error = "all whatsapp deliveries failed"
	}

	return result
}

// SendNotification formats the deploy payload into plain text and broadcasts it.
func (c *WhatsAppChannel) SendNotification(ctx context.Context, notification domain.DeployNotification) domain.SendResult {
	return c.SendTextMessage(ctx, formatDeployPlain(notification), "")
}

// TestConnection fetches the phone-number metadata to validate credentials.
func (c *WhatsAppChannel) TestConnection(ctx context.Context) domain.ConnResult {
	if !c.Enabled() {
		return domain.ConnResult{Error: "whatsapp channel is disabled"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.cfg.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ConnResult{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ConnResult{Error: fmt.Sprintf("graph api request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ConnResult{Error: fmt.Sprintf("graph api status %d: %s", resp.StatusCode, readErrorBody(resp.Body))}
	}

	return domain.ConnResult{
		Success: true,
		Metadata: map[string]string{
			"phone_number_id": c.cfg.PhoneNumberID,
		},
	}
}

func (c *WhatsAppChannel) postMessage(ctx context.Context, message, to string) error {
	payload := whatsAppTextPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsAppTextBody{Body: message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.cfg.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("graph api status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	return nil
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxGraphErrorBodyLen))
	if err != nil {
		return "unreadable response body"
	}

	return strings.TrimSpace(string(data))
}

func formatDeployPlain(n domain.DeployNotification) string {
	var b strings.Builder

	switch n.Status {
	case domain.DeployStatusSuccess:
		b.WriteString("✅ Deploy Concluído\n")
	case domain.DeployStatusFailed:
		b.WriteString("❌ Deploy Falhou\n")
	case domain.DeployStatusStarted:
		b.WriteString("🚀 Deploy Iniciado\n")
	default:
		b.WriteString("ℹ️ Deploy\n")
	}

	if n.Project != "" {
		fmt.Fprintf(&b, "Projeto: %s\n", n.Project)
	}
	if n.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", n.Branch)
	}
	if n.Commit != "" {
		fmt.Fprintf(&b, "Commit: %s\n", n.Commit)
	}
	if n.Author != "" {
		fmt.Fprintf(&b, "Autor: %s\n", n.Author)
	}
	if n.Duration != "" {
		fmt.Fprintf(&b, "Duração: %s\n", n.Duration)
	}

	return strings.TrimRight(b.String(), "\n")
}
