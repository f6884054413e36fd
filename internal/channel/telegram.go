package channel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/config"
	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
)

const telegramChannelName = "telegram"

// telegramAPI captures the subset of the Bot API client the channel relies on,
// allowing lightweight stubbing in tests.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	GetMe(ctx context.Context) (*models.User, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// probeFileID is the sentinel file ID used by ProbeFileDownload. The Bot API
// rejects it as a bad request, which still proves the endpoint and token work.
const probeFileID = "voice-probe"

// createBot is overridable for tests.
var createBot = func(token string) (telegramAPI, error) {
	return bot.New(token, bot.WithSkipGetMe())
}

// TelegramChannel sends messages through the Telegram Bot API.
type TelegramChannel struct {
	cfg    config.TelegramConfig
	api    telegramAPI
	logger *logrus.Entry
}

// NewTelegramChannel constructs the channel. A disabled configuration yields a
// functioning channel whose sends all return structured failures.
func NewTelegramChannel(cfg config.TelegramConfig, logger *logrus.Entry) (*TelegramChannel, error) {
	if logger == nil {
		logger = logging.Logger()
	}

	ch := &TelegramChannel{
		cfg:    cfg,
		logger: logger,
	}

	if !cfg.Enabled {
		return ch, nil
	}

	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, errors.New("telegram bot token is required when the channel is enabled")
	}

	api, err := createBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}
	ch.api = api

	return ch, nil
}

// ChannelName identifies the channel in logs and results.
func (c *TelegramChannel) ChannelName() string {
	return telegramChannelName
}

// Enabled reports whether the channel is configured and has credentials.
func (c *TelegramChannel) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.api != nil
}

// SendTextMessage delivers text to one chat, or broadcasts to every configured
// recipient when recipient is empty.
func (c *TelegramChannel) SendTextMessage(ctx context.Context, message, recipient string) domain.SendResult {
	if !c.Enabled() {
		return domain.FailedSend("telegram channel is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(message) == "" {
		return domain.FailedSend("message is empty")
	}

	var targets []int64

	if strings.TrimSpace(recipient) != "" {
		chatID, err := strconv.ParseInt(strings.TrimSpace(recipient), 10, 64)
		if err != nil {
			return domain.FailedSend(fmt.Sprintf("invalid telegram recipient %q", recipient))
		}
		targets = []int64{chatID}
	} else {
		targets = c.cfg.Recipients
	}

	if len(targets) == 0 {
		return domain.FailedSend("no telegram recipients configured")
	}

	result := domain.SendResult{TotalRecipients: len(targets)}

	for _, chatID := range targets {
		_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      message,
			ParseMode: models.ParseModeMarkdown,
		})

		recipientResult := domain.RecipientResult{Recipient: strconv.FormatInt(chatID, 10)}
		if err != nil {
			recipientResult.Error = err.Error()
			c.logger.WithFields(logging.Fields{
				"event":   "telegram_send_failed",
				"chat_id": chatID,
			}).WithError(err).Warn("telegram message delivery failed")
		} else {
			recipientResult.Success = true
			result.SentTo++
		}

		result.Results = append(result.Results, recipientResult)
	}

	result.Success = result.SentTo > 0
	if !result.Success {
		result.Error = "all telegram deliveries failed"
	}

	return result
}

// SendNotification formats the deploy payload into Markdown and broadcasts it.
func (c *TelegramChannel) SendNotification(ctx context.Context, notification domain.DeployNotification) domain.SendResult {
	return c.SendTextMessage(ctx, formatDeployMarkdown(notification), "")
}

// TestConnection calls getMe to validate the token without messaging anyone.
func (c *TelegramChannel) TestConnection(ctx context.Context) domain.ConnResult {
	if !c.Enabled() {
		return domain.ConnResult{Error: "telegram channel is disabled"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	me, err := c.api.GetMe(ctx)
	if err != nil {
		return domain.ConnResult{Error: fmt.Sprintf("getMe: %v", err)}
	}

	return domain.ConnResult{
		Success: true,
		Metadata: map[string]string{
			"bot_id":   strconv.FormatInt(me.ID, 10),
			"username": me.Username,
		},
	}
}

// ProbeFileDownload verifies that the file-download API used for voice
// messages is reachable with the configured token. Only transport and
// authorization failures count as unreachable; the expected bad-request
// rejection of the sentinel file ID does not.
func (c *TelegramChannel) ProbeFileDownload(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("telegram channel is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := c.api.GetFile(ctx, &bot.GetFileParams{FileID: probeFileID}); err != nil && !errors.Is(err, bot.ErrorBadRequest) {
		return fmt.Errorf("getFile: %w", err)
	}

	return nil
}

// SendResponse delivers a dispatch response to one chat, attaching the inline
// keyboard when present.
func (c *TelegramChannel) SendResponse(ctx context.Context, chatID int64, response domain.Response) error {
	if !c.Enabled() {
		return errors.New("telegram channel is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if chatID == 0 {
		return errors.New("chat id is required")
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      response.Message,
		ParseMode: models.ParseModeMarkdown,
	}

	if len(response.Keyboard) > 0 {
		params.ReplyMarkup = buildInlineKeyboard(response.Keyboard)
	}

	if _, err := c.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send response: %w", err)
	}

	return nil
}

// AcknowledgeCallback answers a callback query so the client stops showing the
// loading spinner.
func (c *TelegramChannel) AcknowledgeCallback(ctx context.Context, callbackID string) error {
	if !c.Enabled() {
		return errors.New("telegram channel is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(callbackID) == "" {
		return errors.New("callback id is required")
	}

	if _, err := c.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	}); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return nil
}

// NotifyTyping shows the typing indicator while a report is being generated.
// Failures are logged and swallowed; the indicator is cosmetic.
func (c *TelegramChannel) NotifyTyping(ctx context.Context, chatID int64) {
	if !c.Enabled() || chatID == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := c.api.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	}); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "telegram_chat_action_failed",
			"chat_id": chatID,
		}).WithError(err).Debug("failed to send typing action")
	}
}

func buildInlineKeyboard(keyboard [][]domain.Button) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(keyboard))

	for _, row := range keyboard {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         button.Text,
				CallbackData: button.CallbackData,
			})
		}
		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func formatDeployMarkdown(n domain.DeployNotification) string {
	var b strings.Builder

	switch n.Status {
	case domain.DeployStatusSuccess:
		b.WriteString("✅ *Deploy Concluído*\n\n")
	case domain.DeployStatusFailed:
		b.WriteString("❌ *Deploy Falhou*\n\n")
	case domain.DeployStatusStarted:
		b.WriteString("🚀 *Deploy Iniciado*\n\n")
	default:
		b.WriteString("ℹ️ *Deploy*\n\n")
	}

	if n.Project != "" {
		fmt.Fprintf(&b, "📦 Projeto: %s\n", n.Project)
	}
	if n.Branch != "" {
		fmt.Fprintf(&b, "🌿 Branch: %s\n", n.Branch)
	}
	if n.Commit != "" {
		fmt.Fprintf(&b, "🔖 Commit: `%s`\n", n.Commit)
	}
	if n.Author != "" {
		fmt.Fprintf(&b, "👤 Autor: %s\n", n.Author)
	}
	if n.Duration != "" {
		fmt.Fprintf(&b, "⏱ Duração: %s\n", n.Duration)
	}

	return strings.TrimRight(b.String(), "\n")
}
