// Package command implements command parsing and the ordered dispatch chain
// that routes parsed commands to their handlers.
package command

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"autoshop_telegram_bot/internal/domain"
)

// ParsedUpdate carries the command extracted from a Telegram update together
// with the routing metadata the webhook layer needs to reply.
type ParsedUpdate struct {
	Command    domain.Command
	ChatID     int64
	UserID     int64
	ChatTitle  string
	CallbackID string
	IsCallback bool
}

// Parse extracts a dispatchable command from a Telegram update. It understands
// plain and slash-prefixed message text and inline-keyboard callback data; the
// second return value is false when the update carries nothing dispatchable.
func Parse(update *models.Update) (ParsedUpdate, bool) {
	if update == nil {
		return ParsedUpdate{}, false
	}

	switch {
	case update.Message != nil:
		text := strings.TrimSpace(update.Message.Text)
		if text == "" {
			return ParsedUpdate{}, false
		}

		return ParsedUpdate{
			Command:   parseText(text),
			ChatID:    update.Message.Chat.ID,
			UserID:    userID(update.Message.From),
			ChatTitle: chatTitle(&update.Message.Chat),
		}, true
	case update.CallbackQuery != nil:
		data := strings.TrimSpace(update.CallbackQuery.Data)
		if data == "" {
			return ParsedUpdate{}, false
		}

		return ParsedUpdate{
			Command:    parseCallbackData(data),
			ChatID:     callbackChatID(update.CallbackQuery.Message),
			UserID:     update.CallbackQuery.From.ID,
			CallbackID: update.CallbackQuery.ID,
			IsCallback: true,
		}, true
	default:
		return ParsedUpdate{}, false
	}
}

// parseText turns message text into a command. A leading slash and a trailing
// @botname mention are stripped; remaining whitespace-separated tokens are
// preserved as the args parameter.
func parseText(text string) domain.Command {
	fields := strings.Fields(text)

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	params := map[string]string{}
	if len(fields) > 1 {
		params["args"] = strings.Join(fields[1:], " ")
	}

	return domain.NewCommand(name, params)
}

// parseCallbackData decodes callback data of the form
// "name:key=value:key=value". Segments without an equals sign are ignored.
func parseCallbackData(data string) domain.Command {
	segments := strings.Split(data, ":")

	params := map[string]string{}
	for _, segment := range segments[1:] {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		params[key] = strings.TrimSpace(value)
	}

	return domain.NewCommand(segments[0], params)
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func chatTitle(chat *models.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.Title != "" {
		return chat.Title
	}

	return strings.TrimSpace(chat.FirstName + " " + chat.LastName)
}

func callbackChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}
		return msg.Message.Chat.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}
		return msg.InaccessibleMessage.Chat.ID
	default:
		return 0
	}
}
