package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
	"autoshop_telegram_bot/internal/menu"
)

const (
	unknownCommandMessage = "❓ Comando não reconhecido.\n\nUse o menu abaixo para navegar:"
	panicMessage          = "⚠️ *Erro Interno*\n\nAlgo deu errado ao processar o comando. Tente novamente em instantes."
)

// Handler processes one family of commands. CanHandle decides claim, Handle
// produces the reply; handlers must not panic, but the manager recovers if one
// does.
type Handler interface {
	Name() string
	Description() string
	CanHandle(cmd domain.Command) bool
	Handle(ctx context.Context, chatID int64, cmd domain.Command) domain.Response
}

// Manager routes commands through an ordered handler chain. The first handler
// whose CanHandle returns true wins; registration order is dispatch order.
type Manager struct {
	handlers []Handler
	logger   *logrus.Entry
}

// NewManager builds an empty dispatch chain.
func NewManager(logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Manager{logger: logger}
}

// Register appends a handler to the chain. Nil handlers are ignored.
func (m *Manager) Register(handlers ...Handler) {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		m.handlers = append(m.handlers, handler)
	}
}

// Handlers returns the registered handlers in dispatch order.
func (m *Manager) Handlers() []Handler {
	out := make([]Handler, len(m.handlers))
	copy(out, m.handlers)
	return out
}

// Dispatch routes a command to the first handler that claims it. Every
// command produces a response: unclaimed commands get the unknown-command
// reply with the main menu, and a panicking handler is converted into an
// internal-error reply instead of crashing the process.
func (m *Manager) Dispatch(ctx context.Context, chatID int64, cmd domain.Command) (response domain.Response) {
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		m.logger.WithFields(logging.Fields{
			"event":   "command_panic",
			"command": cmd.Name,
			"chat_id": chatID,
			"panic":   fmt.Sprint(r),
		}).Error("command handler panicked")

		response = domain.ErrorResponse(panicMessage, fmt.Sprintf("handler panic: %v", r))
		response.Keyboard = [][]domain.Button{menu.BackRow()}
	}()

	for _, handler := range m.handlers {
		if !handler.CanHandle(cmd) {
			continue
		}

		response = handler.Handle(ctx, chatID, cmd)

		m.logger.WithFields(logging.Fields{
			"event":       "command_dispatched",
			"command":     cmd.Name,
			"handler":     handler.Name(),
			"chat_id":     chatID,
			"success":     response.Success,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("command dispatched")

		return response
	}

	m.logger.WithFields(logging.Fields{
		"event":   "command_unknown",
		"command": cmd.Name,
		"chat_id": chatID,
	}).Warn("no handler claimed command")

	return domain.KeyboardResponse(unknownCommandMessage, menu.Main().Keyboard)
}
