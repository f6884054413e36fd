// Package webhook hosts the HTTP surface of the bot: the Telegram webhook
// receiver and the health endpoint for container probes.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/command"
	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
)

const (
	// WebhookPath is where Telegram delivers updates.
	WebhookPath = "/api/telegram/webhook"

	// HealthPath serves the container liveness probe.
	HealthPath = "/healthz"

	maxBodyBytes      = 1 << 20
	pingTimeout       = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// Dispatcher routes a parsed command to its handler and always yields a reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, chatID int64, cmd domain.Command) domain.Response
}

// Responder delivers dispatch replies back through Telegram.
type Responder interface {
	SendResponse(ctx context.Context, chatID int64, response domain.Response) error
	AcknowledgeCallback(ctx context.Context, callbackID string) error
	NotifyTyping(ctx context.Context, chatID int64)
}

// Deduper reports whether an update ID was already processed.
type Deduper interface {
	Seen(ctx context.Context, updateID int64) (bool, error)
}

// Registrar records chats as the webhook sees them.
type Registrar interface {
	EnsureChat(ctx context.Context, chatID int64, title string) (bool, error)
}

// Pinger checks a backing store's connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles the collaborators the server needs. Dispatcher and Responder
// are required; the rest degrade gracefully when absent.
type Deps struct {
	Dispatcher Dispatcher
	Responder  Responder
	Deduper    Deduper
	Registrar  Registrar
	Mongo      Pinger
	Redis      Pinger
}

// Server owns the HTTP listener for the webhook and health endpoints.
type Server struct {
	server *http.Server
	deps   Deps
	logger *logrus.Entry
}

type ackResponse struct {
	OK        bool `json:"ok"`
	Duplicate bool `json:"duplicate,omitempty"`
}

type validationResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Code    int               `json:"code"`
}

type healthResponse struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo,omitempty"`
	Redis  string `json:"redis,omitempty"`
}

// NewServer constructs the HTTP server on the provided port.
func NewServer(port int, deps Deps, logger *logrus.Entry) (*Server, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if deps.Responder == nil {
		return nil, errors.New("responder is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		deps:   deps,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebhookPath, srv.handleWebhook)
	mux.HandleFunc(HealthPath, srv.handleHealth)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv, nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe starts the server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "http_listen",
		"addr":  s.server.Addr,
	}).Info("starting http server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "http_stopped").Info("http server stopped")
			return nil
		}

		return fmt.Errorf("http server listen: %w", err)
	}

	s.logger.WithField("event", "http_stopped").Info("http server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

// handleWebhook processes one Telegram update. Malformed payloads get a 422
// validation reply; everything past validation is acknowledged with 200 so
// Telegram stops retrying, whatever happens during processing.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeValidation(w, map[string]string{"body": "The request body could not be read."})
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}

	logging.TelegramEvent("webhook_received", logging.Fields{
		"body_bytes": len(raw),
		"headers":    headers,
		"body":       string(raw),
	}, logrus.InfoLevel)

	var envelope struct {
		UpdateID *int64 `json:"update_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.writeValidation(w, map[string]string{"body": "The request body must be valid JSON."})
		return
	}
	if envelope.UpdateID == nil {
		s.writeValidation(w, map[string]string{"update_id": "The update_id field is required."})
		return
	}

	var update models.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		s.writeValidation(w, map[string]string{"body": "The update payload is malformed."})
		return
	}
	if update.Message == nil && update.CallbackQuery == nil {
		s.writeValidation(w, map[string]string{"update": "The update must contain a message or a callback query."})
		return
	}

	if s.deps.Deduper != nil {
		seen, err := s.deps.Deduper.Seen(ctx, update.ID)
		if err == nil && seen {
			s.logger.WithFields(logging.Fields{
				"event":     "update_duplicate",
				"update_id": update.ID,
			}).Info("skipping duplicate update")

			s.writeJSON(w, http.StatusOK, ackResponse{OK: true, Duplicate: true})
			return
		}
	}

	parsed, ok := command.Parse(&update)
	if !ok {
		s.logger.WithFields(logging.Fields{
			"event":     "update_ignored",
			"update_id": update.ID,
		}).Debug("update carries nothing dispatchable")

		s.writeJSON(w, http.StatusOK, ackResponse{OK: true})
		return
	}

	if s.deps.Registrar != nil && parsed.ChatID != 0 {
		if _, err := s.deps.Registrar.EnsureChat(ctx, parsed.ChatID, parsed.ChatTitle); err != nil {
			s.logger.WithFields(logging.Fields{
				"event":   "chat_register_failed",
				"chat_id": parsed.ChatID,
			}).WithError(err).Warn("failed to record chat")
		}
	}

	s.deps.Responder.NotifyTyping(ctx, parsed.ChatID)

	response := s.deps.Dispatcher.Dispatch(ctx, parsed.ChatID, parsed.Command)

	if err := s.deps.Responder.SendResponse(ctx, parsed.ChatID, response); err != nil {
		s.logger.WithFields(logging.Fields{
			"event":     "response_send_failed",
			"update_id": update.ID,
			"chat_id":   parsed.ChatID,
			"command":   parsed.Command.Name,
		}).WithError(err).Error("failed to deliver response")
	}

	if parsed.IsCallback {
		if err := s.deps.Responder.AcknowledgeCallback(ctx, parsed.CallbackID); err != nil {
			s.logger.WithFields(logging.Fields{
				"event":       "callback_ack_failed",
				"callback_id": parsed.CallbackID,
			}).WithError(err).Warn("failed to acknowledge callback")
		}
	}

	s.writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if status := s.checkPinger(r.Context(), s.deps.Mongo, "mongo"); status != "" {
		resp.Status = "degraded"
		resp.Mongo = status
	}
	if status := s.checkPinger(r.Context(), s.deps.Redis, "redis"); status != "" {
		resp.Status = "degraded"
		resp.Redis = status
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// checkPinger returns an empty string when the dependency is healthy and the
// failure label otherwise.
func (s *Server) checkPinger(ctx context.Context, pinger Pinger, name string) string {
	if pinger == nil {
		s.logger.WithField("event", "health_"+name+"_missing").Warn(name + " checker is not configured for health endpoint")
		return "error"
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pinger.Ping(pingCtx); err != nil {
		s.logger.WithFields(logging.Fields{
			"event": "health_" + name + "_error",
		}).WithError(err).Warn(name + " ping failed during health check")
		return "error"
	}

	return ""
}

func (s *Server) writeValidation(w http.ResponseWriter, fieldErrors map[string]string) {
	s.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Status:  "error",
		Message: "Validation failed",
		Errors:  fieldErrors,
		Code:    http.StatusUnprocessableEntity,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithField("event", "http_write_error").WithError(err).Error("failed to encode response")
	}
}
