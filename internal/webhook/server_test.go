package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
)

type stubDispatcher struct {
	response domain.Response
	calls    []domain.Command
	chatIDs  []int64
}

func (s *stubDispatcher) Dispatch(_ context.Context, chatID int64, cmd domain.Command) domain.Response {
	s.calls = append(s.calls, cmd)
	s.chatIDs = append(s.chatIDs, chatID)
	return s.response
}

type stubResponder struct {
	sendErr  error
	ackErr   error
	sent     []domain.Response
	sentTo   []int64
	acked    []string
	typingTo []int64
}

func (s *stubResponder) SendResponse(_ context.Context, chatID int64, response domain.Response) error {
	s.sent = append(s.sent, response)
	s.sentTo = append(s.sentTo, chatID)
	return s.sendErr
}

func (s *stubResponder) AcknowledgeCallback(_ context.Context, callbackID string) error {
	s.acked = append(s.acked, callbackID)
	return s.ackErr
}

func (s *stubResponder) NotifyTyping(_ context.Context, chatID int64) {
	s.typingTo = append(s.typingTo, chatID)
}

type stubDeduper struct {
	seen bool
	err  error
	ids  []int64
}

func (s *stubDeduper) Seen(_ context.Context, updateID int64) (bool, error) {
	s.ids = append(s.ids, updateID)
	return s.seen, s.err
}

type stubRegistrar struct {
	err   error
	chats []int64
}

func (s *stubRegistrar) EnsureChat(_ context.Context, chatID int64, _ string) (bool, error) {
	s.chats = append(s.chats, chatID)
	return true, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	if deps.Dispatcher == nil {
		deps.Dispatcher = &stubDispatcher{response: domain.TextResponse("ok")}
	}
	if deps.Responder == nil {
		deps.Responder = &stubResponder{}
	}

	server, err := NewServer(0, deps, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	return server
}

func postWebhook(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeValidation(t *testing.T, rr *httptest.ResponseRecorder) validationResponse {
	t.Helper()

	var payload validationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode validation body: %v", err)
	}
	return payload
}

func TestWebhookRejectsNonPost(t *testing.T) {
	server := newTestServer(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, WebhookPath, nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected HTTP 405, got %d", rr.Code)
	}
}

func TestWebhookMissingUpdateID(t *testing.T) {
	server := newTestServer(t, Deps{})

	rr := postWebhook(t, server, `{"message":{"text":"/start","chat":{"id":42}}}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected HTTP 422, got %d", rr.Code)
	}

	payload := decodeValidation(t, rr)
	if payload.Status != "error" || payload.Message != "Validation failed" || payload.Code != 422 {
		t.Fatalf("unexpected validation payload: %+v", payload)
	}
	if _, ok := payload.Errors["update_id"]; !ok {
		t.Fatalf("expected update_id error, got %+v", payload.Errors)
	}
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	server := newTestServer(t, Deps{})

	rr := postWebhook(t, server, `{not json`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected HTTP 422, got %d", rr.Code)
	}
	if _, ok := decodeValidation(t, rr).Errors["body"]; !ok {
		t.Fatalf("expected body error")
	}
}

func TestWebhookRejectsUpdateWithoutPayload(t *testing.T) {
	server := newTestServer(t, Deps{})

	rr := postWebhook(t, server, `{"update_id":10}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected HTTP 422, got %d", rr.Code)
	}
	if _, ok := decodeValidation(t, rr).Errors["update"]; !ok {
		t.Fatalf("expected update error")
	}
}

func TestWebhookDispatchesMessage(t *testing.T) {
	dispatcher := &stubDispatcher{response: domain.TextResponse("hello")}
	responder := &stubResponder{}
	deduper := &stubDeduper{}
	registrar := &stubRegistrar{}

	server := newTestServer(t, Deps{
		Dispatcher: dispatcher,
		Responder:  responder,
		Deduper:    deduper,
		Registrar:  registrar,
	})

	rr := postWebhook(t, server, `{"update_id":10,"message":{"text":"/status","chat":{"id":42,"title":"Oficina"}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}

	if len(dispatcher.calls) != 1 || dispatcher.calls[0].Name != "status" {
		t.Fatalf("expected status dispatch, got %+v", dispatcher.calls)
	}
	if len(responder.sent) != 1 || responder.sent[0].Message != "hello" {
		t.Fatalf("expected response delivery, got %+v", responder.sent)
	}
	if len(responder.typingTo) != 1 || responder.typingTo[0] != 42 {
		t.Fatalf("expected typing indicator for chat 42, got %+v", responder.typingTo)
	}
	if len(deduper.ids) != 1 || deduper.ids[0] != 10 {
		t.Fatalf("expected dedup check for update 10, got %+v", deduper.ids)
	}
	if len(registrar.chats) != 1 || registrar.chats[0] != 42 {
		t.Fatalf("expected chat registration, got %+v", registrar.chats)
	}
	if len(responder.acked) != 0 {
		t.Fatalf("plain message must not acknowledge callbacks")
	}
}

func TestWebhookAcknowledgesCallback(t *testing.T) {
	responder := &stubResponder{}
	server := newTestServer(t, Deps{Responder: responder})

	body := `{"update_id":11,"callback_query":{"id":"cb-9","from":{"id":7},"data":"menu_services","message":{"chat":{"id":42}}}}`
	rr := postWebhook(t, server, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if len(responder.acked) != 1 || responder.acked[0] != "cb-9" {
		t.Fatalf("expected callback acknowledgement, got %+v", responder.acked)
	}
}

func TestWebhookSkipsDuplicates(t *testing.T) {
	dispatcher := &stubDispatcher{}
	server := newTestServer(t, Deps{
		Dispatcher: dispatcher,
		Deduper:    &stubDeduper{seen: true},
	})

	rr := postWebhook(t, server, `{"update_id":12,"message":{"text":"/start","chat":{"id":42}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("duplicate must still be acknowledged, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"ok":true,"duplicate":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("duplicate update must not be dispatched")
	}
}

func TestWebhookDedupFailureStillProcesses(t *testing.T) {
	dispatcher := &stubDispatcher{}
	server := newTestServer(t, Deps{
		Dispatcher: dispatcher,
		Deduper:    &stubDeduper{err: errors.New("redis down")},
	})

	rr := postWebhook(t, server, `{"update_id":13,"message":{"text":"/start","chat":{"id":42}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("dedup failure must not block processing")
	}
}

func TestWebhookAcksWhenDeliveryFails(t *testing.T) {
	responder := &stubResponder{sendErr: errors.New("telegram down")}
	server := newTestServer(t, Deps{Responder: responder})

	rr := postWebhook(t, server, `{"update_id":14,"message":{"text":"/start","chat":{"id":42}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("delivery failure must still return 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestWebhookRegistrarFailureStillProcesses(t *testing.T) {
	dispatcher := &stubDispatcher{}
	server := newTestServer(t, Deps{
		Dispatcher: dispatcher,
		Registrar:  &stubRegistrar{err: errors.New("mongo down")},
	})

	rr := postWebhook(t, server, `{"update_id":15,"message":{"text":"/start","chat":{"id":42}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("registrar failure must not block processing")
	}
}

func TestWebhookIgnoresNonDispatchableUpdate(t *testing.T) {
	dispatcher := &stubDispatcher{}
	server := newTestServer(t, Deps{Dispatcher: dispatcher})

	rr := postWebhook(t, server, `{"update_id":16,"message":{"chat":{"id":42}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("text-less message must not dispatch")
	}
}

func TestWebhookLogsInboundUpdateAtDefaultLevel(t *testing.T) {
	hook := logtest.NewLocal(logging.Logger().Logger)
	defer hook.Reset()

	server := newTestServer(t, Deps{})

	body := `{"update_id":20,"message":{"text":"/start","chat":{"id":42}}}`
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "sekret")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	var entry *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Data["event"] == "webhook_received" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("expected webhook_received entry at the default log level")
	}
	if entry.Level != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", entry.Level)
	}
	if entry.Data["body"] != body {
		t.Fatalf("expected raw body in entry, got %v", entry.Data["body"])
	}

	headers, ok := entry.Data["headers"].(map[string]string)
	if !ok {
		t.Fatalf("expected headers map, got %T", entry.Data["headers"])
	}
	if headers["X-Telegram-Bot-Api-Secret-Token"] != "sekret" {
		t.Fatalf("expected secret token header recorded, got %+v", headers)
	}
	if headers["Content-Type"] != "application/json" {
		t.Fatalf("expected content type header recorded, got %+v", headers)
	}
}

func TestHealthHandlerOK(t *testing.T) {
	server := newTestServer(t, Deps{
		Mongo: stubPinger{},
		Redis: stubPinger{},
	})

	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	server := newTestServer(t, Deps{
		Mongo: stubPinger{err: errors.New("mongo down")},
		Redis: stubPinger{},
	})

	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if body := strings.TrimSpace(rr.Body.String()); body != `{"status":"degraded","mongo":"error"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHealthHandlerMissingCheckers(t *testing.T) {
	server := newTestServer(t, Deps{})

	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if body := strings.TrimSpace(rr.Body.String()); body != `{"status":"degraded","mongo":"error","redis":"error"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	if _, err := NewServer(0, Deps{Responder: &stubResponder{}}, logrus.NewEntry(logger)); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
	if _, err := NewServer(0, Deps{Dispatcher: &stubDispatcher{}}, logrus.NewEntry(logger)); err == nil {
		t.Fatalf("expected error without responder")
	}
}
