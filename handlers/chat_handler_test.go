package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bww-support-bot/chatbot"
	"bww-support-bot/nlp"
	"bww-support-bot/services"
)

type memoryArchive struct {
	mu        sync.Mutex
	exchanges []services.Exchange
	err       error
}

func (a *memoryArchive) SaveExchange(_ context.Context, ex services.Exchange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exchanges = append(a.exchanges, ex)
	return a.err
}

func (a *memoryArchive) saved() []services.Exchange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]services.Exchange(nil), a.exchanges...)
}

type memoryBroadcaster struct {
	mu        sync.Mutex
	exchanges []services.Exchange
}

func (b *memoryBroadcaster) BroadcastExchange(ex services.Exchange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchanges = append(b.exchanges, ex)
}

func newTestEngine() *chatbot.Engine {
	return chatbot.NewDefaultEngine(chatbot.DefaultHistorySize, chatbot.WithRand(rand.New(rand.NewPCG(3, 5))))
}

func newChatApp(h *ChatHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/health", Health)
	app.Post("/api/chat", h.Chat)
	app.Post("/api/nlp/analyze", h.Analyze)
	app.Get("/api/chat/history/:userID", h.GetHistory)
	app.Delete("/api/chat/history/:userID", h.ClearHistory)
	app.Use(NotFound)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestChatGreeting(t *testing.T) {
	t.Parallel()

	archive := &memoryArchive{}
	broadcaster := &memoryBroadcaster{}
	app := newChatApp(NewChatHandler(newTestEngine(), archive, broadcaster))

	code, body := doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"السلام عليكم","user_id":"u1"}`)
	require.Equal(t, fiber.StatusOK, code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "greeting", body["intent"])
	assert.Equal(t, "ar", body["language"])
	assert.Contains(t, chatbot.Templates(nlp.IntentGreeting), body["response"])
	assert.Equal(t, map[string]interface{}{}, body["params"])

	saved := archive.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "u1", saved[0].UserID)
	assert.Equal(t, "api", saved[0].Channel)
	assert.Equal(t, "greeting", saved[0].Intent)
	assert.Equal(t, body["response"], saved[0].Response)
	assert.Len(t, broadcaster.exchanges, 1)
}

func TestChatNoIntentOmitsField(t *testing.T) {
	t.Parallel()

	app := newChatApp(NewChatHandler(newTestEngine(), nil, nil))

	code, body := doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"الجو حلو","user_id":"u1","language":"en"}`)
	require.Equal(t, fiber.StatusOK, code)

	_, hasIntent := body["intent"]
	assert.False(t, hasIntent)
	assert.Equal(t, chatbot.DefaultReply, body["response"])
	assert.Equal(t, "en", body["language"])
}

func TestChatOrderParamsAndOverride(t *testing.T) {
	t.Parallel()

	app := newChatApp(NewChatHandler(newTestEngine(), nil, nil))

	code, body := doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"فين الطلب #4521","user_id":"u1"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "order_status", body["intent"])
	assert.Equal(t, map[string]interface{}{"order_id": "4521"}, body["params"])

	code, body = doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"مرحبا","user_id":"u1","intent":"payment"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "payment", body["intent"])
	assert.Equal(t, chatbot.Templates(nlp.IntentPayment)[0], body["response"])
}

func TestChatBadRequests(t *testing.T) {
	t.Parallel()

	app := newChatApp(NewChatHandler(newTestEngine(), nil, nil))

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "malformed json", body: `{"message":`, wantErr: "Invalid request body"},
		{name: "missing user", body: `{"message":"مرحبا"}`, wantErr: "user_id is required"},
		{name: "unknown intent", body: `{"message":"مرحبا","user_id":"u1","intent":"weather"}`, wantErr: `unknown intent "weather"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestChatColloquialProductRequest(t *testing.T) {
	t.Parallel()

	app := newChatApp(NewChatHandler(newTestEngine(), nil, nil))

	code, body := doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"عايز اعرف الايفون","user_id":"u1"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "product_inquiry", body["intent"])
	assert.Equal(t, chatbot.Templates(nlp.IntentProductInquiry)[0], body["response"])
	assert.Equal(t, map[string]interface{}{"query": "عايز اعرف الايفون"}, body["params"])
}

func TestChatArchiveFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	archive := &memoryArchive{err: errors.New("mongo down")}
	app := newChatApp(NewChatHandler(newTestEngine(), archive, nil))

	code, body := doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"سعر الجاكيت كام","user_id":"u1"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "price_inquiry", body["intent"])
}

func TestChatHistoryEndpoints(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	app := newChatApp(NewChatHandler(engine, nil, nil))

	doJSON(t, app, http.MethodPost, "/api/chat", `{"message":"سعر الجاكيت كام","user_id":"u7"}`)

	code, body := doJSON(t, app, http.MethodGet, "/api/chat/history/u7", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "u7", body["user_id"])
	history, ok := body["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 2)
	first := history[0].(map[string]interface{})
	assert.Equal(t, "user", first["sender"])

	code, body = doJSON(t, app, http.MethodDelete, "/api/chat/history/u7", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Empty(t, engine.History("u7"))

	code, body = doJSON(t, app, http.MethodGet, "/api/chat/history/unknown", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["history"])
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	app := newChatApp(NewChatHandler(engine, nil, nil))

	code, body := doJSON(t, app, http.MethodPost, "/api/nlp/analyze", `{"text":"عايز اعرف سعر الجاكيت ب 500 جنيه"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "product_inquiry", body["intent"])
	assert.Equal(t, "اريد اعرف سعر الجاكيت ب 500 جنيه", body["normalized"])
	assert.Equal(t, map[string]interface{}{"query": "عايز اعرف سعر الجاكيت ب 500 جنيه"}, body["params"])
	entities := body["entities"].(map[string]interface{})
	assert.Equal(t, []interface{}{"500 جنيه"}, entities["prices"])
	assert.Empty(t, engine.History(""))

	code, body = doJSON(t, app, http.MethodPost, "/api/nlp/analyze", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "text is required", body["error"])
}

func TestHealthAndNotFound(t *testing.T) {
	t.Parallel()

	app := newChatApp(NewChatHandler(newTestEngine(), nil, nil))

	code, body := doJSON(t, app, http.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, ServiceVersion, body["version"])
	assert.NotEmpty(t, body["features"])

	code, body = doJSON(t, app, http.MethodGet, "/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Not found", body["error"])
}
