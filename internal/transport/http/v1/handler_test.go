package v1

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
	"github.com/yfuks/avahost-tech-test/internal/auth"
	"github.com/yfuks/avahost-tech-test/internal/broadcast"
	"github.com/yfuks/avahost-tech-test/internal/config"
	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/listing"
	"github.com/yfuks/avahost-tech-test/internal/observability"
	"github.com/yfuks/avahost-tech-test/internal/service"
	"github.com/yfuks/avahost-tech-test/policy"
	"github.com/yfuks/avahost-tech-test/tests/helpers"
)

const testSecret = "test-secret"

type testAPI struct {
	h   *Handler
	e   *echo.Echo
	svc *service.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := config.Default()
	cfg.LLM.Model = "test-model"

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	b := broadcast.New(observability.Discard())
	t.Cleanup(b.Close)

	svc := service.New(helpers.NewTestSQLiteStore(t), llm.NewMockClient(), listing.Demo(), engine, b, cfg, observability.Discard())
	h := NewHandler(svc, Options{
		Verifier:     auth.NewAdminVerifier(testSecret),
		SSEKeepAlive: 20 * time.Millisecond,
		Version:      "test",
		Logger:       observability.Discard(),
	})

	e := echo.New()
	h.RegisterRoutes(e, func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	return &testAPI{h: h, e: e, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.NewAdminVerifier(testSecret).Generate("admin-1", time.Hour)
	require.NoError(t, err)
	return token
}

func guestToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "guest-1",
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *testAPI) createTicket(t *testing.T) domain.Ticket {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/tickets", `{"listing_id":"DEMO","category":"internet"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ticket domain.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	return ticket
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := api.e.NewContext(req, rec)

	require.NoError(t, api.h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","version":"test"}`, rec.Body.String())
}

func TestCreateAndGetTicket(t *testing.T) {
	api := newTestAPI(t)

	ticket := api.createTicket(t)
	assert.Equal(t, "DEMO", ticket.ListingID)
	assert.Equal(t, domain.TicketStatusCreated, ticket.Status)

	req := httptest.NewRequest(http.MethodGet, "/tickets/"+ticket.ID, nil)
	rec := httptest.NewRecorder()
	c := api.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ticket.ID)

	require.NoError(t, api.h.GetTicket(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, ticket.ID, got.ID)

	rec = api.do(t, http.MethodGet, "/tickets/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPathIDMustBeUUID(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/tickets/missing", ""},
		{http.MethodPatch, "/tickets/missing", `{"status":"resolved"}`},
		{http.MethodGet, "/tickets/missing/conversation-messages", ""},
		{http.MethodGet, "/tickets/missing/updates", ""},
		{http.MethodGet, "/conversations/unknown/messages", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := api.do(t, tc.method, tc.target, tc.body, adminToken(t))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"id must be a UUID"}`, rec.Body.String())
		})
	}
}

func TestCreateTicketRejectsBadInput(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/tickets", `{"listing_id":"DEMO","category":"plumbing"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "category must be one of")

	rec = api.do(t, http.MethodPost, "/tickets", `{"listing_id":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/tickets", `{"listing_id":"DEMO","category":"internet","conversation_id":"nope"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTicketsRequiresAdminWithoutFilter(t *testing.T) {
	api := newTestAPI(t)
	api.createTicket(t)

	rec := api.do(t, http.MethodGet, "/tickets", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/tickets", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/tickets?conversation_id=%20", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/tickets", "", guestToken(t))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/tickets", "", adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []domain.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 1)

	rec = api.do(t, http.MethodGet, "/tickets?guest_device_id=device-z", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateTicket(t *testing.T) {
	api := newTestAPI(t)
	ticket := api.createTicket(t)
	target := "/tickets/" + ticket.ID

	rec := api.do(t, http.MethodPatch, target, `{"status":"in_progress"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPatch, target, `{"status":"in_progress"}`, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	rec = api.do(t, http.MethodPatch, target, `{"status":"created"}`, adminToken(t))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPatch, target, `{"status":"closed"}`, adminToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, "/tickets/"+uuid.NewString(), `{"status":"resolved"}`, adminToken(t))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketConversationMessagesRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	ticket := api.createTicket(t)
	target := "/tickets/" + ticket.ID + "/conversation-messages"

	rec := api.do(t, http.MethodGet, target, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, target, "", adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestConversations(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/conversations", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"guest_device_id is required"}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/conversations?guest_device_id=device-a", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/conversations/"+uuid.NewString()+"/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStreamChat(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/chat/stream", `{"messages":[{"content":"Bonjour"}],"guest_device_id":"device-a"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	var lines []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
	require.GreaterOrEqual(t, len(lines), 3)

	var first domain.ChatEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.NotEmpty(t, first.ConversationID)

	var second domain.ChatEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotEmpty(t, second.Content)

	assert.Equal(t, domain.SSEDoneSentinel, lines[len(lines)-1])

	rec = api.do(t, http.MethodGet, "/conversations?guest_device_id=device-a", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), first.ConversationID)
}

func TestStreamChatValidationIsNotStreamed(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/chat/stream", `{"messages":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "messages must contain at least 1 entry")

	rec = api.do(t, http.MethodPost, "/chat/stream", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// readSSEEvent returns the next named event, skipping keep-alive comments.
func readSSEEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			return event, data
		}
	}
}

func TestStreamTicketUpdates(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	ticket := api.createTicket(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/tickets/"+ticket.ID+"/updates", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := bufio.NewReader(resp.Body)
	event, data := readSSEEvent(t, r)
	assert.Equal(t, domain.SSEEventTicketUpdate, event)
	var snapshot domain.Ticket
	require.NoError(t, json.Unmarshal([]byte(data), &snapshot))
	assert.Equal(t, domain.TicketStatusCreated, snapshot.Status)

	_, err = api.svc.UpdateTicketStatus(ctx, ticket.ID, domain.UpdateTicketRequest{Status: domain.TicketStatusResolved})
	require.NoError(t, err)

	event, data = readSSEEvent(t, r)
	assert.Equal(t, domain.SSEEventTicketUpdate, event)
	var updated domain.Ticket
	require.NoError(t, json.Unmarshal([]byte(data), &updated))
	assert.Equal(t, ticket.ID, updated.ID)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
}

func TestStreamTicketUpdatesKeepAlive(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	ticket := api.createTicket(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/tickets/"+ticket.ID+"/updates", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	readSSEEvent(t, r)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == ": keep-alive\n" {
			return
		}
	}
}

func TestStreamTicketUpdatesNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/tickets/"+uuid.NewString()+"/updates", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEqual(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestTicketWebSocket(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	ticket := api.createTicket(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tickets/" + ticket.ID + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg TicketUpdateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, domain.SSEEventTicketUpdate, msg.Type)
	assert.Equal(t, domain.TicketStatusCreated, msg.Ticket.Status)

	_, err = api.svc.UpdateTicketStatus(context.Background(), ticket.ID, domain.UpdateTicketRequest{Status: domain.TicketStatusInProgress})
	require.NoError(t, err)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ticket.ID, msg.Ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, msg.Ticket.Status)
}

func TestTicketWebSocketNotFound(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tickets/" + uuid.NewString() + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tickets/missing/ws"
	_, resp, err = websocket.DefaultDialer.Dial(badURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

func TestErrorResponseHidesInternalErrors(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := api.e.NewContext(req, rec)

	require.NoError(t, api.h.errorResponse(c, io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.False(t, bytes.Contains(rec.Body.Bytes(), []byte("EOF")))
}
