package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

func TestReadChatEvents(t *testing.T) {
	stream := "data: {\"conversation_id\":\"c1\"}\n\n" +
		": keep-alive\n\n" +
		"data: {\"content\":\"Bon\"}\n\n" +
		"data: {\"content\":\"jour\"}\n\n" +
		"data: [DONE]\n\n"

	var events []domain.ChatEvent
	err := readChatEvents(strings.NewReader(stream), func(ev domain.ChatEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "c1", events[0].ConversationID)
	assert.Equal(t, "Bon", events[1].Content)
	assert.True(t, events[3].Done)
}

func TestReadChatEventsTruncated(t *testing.T) {
	err := readChatEvents(strings.NewReader("data: {\"content\":\"x\"}\n\n"), func(domain.ChatEvent) {})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestChatSessionKeepsConversation(t *testing.T) {
	var requests []domain.StreamChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.StreamChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"conversation_id\":\"c1\"}\n\ndata: {\"content\":\"ok\"}\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	s := &chatSession{client: NewClient(srv.URL), listingID: "DEMO", deviceID: "d1"}
	require.NoError(t, s.turn("Bonjour"))
	require.NoError(t, s.turn("Le wifi"))

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].ConversationID)
	assert.Equal(t, "c1", requests[1].ConversationID)
	assert.Equal(t, []domain.ChatMessageInput{{Content: "Bonjour"}, {Content: "ok"}, {Content: "Le wifi"}}, requests[1].Messages)
}

func TestCreateTicketReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"category must be one of [internet]"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateTicket("DEMO", "plumbing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category must be one of")
}
