package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// Client talks to the concierge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// StreamChat sends one chat turn and calls onEvent for every event until
// the end sentinel.
func (c *Client) StreamChat(req domain.StreamChatRequest, onEvent func(domain.ChatEvent)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.httpClient.Post(c.baseURL+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return readChatEvents(resp.Body, onEvent)
}

// readChatEvents parses the chat SSE stream.
func readChatEvents(r io.Reader, onEvent func(domain.ChatEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		if data == domain.SSEDoneSentinel {
			onEvent(domain.DoneEvent())
			return nil
		}
		var ev domain.ChatEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		onEvent(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// CreateTicket opens a ticket.
func (c *Client) CreateTicket(listingID, category string) (*domain.Ticket, error) {
	body, err := json.Marshal(domain.CreateTicketRequest{
		ListingID: listingID,
		Category:  domain.TicketCategory(category),
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Post(c.baseURL+"/tickets", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var ticket domain.Ticket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	return &ticket, nil
}

// WatchTicket dials the ticket websocket.
func (c *Client) WatchTicket(ticketID string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/tickets/" + ticketID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, apiError(resp)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("unexpected status: %s", resp.Status)
}
