package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// chatSession keeps the history and conversation id across turns.
type chatSession struct {
	client         *Client
	listingID      string
	deviceID       string
	conversationID string
	history        []domain.ChatMessageInput
}

func runChat(client *Client, listingID, deviceID string) error {
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	s := &chatSession{client: client, listingID: listingID, deviceID: deviceID}

	cyan := color.New(color.FgCyan)
	cyan.Printf("Concierge chat for listing %s (device %s)\n", listingID, deviceID)
	fmt.Println("Type a message and press Enter. /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			return nil
		}
		if err := s.turn(input); err != nil {
			color.Red("Error: %v\n", err)
		}
	}
}

func (s *chatSession) turn(input string) error {
	s.history = append(s.history, domain.ChatMessageInput{Content: input})
	if len(s.history) > domain.MaxChatMessages {
		// Keep an odd-length window so the last entry stays a user turn.
		s.history = s.history[len(s.history)-domain.MaxChatMessages+1:]
	}

	yellow := color.New(color.FgYellow)
	var reply strings.Builder
	err := s.client.StreamChat(domain.StreamChatRequest{
		Messages:       s.history,
		ConversationID: s.conversationID,
		ListingID:      s.listingID,
		GuestDeviceID:  s.deviceID,
	}, func(ev domain.ChatEvent) {
		switch {
		case ev.ConversationID != "":
			s.conversationID = ev.ConversationID
		case ev.Content != "":
			reply.WriteString(ev.Content)
			yellow.Print(ev.Content)
		case ev.Error != "":
			fmt.Println()
			color.Red("error: %s\n", ev.Error)
		case ev.Done:
			fmt.Println()
		}
	})
	if err != nil {
		// Drop the unanswered turn so the history keeps alternating.
		s.history = s.history[:len(s.history)-1]
		return err
	}
	s.history = append(s.history, domain.ChatMessageInput{Content: reply.String()})
	return nil
}
