package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

type ticketUpdate struct {
	Type   string        `json:"type"`
	Ticket domain.Ticket `json:"ticket"`
}

func runWatch(client *Client, ticketID string) error {
	conn, err := client.WatchTicket(ticketID)
	if err != nil {
		return err
	}
	defer conn.Close()

	cyan := color.New(color.FgCyan)
	cyan.Printf("Watching ticket %s (Ctrl+C to stop)\n", ticketID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	updates := make(chan ticketUpdate)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg ticketUpdate
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			updates <- msg
		}
	}()

	for {
		select {
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		case msg := <-updates:
			printTicket(msg.Ticket)
		}
	}
}

func printTicket(t domain.Ticket) {
	c := color.New(color.FgYellow)
	switch t.Status {
	case domain.TicketStatusInProgress:
		c = color.New(color.FgCyan)
	case domain.TicketStatusResolved:
		c = color.New(color.FgGreen)
	}
	fmt.Printf("[%s] %s ", t.UpdatedAt.Local().Format("15:04:05"), t.Category)
	c.Printf("%s\n", t.Status)
}
