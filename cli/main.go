// Package main provides a terminal client for the concierge API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/yfuks/avahost-tech-test/internal/auth"
)

const usage = `Usage: cli [flags] <command> [args]

Commands:
  chat                         chat with the concierge
  watch <ticket-id>            follow a ticket's status over websocket
  ticket <listing-id> <category>  open a ticket
  admin-token                  print an admin bearer token (needs ADMIN_JWT_SECRET)

Flags:
`

func main() {
	addr := flag.String("addr", "http://localhost:4000", "API base URL")
	listingID := flag.String("listing", "DEMO", "Listing ID for chat")
	device := flag.String("device", "", "Guest device ID (random when empty)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := NewClient(*addr)

	var err error
	switch args[0] {
	case "chat":
		err = runChat(client, *listingID, *device)
	case "watch":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runWatch(client, args[1])
	case "ticket":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = runCreateTicket(client, args[1], args[2])
	case "admin-token":
		err = runAdminToken(os.Getenv("ADMIN_JWT_SECRET"))
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func runCreateTicket(client *Client, listingID, category string) error {
	ticket, err := client.CreateTicket(listingID, category)
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Printf("Ticket %s\n", ticket.ID)
	fmt.Printf("  category: %s\n  status:   %s\n", ticket.Category, ticket.Status)
	return nil
}

func runAdminToken(secret string) error {
	token, err := auth.NewAdminVerifier(secret).Generate("cli", 12*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
