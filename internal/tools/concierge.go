// Package tools declares the capabilities the concierge model may invoke.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/listing"
)

// Tool names are part of the contract with the model and must not change.
const (
	ToolValidateConfirmationCode = "validate_confirmation_code"
	ToolGetPublicListingData     = "get_public_listing_data"
	ToolGetPrivateHostData       = "get_private_host_data"
	ToolCreateTicket             = "create_ticket"
	ToolGetTicket                = "get_ticket"
)

// TicketService is the ticket surface the tools need.
type TicketService interface {
	CreateTicket(ctx context.Context, req domain.CreateTicketRequest) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// Deps are the collaborators shared by the concierge tools.
type Deps struct {
	Listings *listing.Catalog
	Tickets  TicketService
}

// NewConciergeRegistry builds the per-request registry. Every executor
// closes over tc only, so the registry must not outlive the request.
func NewConciergeRegistry(tc *ToolContext, deps Deps) *Registry {
	r := NewRegistry()
	r.MustRegister(validateConfirmationCode(tc, deps))
	r.MustRegister(getPublicListingData(tc, deps))
	r.MustRegister(getPrivateHostData(tc, deps))
	r.MustRegister(createTicket(tc, deps))
	r.MustRegister(getTicket(deps))
	return r
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func validateConfirmationCode(tc *ToolContext, deps Deps) Definition {
	return Definition{
		Name: ToolValidateConfirmationCode,
		Description: "Vérifie le code de confirmation de séjour fourni par le voyageur. " +
			"À appeler avant toute divulgation d'information sensible.",
		Parameters: objectSchema(map[string]any{
			"code": map[string]any{"type": "string", "description": "Code de confirmation donné par le voyageur"},
		}, "code"),
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			valid := deps.Listings.Resolve(tc.ListingID).MatchesConfirmationCode(in.Code)
			if valid {
				tc.MarkVerified()
			}
			return json.Marshal(map[string]bool{"valid": valid})
		},
	}
}

func getPublicListingData(tc *ToolContext, deps Deps) Definition {
	return Definition{
		Name:        ToolGetPublicListingData,
		Description: "Retourne les informations publiques du logement (description, équipements, règles, horaires).",
		Parameters:  objectSchema(map[string]any{}),
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(deps.Listings.Resolve(tc.ListingID).Public)
		},
	}
}

func getPrivateHostData(tc *ToolContext, deps Deps) Definition {
	return Definition{
		Name: ToolGetPrivateHostData,
		Description: "Retourne les informations sensibles du logement (réseau Wi-Fi, boîte à clé, contacts d'urgence). " +
			"N'appelle cet outil QUE si validate_confirmation_code a renvoyé valid: true dans cette conversation.",
		Parameters: objectSchema(map[string]any{}),
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(deps.Listings.Resolve(tc.ListingID).Private.Disclose())
		},
	}
}

func createTicket(tc *ToolContext, deps Deps) Definition {
	categories := make([]string, 0, len(domain.TicketCategories))
	for _, c := range domain.TicketCategories {
		categories = append(categories, string(c))
	}
	return Definition{
		Name: ToolCreateTicket,
		Description: "Crée un ticket de support pour le logement, ou renvoie le ticket déjà ouvert pour cette conversation. " +
			"À utiliser uniquement si le problème persiste après les étapes de dépannage.",
		Parameters: objectSchema(map[string]any{
			"listing_id": map[string]any{"type": "string", "description": "Identifiant du logement"},
			"category":   map[string]any{"type": "string", "enum": categories},
		}, "category"),
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				ListingID string `json:"listing_id"`
				Category  string `json:"category"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			listingID := strings.TrimSpace(in.ListingID)
			if listingID == "" {
				listingID = tc.ListingID
			}
			if listingID == "" {
				listingID = deps.Listings.DefaultID()
			}

			ticket, err := deps.Tickets.CreateTicket(ctx, domain.CreateTicketRequest{
				ListingID:      listingID,
				Category:       domain.TicketCategory(strings.ToLower(strings.TrimSpace(in.Category))),
				ConversationID: tc.ConversationID,
			})
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{
				"id":     ticket.ID,
				"status": string(ticket.Status),
			})
		},
	}
}

func getTicket(deps Deps) Definition {
	return Definition{
		Name:        ToolGetTicket,
		Description: "Retourne le statut d'un ticket existant (created, in_progress, resolved).",
		Parameters: objectSchema(map[string]any{
			"ticket_id": map[string]any{"type": "string", "description": "Identifiant du ticket"},
		}, "ticket_id"),
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				TicketID string `json:"ticket_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			ticket, err := deps.Tickets.GetTicket(ctx, strings.TrimSpace(in.TicketID))
			if errors.Is(err, domain.ErrNotFound) {
				return json.Marshal(map[string]string{"error": "ticket not found"})
			}
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]string{
				"id":         ticket.ID,
				"status":     string(ticket.Status),
				"updated_at": ticket.UpdatedAt.Format(time.RFC3339),
			})
		},
	}
}
