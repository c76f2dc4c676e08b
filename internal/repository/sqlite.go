package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			listing_id TEXT,
			guest_device_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_guest ON conversations(guest_device_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON conversation_messages(conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			category TEXT NOT NULL CHECK (category IN ('internet', 'equipment', 'access', 'other')),
			status TEXT NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'in_progress', 'resolved')),
			updated_at DATETIME NOT NULL,
			conversation_id TEXT,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_updated ON tickets(updated_at)`,
		// At most one open ticket per conversation.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_open_conversation ON tickets(conversation_id)
			WHERE conversation_id IS NOT NULL AND status IN ('created', 'in_progress')`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, listing_id, guest_device_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, nullString(conv.ListingID), nullString(conv.GuestDeviceID), conv.CreatedAt, conv.UpdatedAt)
	return err
}

const conversationColumns = `id, listing_id, guest_device_id, created_at, updated_at`

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, conversationID)
	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return conv, err
}

// ListConversationsByGuest lists the conversations of a device, most recent first.
func (s *SQLiteStore) ListConversationsByGuest(ctx context.Context, guestDeviceID string, limit int) ([]domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE guest_device_id = ?
		ORDER BY updated_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, guestDeviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

// AppendMessage stores a message and bumps the conversation's updated_at.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.ConversationMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversation_messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, msg.CreatedAt, msg.ConversationID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMessages lists the messages of a conversation in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM conversation_messages
		WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.ConversationMessage{}
	for rows.Next() {
		var msg domain.ConversationMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateTicket inserts a ticket unless its conversation already has an open
// one, in which case the existing ticket is returned. The boolean reports
// whether a new row was written.
func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, bool, error) {
	if ticket.ConversationID != nil {
		existing, err := s.GetOpenTicketByConversation(ctx, *ticket.ConversationID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, listing_id, category, status, updated_at, conversation_id) VALUES (?, ?, ?, ?, ?, ?)`,
		ticket.ID, ticket.ListingID, string(ticket.Category), string(ticket.Status), ticket.UpdatedAt, nullString(ticket.ConversationID))
	if err != nil {
		// A concurrent request won the race for this conversation.
		if isUniqueViolation(err) && ticket.ConversationID != nil {
			existing, getErr := s.GetOpenTicketByConversation(ctx, *ticket.ConversationID)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	created := *ticket
	return &created, true, nil
}

const ticketColumns = `id, listing_id, category, status, updated_at, conversation_id`

// GetTicket retrieves a ticket by ID.
func (s *SQLiteStore) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, ticketID)
	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// GetOpenTicketByConversation returns the open ticket of a conversation, if any.
func (s *SQLiteStore) GetOpenTicketByConversation(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		WHERE conversation_id = ? AND status IN ('created', 'in_progress') LIMIT 1`, conversationID)
	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// ListTickets lists tickets, most recently updated first.
func (s *SQLiteStore) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT t.id, t.listing_id, t.category, t.status, t.updated_at, t.conversation_id FROM tickets t`
	var where []string
	var args []interface{}

	if filter.GuestDeviceID != "" {
		query += ` JOIN conversations c ON c.id = t.conversation_id`
		where = append(where, `c.guest_device_id = ?`)
		args = append(args, filter.GuestDeviceID)
	}
	if filter.ConversationID != "" {
		where = append(where, `t.conversation_id = ?`)
		args = append(args, filter.ConversationID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY t.updated_at DESC, t.rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

// UpdateTicketStatus moves a ticket from status from to status to and
// returns the updated row. It returns (nil, nil) when the ticket does not
// exist or its status is no longer from.
func (s *SQLiteStore) UpdateTicketStatus(ctx context.Context, ticketID string, from, to domain.TicketStatus, updatedAt time.Time) (*domain.Ticket, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), updatedAt, ticketID, string(from))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetTicket(ctx, ticketID)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var conv domain.Conversation
	var listingID, guestDeviceID sql.NullString
	if err := row.Scan(&conv.ID, &listingID, &guestDeviceID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	if listingID.Valid {
		conv.ListingID = &listingID.String
	}
	if guestDeviceID.Valid {
		conv.GuestDeviceID = &guestDeviceID.String
	}
	return &conv, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var category, status string
	var conversationID sql.NullString
	if err := row.Scan(&ticket.ID, &ticket.ListingID, &category, &status, &ticket.UpdatedAt, &conversationID); err != nil {
		return nil, err
	}
	ticket.Category = domain.TicketCategory(category)
	ticket.Status = domain.TicketStatus(status)
	if conversationID.Valid {
		ticket.ConversationID = &conversationID.String
	}
	return &ticket, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
