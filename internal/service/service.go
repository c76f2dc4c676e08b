// Package service implements the concierge use cases: the streaming chat
// turn, conversation history and the ticket lifecycle.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
	"github.com/yfuks/avahost-tech-test/internal/broadcast"
	"github.com/yfuks/avahost-tech-test/internal/config"
	"github.com/yfuks/avahost-tech-test/internal/listing"
	store "github.com/yfuks/avahost-tech-test/internal/repository"
	"github.com/yfuks/avahost-tech-test/policy"
)

type Service struct {
	store        store.Store
	llmClient    llm.LLMClient
	catalog      *listing.Catalog
	policyEngine *policy.Engine
	broadcaster  *broadcast.TicketBroadcaster
	config       *config.Config
	logger       *slog.Logger
	now          func() time.Time
}

// New wires the service. llmClient may be nil when no provider is
// configured; chat turns then fail with domain.ErrLLMNotConfigured.
// policyEngine may be nil, in which case every tool call is allowed.
func New(store store.Store, llmClient llm.LLMClient, catalog *listing.Catalog, policyEngine *policy.Engine, broadcaster *broadcast.TicketBroadcaster, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = listing.Demo()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Service{
		store:        store,
		llmClient:    llmClient,
		catalog:      catalog,
		policyEngine: policyEngine,
		broadcaster:  broadcaster,
		config:       cfg,
		logger:       logger.With("component", "service"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks that the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return errors.New("record store is not configured")
	}
	return s.store.Ping(ctx)
}
