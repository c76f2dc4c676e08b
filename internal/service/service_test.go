package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
	"github.com/yfuks/avahost-tech-test/internal/broadcast"
	"github.com/yfuks/avahost-tech-test/internal/config"
	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/listing"
	"github.com/yfuks/avahost-tech-test/internal/observability"
	store "github.com/yfuks/avahost-tech-test/internal/repository"
	"github.com/yfuks/avahost-tech-test/policy"
	"github.com/yfuks/avahost-tech-test/tests/helpers"
)

type testEnv struct {
	svc         *Service
	store       store.Store
	broadcaster *broadcast.TicketBroadcaster
}

type envOption func(cfg *config.Config)

func withStrictDisclosure() envOption {
	return func(cfg *config.Config) { cfg.Policy.StrictDisclosure = true }
}

func withMaxToolRounds(n int) envOption {
	return func(cfg *config.Config) { cfg.LLM.MaxToolRounds = n }
}

func newTestEnv(t *testing.T, client llm.LLMClient, opts ...envOption) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.LLM.Model = "test-model"
	for _, opt := range opts {
		opt(cfg)
	}

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	st := helpers.NewTestSQLiteStore(t)
	b := broadcast.New(observability.Discard())
	t.Cleanup(b.Close)

	return &testEnv{
		svc:         New(st, client, listing.Demo(), engine, b, cfg, observability.Discard()),
		store:       st,
		broadcaster: b,
	}
}

// collect drains a chat stream, failing the test if it does not close.
func collect(t *testing.T, events <-chan domain.ChatEvent) []domain.ChatEvent {
	t.Helper()
	var out []domain.ChatEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("chat stream did not complete")
			return nil
		}
	}
}

func contentOf(events []domain.ChatEvent) string {
	var text string
	for _, ev := range events {
		text += ev.Content
	}
	return text
}

func userMessages(contents ...string) domain.StreamChatRequest {
	req := domain.StreamChatRequest{}
	for _, c := range contents {
		req.Messages = append(req.Messages, domain.ChatMessageInput{Content: c})
	}
	return req
}
