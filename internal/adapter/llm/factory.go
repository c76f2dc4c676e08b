package llm

import (
	"log/slog"
	"strings"
	"time"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// ModeMock selects the scripted mock client.
const ModeMock = "MOCK"

// Options configures NewLLMClient.
type Options struct {
	Mode    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewLLMClient creates an LLM client based on the configured mode.
// In mock mode it returns a MockClient; otherwise it requires an API key
// and returns domain.ErrLLMNotConfigured when none is set.
func NewLLMClient(opts Options, logger *slog.Logger) (LLMClient, error) {
	if strings.EqualFold(opts.Mode, ModeMock) {
		logger.Info("LLM_MODE=MOCK detected, using mock LLM client")
		return NewMockClient(), nil
	}
	if opts.APIKey == "" {
		return nil, domain.ErrLLMNotConfigured
	}
	return NewClient(opts.BaseURL, opts.APIKey, opts.Timeout), nil
}
