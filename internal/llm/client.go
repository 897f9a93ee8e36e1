// Package llm provides provider-agnostic chat completion clients.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind is the closed set of remote-completion failure categories.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureQuota
	FailureRateLimited
	FailureTimeout
	FailureEmpty
)

// Label returns the short machine-readable label for the failure kind.
func (k FailureKind) Label() string {
	switch k {
	case FailureQuota:
		return "quota_exceeded"
	case FailureRateLimited:
		return "rate_limited"
	case FailureTimeout:
		return "timeout"
	case FailureEmpty:
		return "empty_completion"
	default:
		return "llm_error"
	}
}

// Error is the tagged failure returned by every client. Provider-specific
// error shapes never escape this package.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Label()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Label(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error returned by a Client.
func KindOf(err error) FailureKind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return FailureUnknown
}

// ChatMessage is one prompt entry in provider wire format terms.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries a bounded prompt to the provider.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is a successful completion.
type CompletionResponse struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request. Failures are always *Error.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a client for the given provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
