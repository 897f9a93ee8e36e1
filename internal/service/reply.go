package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/llm"
	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
	"github.com/priyansh203/spur-chatbot/pkg/metrics"
)

const (
	maxReplyTokens   = 500
	maxPromptChars   = 1000
	replyTemperature = 0.7
	truncationMarker = "... (message truncated)"

	// DefaultHistoryLimit is the number of recent messages included in the
	// generation prompt.
	DefaultHistoryLimit = 10
)

const systemPrompt = `You are a helpful customer support agent for "TechStore", a small e-commerce store specializing in electronics and gadgets.

CRITICAL: You MUST ONLY help with TechStore customer support topics. You are NOT a general AI assistant.

If someone asks about topics unrelated to TechStore customer support (like programming, general technology explanations, other companies, personal advice, etc.), you MUST respond with:
"I'm here to help with TechStore customer support questions. Is there anything about our products, shipping, returns, or orders I can assist you with?"

TECHSTORE INFORMATION:

SHIPPING POLICY:
- Free shipping on orders over $50
- Standard shipping: 3-5 business days
- Express shipping: 1-2 business days
- We ship to all US states and most international locations

RETURN/REFUND POLICY:
- 30-day return window from purchase date
- Items must be in original condition with tags attached
- Free return shipping for defective items
- $5 return shipping fee for other returns
- Full refund processed within 5-7 business days

SUPPORT HOURS:
- Monday-Friday: 9AM-6PM EST
- Available via chat, email (support@techstore.com), or phone (1-800-TECHSTORE)

PAYMENT OPTIONS:
- All major credit cards accepted
- PayPal, Apple Pay, Google Pay supported
- All transactions are secure and encrypted

PRODUCT CATEGORIES:
- Smartphones and accessories
- Laptops and computers
- Gaming equipment
- Smart home devices
- Audio equipment (headphones, speakers)
- Cameras and photography gear

RESPONSE GUIDELINES:
1. ONLY answer TechStore customer support questions
2. For ANY off-topic question, use the redirect response above
3. Keep responses helpful, concise, and professional
4. Structure information with simple dashes, no markdown symbols
5. If unsure about specific product details, direct to support team
6. End with an offer to help further`

// fallback strings by failure category, shown to the user in place of a
// generated reply.
var fallbacks = map[llm.FailureKind]string{
	llm.FailureQuota:       "I'm temporarily unavailable due to high demand. Please try again in a few minutes or contact our support team at support@techstore.com.",
	llm.FailureRateLimited: "I'm receiving a lot of messages right now. Please wait a moment and try again.",
	llm.FailureTimeout:     "I'm taking longer than usual to respond. Please try again or contact our support team.",
	llm.FailureEmpty:       "I apologize, but I'm having trouble generating a response right now. Please try again or contact our support team.",
	llm.FailureUnknown:     "I apologize, but I'm experiencing technical difficulties. Please try again or contact our support team at support@techstore.com for immediate assistance.",
}

// unconfiguredReply is served when no LLM provider credentials were given.
const unconfiguredReply = "I'm not able to answer right now. Please contact our support team at support@techstore.com."

// Reply is the Reply Generator result shape. Content is always non-empty;
// ErrLabel is a short machine-readable label when Content is a fallback.
type Reply struct {
	Content  string
	ErrLabel string
}

// ReplyGenerator wraps the remote completion client with the support
// persona, history bounding, and the fallback taxonomy. It never returns
// an error past its own boundary.
type ReplyGenerator struct {
	client       llm.Client
	model        string
	historyLimit int
	logger       *logger.Logger
}

// NewReplyGenerator creates a reply generator. client may be nil when no
// provider is configured; every call then yields the unconfigured fallback.
func NewReplyGenerator(client llm.Client, modelName string, historyLimit int, log *logger.Logger) *ReplyGenerator {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ReplyGenerator{
		client:       client,
		model:        modelName,
		historyLimit: historyLimit,
		logger:       log,
	}
}

// Generate produces a reply for userText given the conversation history.
func (g *ReplyGenerator) Generate(ctx context.Context, history []model.Message, userText string) Reply {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return Reply{
			Content:  "I didn't receive your message. Could you please try again?",
			ErrLabel: "empty_message",
		}
	}

	if g.client == nil {
		metrics.FallbackRepliesTotal.WithLabelValues("not_configured").Inc()
		return Reply{Content: unconfiguredReply, ErrLabel: "not_configured"}
	}

	messages := g.assemble(history, truncate(userText, maxPromptChars))

	start := time.Now()
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxReplyTokens,
		Temperature: replyTemperature,
	})
	if err != nil {
		kind := llm.KindOf(err)
		g.logger.Warn("LLM completion failed",
			zap.String("provider", g.client.Name()),
			zap.String("reason", kind.Label()),
			zap.Error(err),
		)
		metrics.RecordLLMRequest(g.model, "error", time.Since(start).Seconds(), 0, 0)
		metrics.FallbackRepliesTotal.WithLabelValues(kind.Label()).Inc()
		return Reply{Content: fallbackFor(kind), ErrLabel: kind.Label()}
	}

	metrics.RecordLLMRequest(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return Reply{Content: resp.Content}
}

// assemble builds the prompt: persona preamble, then the most recent
// history entries, then the new user turn.
func (g *ReplyGenerator) assemble(history []model.Message, userText string) []llm.ChatMessage {
	recent := Bound(history, g.historyLimit)

	messages := make([]llm.ChatMessage, 0, len(recent)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: systemPrompt})
	for _, msg := range recent {
		role := "assistant"
		if msg.Sender == model.SenderUser {
			role = "user"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Text})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userText})
	return messages
}

// fallbackFor maps every failure kind to its user-facing string. The
// switch is exhaustive over llm.FailureKind.
func fallbackFor(kind llm.FailureKind) string {
	switch kind {
	case llm.FailureQuota, llm.FailureRateLimited, llm.FailureTimeout, llm.FailureEmpty, llm.FailureUnknown:
		return fallbacks[kind]
	default:
		return fallbacks[llm.FailureUnknown]
	}
}

// truncate cuts text to at most limit characters, appending a marker when
// anything was cut. Longer input is never rejected.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}
