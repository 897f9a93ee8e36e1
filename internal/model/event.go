package model

import (
	"time"
)

// TurnEvent is published after each completed turn for analytics fan-out.
type TurnEvent struct {
	SessionID  string    `json:"session_id"`
	UserChars  int       `json:"user_chars"`
	ReplyChars int       `json:"reply_chars"`
	Fallback   string    `json:"fallback,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
