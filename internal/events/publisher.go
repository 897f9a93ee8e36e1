// Package events publishes turn events to NATS for analytics fan-out.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
)

// SubjectPrefix is the prefix for all turn event subjects.
const SubjectPrefix = "chat.turns"

// Publisher sends one event per completed chat turn. Delivery is
// fire-and-forget; a publish failure never affects the request path.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Connect establishes a connection to the NATS server.
func Connect(url string, log *logger.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Publisher{conn: conn, logger: log}, nil
}

// PublishTurn publishes one turn event on chat.turns.<sessionId>.
func (p *Publisher) PublishTurn(ctx context.Context, ev model.TurnEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}
	if err := p.conn.Publish(SubjectPrefix+"."+ev.SessionID, data); err != nil {
		return fmt.Errorf("publish turn event: %w", err)
	}
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
