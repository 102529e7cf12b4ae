// Package events publishes deployment lifecycle transitions so other
// services (the build worker's downstream consumers, notification
// fan-out) can react without polling the SQL store.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/flarenet/platform/internal/logger"

	"go.uber.org/zap"
)

type DeploymentEvent struct {
	DeploymentID string    `json:"deploymentId"`
	ProjectID    string    `json:"projectId"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher wraps a NATS connection with the reconnect posture a
// background event stream needs: bounded reconnect attempts with
// jittered backoff rather than failing the publishing goroutine
// outright on a blip.
type Publisher struct {
	conn *nats.Conn
}

func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// Publish JSON-marshals event and publishes it to subject. The caller
// decides the subject naming scheme (e.g. "deployments.<id>.status").
func (p *Publisher) Publish(ctx context.Context, subject string, event DeploymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, body)
}
