// Package notify announces canonical events once they are committed to the
// state. Delivery is best effort.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/nats-io/nats.go"
	logger "github.com/sirupsen/logrus"
)

const SubjectPrefix = "mirror.events"

type Publisher interface {
	Publish(ctx context.Context, chain common.ChainId, op common.Operator, evs []agreement.Event) error
}

// Subject is the NATS subject carrying a source's events.
func Subject(chain common.ChainId, op common.Operator) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, chain.Name(), op)
}

// Batch is the message body: one committed chunk.
type Batch struct {
	ChainId  common.ChainId    `json:"chain_id"`
	Operator common.Operator   `json:"operator"`
	Events   []agreement.Event `json:"events"`
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, common.ChainId, common.Operator, []agreement.Event) error {
	return nil
}

// NatsPublisher publishes batches on core NATS subjects.
type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("bridge-mirror"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsPublisher{conn: conn}, nil
}

func NewNatsPublisherWithConn(conn *nats.Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func (p *NatsPublisher) Publish(_ context.Context, chain common.ChainId, op common.Operator, evs []agreement.Event) error {
	if len(evs) == 0 {
		return nil
	}

	data, err := json.Marshal(Batch{ChainId: chain, Operator: op, Events: evs})
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(chain, op), data)
}

func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*NatsPublisher)(nil)
)
