package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL       string
	Subject       string // По умолчанию voxedit.chunks.invalidate
	MaxReconnects int
	ReconnectWait time.Duration
}

// InvalidationMessage - сообщение об инвалидации колонки.
type InvalidationMessage struct {
	Coords    vec.Vec2  `json:"coords"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NATSInvalidator реализует Invalidator поверх NATS Pub/Sub.
// Собственные сообщения узла обработчику не передаются.
type NATSInvalidator struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	logger  *logging.Logger

	mu           sync.Mutex
	subscription *nats.Subscription

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// NewNATSInvalidator подключается к NATS. Пустой nodeID заменяется UUID.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string, logger *logging.Logger) (*NATSInvalidator, error) {
	if config.Subject == "" {
		config.Subject = "voxedit.chunks.invalidate"
	}
	if config.MaxReconnects == 0 {
		config.MaxReconnects = 10
	}
	if config.ReconnectWait == 0 {
		config.ReconnectWait = 2 * time.Second
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	conn, err := nats.Connect(config.NATSURL,
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS invalidator initialized: %s (subject: %s)", config.NATSURL, config.Subject)
	return &NATSInvalidator{conn: conn, subject: config.Subject, nodeID: nodeID, logger: logger}, nil
}

// PublishInvalidation отправляет уведомление об инвалидации колонки.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, coords vec.Vec2) error {
	data, err := encodeInvalidation(coords, n.nodeID)
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	atomic.AddInt64(&n.publishedCount, 1)
	return nil
}

// SubscribeInvalidations подписывается на уведомления; подписка снимается
// при отмене ctx или Close.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to invalidations")
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		n.dispatch(msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	go func() {
		<-ctx.Done()
		n.unsubscribe()
	}()
	return nil
}

// dispatch разбирает сообщение и вызывает handler для чужих узлов
func (n *NATSInvalidator) dispatch(data []byte, handler InvalidationHandler) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Warn("bad invalidation message: %v", err)
		return
	}
	if msg.NodeID == n.nodeID {
		return
	}
	atomic.AddInt64(&n.receivedCount, 1)
	handler(msg.Coords)
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription != nil {
		_ = n.subscription.Unsubscribe()
		n.subscription = nil
	}
}

// Close снимает подписку и закрывает соединение
func (n *NATSInvalidator) Close() error {
	n.unsubscribe()
	n.conn.Close()
	return nil
}

func encodeInvalidation(coords vec.Vec2, nodeID string) ([]byte, error) {
	data, err := json.Marshal(&InvalidationMessage{Coords: coords, Timestamp: time.Now(), NodeID: nodeID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invalidation message: %w", err)
	}
	return data, nil
}
