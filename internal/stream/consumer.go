// Package stream consumes the pool-event feed: a Kafka consumer pulling raw
// messages from the broker and a decoder turning them into domain types.
// Each process run joins a fresh consumer group and reads from the latest
// offset; the engine reacts to new pool states, replaying old ones would
// trade on stale prices.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

const (
	defaultPollTimeout = time.Second
	sessionTimeout     = 30 * time.Second
	dialTimeout        = 10 * time.Second
)

// ConsumerConfig carries the broker connection settings.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupPrefix string
	Username    string
	Password    string
	PollTimeout time.Duration
}

// Consumer pulls feed messages from Kafka. Fetched messages are committed
// only through Ack, so a crash between Poll and Ack re-delivers. Not safe
// for concurrent use; the engine is single-threaded by design.
type Consumer struct {
	reader      *kafka.Reader
	logger      *zap.Logger
	pollTimeout time.Duration
	pending     []kafka.Message
}

// NewConsumer connects to the feed brokers with SASL/SCRAM-SHA-512
// credentials. The consumer group is suffixed with a fresh UUID so this run
// never inherits another run's offsets.
func NewConsumer(cfg ConsumerConfig, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("consumer requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("consumer requires a topic")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("consumer requires SASL credentials")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	mechanism, err := scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	if err != nil {
		return nil, errors.Wrap(err, "build SCRAM mechanism")
	}

	dialer := &kafka.Dialer{
		Timeout:       dialTimeout,
		DualStack:     true,
		SASLMechanism: mechanism,
	}

	groupID := fmt.Sprintf("%s-group-%s", cfg.GroupPrefix, uuid.NewString())
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        groupID,
		Dialer:         dialer,
		StartOffset:    kafka.LastOffset,
		SessionTimeout: sessionTimeout,
	})

	logger.Info("feed consumer connected",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group", groupID))

	return &Consumer{
		reader:      reader,
		logger:      logger,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Poll fetches and decodes the next feed message. It returns (nil, nil) when
// the poll timeout expires without a message or when the message was not
// decodable; undecodable messages are still held for the next Ack so the
// group moves past them. The error return is for broker failures only.
func (c *Consumer) Poll(ctx context.Context) (*domain.BlockMessage, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	msg, err := c.reader.FetchMessage(pollCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "fetch feed message")
	}

	c.pending = append(c.pending, msg)

	block, err := Decode(msg.Value)
	if err != nil {
		c.logger.Debug("skipping undecodable feed message",
			zap.Error(err),
			zap.Int64("offset", msg.Offset))
		return nil, nil
	}
	return block, nil
}

// Ack commits every message fetched since the previous Ack.
func (c *Consumer) Ack(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	if err := c.reader.CommitMessages(ctx, c.pending...); err != nil {
		return errors.Wrap(err, "commit feed messages")
	}
	c.pending = c.pending[:0]
	return nil
}

// Close shuts the reader down and leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
