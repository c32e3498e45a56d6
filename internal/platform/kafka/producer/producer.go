// Package producer is the Kafka sink for relayed audit entries.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const flushTimeout = 30 * time.Second

var ErrClosed = errors.New("kafka producer closed")

type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Config mirrors the KAFKA_* settings. Acks is "0", "1" or anything else for
// all in-sync replicas.
type Config struct {
	Brokers         string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

func (c Config) brokers() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c Config) options() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.brokers()...),
		kgo.RecordRetries(c.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	switch c.Acks {
	case "0":
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case "1":
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	if c.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(c.DeliveryTimeout))
	}
	return opts
}

type Producer struct {
	client *kgo.Client
	logger *slog.Logger
	closed atomic.Bool
}

func New(cfg Config, logger *slog.Logger) (*Producer, error) {
	if len(cfg.brokers()) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{client: client, logger: logger}, nil
}

// Produce blocks until the broker acknowledges msg or ctx ends.
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrClosed
	}
	rec := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	for k, v := range msg.Headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce to %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *Producer) Health(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.client.Ping(ctx)
}

// Close flushes what is buffered, giving up after 30s. Calling it twice is
// harmless.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka producer closed with unflushed records", "error", err)
	}
	p.client.Close()
	return nil
}
