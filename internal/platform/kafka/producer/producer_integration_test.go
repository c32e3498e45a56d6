//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"stewardship/internal/platform/kafka/producer"
	"stewardship/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *ProducerIntegrationSuite) consume(ctx context.Context, topic, key string) *kgo.Record {
	record, err := s.kafka.Consume(ctx, topic, key, 5*time.Second)
	s.Require().NoError(err)
	return record
}

func (s *ProducerIntegrationSuite) TestProduceDeliversEntry() {
	ctx := context.Background()
	topic := "stewardship.audit.test"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("record-1"),
		Value: []byte(`{"kind":"ownership","action":"transfer"}`),
		Headers: map[string]string{
			"kind":   "ownership",
			"action": "transfer",
		},
	})
	s.Require().NoError(err)

	record := s.consume(ctx, topic, "record-1")
	s.Require().NotNil(record, "entry should be consumable")
	s.JSONEq(`{"kind":"ownership","action":"transfer"}`, string(record.Value))

	headers := make(map[string]string)
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("ownership", headers["kind"])
	s.Equal("transfer", headers["action"])
}

func (s *ProducerIntegrationSuite) TestProduceAutoCreatesTopic() {
	ctx := context.Background()
	topic := "stewardship.auto." + time.Now().Format("20060102150405")

	err := s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("auto-key"),
		Value: []byte("{}"),
	})
	s.Require().NoError(err)
	s.NotNil(s.consume(ctx, topic, "auto-key"))
}

func (s *ProducerIntegrationSuite) TestHealth() {
	s.NoError(s.producer.Health(context.Background()))
}
