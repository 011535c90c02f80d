package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// Publisher publishes domain events after their originating transaction has
// committed. Delivery is fire-and-forget from the caller's point of view.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte)
	Close()
}

type confluentKafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *kafka.Producer) Publisher {
	p := &confluentKafkaPublisher{
		logger:   logger,
		producer: producer,
	}

	go p.watchDeliveries()

	return p
}

func (p *confluentKafkaPublisher) watchDeliveries() {
	for e := range p.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			p.logger.WithError(m.TopicPartition.Error).Error("message delivery failed")
		}
	}
}

func (p *confluentKafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          message,
		Headers:        kafkaHeaders,
	}, nil)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to enqueue message")
	}
}

func (p *confluentKafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
