package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/uniclub/uc-points/config"
)

func NewProducer() *kafka.Producer {
	c := config.Get()

	cm := &kafka.ConfigMap{
		"bootstrap.servers": c.Kafka.BootstrapServers,
	}

	if c.Kafka.SASLUsername != "" {
		cm.SetKey("security.protocol", "SASL_SSL")
		cm.SetKey("sasl.mechanisms", "PLAIN")
		cm.SetKey("sasl.username", c.Kafka.SASLUsername)
		cm.SetKey("sasl.password", c.Kafka.SASLPassword)
	}

	producer, err := kafka.NewProducer(cm)
	if err != nil {
		panic(err)
	}

	return producer
}
