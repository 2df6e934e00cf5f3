package broker

import (
	"context"
	"fmt"
	"time"
)

// Publisher delivers JSON-encoded messages to a message broker. The key is used for
// partitioning where the driver supports it.
type Publisher interface {
	Publish(ctx context.Context, key string, message interface{}) error
	Close() error
}

type Config struct {
	Driver     string
	URL        string
	Brokers    []string
	Queue      string
	Topic      string
	MaxRetries int
	BaseDelay  time.Duration
}

const (
	DriverRabbitMQ = "rabbitmq"
	DriverKafka    = "kafka"
	DriverLog      = "log"
)

// New builds the publisher for cfg.Driver wrapped in the retry policy.
func New(cfg Config) (Publisher, error) {
	var (
		publisher Publisher
		err       error
	)

	switch cfg.Driver {
	case DriverRabbitMQ:
		publisher, err = NewRabbitMQ(RabbitMQConfig{URL: cfg.URL, QueueName: cfg.Queue})
	case DriverKafka:
		publisher = NewKafka(cfg.Brokers, cfg.Topic)
	case DriverLog, "":
		publisher = NewLogPublisher()
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return NewRetryingPublisher(publisher, NewRetryPolicy(cfg.MaxRetries, cfg.BaseDelay)), nil
}
