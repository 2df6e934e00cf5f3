package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// logPublisher writes messages to the application log. Used when no broker is configured.
type logPublisher struct{}

func NewLogPublisher() Publisher {
	return &logPublisher{}
}

func (p *logPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"key":     key,
		"message": string(body),
	}).Info("Event published")
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
