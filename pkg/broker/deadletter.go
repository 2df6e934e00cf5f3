package broker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DeadLetterSink keeps messages that could not be delivered.
type DeadLetterSink interface {
	Store(ctx context.Context, key string, message interface{}, cause error) error
}

type deadLetterPublisher struct {
	next Publisher
	sink DeadLetterSink
}

// NewDeadLetterPublisher hands messages that next failed to deliver over to sink.
// The publish error is still returned to the caller.
func NewDeadLetterPublisher(next Publisher, sink DeadLetterSink) Publisher {
	return &deadLetterPublisher{next: next, sink: sink}
}

func (p *deadLetterPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	err := p.next.Publish(ctx, key, message)
	if err == nil {
		return nil
	}

	// ctx может быть уже отменён, DLQ пишем с собственным таймаутом
	dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if dlqErr := p.sink.Store(dlqCtx, key, message, err); dlqErr != nil {
		logrus.WithFields(logrus.Fields{
			"key":   key,
			"error": dlqErr,
		}).Error("Failed to move message to dead letter queue")
	} else {
		logrus.WithField("key", key).Warn("Message moved to dead letter queue")
	}
	return err
}

func (p *deadLetterPublisher) Close() error {
	return p.next.Close()
}
