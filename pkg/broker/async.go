package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrQueueFull       = errors.New("publish queue is full")
)

type envelope struct {
	key     string
	message interface{}
}

type asyncPublisher struct {
	next    Publisher
	queue   chan envelope
	timeout time.Duration

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncPublisher queues messages for a single background worker, so Publish never
// waits for the broker. Messages are delivered in the order they were queued.
// Delivery errors are logged by the worker; a full queue is reported to the caller.
func NewAsyncPublisher(next Publisher, buffer int, timeout time.Duration) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	p := &asyncPublisher{
		next:    next,
		queue:   make(chan envelope, buffer),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *asyncPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- envelope{key: key, message: message}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *asyncPublisher) run() {
	defer close(p.done)

	for env := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.next.Publish(ctx, env.key, env.message); err != nil {
			logrus.WithFields(logrus.Fields{
				"key":   env.key,
				"error": err,
			}).Error("Failed to deliver queued message")
		}
		cancel()
	}
}

// Close stops accepting messages, waits until the queue is drained and closes next.
func (p *asyncPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		<-p.done
		err = p.next.Close()
	})
	return err
}
