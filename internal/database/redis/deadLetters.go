package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

const deadLetterKey = "equipment_booking:events:dlq"

// DeadLetters stores undelivered events in a sorted set scored by failure time.
type DeadLetters struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewDeadLetters(client *redis.Client) *DeadLetters {
	return &DeadLetters{client: client, key: deadLetterKey, now: time.Now}
}

func (d *DeadLetters) Store(ctx context.Context, key string, message interface{}, cause error) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	failed := entity.FailedEvent{
		Key:      key,
		Message:  body,
		Error:    cause.Error(),
		FailedAt: d.now().UTC(),
	}
	data, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("failed to marshal failed event: %w", err)
	}

	score := float64(failed.FailedAt.UnixNano()) / 1e9
	if err := d.client.ZAdd(ctx, d.key, &redis.Z{Score: score, Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to store failed event: %w", err)
	}
	return nil
}

// List returns the oldest failed events first.
func (d *DeadLetters) List(ctx context.Context, limit int64) ([]entity.FailedEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	members, err := d.client.ZRange(ctx, d.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read failed events: %w", err)
	}

	events := make([]entity.FailedEvent, 0, len(members))
	for _, m := range members {
		var ev entity.FailedEvent
		if err := json.Unmarshal([]byte(m), &ev); err != nil {
			logrus.WithError(err).Warn("Skipping unreadable failed event")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
