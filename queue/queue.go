package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"task_app_backend/models"

	"github.com/go-redis/redis/v8"
)

const (
	highQueue   = "task_events:high"
	mediumQueue = "task_events:medium"
	lowQueue    = "task_events:low"

	workersKey = "task_events:workers"
)

// Dequeue checks the lists in this order.
var queueOrder = []string{highQueue, mediumQueue, lowQueue}

// Queue carries task change events through Redis lists, one per priority.
type Queue struct {
	Client *redis.Client
}

func NewQueue(redisAddr string) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return &Queue{Client: client}
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.Client.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.Client.Close()
}

// Publish enqueues the event on the list matching its priority.
func (q *Queue) Publish(ctx context.Context, event models.TaskEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return q.Client.RPush(ctx, queueFor(event.Priority), data).Err()
}

func queueFor(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return highQueue
	case models.PriorityMedium:
		return mediumQueue
	default:
		return lowQueue
	}
}

// Dequeue blocks up to timeout for the next event. It returns redis.Nil when
// nothing arrived.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*models.TaskEvent, error) {
	result, err := q.Client.BLPop(ctx, timeout, queueOrder...).Result()
	if err != nil {
		return nil, err
	}
	// result is [key, value]
	var event models.TaskEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		return nil, fmt.Errorf("unmarshal event from %s: %w", result[0], err)
	}
	return &event, nil
}

func (q *Queue) RegisterWorker(ctx context.Context, id string) error {
	return q.Client.HSet(ctx, workersKey, id, "active").Err()
}

func (q *Queue) DeregisterWorker(ctx context.Context, id string) error {
	return q.Client.HDel(ctx, workersKey, id).Err()
}

// ActiveWorkers returns the registered worker ids and their state.
func (q *Queue) ActiveWorkers(ctx context.Context) (map[string]string, error) {
	return q.Client.HGetAll(ctx, workersKey).Result()
}
