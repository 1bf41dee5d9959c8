package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"backend/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Queue and task names the Celery worker pool listens on.
	TaskQueue          = "celery"
	RecommendationTask = "tasks.process_ml_recommendation"

	recommendationKeyPrefix = "recommendation:"
)

// Broker is the slice of the queue/result store the dispatcher needs.
// RedisBroker is the production implementation; tests swap in a capture.
type Broker interface {
	PushTask(ctx context.Context, queue string, payload []byte) error
	// FetchResult returns (nil, false, nil) when the key is absent.
	FetchResult(ctx context.Context, key string) ([]byte, bool, error)
}

type RedisBroker struct {
	Client *redis.Client
}

func (b *RedisBroker) PushTask(ctx context.Context, queue string, payload []byte) error {
	return b.Client.LPush(ctx, queue, payload).Err()
}

func (b *RedisBroker) FetchResult(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// taskMessage is the inner Celery envelope. The worker decodes this from
// the base64 body of the outer envelope, so field names are a wire
// contract.
type taskMessage struct {
	ID      string                 `json:"id"`
	Task    string                 `json:"task"`
	Args    []interface{}          `json:"args"`
	Kwargs  map[string]interface{} `json:"kwargs"`
	Retries int                    `json:"retries"`
	ETA     *string                `json:"eta"`
	Expires *string                `json:"expires"`
}

// taskEnvelope is the outer Celery protocol v1 envelope.
type taskEnvelope struct {
	Body            string         `json:"body"`
	ContentEncoding string         `json:"content-encoding"`
	ContentType     string         `json:"content-type"`
	Headers         struct{}       `json:"headers"`
	Properties      taskProperties `json:"properties"`
}

type taskProperties struct {
	BodyEncoding  string       `json:"body_encoding"`
	CorrelationID string       `json:"correlation_id"`
	DeliveryInfo  deliveryInfo `json:"delivery_info"`
	DeliveryMode  int          `json:"delivery_mode"`
	DeliveryTag   string       `json:"delivery_tag"`
	ReplyTo       string       `json:"reply_to"`
}

type deliveryInfo struct {
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

// FoodRecommendation is one entry of a computed recommendation result.
type FoodRecommendation struct {
	UserID              uint    `json:"user_id"`
	FoodID              uint    `json:"food_id"`
	RecommendationScore float64 `json:"recommendation_score"`
}

// TaskService enqueues compute requests for the external worker pool and
// reads back results it has already produced.
type TaskService struct {
	broker Broker
}

func NewTaskService(broker Broker) *TaskService {
	return &TaskService{broker: broker}
}

// Dispatch wraps the call in the Celery envelope pair and pushes it onto
// the queue. Fire-and-forget: the returned id is for correlation only,
// nothing waits on it.
func (s *TaskService) Dispatch(ctx context.Context, taskName string, args ...interface{}) (string, error) {
	taskID := uuid.NewString()

	if args == nil {
		args = []interface{}{}
	}
	inner := taskMessage{
		ID:      taskID,
		Task:    taskName,
		Args:    args,
		Kwargs:  map[string]interface{}{}, // must encode as {}, never []
		Retries: 0,
	}
	body, err := json.Marshal(inner)
	if err != nil {
		return "", err
	}

	outer := taskEnvelope{
		Body:            base64.StdEncoding.EncodeToString(body),
		ContentEncoding: "utf-8",
		ContentType:     "application/json",
		Properties: taskProperties{
			BodyEncoding:  "base64",
			CorrelationID: taskID,
			DeliveryInfo: deliveryInfo{
				Exchange:   "",
				RoutingKey: TaskQueue,
			},
			DeliveryMode: 2,
			DeliveryTag:  taskID,
			ReplyTo:      taskID,
		},
	}
	payload, err := json.Marshal(outer)
	if err != nil {
		return "", err
	}

	if err := s.broker.PushTask(ctx, TaskQueue, payload); err != nil {
		return "", apperror.Downstream(fmt.Sprintf("task queue unavailable: %v", err))
	}
	return taskID, nil
}

// FetchRecommendation is a single best-effort read of the worker's last
// result for this user. No polling, no backoff.
func (s *TaskService) FetchRecommendation(ctx context.Context, userID uint) ([]FoodRecommendation, error) {
	key := fmt.Sprintf("%s%d", recommendationKeyPrefix, userID)
	raw, found, err := s.broker.FetchResult(ctx, key)
	if err != nil {
		return nil, apperror.Downstream(fmt.Sprintf("result store unavailable: %v", err))
	}
	if !found {
		return nil, nil
	}

	// The worker stores {"foods": [...]}; older results were a bare array.
	var wrapped struct {
		Foods []FoodRecommendation `json:"foods"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Foods != nil {
		return wrapped.Foods, nil
	}
	var flat []FoodRecommendation
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	return nil, nil
}
