package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"task-service/internal/entity"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// TaskEvent describes one change to a task. Task is nil for deletions.
type TaskEvent struct {
	Type   string       `json:"type"`
	TaskID string       `json:"id"`
	Task   *entity.Task `json:"task,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event TaskEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes task events to a single topic.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event TaskEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// task-created-<id>, task-updated-<id>, task-deleted-<id>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("task-%s-%s", event.Type, event.TaskID)),
		Value: eventJSON,
	}

	return p.writer.WriteMessages(ctx, msg)
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TaskEvent) error { return nil }
