package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/todo-list-api/internal/todos"
)

// Metric names published by the worker.
const (
	MetricRecordEvents        = "RecordEvents"
	MetricAttachmentsUploaded = "AttachmentsUploaded"
)

// Counter is satisfied by *aws.Metrics.
type Counter interface {
	Count(ctx context.Context, name string, dimensions map[string]string) error
}

// Processor turns record change events into CloudWatch counters.
type Processor struct {
	metrics Counter
	logger  *slog.Logger
}

// NewProcessor creates a new worker processor with the metrics sink injected.
func NewProcessor(metrics Counter, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{metrics: metrics, logger: logger}
}

// Handle processes an SQS batch. Failed messages are reported individually so
// Lambda retries only those; after too many attempts they go to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker message failed", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev todos.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	switch ev.Type {
	case todos.EventCreated, todos.EventUpdated, todos.EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q for record=%s", ev.Type, ev.RecordID)
	}

	p.logger.Info("record event", "type", ev.Type, "record_id", ev.RecordID, "occurred_at", ev.OccurredAt)

	if err := p.metrics.Count(ctx, MetricRecordEvents, map[string]string{"EventType": ev.Type}); err != nil {
		return fmt.Errorf("count %s: %w", ev.Type, err)
	}
	if ev.Type == todos.EventCreated && ev.HasAttachment {
		if err := p.metrics.Count(ctx, MetricAttachmentsUploaded, nil); err != nil {
			return fmt.Errorf("count attachment: %w", err)
		}
	}
	return nil
}
