package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/todo-list-api/internal/aws"
	"github.com/imrishuroy/todo-list-api/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{
		Region:           cfg.AWS.Region,
		EndpointOverride: cfg.AWS.EndpointOverride,
	})
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	p := NewProcessor(aws.NewMetrics(clients.CloudWatch, cfg.Events.MetricsNamespace), logger)

	// If RUN_LOCAL=true, process a single simulated SQS message and exit.
	if cfg.App.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"RECORD_CREATED","record_id":"local-record-1","has_attachment":false}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			log.Fatalf("local handler error: %v (failures=%d)", err, len(resp.BatchItemFailures))
		}
		return
	}

	lambda.Start(p.Handle)
}
