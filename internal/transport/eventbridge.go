package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
)

const (
	eventSource     = "invokelens.sdk"
	eventDetailType = "InvocationTelemetry"
	defaultEventBus = "invokelens-bus"
)

const ebFlushTimeout = 10 * time.Second

// eventBridgeClient is the subset of the EventBridge SDK client this
// package needs, so tests can supply a fake.
type eventBridgeClient interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// eventBridgeTransport batches events and publishes them to an EventBridge
// event bus, one PutEvents entry per event. This is the message-bus
// delivery mode, for deployments that route telemetry through an event
// bus instead of a direct HTTP ingestion endpoint.
type eventBridgeTransport struct {
	*batched
	client       eventBridgeClient
	eventBusName string
}

// NewEventBridge constructs a Transport that publishes events to an
// EventBridge bus via client.
func NewEventBridge(client eventBridgeClient, eventBusName string, batchSize int, flushInterval time.Duration, maxQueueSize int) Transport {
	if eventBusName == "" {
		eventBusName = defaultEventBus
	}
	e := &eventBridgeTransport{
		client:       client,
		eventBusName: eventBusName,
	}
	e.batched = newBatched(e, batchSize, flushInterval, maxQueueSize)
	return e
}

func (e *eventBridgeTransport) Flush(batch []string) {
	entries := make([]types.PutEventsRequestEntry, len(batch))
	for i, eventJSON := range batch {
		entries[i] = types.PutEventsRequestEntry{
			Source:       aws.String(eventSource),
			DetailType:   aws.String(eventDetailType),
			Detail:       aws.String(eventJSON),
			EventBusName: aws.String(e.eventBusName),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ebFlushTimeout)
	defer cancel()

	out, err := e.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		ilog.Warn("InvokeLens EventBridge delivery failed: %s", err)
		return
	}
	if out.FailedEntryCount > 0 {
		ilog.Warn("InvokeLens EventBridge: %d/%d entries failed", out.FailedEntryCount, len(entries))
	}
}
