package transport

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
)

type fakeEventBridgeClient struct {
	calls   [][]string
	failing int32
}

func (f *fakeEventBridgeClient) PutEvents(_ context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	details := make([]string, len(params.Entries))
	for i, e := range params.Entries {
		details[i] = *e.Detail
	}
	f.calls = append(f.calls, details)
	return &eventbridge.PutEventsOutput{FailedEntryCount: f.failing}, nil
}

func TestEventBridgeFlushPublishesEntries(t *testing.T) {
	client := &fakeEventBridgeClient{}
	e := &eventBridgeTransport{client: client, eventBusName: "my-bus"}
	e.Flush([]string{`{"event_id":"1"}`, `{"event_id":"2"}`})

	require.Len(t, client.calls, 1)
	assert.Equal(t, []string{`{"event_id":"1"}`, `{"event_id":"2"}`}, client.calls[0])
}

func TestNewEventBridgeDefaultsEventBus(t *testing.T) {
	client := &fakeEventBridgeClient{}
	e := &eventBridgeTransport{client: client, eventBusName: ""}
	assert.Equal(t, "", e.eventBusName)

	e2 := NewEventBridge(client, "", 10, 0, 0).(*eventBridgeTransport)
	defer e2.Shutdown()
	assert.Equal(t, defaultEventBus, e2.eventBusName)
}

func TestEventBridgeFlushLogsFailedEntries(t *testing.T) {
	rl := &ilog.RecordLogger{}
	ilog.UseLogger(rl)
	defer ilog.UseLogger(ilog.DiscardLogger{})

	client := &fakeEventBridgeClient{failing: 1}
	e := &eventBridgeTransport{client: client, eventBusName: "my-bus"}
	e.Flush([]string{`{"event_id":"1"}`})
	require.Len(t, client.calls, 1)
	require.Len(t, rl.Logs(), 1)
	assert.Contains(t, rl.Logs()[0], "1/1 entries failed")
}
