package eventbridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindweave-backend/domain/events"
)

// stubEventBridge records PutEvents calls
type stubEventBridge struct {
	inputs  []*awseventbridge.PutEventsInput
	failAll bool
}

func (s *stubEventBridge) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.failAll {
		entries := make([]types.PutEventsResultEntry, len(params.Entries))
		for i := range entries {
			entries[i] = types.PutEventsResultEntry{
				ErrorCode:    aws.String("InternalException"),
				ErrorMessage: aws.String("simulated failure"),
			}
		}
		return &awseventbridge.PutEventsOutput{
			FailedEntryCount: int32(len(params.Entries)),
			Entries:          entries,
		}, nil
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

func TestPublisher_Publish_BuildsEnvelope(t *testing.T) {
	// Arrange
	client := &stubEventBridge{}
	publisher := NewPublisher(client, "mindweave-events", zap.NewNop())
	event := events.NewExpansionCompleted("job-1", "user-1", 7, 9)

	// Act
	err := publisher.Publish(context.Background(), event)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)

	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "mindweave-events", *entry.EventBusName)
	assert.Equal(t, events.SourceBackend, *entry.Source)
	assert.Equal(t, events.EventTypeExpansionCompleted, *entry.DetailType)

	var envelope eventEnvelope
	require.NoError(t, json.Unmarshal([]byte(*entry.Detail), &envelope))
	assert.Equal(t, "job-1", envelope.AggregateID)
	assert.Equal(t, "user-1", envelope.OwnerID)
	assert.Equal(t, float64(7), envelope.Data["nodeCount"])
}

func TestPublisher_PublishBatch_ChunksAtTen(t *testing.T) {
	// Arrange: 23 events need three PutEvents calls
	client := &stubEventBridge{}
	publisher := NewPublisher(client, "mindweave-events", zap.NewNop())

	batch := make([]events.DomainEvent, 23)
	for i := range batch {
		batch[i] = events.NewExpansionProgress("job-1", "user-1", 1, 50, i, i)
	}

	// Act
	err := publisher.PublishBatch(context.Background(), batch)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.inputs, 3)
	assert.Len(t, client.inputs[0].Entries, 10)
	assert.Len(t, client.inputs[1].Entries, 10)
	assert.Len(t, client.inputs[2].Entries, 3)
}

func TestPublisher_PublishBatch_EmptyIsNoop(t *testing.T) {
	client := &stubEventBridge{}
	publisher := NewPublisher(client, "mindweave-events", zap.NewNop())

	require.NoError(t, publisher.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.inputs)
}

func TestPublisher_Publish_ReportsFailedEntries(t *testing.T) {
	client := &stubEventBridge{failAll: true}
	publisher := NewPublisher(client, "mindweave-events", zap.NewNop())

	err := publisher.Publish(context.Background(), events.NewExpansionStarted("job-1", "user-1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish")
}
