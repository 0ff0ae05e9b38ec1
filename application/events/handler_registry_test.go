package events

import (
	"context"
	"fmt"
	"testing"

	domainevents "mindweave-backend/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	name     string
	priority int
	seen     []string
	fail     bool
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, event domainevents.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	if h.fail {
		return fmt.Errorf("handler %s failed", h.name)
	}
	h.seen = append(h.seen, event.EventType())
	return nil
}

func (h *recordingHandler) SupportsEvent(eventType string) bool { return true }
func (h *recordingHandler) Priority() int                       { return h.priority }
func (h *recordingHandler) Name() string                        { return h.name }

func TestHandlerRegistry_RegisterAndDispatch(t *testing.T) {
	registry := NewHandlerRegistry(zap.NewNop())
	handler := &recordingHandler{name: "momentum", priority: 1}

	err := registry.Register([]string{domainevents.EventTypeExpansionStarted}, handler)
	require.NoError(t, err)

	registry.Dispatch(context.Background(), domainevents.NewExpansionStarted("job1", "user1"))

	assert.Equal(t, []string{domainevents.EventTypeExpansionStarted}, handler.seen)
}

func TestHandlerRegistry_RejectsNilHandler(t *testing.T) {
	registry := NewHandlerRegistry(zap.NewNop())

	err := registry.Register([]string{domainevents.EventTypeExpansionStarted}, nil)
	assert.Error(t, err)
}

func TestHandlerRegistry_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	registry := NewHandlerRegistry(zap.NewNop())
	failing := &recordingHandler{name: "failing", priority: 0, fail: true}
	healthy := &recordingHandler{name: "healthy", priority: 1}

	require.NoError(t, registry.Register([]string{domainevents.EventTypeExpansionCompleted}, failing))
	require.NoError(t, registry.Register([]string{domainevents.EventTypeExpansionCompleted}, healthy))

	registry.Dispatch(context.Background(), domainevents.NewExpansionCompleted("job1", "user1", 5, 4))

	assert.Len(t, healthy.seen, 1)
}

func TestHandlerRegistry_PanickingHandlerIsContained(t *testing.T) {
	registry := NewHandlerRegistry(zap.NewNop())
	panicking := &recordingHandler{name: "panicking", priority: 0, panics: true}
	healthy := &recordingHandler{name: "healthy", priority: 1}

	require.NoError(t, registry.Register([]string{domainevents.EventTypeExpansionFailed}, panicking))
	require.NoError(t, registry.Register([]string{domainevents.EventTypeExpansionFailed}, healthy))

	assert.NotPanics(t, func() {
		registry.Dispatch(context.Background(), domainevents.NewExpansionFailed("job1", "user1", "boom"))
	})
	assert.Len(t, healthy.seen, 1)
}

func TestLocalEventBus_PublishBatch(t *testing.T) {
	registry := NewHandlerRegistry(zap.NewNop())
	handler := &recordingHandler{name: "listener", priority: 0}
	require.NoError(t, registry.Register([]string{
		domainevents.EventTypeExpansionStarted,
		domainevents.EventTypeExpansionProgress,
	}, handler))

	bus := NewLocalEventBus(registry)
	err := bus.PublishBatch(context.Background(), []domainevents.DomainEvent{
		domainevents.NewExpansionStarted("job1", "user1"),
		domainevents.NewExpansionProgress("job1", "user1", 1, 50, 3, 3),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		domainevents.EventTypeExpansionStarted,
		domainevents.EventTypeExpansionProgress,
	}, handler.seen)
}
