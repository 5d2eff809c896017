package event

import (
	"testing"

	"github.com/erp/rental/internal/domain/agreement"
	"github.com/erp/rental/internal/domain/collection"
	"github.com/stretchr/testify/assert"
)

// ============ HandlerRegistry Tests ============

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	h := newTestHandler()

	registry.Register(h, collection.EventTypeCollectionRecorded, agreement.EventTypeAgreementActivated)
	registry.Register(h, collection.EventTypeCollectionRecorded)

	assert.Len(t, registry.GetHandlers(collection.EventTypeCollectionRecorded), 1, "no duplicate registration")
	assert.Len(t, registry.GetHandlers(agreement.EventTypeAgreementActivated), 1)
	assert.Empty(t, registry.GetHandlers(collection.EventTypeCollectionCancelled))
	assert.Equal(t, []string{agreement.EventTypeAgreementActivated, collection.EventTypeCollectionRecorded}, registry.EventTypes())
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newTestHandler()
	all := newTestHandler()

	registry.Register(typed, collection.EventTypeCollectionRecorded)
	registry.Register(all)

	handlers := registry.GetHandlers(collection.EventTypeCollectionRecorded)
	assert.Len(t, handlers, 2)
	assert.Same(t, all, handlers[1], "wildcard handlers come last")
	assert.Len(t, registry.GetHandlers("Other"), 1)
	assert.Empty(t, registry.EventTypes()[1:])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()

	registry.Register(h1, collection.EventTypeCollectionRecorded, collection.EventTypeCollectionCancelled)
	registry.Register(h2, collection.EventTypeCollectionRecorded)
	registry.Register(h1)

	registry.Unregister(h1)

	assert.Len(t, registry.GetHandlers(collection.EventTypeCollectionRecorded), 1)
	assert.Empty(t, registry.GetHandlers(collection.EventTypeCollectionCancelled))
	assert.Equal(t, []string{collection.EventTypeCollectionRecorded}, registry.EventTypes())
}
