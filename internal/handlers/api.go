package handlers

import (
	"context"

	"coaching-assistant-api/internal/assistant"
	"coaching-assistant-api/internal/cache"
	"coaching-assistant-api/internal/chatmemory"
	"coaching-assistant-api/internal/lifecycle"
	"coaching-assistant-api/internal/realtime"
	"coaching-assistant-api/internal/storage"

	"gorm.io/gorm"
)

// Responder generates model output; satisfied by assistant.Client and
// by test fakes.
type Responder interface {
	Respond(ctx context.Context, system string, history []assistant.Turn, input, vectorStoreID string) (string, int, error)
}

// API carries the explicitly constructed application components into
// the route handlers. Everything is passed by reference so tests can
// substitute fakes.
type API struct {
	DB        *gorm.DB
	Cache     *cache.Store
	Router    *cache.Router
	Storage   storage.Storage
	Memory    *chatmemory.Service
	Lifecycle *lifecycle.Manager
	Responder Responder
	Hub       *realtime.Hub
}
