package repository

import (
	"context"

	"github.com/jafarshop/cartsync/internal/domain"
)

// EventRecorder stores session audit events
type EventRecorder interface {
	Record(ctx context.Context, event *domain.SessionEvent) error
}

// SessionEventReader lists stored events, newest first
type SessionEventReader interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.SessionEvent, error)
}

// SessionEventRepository is the session event journal
type SessionEventRepository interface {
	EventRecorder
	SessionEventReader
}

// Repositories holds all repository implementations
type Repositories struct {
	SessionEvent SessionEventRepository
}

// NopRecorder drops every event
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *domain.SessionEvent) error {
	return nil
}

func (NopRecorder) ListRecent(context.Context, int) ([]*domain.SessionEvent, error) {
	return nil, nil
}

// NewNopRepositories is used when the event journal is disabled
func NewNopRepositories() *Repositories {
	return &Repositories{SessionEvent: NopRecorder{}}
}
