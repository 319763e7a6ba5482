package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
)

type sessionEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionEventRepository creates a new session event repository
func NewSessionEventRepository(db *sql.DB, logger *zap.Logger) *sessionEventRepository {
	return &sessionEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sessionEventRepository) Record(ctx context.Context, event *domain.SessionEvent) error {
	query := `
		INSERT INTO session_events (id, kind, subject, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.Kind,
		event.Subject,
		data,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to record session event", zap.String("kind", event.Kind), zap.Error(err))
		return err
	}

	return nil
}

func (r *sessionEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SessionEvent, error) {
	query := `
		SELECT id, kind, subject, data, created_at
		FROM session_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to query session events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.SessionEvent
	for rows.Next() {
		var event domain.SessionEvent
		var data []byte

		if err := rows.Scan(&event.ID, &event.Kind, &event.Subject, &data, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
