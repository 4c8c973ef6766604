package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository. The table is
// append-only; nothing updates or deletes a committed record.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append records a committed transition
func (r *HistoryRepository) Append(ctx context.Context, rec *entity.TransitionRecord) error {
	query := `
		INSERT INTO transition_history (
			entity_id, actor_id, actor_role, action, from_state, to_state, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rec.EntityID,
		rec.ActorID,
		rec.ActorRole,
		rec.Action,
		rec.FromState,
		rec.ToState,
		rec.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append transition record",
			zap.Int64("entity_id", rec.EntityID), zap.Error(err))
		return fmt.Errorf("failed to append transition record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetByEntityID retrieves all transition records for an entity in commit order
func (r *HistoryRepository) GetByEntityID(ctx context.Context, entityID int64) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, entity_id, actor_id, actor_role, action, from_state, to_state, timestamp
		FROM transition_history
		WHERE entity_id = ?
		ORDER BY id ASC
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, entityID)
	if err != nil {
		r.logger.Error("Failed to get transition history",
			zap.Int64("entity_id", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to get transition history: %w", err)
	}
	defer rows.Close()

	var records []*entity.TransitionRecord
	for rows.Next() {
		var rec entity.TransitionRecord
		err := rows.Scan(
			&rec.ID,
			&rec.EntityID,
			&rec.ActorID,
			&rec.ActorRole,
			&rec.Action,
			&rec.FromState,
			&rec.ToState,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// GetLatest retrieves the most recent transition record for an entity, or nil
// when the entity has none
func (r *HistoryRepository) GetLatest(ctx context.Context, entityID int64) (*entity.TransitionRecord, error) {
	query := `
		SELECT id, entity_id, actor_id, actor_role, action, from_state, to_state, timestamp
		FROM transition_history
		WHERE entity_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, entityID)

	var rec entity.TransitionRecord
	err := row.Scan(
		&rec.ID,
		&rec.EntityID,
		&rec.ActorID,
		&rec.ActorRole,
		&rec.Action,
		&rec.FromState,
		&rec.ToState,
		&rec.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest transition record: %w", err)
	}
	return &rec, nil
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
