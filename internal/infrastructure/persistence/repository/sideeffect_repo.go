package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
)

// SideEffectRepository implements port.SideEffectRepository
type SideEffectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSideEffectRepository creates a new side-effect repository
func NewSideEffectRepository(db *sql.DB, logger *zap.Logger) port.SideEffectRepository {
	return &SideEffectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending side-effect record
func (r *SideEffectRepository) Create(ctx context.Context, rec *entity.SideEffectRecord) error {
	query := `
		INSERT INTO side_effects (
			id, entity_id, intent, status, attempts, last_error,
			next_attempt_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		rec.ID,
		rec.EntityID,
		rec.Intent,
		rec.Status,
		rec.Attempts,
		rec.LastError,
		rec.NextAttemptAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create side-effect record",
			zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to create side-effect record: %w", err)
	}
	return nil
}

// GetByID retrieves a side-effect record
func (r *SideEffectRepository) GetByID(ctx context.Context, id string) (*entity.SideEffectRecord, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, selectSideEffect+" WHERE id = ?", id)

	rec, err := scanSideEffect(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("side-effect record %s not found", id)
		}
		return nil, fmt.Errorf("failed to get side-effect record: %w", err)
	}
	return rec, nil
}

// GetByEntityID retrieves all side-effect records for an entity
func (r *SideEffectRepository) GetByEntityID(ctx context.Context, entityID int64) ([]*entity.SideEffectRecord, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		selectSideEffect+" WHERE entity_id = ? ORDER BY created_at ASC", entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list side-effect records: %w", err)
	}
	defer rows.Close()

	return collectSideEffects(rows)
}

// GetDue retrieves pending records whose next attempt time has passed
func (r *SideEffectRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]*entity.SideEffectRecord, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		selectSideEffect+` WHERE status = ? AND next_attempt_at <= ? ORDER BY next_attempt_at ASC LIMIT ?`,
		entity.SideEffectStatusPending, now, limit)
	if err != nil {
		r.logger.Error("Failed to list due side effects", zap.Error(err))
		return nil, fmt.Errorf("failed to list due side effects: %w", err)
	}
	defer rows.Close()

	return collectSideEffects(rows)
}

// MarkCompleted records successful execution
func (r *SideEffectRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	query := `
		UPDATE side_effects
		SET status = ?, attempts = attempts + 1, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.SideEffectStatusCompleted, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark side effect completed: %w", err)
	}
	return nil
}

// MarkDiscarded records that the effect was dropped as stale or unhandled
func (r *SideEffectRepository) MarkDiscarded(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE side_effects
		SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.SideEffectStatusDiscarded, reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark side effect discarded: %w", err)
	}
	return nil
}

// RecordFailure updates the record after a failed attempt. An exhausted
// record goes to FAILED and leaves the retry queue.
func (r *SideEffectRepository) RecordFailure(ctx context.Context, id string, attempts int, lastError string, nextAttemptAt time.Time, exhausted bool) error {
	status := entity.SideEffectStatusPending
	if exhausted {
		status = entity.SideEffectStatusFailed
	}

	query := `
		UPDATE side_effects
		SET status = ?, attempts = ?, last_error = ?, next_attempt_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, attempts, lastError, nextAttemptAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to record side-effect failure: %w", err)
	}
	return nil
}

// CountIncompleteByEntity counts records still awaiting execution or retry
func (r *SideEffectRepository) CountIncompleteByEntity(ctx context.Context, entityID int64) (int, error) {
	query := `SELECT COUNT(*) FROM side_effects WHERE entity_id = ? AND status = ?`
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, entityID, entity.SideEffectStatusPending)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count incomplete side effects: %w", err)
	}
	return count, nil
}

const selectSideEffect = `
	SELECT id, entity_id, intent, status, attempts, last_error,
		next_attempt_at, completed_at, created_at, updated_at
	FROM side_effects
`

func scanSideEffect(row rowScanner) (*entity.SideEffectRecord, error) {
	var rec entity.SideEffectRecord
	var lastError sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.EntityID,
		&rec.Intent,
		&rec.Status,
		&rec.Attempts,
		&lastError,
		&rec.NextAttemptAt,
		&completedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastError.Valid {
		rec.LastError = lastError.String
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

func collectSideEffects(rows *sql.Rows) ([]*entity.SideEffectRecord, error) {
	var records []*entity.SideEffectRecord
	for rows.Next() {
		rec, err := scanSideEffect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan side-effect record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Verify interface compliance
var _ port.SideEffectRepository = (*SideEffectRepository)(nil)
