package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// EntityRepository implements port.EntityRepository on SQLite. Payloads are
// stored as JSON in a single column and decoded into the kind's concrete
// struct on read.
type EntityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(db *sql.DB, logger *zap.Logger) port.EntityRepository {
	return &EntityRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new workflow entity
func (r *EntityRepository) Create(ctx context.Context, e *entity.Entity) error {
	raw, err := entity.EncodePayload(e.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_entities (kind, state, created_by, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(e.Kind),
		string(e.State),
		e.CreatedBy,
		raw,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create entity", zap.String("kind", string(e.Kind)), zap.Error(err))
		return fmt.Errorf("failed to create entity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// GetByID retrieves an entity by ID
func (r *EntityRepository) GetByID(ctx context.Context, id int64) (*entity.Entity, error) {
	query := `
		SELECT id, kind, state, created_by, payload, created_at, updated_at
		FROM workflow_entities
		WHERE id = ?
	`
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id)

	e, err := scanEntity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("entity %d not found", id)
		}
		r.logger.Error("Failed to get entity", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// CompareAndSwapState persists the new state and payload only if the stored
// state still matches expected. The WHERE clause on state is what makes
// concurrent transitions single-winner.
func (r *EntityRepository) CompareAndSwapState(ctx context.Context, id int64, expected workflow.State, e *entity.Entity) (bool, error) {
	raw, err := entity.EncodePayload(e.Payload)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE workflow_entities
		SET state = ?, payload = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		string(e.State),
		raw,
		e.UpdatedAt,
		id,
		string(expected),
	)
	if err != nil {
		r.logger.Error("Failed to swap entity state", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to swap entity state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// UpdatePayload persists payload changes without touching state
func (r *EntityRepository) UpdatePayload(ctx context.Context, e *entity.Entity) error {
	raw, err := entity.EncodePayload(e.Payload)
	if err != nil {
		return err
	}

	query := `UPDATE workflow_entities SET payload = ?, updated_at = ? WHERE id = ?`
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query, raw, time.Now(), e.ID)
	if err != nil {
		r.logger.Error("Failed to update entity payload", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update entity payload: %w", err)
	}
	return nil
}

// ListByKindState retrieves entities of a kind in a specific state
func (r *EntityRepository) ListByKindState(ctx context.Context, kind workflow.Kind, state workflow.State, limit, offset int) ([]*entity.Entity, error) {
	query := `
		SELECT id, kind, state, created_by, payload, created_at, updated_at
		FROM workflow_entities
		WHERE kind = ? AND state = ?
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, string(kind), string(state), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list entities",
			zap.String("kind", string(kind)), zap.String("state", string(state)), zap.Error(err))
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

// ListByKind retrieves entities of a kind regardless of state
func (r *EntityRepository) ListByKind(ctx context.Context, kind workflow.Kind, limit, offset int) ([]*entity.Entity, error) {
	query := `
		SELECT id, kind, state, created_by, payload, created_at, updated_at
		FROM workflow_entities
		WHERE kind = ?
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, string(kind), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list entities", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	return collectEntities(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*entity.Entity, error) {
	var e entity.Entity
	var kind, state, raw string
	if err := row.Scan(&e.ID, &kind, &state, &e.CreatedBy, &raw, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	e.Kind = workflow.Kind(kind)
	e.State = workflow.State(state)

	payload, err := entity.DecodePayload(e.Kind, raw)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}

func collectEntities(rows *sql.Rows) ([]*entity.Entity, error) {
	var entities []*entity.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// Verify interface compliance
var _ port.EntityRepository = (*EntityRepository)(nil)
