package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/approval-flow/internal/application/port"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/infrastructure/persistence/sqlite"
)

// DecisionRepository implements port.DecisionRepository on SQLite
type DecisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sql.DB, logger *zap.Logger) port.DecisionRepository {
	return &DecisionRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a decision record to the trail
func (r *DecisionRepository) Create(ctx context.Context, record *entity.DecisionRecord) error {
	query := `
		INSERT INTO decision_records (
			item_id, actor_id, action_type, previous_status, new_status,
			reason, comments, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		record.ItemID,
		record.ActorID,
		record.ActionType,
		string(record.PreviousStatus),
		string(record.NewStatus),
		nullString(record.Reason),
		nullString(record.Comments),
		record.DecidedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create decision record", zap.String("item_id", record.ItemID), zap.Error(err))
		return fmt.Errorf("failed to create decision record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListByItemID retrieves an item's decision trail in chronological order
func (r *DecisionRepository) ListByItemID(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error) {
	query := `
		SELECT id, item_id, actor_id, action_type, previous_status, new_status,
			reason, comments, decided_at
		FROM decision_records
		WHERE item_id = ?
		ORDER BY decided_at, id
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, itemID)
	if err != nil {
		r.logger.Error("Failed to list decision records", zap.String("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("failed to list decision records: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.DecisionRecord, 0)
	for rows.Next() {
		var record entity.DecisionRecord
		var previousStatus, newStatus string
		var reason, comments sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.ItemID,
			&record.ActorID,
			&record.ActionType,
			&previousStatus,
			&newStatus,
			&reason,
			&comments,
			&record.DecidedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision record: %w", err)
		}

		record.PreviousStatus = workflow.State(previousStatus)
		record.NewStatus = workflow.State(newStatus)
		record.Reason = reason.String
		record.Comments = comments.String
		records = append(records, &record)
	}

	return records, rows.Err()
}
