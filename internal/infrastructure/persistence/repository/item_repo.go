package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/approval-flow/internal/application/port"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/infrastructure/persistence/sqlite"
)

// ItemRepository implements port.ItemRepository on SQLite
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = `
	id, reference, title, kind, amount, submitted_by, submitted_at, status,
	decided_by, decided_at, rejection_reason, priority, description,
	metadata, created_at, updated_at
`

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}

	_, err = sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		nullString(item.Reference),
		item.Title,
		item.Kind,
		amountToNull(item.Amount),
		item.SubmittedBy,
		item.SubmittedAt,
		string(item.Status),
		nullString(item.DecidedBy),
		nullTimePtr(item.DecidedAt),
		nullString(item.RejectionReason),
		nullString(string(item.Priority)),
		nullString(item.Description),
		metadata,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by ID; a missing item returns (nil, nil)
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get item", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// GetByReference retrieves an item by its client-supplied reference; a
// missing item returns (nil, nil)
func (r *ItemRepository) GetByReference(ctx context.Context, reference string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE reference = ?`

	item, err := scanItem(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, reference))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get item by reference", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to get item by reference: %w", err)
	}

	return item, nil
}

// Update rewrites the mutable fields of an item
func (r *ItemRepository) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET
			title = ?, kind = ?, amount = ?, status = ?,
			decided_by = ?, decided_at = ?, rejection_reason = ?,
			priority = ?, description = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`

	metadata, err := marshalMetadata(item.Metadata)
	if err != nil {
		return err
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		item.Title,
		item.Kind,
		amountToNull(item.Amount),
		string(item.Status),
		nullString(item.DecidedBy),
		nullTimePtr(item.DecidedAt),
		nullString(item.RejectionReason),
		nullString(string(item.Priority)),
		nullString(item.Description),
		metadata,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item %s not found", item.ID)
	}

	return nil
}

// List retrieves a page of items in insertion order
func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id LIMIT ? OFFSET ?`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list items", zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// ListAll retrieves every item in insertion order
func (r *ItemRepository) ListAll(ctx context.Context) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list items", zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Count returns the total number of items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*entity.Item, error) {
	var item entity.Item
	var reference, amount, decidedBy, reason, priority, description, metadata sql.NullString
	var decidedAt sql.NullTime
	var status string

	err := row.Scan(
		&item.ID,
		&reference,
		&item.Title,
		&item.Kind,
		&amount,
		&item.SubmittedBy,
		&item.SubmittedAt,
		&status,
		&decidedBy,
		&decidedAt,
		&reason,
		&priority,
		&description,
		&metadata,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Reference = reference.String
	item.Status = workflow.State(status)
	item.DecidedBy = decidedBy.String
	item.RejectionReason = reason.String
	item.Priority = entity.Priority(priority.String)
	item.Description = description.String

	if decidedAt.Valid {
		t := decidedAt.Time
		item.DecidedAt = &t
	}

	if amount.Valid {
		a, err := decimal.NewFromString(amount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount.String, err)
		}
		item.Amount = &a
	}

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &item.Metadata); err != nil {
			return nil, fmt.Errorf("invalid stored metadata: %w", err)
		}
	}

	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*entity.Item, error) {
	items := make([]*entity.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Amounts are stored as text to keep decimal precision
func amountToNull(amount *decimal.Decimal) sql.NullString {
	if amount == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: amount.String(), Valid: true}
}

func marshalMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
