package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inspection_server/server/domain"
)

type ChecklistRepository struct {
	pool *pgxpool.Pool
}

func NewChecklistRepository(pool *pgxpool.Pool) *ChecklistRepository {
	return &ChecklistRepository{pool: pool}
}

func (r *ChecklistRepository) InsertItem(ctx context.Context, item domain.ChecklistItem) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO checklist_items(task_id, description, attachment_id, order_num)
		VALUES($1, $2, $3, $4)
		RETURNING id
	`, item.TaskID, item.Description, item.AttachmentID, item.OrderNum).Scan(&id)
	return id, err
}

func (r *ChecklistRepository) ListItems(ctx context.Context, taskID int64) ([]domain.ChecklistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, description, attachment_id, order_num
		FROM checklist_items
		WHERE task_id=$1
		ORDER BY order_num, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ChecklistItem, 0)
	for rows.Next() {
		var item domain.ChecklistItem
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Description, &item.AttachmentID, &item.OrderNum); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem rewrites an item's description. When setAttachment is true
// the attachment reference is replaced as well; a nil attachmentID then
// clears it.
func (r *ChecklistRepository) UpdateItem(ctx context.Context, id int64, description string, attachmentID *string, setAttachment bool) error {
	if setAttachment {
		res, err := r.pool.Exec(ctx, `UPDATE checklist_items SET description=$1, attachment_id=$2 WHERE id=$3`, description, attachmentID, id)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return fmt.Errorf("%w: checklist item %d", domain.ErrNotFound, id)
		}
		return nil
	}
	res, err := r.pool.Exec(ctx, `UPDATE checklist_items SET description=$1 WHERE id=$2`, description, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: checklist item %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ChecklistRepository) DeleteItem(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM checklist_completions WHERE item_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM checklist_items WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Reorder rewrites order_num for a task's items as a dense 0..n-1 sequence
// preserving the current relative order.
func (r *ChecklistRepository) Reorder(ctx context.Context, taskID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE checklist_items ci
		SET order_num = ranked.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY order_num, id) - 1 AS rn
			FROM checklist_items
			WHERE task_id=$1
		) ranked
		WHERE ci.id = ranked.id
	`, taskID)
	return err
}

func (r *ChecklistRepository) MaxOrder(ctx context.Context, taskID int64) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(order_num), -1) FROM checklist_items WHERE task_id=$1
	`, taskID).Scan(&max)
	return max, err
}

// EnsureCompletion lazily creates the (item, year, month) completion record
// with completed=false on first sight and returns the current status.
func (r *ChecklistRepository) EnsureCompletion(ctx context.Context, itemID int64, year, month int) (bool, error) {
	var completed bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO checklist_completions(item_id, year, month)
		VALUES($1, $2, $3)
		ON CONFLICT (item_id, year, month)
		DO UPDATE SET completed = checklist_completions.completed
		RETURNING completed
	`, itemID, year, month).Scan(&completed)
	return completed, err
}

// ToggleCompletion flips the completion flag for (item, year, month) and
// returns the new status. The record is created first if it is missing.
func (r *ChecklistRepository) ToggleCompletion(ctx context.Context, itemID int64, year, month int) (bool, error) {
	if _, err := r.EnsureCompletion(ctx, itemID, year, month); err != nil {
		return false, err
	}
	var completed bool
	err := r.pool.QueryRow(ctx, `
		UPDATE checklist_completions
		SET completed = NOT completed
		WHERE item_id=$1 AND year=$2 AND month=$3
		RETURNING completed
	`, itemID, year, month).Scan(&completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("%w: checklist item %d", domain.ErrNotFound, itemID)
	}
	return completed, err
}
