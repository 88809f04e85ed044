package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

type TaskRepository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *sql.Tx) TaskRepository

	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindByIDAndSolver(ctx context.Context, id, solverID int64) (*models.Task, error)
	FindByIDAndAuthor(ctx context.Context, id, authorID int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Delete(ctx context.Context, id int64) error

	// UpdateFields writes only the supplied columns and only while the row's
	// status still equals from, so a partial update cannot write a stale
	// status back over a concurrent transition. Zero rows means the task
	// changed underneath the caller.
	UpdateFields(ctx context.Context, id int64, from models.TaskStatus, ch models.TaskChanges) (bool, error)

	// UpdateStatusFrom performs a conditional status update and reports
	// whether a row matched. Zero rows means the task changed underneath the
	// caller; the lost writer must not win.
	UpdateStatusFrom(ctx context.Context, id int64, from, to models.TaskStatus, reason *string) (bool, error)
	Reassign(ctx context.Context, id, solverID int64) error
}

const taskColumns = `id, author_id, solver_id, title, description, status, rejection_reason, created_at, updated_at`

type taskRepository struct {
	db DBTX
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepository{db: tx}
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (author_id, solver_id, title, description, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.AuthorID, task.SolverID, task.Title, task.Description, task.Status,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) scanOne(row *sql.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID, &task.AuthorID, &task.SolverID, &task.Title, &task.Description,
		&task.Status, &task.RejectionReason, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByIDAndSolver folds ownership into existence: a task assigned to
// someone else scans the same as a missing task.
func (r *taskRepository) FindByIDAndSolver(ctx context.Context, id, solverID int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND solver_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, solverID))
}

func (r *taskRepository) FindByIDAndAuthor(ctx context.Context, id, authorID int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND author_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, authorID))
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", argID))
		args = append(args, *filter.AuthorID)
		argID++
	}
	if filter.SolverID != nil {
		conditions = append(conditions, fmt.Sprintf("solver_id = $%d", argID))
		args = append(args, *filter.SolverID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.AuthorID, &t.SolverID, &t.Title, &t.Description,
			&t.Status, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) UpdateFields(ctx context.Context, id int64, from models.TaskStatus, ch models.TaskChanges) (bool, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}
	argID := 1

	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s=$%d", col, argID))
		args = append(args, val)
		argID++
	}
	if ch.Title != nil {
		add("title", *ch.Title)
	}
	if ch.Description != nil {
		add("description", *ch.Description)
	}
	if ch.SolverID != nil {
		add("solver_id", *ch.SolverID)
	}
	if ch.Status != nil {
		add("status", *ch.Status)
		add("rejection_reason", ch.RejectionReason)
	}

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id=$%d AND status=$%d",
		strings.Join(sets, ", "), argID, argID+1)
	args = append(args, id, from)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to models.TaskStatus, reason *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, rejection_reason=$2, updated_at=NOW() WHERE id=$3 AND status=$4`,
		to, reason, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *taskRepository) Reassign(ctx context.Context, id, solverID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET solver_id=$1, status=$2, rejection_reason=NULL, updated_at=NOW() WHERE id=$3`,
		solverID, models.StatusPending, id)
	return err
}
