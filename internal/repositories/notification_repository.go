package repositories

import (
	"context"
	"database/sql"

	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

type NotificationRepository interface {
	WithTx(tx *sql.Tx) NotificationRepository

	Store(ctx context.Context, n *models.Notification) error
	FindByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Notification, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	DeleteByTask(ctx context.Context, taskID int64) error
	CountUnread(ctx context.Context, userID int64) (int, error)
}

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *sql.Tx) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Store(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, task_id, message, is_read, created_at)
		VALUES ($1,$2,$3,FALSE,NOW())
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, n.UserID, n.TaskID, n.Message).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, task_id, message, is_read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Notification, error) {
	query := `SELECT id, user_id, task_id, message, is_read, created_at
		FROM notifications WHERE id = $1 AND user_id = $2`
	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&n.ID, &n.UserID, &n.TaskID, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	return err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	return err
}

func (r *notificationRepository) DeleteByTask(ctx context.Context, taskID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE task_id = $1`, taskID)
	return err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).
		Scan(&count)
	return count, err
}
