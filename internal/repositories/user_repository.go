package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role authz.Role) ([]*models.User, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)

	// Telegram push channel
	GetTelegramSettings(ctx context.Context, userID int64) (chatID int64, notify bool, err error)
}

const userColumns = `
	id, name, email, password_hash, role, created_at,
	refresh_token, refresh_expires_at, refresh_revoked,
	telegram_chat_id, COALESCE(notify_telegram, TRUE)`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, role, created_at, refresh_token, refresh_expires_at, refresh_revoked)
		VALUES ($1,$2,$3,$4,NOW(),NULL,NULL,FALSE)
		RETURNING id, created_at`
	return r.DB.QueryRowContext(ctx, q,
		user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
		&u.TelegramChatID, &u.NotifyTelegram,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, email))
}

func (r *userRepository) ListByRole(ctx context.Context, role authz.Role) ([]*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
			&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
			&u.TelegramChatID, &u.NotifyTelegram,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE WHERE id=$3`,
		token, expiresAt, userID)
	return err
}

// RotateRefresh swaps the stored token atomically so a stolen old token
// cannot be replayed after a successful refresh.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3 AND refresh_revoked=FALSE
		RETURNING ` + userColumns
	return r.scanOne(r.DB.QueryRowContext(ctx, q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE WHERE id=$1`,
		userID)
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, token))
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	var chatID sql.NullInt64
	var notify bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT telegram_chat_id, COALESCE(notify_telegram, TRUE) FROM users WHERE id = $1`, userID).
		Scan(&chatID, &notify)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return chatID.Int64, notify, nil
}
