package models

import (
	"time"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
)

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never serialized
	Role         authz.Role `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`

	// refresh-token storage (opaque string, rotated on use)
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`

	// Telegram push channel, optional
	TelegramChatID *int64 `json:"-"`
	NotifyTelegram bool   `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
