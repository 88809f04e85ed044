package services

import (
	"context"

	"github.com/taihuy1/task-managemet-thesis/internal/apperrors"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
)

// NotificationService exposes the user-facing notification operations. Rows
// are only ever created by the task lifecycle engine.
type NotificationService interface {
	GetForUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}

type notificationService struct {
	repo repositories.NotificationRepository
}

func NewNotificationService(repo repositories.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) GetForUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.FindByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead is idempotent: re-reading an already-read notification succeeds.
func (s *notificationService) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == nil {
		return &apperrors.NotFoundError{Entity: "notification", ID: id}
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
