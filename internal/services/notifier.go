package services

import (
	"context"
	"log"

	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
)

// Notifier delivers a notification over out-of-band channels. Delivery runs
// after the in-app notification row is committed and never fails the request.
type Notifier interface {
	Deliver(ctx context.Context, userID int64, message string) error
}

// TelegramSender is the push side of the Telegram channel.
type TelegramSender interface {
	SendMessage(chatID int64, text string) error
}

type channelNotifier struct {
	users  repositories.UserRepository
	emails EmailService   // may be nil
	tg     TelegramSender // may be nil
}

func NewNotifier(users repositories.UserRepository, emails EmailService, tg TelegramSender) Notifier {
	return &channelNotifier{users: users, emails: emails, tg: tg}
}

func (n *channelNotifier) Deliver(ctx context.Context, userID int64, message string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	if n.emails != nil {
		if err := n.emails.SendNotificationEmail(user.Email, message); err != nil {
			log.Printf("[notify][email][warn] user=%d err=%v", userID, err)
		}
	}

	if n.tg != nil {
		chatID, notify, err := n.users.GetTelegramSettings(ctx, userID)
		if err != nil {
			log.Printf("[notify][tg][warn] user=%d settings lookup err=%v", userID, err)
		} else if notify && chatID != 0 {
			if err := n.tg.SendMessage(chatID, message); err != nil {
				log.Printf("[notify][tg][warn] user=%d err=%v", userID, err)
			}
		}
	}
	return nil
}
