package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/services"
)

type NotificationHandler struct {
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// GET /notifications?unread=true
func (h *NotificationHandler) GetAll(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.GetForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		respondServiceError(c, err, "notification.list")
		return
	}
	respondOK(c, notifications, "Notifications retrieved successfully")
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "notification.count")
		return
	}
	respondOK(c, gin.H{"count": count}, "Unread count retrieved successfully")
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, err, "notification.read")
		return
	}
	log.Printf("[notification][read][ok] id=%d userID=%d", id, userID)
	respondOK(c, nil, "Notification marked as read")
}

// PUT /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	if err := h.service.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "notification.readAll")
		return
	}
	log.Printf("[notification][readAll][ok] userID=%d", userID)
	respondOK(c, nil, "All notifications marked as read")
}
