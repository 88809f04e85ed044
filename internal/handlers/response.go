package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/apperrors"
)

// Response envelope shared with the SPA client:
//   success: {success:true, message, data, timestamp}
//   failure: {success:false, message, errors?, timestamp}

func respondOK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondCreated(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":   false,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// respondServiceError maps a taxonomy error to its status. Anything outside
// the taxonomy is logged with context and reported as a generic 500.
func respondServiceError(c *gin.Context, err error, op string) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		userID, _ := getUserAndRole(c)
		log.Printf("[%s][err] userID=%d path=%s err=%v", op, userID, c.Request.URL.Path, err)
		c.JSON(status, gin.H{
			"success":   false,
			"message":   "internal server error",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	body := gin.H{
		"success":   false,
		"message":   err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		body["errors"] = []gin.H{{"field": ve.Field, "reason": ve.Reason}}
	}
	c.JSON(status, body)
}
