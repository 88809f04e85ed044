package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/handlers"
	"github.com/taihuy1/task-managemet-thesis/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	notificationHandler *handlers.NotificationHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)
	r.POST("/refresh", authHandler.RefreshToken)

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	r.POST("/logout", authHandler.Logout)

	// USERS
	users := r.Group("/users")
	{
		users.GET("/solvers", middleware.RequireRoles(authz.RoleAuthor), userHandler.ListSolvers)
	}

	// TASKS
	tasks := r.Group("/task")
	{
		tasks.POST("", middleware.RequireRoles(authz.RoleAuthor), taskHandler.Create)
		tasks.GET("", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", middleware.RequireRoles(authz.RoleAuthor), taskHandler.Delete)

		// lifecycle actions, role-gated per the transition table
		tasks.PATCH("/:id/start", middleware.RequireRoles(authz.RoleSolver), taskHandler.Start)
		tasks.PATCH("/:id/complete", middleware.RequireRoles(authz.RoleSolver), taskHandler.Complete)
		tasks.PATCH("/:id/approve", middleware.RequireRoles(authz.RoleAuthor), taskHandler.Approve)
		tasks.PATCH("/:id/reject", middleware.RequireRoles(authz.RoleAuthor), taskHandler.Reject)
		tasks.PATCH("/:id/resume", middleware.RequireRoles(authz.RoleSolver), taskHandler.Resume)

		// reassignment escape hatch
		tasks.POST("/:id/send", middleware.RequireRoles(authz.RoleAuthor), taskHandler.Send)
	}

	// NOTIFICATIONS
	notifications := r.Group("/notifications")
	{
		notifications.GET("", notificationHandler.GetAll)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
	}

	// REPORTS
	reports := r.Group("/reports", middleware.RequireRoles(authz.RoleAuthor))
	{
		reports.GET("/tasks.pdf", reportHandler.TasksPDF)
	}

	return r
}
