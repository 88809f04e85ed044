package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GET /users/solvers — the assignment dropdown for authors.
func (h *UserHandler) ListSolvers(c *gin.Context) {
	solvers, err := h.service.ListSolvers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "user.solvers")
		return
	}
	respondOK(c, solvers, "Solvers retrieved successfully")
}
