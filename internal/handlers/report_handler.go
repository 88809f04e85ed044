package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/pdf"
	"github.com/taihuy1/task-managemet-thesis/internal/services"
)

type ReportHandler struct {
	tasks services.TaskService
	users services.UserService
	gen   *pdf.ReportGenerator
}

func NewReportHandler(tasks services.TaskService, users services.UserService, gen *pdf.ReportGenerator) *ReportHandler {
	return &ReportHandler{tasks: tasks, users: users, gen: gen}
}

// GET /reports/tasks.pdf — the author's tasks as a downloadable PDF.
func (h *ReportHandler) TasksPDF(c *gin.Context) {
	userID, role := getUserAndRole(c)

	tasks, err := h.tasks.GetForUser(c.Request.Context(), userID, role)
	if err != nil {
		respondServiceError(c, err, "report.tasks")
		return
	}

	author, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || author == nil {
		respondServiceError(c, err, "report.tasks")
		return
	}

	solverNames := map[int64]string{}
	if solvers, err := h.users.ListSolvers(c.Request.Context()); err == nil {
		for _, s := range solvers {
			solverNames[s.ID] = s.Name
		}
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="tasks.pdf"`)
	c.Status(http.StatusOK)
	if err := h.gen.TaskReport(c.Writer, author.Name, tasks, solverNames); err != nil {
		log.Printf("[report][tasks][err] userID=%d err=%v", userID, err)
	}
}
