package handlers

import (
	"errors"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/services"
)

type TaskHandler struct {
	service services.TaskService
}

func NewTaskHandler(service services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// @Summary      Create a task
// @Description  Author creates a task and assigns it to a solver
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      object  true  "title, description, solver_id"
// @Success      201   {object}  map[string]interface{}
// @Failure      422   {object}  map[string]interface{}
// @Router       /task [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[task][create] call by userID=%d role=%s", userID, role)

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		SolverID    int64  `json:"solver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}

	task, err := h.service.Create(c.Request.Context(), userID, req.Title, req.Description, req.SolverID)
	if err != nil {
		respondServiceError(c, err, "task.create")
		return
	}
	log.Printf("[task][create][ok] id=%d solver_id=%d title=%q", task.ID, task.SolverID, task.Title)
	respondCreated(c, task, "Task created successfully")
}

// GET /task — the caller's tasks, authors by authorship, solvers by assignment.
func (h *TaskHandler) GetAll(c *gin.Context) {
	userID, role := getUserAndRole(c)

	tasks, err := h.service.GetForUser(c.Request.Context(), userID, role)
	if err != nil {
		respondServiceError(c, err, "task.list")
		return
	}
	log.Printf("[task][list][ok] userID=%d role=%s count=%d", userID, role, len(tasks))
	respondOK(c, tasks, "Tasks retrieved successfully")
}

// GET /task/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "task.get")
		return
	}
	respondOK(c, task, "Task retrieved successfully")
}

// PUT /task/:id — generic field update; a status field goes through the same
// transition validation as the lifecycle actions.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, role := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	log.Printf("[task][update] call by userID=%d role=%s id=%d", userID, role, id)

	var req struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		SolverID    *int64             `json:"solver_id"`
		Status      *models.TaskStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, userID, role, services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		SolverID:    req.SolverID,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(c, err, "task.update")
		return
	}
	log.Printf("[task][update][ok] id=%d", id)
	respondOK(c, task, "Task updated successfully")
}

// PATCH /task/:id/start
func (h *TaskHandler) Start(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.Start(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "task.start")
		return
	}
	log.Printf("[task][start][ok] id=%d solver=%d", id, userID)
	respondOK(c, task, "Task started successfully")
}

// PATCH /task/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.Complete(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "task.complete")
		return
	}
	log.Printf("[task][complete][ok] id=%d solver=%d", id, userID)
	respondOK(c, task, "Task completed successfully")
}

// PATCH /task/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.Approve(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "task.approve")
		return
	}
	log.Printf("[task][approve][ok] id=%d author=%d", id, userID)
	respondOK(c, task, "Task approved successfully")
}

// PATCH /task/:id/reject { "reason": "..." }
func (h *TaskHandler) Reject(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// The reason is optional, so an empty body is fine. ContentLength is -1
	// for chunked requests, which still carry a body.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("[task][reject][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}

	task, err := h.service.Reject(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		respondServiceError(c, err, "task.reject")
		return
	}
	log.Printf("[task][reject][ok] id=%d author=%d reason=%q", id, userID, req.Reason)
	respondOK(c, task, "Task rejected successfully")
}

// PATCH /task/:id/resume — solver reopens a rejected task.
func (h *TaskHandler) Resume(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.service.Resume(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "task.resume")
		return
	}
	log.Printf("[task][resume][ok] id=%d solver=%d", id, userID)
	respondOK(c, task, "Task resumed successfully")
}

// POST /task/:id/send { "solver_id": 2 } — reassignment escape hatch.
func (h *TaskHandler) Send(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		SolverID int64 `json:"solver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][send][bind][err] %v", err)
		respondBadRequest(c, err.Error())
		return
	}

	task, err := h.service.Reassign(c.Request.Context(), id, userID, req.SolverID)
	if err != nil {
		respondServiceError(c, err, "task.send")
		return
	}
	log.Printf("[task][send][ok] id=%d new_solver=%d", id, req.SolverID)
	respondOK(c, task, "Task assigned successfully")
}

// DELETE /task/:id — cascades the task's notifications.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, err, "task.delete")
		return
	}
	log.Printf("[task][delete][ok] id=%d author=%d", id, userID)
	respondOK(c, nil, "Task deleted successfully")
}
