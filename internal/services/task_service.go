// internal/services/task_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/taihuy1/task-managemet-thesis/internal/apperrors"
	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
)

// TaskUpdate carries the optional fields of a generic task update. A nil
// field is left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	SolverID    *int64
	Status      *models.TaskStatus
}

// TaskService is the task lifecycle engine. Every status change goes through
// the transition table, and the matching notification row is written in the
// same transaction as the status update.
type TaskService interface {
	Create(ctx context.Context, authorID int64, title, description string, solverID int64) (*models.Task, error)
	GetByID(ctx context.Context, id, userID int64) (*models.Task, error)
	GetForUser(ctx context.Context, userID int64, role authz.Role) ([]models.Task, error)
	Update(ctx context.Context, id, userID int64, role authz.Role, upd TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id, authorID int64) error

	Start(ctx context.Context, id, solverID int64) (*models.Task, error)
	Complete(ctx context.Context, id, solverID int64) (*models.Task, error)
	Approve(ctx context.Context, id, authorID int64) (*models.Task, error)
	Reject(ctx context.Context, id, authorID int64, reason string) (*models.Task, error)
	Resume(ctx context.Context, id, solverID int64) (*models.Task, error)
	Reassign(ctx context.Context, id, authorID, solverID int64) (*models.Task, error)
}

type taskService struct {
	tasks         repositories.TaskRepository
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	txm           repositories.TxManager
	notifier      Notifier // out-of-band channels, may be nil
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(
	tasks repositories.TaskRepository,
	notifications repositories.NotificationRepository,
	users repositories.UserRepository,
	txm repositories.TxManager,
	notifier Notifier,
) TaskService {
	return &taskService{
		tasks:         tasks,
		notifications: notifications,
		users:         users,
		txm:           txm,
		notifier:      notifier,
	}
}

func (s *taskService) Create(ctx context.Context, authorID int64, title, description string, solverID int64) (*models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &apperrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := s.requireSolver(ctx, solverID); err != nil {
		return nil, err
	}

	task := &models.Task{
		AuthorID:    authorID,
		SolverID:    solverID,
		Title:       title,
		Description: description,
		Status:      models.StatusPending,
	}

	err := s.txm.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).Store(ctx, task); err != nil {
			return err
		}
		return s.notifications.WithTx(tx).Store(ctx, &models.Notification{
			UserID:  solverID,
			TaskID:  task.ID,
			Message: fmt.Sprintf("You have been assigned a new task: %s", title),
		})
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, solverID, fmt.Sprintf("You have been assigned a new task: %s", title))
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id, userID int64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil || (task.AuthorID != userID && task.SolverID != userID) {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	return task, nil
}

// GetForUser returns the caller's tasks: authors see what they created,
// solvers see what is assigned to them. Newest first.
func (s *taskService) GetForUser(ctx context.Context, userID int64, role authz.Role) ([]models.Task, error) {
	var filter models.TaskFilter
	if role == authz.RoleAuthor {
		filter.AuthorID = &userID
	} else {
		filter.SolverID = &userID
	}
	return s.tasks.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, id, userID int64, role authz.Role, upd TaskUpdate) (*models.Task, error) {
	current, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || (current.AuthorID != userID && current.SolverID != userID) {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}

	update := *current
	var changes models.TaskChanges

	if upd.Title != nil || upd.Description != nil || upd.SolverID != nil {
		if current.AuthorID != userID {
			return nil, &apperrors.AccessDeniedError{Reason: "only the task author can edit task fields"}
		}
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, &apperrors.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		update.Title = *upd.Title
		changes.Title = upd.Title
	}
	if upd.Description != nil {
		update.Description = *upd.Description
		changes.Description = upd.Description
	}
	if upd.SolverID != nil {
		if err := s.requireSolver(ctx, *upd.SolverID); err != nil {
			return nil, err
		}
		update.SolverID = *upd.SolverID
		changes.SolverID = upd.SolverID
	}
	if upd.Status != nil && *upd.Status != current.Status {
		// The generic update is not exempt from the state machine.
		if !upd.Status.IsValid() || !CanTransition(current.Status, *upd.Status) {
			return nil, &apperrors.InvalidTransitionError{From: current.Status, To: *upd.Status}
		}
		update.Status = *upd.Status
		update.RejectionReason = nil
		changes.Status = upd.Status
	}

	// Conditional on the status read above, same discipline as the lifecycle
	// actions: a transition committed in between makes this write miss.
	ok, err := s.tasks.UpdateFields(ctx, id, current.Status, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apperrors.InvalidTransitionError{From: current.Status, To: update.Status}
	}
	return &update, nil
}

func (s *taskService) Delete(ctx context.Context, id, authorID int64) error {
	task, err := s.tasks.FindByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return err
	}
	if task == nil {
		return &apperrors.NotFoundError{Entity: "task", ID: id}
	}

	// Notifications referencing the task go first, in the same transaction,
	// so a partial failure cannot orphan them.
	return s.txm.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.notifications.WithTx(tx).DeleteByTask(ctx, id); err != nil {
			return err
		}
		return s.tasks.WithTx(tx).Delete(ctx, id)
	})
}

func (s *taskService) Start(ctx context.Context, id, solverID int64) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndSolver(ctx, id, solverID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	msg := fmt.Sprintf("Task %q has been started", task.Title)
	return s.transition(ctx, task, models.StatusStarted, nil, task.AuthorID, msg)
}

func (s *taskService) Complete(ctx context.Context, id, solverID int64) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndSolver(ctx, id, solverID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	msg := fmt.Sprintf("Task %q has been completed and awaits your approval", task.Title)
	return s.transition(ctx, task, models.StatusCompleted, nil, task.AuthorID, msg)
}

func (s *taskService) Approve(ctx context.Context, id, authorID int64) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	msg := fmt.Sprintf("Your task %q has been approved!", task.Title)
	return s.transition(ctx, task, models.StatusApproved, nil, task.SolverID, msg)
}

func (s *taskService) Reject(ctx context.Context, id, authorID int64, reason string) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}

	var reasonPtr *string
	msg := fmt.Sprintf("Your task %q was rejected. Please revise and resubmit.", task.Title)
	if r := strings.TrimSpace(reason); r != "" {
		reasonPtr = &r
		msg = fmt.Sprintf("Your task %q was rejected. Reason: %s. Please revise and resubmit.", task.Title, r)
	}
	return s.transition(ctx, task, models.StatusRejected, reasonPtr, task.SolverID, msg)
}

// Resume reopens a rejected task for rework and clears the rejection reason.
func (s *taskService) Resume(ctx context.Context, id, solverID int64) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndSolver(ctx, id, solverID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	msg := fmt.Sprintf("Task %q has been resumed after rejection", task.Title)
	return s.transition(ctx, task, models.StatusStarted, nil, task.AuthorID, msg)
}

// Reassign ("send") hands the task to a new solver and forces it back to
// PENDING regardless of current status. A deliberate escape hatch, not a
// lifecycle step.
func (s *taskService) Reassign(ctx context.Context, id, authorID, solverID int64) (*models.Task, error) {
	task, err := s.tasks.FindByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &apperrors.NotFoundError{Entity: "task", ID: id}
	}
	if err := s.requireSolver(ctx, solverID); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("You have been assigned a new task: %s", task.Title)
	err = s.txm.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).Reassign(ctx, id, solverID); err != nil {
			return err
		}
		return s.notifications.WithTx(tx).Store(ctx, &models.Notification{
			UserID:  solverID,
			TaskID:  id,
			Message: msg,
		})
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, solverID, msg)
	return s.tasks.FindByID(ctx, id)
}

// transition applies a single validated status change plus its notification
// in one transaction. The conditional update re-checks the status at the
// storage layer, so a concurrent writer makes exactly one of the racers fail.
func (s *taskService) transition(ctx context.Context, task *models.Task, to models.TaskStatus, reason *string, notifyUserID int64, message string) (*models.Task, error) {
	if !CanTransition(task.Status, to) {
		return nil, &apperrors.InvalidTransitionError{From: task.Status, To: to}
	}

	err := s.txm.WithinTx(ctx, func(tx *sql.Tx) error {
		ok, err := s.tasks.WithTx(tx).UpdateStatusFrom(ctx, task.ID, task.Status, to, reason)
		if err != nil {
			return err
		}
		if !ok {
			return &apperrors.InvalidTransitionError{From: task.Status, To: to}
		}
		return s.notifications.WithTx(tx).Store(ctx, &models.Notification{
			UserID:  notifyUserID,
			TaskID:  task.ID,
			Message: message,
		})
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, notifyUserID, message)

	task.Status = to
	task.RejectionReason = reason
	return task, nil
}

func (s *taskService) requireSolver(ctx context.Context, solverID int64) error {
	solver, err := s.users.GetByID(ctx, solverID)
	if err != nil {
		return err
	}
	if solver == nil || solver.Role != authz.RoleSolver {
		return &apperrors.ValidationError{Field: "solver_id", Reason: "must reference an existing solver"}
	}
	return nil
}

// deliver pushes the message over the out-of-band channels. Best effort: the
// in-app notification row is already committed.
func (s *taskService) deliver(ctx context.Context, userID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Deliver(ctx, userID, message); err != nil {
		log.Printf("[task][notify][warn] out-of-band delivery failed: user=%d err=%v", userID, err)
	}
}
