// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusStarted   TaskStatus = "STARTED"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusApproved  TaskStatus = "APPROVED"
	StatusRejected  TaskStatus = "REJECTED"
)

// IsValid reports whether s is one of the known task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusCompleted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Task represents the structure of a task in the system.
type Task struct {
	ID              int64      `json:"id"`
	AuthorID        int64      `json:"author_id"`
	SolverID        int64      `json:"solver_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          TaskStatus `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	AuthorID *int64
	SolverID *int64
	Status   *TaskStatus
}

// TaskChanges is the column set of a partial task update. A nil field is not
// written. RejectionReason is only applied together with Status.
type TaskChanges struct {
	Title           *string
	Description     *string
	SolverID        *int64
	Status          *TaskStatus
	RejectionReason *string
}
