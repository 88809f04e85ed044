package services

import "github.com/taihuy1/task-managemet-thesis/internal/models"

// Допустимые переходы статусов задачи.
// Rejection is a distinct state; the solver reopens it explicitly via resume.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusPending:   {models.StatusStarted: true},
	models.StatusStarted:   {models.StatusCompleted: true},
	models.StatusCompleted: {models.StatusApproved: true, models.StatusRejected: true},
	models.StatusApproved:  {}, // финалка
	models.StatusRejected:  {models.StatusStarted: true},
}

// CanTransition reports whether from → to is in the lifecycle table.
func CanTransition(from, to models.TaskStatus) bool {
	nexts, ok := TaskTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}
