package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
)

// In-memory fakes of the repository interfaces. WithTx is a no-op: the fakes
// have no transactions, and the tx manager below runs the callback directly.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	u.ID = int64(len(r.users) + 1)
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role authz.Role) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &expiresAt
		u.RefreshRevoked = false
	}
	return nil
}

func (r *fakeUserRepo) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked {
			u.RefreshToken = &newToken
			u.RefreshExpiresAt = &newExpiresAt
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ClearRefresh(ctx context.Context, userID int64) error {
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
		u.RefreshRevoked = true
	}
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	u, ok := r.users[userID]
	if !ok || u.TelegramChatID == nil {
		return 0, false, nil
	}
	return *u.TelegramChatID, u.NotifyTelegram, nil
}

type fakeTaskRepo struct {
	nextID int64
	order  []int64
	tasks  map[int64]*models.Task

	// beforeCAS and beforeUpdate run at the top of UpdateStatusFrom and
	// UpdateFields, letting tests interleave a concurrent writer between the
	// read and the conditional update.
	beforeCAS    func()
	beforeUpdate func()
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]*models.Task{}}
}

func (r *fakeTaskRepo) WithTx(tx *sql.Tx) repositories.TaskRepository { return r }

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.tasks[task.ID] = &cp
	r.order = append(r.order, task.ID)
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindByIDAndSolver(ctx context.Context, id, solverID int64) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.SolverID != solverID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindByIDAndAuthor(ctx context.Context, id, authorID int64) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.AuthorID != authorID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	// newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		t := r.tasks[r.order[i]]
		if t == nil {
			continue
		}
		if filter.AuthorID != nil && t.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.SolverID != nil && t.SolverID != *filter.SolverID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateFields(ctx context.Context, id int64, from models.TaskStatus, ch models.TaskChanges) (bool, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	t, ok := r.tasks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	if ch.Title != nil {
		t.Title = *ch.Title
	}
	if ch.Description != nil {
		t.Description = *ch.Description
	}
	if ch.SolverID != nil {
		t.SolverID = *ch.SolverID
	}
	if ch.Status != nil {
		t.Status = *ch.Status
		t.RejectionReason = ch.RejectionReason
	}
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) error {
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to models.TaskStatus, reason *string) (bool, error) {
	if r.beforeCAS != nil {
		r.beforeCAS()
	}
	t, ok := r.tasks[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	t.RejectionReason = reason
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTaskRepo) Reassign(ctx context.Context, id, solverID int64) error {
	if t, ok := r.tasks[id]; ok {
		t.SolverID = solverID
		t.Status = models.StatusPending
		t.RejectionReason = nil
		t.UpdatedAt = time.Now()
	}
	return nil
}

type fakeNotificationRepo struct {
	nextID int64
	notes  []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) WithTx(tx *sql.Tx) repositories.NotificationRepository { return r }

func (r *fakeNotificationRepo) Store(ctx context.Context, n *models.Notification) error {
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	cp := *n
	r.notes = append(r.notes, &cp)
	return nil
}

func (r *fakeNotificationRepo) FindByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.notes) - 1; i >= 0; i-- {
		n := r.notes[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Notification, error) {
	for _, n := range r.notes {
		if n.ID == id && n.UserID == userID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id int64) error {
	for _, n := range r.notes {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID int64) error {
	for _, n := range r.notes {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteByTask(ctx context.Context, taskID int64) error {
	kept := r.notes[:0]
	for _, n := range r.notes {
		if n.TaskID != taskID {
			kept = append(kept, n)
		}
	}
	r.notes = kept
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range r.notes {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type delivery struct {
	userID  int64
	message string
}

type fakeNotifier struct {
	deliveries []delivery
}

func (n *fakeNotifier) Deliver(ctx context.Context, userID int64, message string) error {
	n.deliveries = append(n.deliveries, delivery{userID: userID, message: message})
	return nil
}
