package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/taihuy1/task-managemet-thesis/internal/apperrors"
	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

const (
	authorID      = int64(1)
	solverID      = int64(2)
	otherSolverID = int64(3)
)

type taskServiceFixture struct {
	svc      TaskService
	tasks    *fakeTaskRepo
	notes    *fakeNotificationRepo
	users    *fakeUserRepo
	notifier *fakeNotifier
}

func newTaskServiceFixture() *taskServiceFixture {
	users := newFakeUserRepo(
		&models.User{ID: authorID, Name: "Alice", Email: "alice@example.com", Role: authz.RoleAuthor},
		&models.User{ID: solverID, Name: "Bob", Email: "bob@example.com", Role: authz.RoleSolver},
		&models.User{ID: otherSolverID, Name: "Carol", Email: "carol@example.com", Role: authz.RoleSolver},
	)
	tasks := newFakeTaskRepo()
	notes := newFakeNotificationRepo()
	notifier := &fakeNotifier{}
	svc := NewTaskService(tasks, notes, users, fakeTxManager{}, notifier)
	return &taskServiceFixture{svc: svc, tasks: tasks, notes: notes, users: users, notifier: notifier}
}

func (f *taskServiceFixture) mustCreate(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), authorID, title, "desc", solverID)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (f *taskServiceFixture) status(t *testing.T, id int64) models.TaskStatus {
	t.Helper()
	task, err := f.tasks.FindByID(context.Background(), id)
	if err != nil || task == nil {
		t.Fatalf("task %d missing: %v", id, err)
	}
	return task.Status
}

func TestCreateTask_PendingWithSolverNotification(t *testing.T) {
	f := newTaskServiceFixture()

	task := f.mustCreate(t, "Grade exams")

	if task.Status != models.StatusPending {
		t.Errorf("new task status = %s, want PENDING", task.Status)
	}
	if task.AuthorID != authorID || task.SolverID != solverID {
		t.Errorf("ownership wrong: author=%d solver=%d", task.AuthorID, task.SolverID)
	}

	notes, _ := f.notes.FindByUser(context.Background(), solverID, false)
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification for solver, got %d", len(notes))
	}
	if !strings.Contains(notes[0].Message, "Grade exams") {
		t.Errorf("assignment notification missing title: %q", notes[0].Message)
	}
	if notes[0].TaskID != task.ID {
		t.Errorf("notification references task %d, want %d", notes[0].TaskID, task.ID)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()

	var ve *apperrors.ValidationError

	if _, err := f.svc.Create(ctx, authorID, "   ", "d", solverID); !errors.As(err, &ve) {
		t.Errorf("empty title: got %v, want ValidationError", err)
	}
	if _, err := f.svc.Create(ctx, authorID, "ok", "d", 999); !errors.As(err, &ve) {
		t.Errorf("missing solver: got %v, want ValidationError", err)
	}
	// an author id is not a valid assignee
	if _, err := f.svc.Create(ctx, authorID, "ok", "d", authorID); !errors.As(err, &ve) {
		t.Errorf("author as solver: got %v, want ValidationError", err)
	}
}

func TestStartTask_HappyPathThenDoubleStart(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Write thesis chapter")

	started, err := f.svc.Start(ctx, task.ID, solverID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != models.StatusStarted {
		t.Errorf("status = %s, want STARTED", started.Status)
	}

	authorNotes, _ := f.notes.FindByUser(ctx, authorID, false)
	if len(authorNotes) != 1 || !strings.Contains(authorNotes[0].Message, "started") {
		t.Errorf("author notification missing, got %+v", authorNotes)
	}

	// Second start must fail and leave the status untouched.
	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Start(ctx, task.ID, solverID); !errors.As(err, &it) {
		t.Fatalf("double start: got %v, want InvalidTransitionError", err)
	}
	if it.From != models.StatusStarted || it.To != models.StatusStarted {
		t.Errorf("transition error names %s -> %s", it.From, it.To)
	}
	if got := f.status(t, task.ID); got != models.StatusStarted {
		t.Errorf("status changed by failed start: %s", got)
	}
}

func TestStartTask_WrongSolverIsNotFound(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Review draft")

	var nf *apperrors.NotFoundError
	if _, err := f.svc.Start(ctx, task.ID, otherSolverID); !errors.As(err, &nf) {
		t.Fatalf("foreign solver: got %v, want NotFoundError", err)
	}
	if _, err := f.svc.Start(ctx, 999, solverID); !errors.As(err, &nf) {
		t.Fatalf("missing task: got %v, want NotFoundError", err)
	}
	if got := f.status(t, task.ID); got != models.StatusPending {
		t.Errorf("status mutated by unauthorized start: %s", got)
	}
}

func TestCompleteTask_RequiresStarted(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Prepare slides")

	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Complete(ctx, task.ID, solverID); !errors.As(err, &it) {
		t.Fatalf("complete from PENDING: got %v, want InvalidTransitionError", err)
	}

	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatalf("start: %v", err)
	}
	completed, err := f.svc.Complete(ctx, task.ID, solverID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}

	authorNotes, _ := f.notes.FindByUser(ctx, authorID, false)
	if len(authorNotes) != 2 || !strings.Contains(authorNotes[0].Message, "awaits your approval") {
		t.Errorf("completion notification wrong: %+v", authorNotes)
	}
}

func TestApproveTask_TerminalState(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Final report")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	approved, err := f.svc.Approve(ctx, task.ID, authorID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}

	solverNotes, _ := f.notes.FindByUser(ctx, solverID, false)
	if !strings.Contains(solverNotes[0].Message, "approved") {
		t.Errorf("approval notification wrong: %q", solverNotes[0].Message)
	}

	// terminal: nothing leaves APPROVED
	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Approve(ctx, task.ID, authorID); !errors.As(err, &it) {
		t.Errorf("re-approve: got %v, want InvalidTransitionError", err)
	}
	if _, err := f.svc.Start(ctx, task.ID, solverID); !errors.As(err, &it) {
		t.Errorf("start after approve: got %v, want InvalidTransitionError", err)
	}
}

func TestApproveTask_OnlyAuthor(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Audit results")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	var nf *apperrors.NotFoundError
	if _, err := f.svc.Approve(ctx, task.ID, solverID); !errors.As(err, &nf) {
		t.Errorf("approve by non-author: got %v, want NotFoundError", err)
	}
}

func TestRejectTask_ReasonPersistedAndNotified(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	rejected, err := f.svc.Reject(ctx, task.ID, authorID, "incomplete")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "incomplete" {
		t.Errorf("rejection reason not persisted: %v", rejected.RejectionReason)
	}

	solverNotes, _ := f.notes.FindByUser(ctx, solverID, false)
	if !strings.Contains(solverNotes[0].Message, "incomplete") {
		t.Errorf("rejection notification missing reason: %q", solverNotes[0].Message)
	}
}

func TestRejectTask_WithoutReason(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	rejected, err := f.svc.Reject(ctx, task.ID, authorID, "  ")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.RejectionReason != nil {
		t.Errorf("blank reason should not be stored: %v", *rejected.RejectionReason)
	}

	solverNotes, _ := f.notes.FindByUser(ctx, solverID, false)
	if !strings.Contains(solverNotes[0].Message, "rejected") || strings.Contains(solverNotes[0].Message, "Reason:") {
		t.Errorf("generic rejection message wrong: %q", solverNotes[0].Message)
	}
}

func TestResumeTask_ReopensRejected(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Reject(ctx, task.ID, authorID, "needs more detail"); err != nil {
		t.Fatal(err)
	}

	resumed, err := f.svc.Resume(ctx, task.ID, solverID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != models.StatusStarted {
		t.Errorf("status = %s, want STARTED", resumed.Status)
	}
	if resumed.RejectionReason != nil {
		t.Errorf("rejection reason survived resume: %v", *resumed.RejectionReason)
	}

	// resume only applies to rejected tasks
	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Resume(ctx, task.ID, solverID); !errors.As(err, &it) {
		t.Errorf("resume of started task: got %v, want InvalidTransitionError", err)
	}
}

func TestReassignTask_ForcesPendingAndNotifies(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	reassigned, err := f.svc.Reassign(ctx, task.ID, authorID, otherSolverID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if reassigned.SolverID != otherSolverID {
		t.Errorf("solver = %d, want %d", reassigned.SolverID, otherSolverID)
	}
	if reassigned.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING (forced)", reassigned.Status)
	}

	notes, _ := f.notes.FindByUser(ctx, otherSolverID, false)
	if len(notes) != 1 || !strings.Contains(notes[0].Message, "Grade exams") {
		t.Errorf("new solver not notified: %+v", notes)
	}
}

func TestReassignTask_AuthorOwnershipEnforced(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	var nf *apperrors.NotFoundError
	if _, err := f.svc.Reassign(ctx, task.ID, solverID, otherSolverID); !errors.As(err, &nf) {
		t.Errorf("reassign by non-author: got %v, want NotFoundError", err)
	}

	var ve *apperrors.ValidationError
	if _, err := f.svc.Reassign(ctx, task.ID, authorID, authorID); !errors.As(err, &ve) {
		t.Errorf("reassign to an author: got %v, want ValidationError", err)
	}
}

func TestDeleteTask_CascadesNotifications(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")
	if _, err := f.svc.Start(ctx, task.ID, solverID); err != nil {
		t.Fatal(err)
	}

	var nf *apperrors.NotFoundError
	if err := f.svc.Delete(ctx, task.ID, solverID); !errors.As(err, &nf) {
		t.Fatalf("delete by non-author: got %v, want NotFoundError", err)
	}

	if err := f.svc.Delete(ctx, task.ID, authorID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got, _ := f.tasks.FindByID(ctx, task.ID); got != nil {
		t.Error("task still present after delete")
	}
	solverNotes, _ := f.notes.FindByUser(ctx, solverID, false)
	authorNotes, _ := f.notes.FindByUser(ctx, authorID, false)
	if len(solverNotes) != 0 || len(authorNotes) != 0 {
		t.Errorf("notifications survived delete: solver=%d author=%d", len(solverNotes), len(authorNotes))
	}
}

func TestUpdateTask_StatusGoesThroughTable(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	completed := models.StatusCompleted
	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Update(ctx, task.ID, authorID, authz.RoleAuthor, TaskUpdate{Status: &completed}); !errors.As(err, &it) {
		t.Fatalf("PENDING -> COMPLETED via update: got %v, want InvalidTransitionError", err)
	}
	if got := f.status(t, task.ID); got != models.StatusPending {
		t.Errorf("status mutated by rejected update: %s", got)
	}

	started := models.StatusStarted
	updated, err := f.svc.Update(ctx, task.ID, authorID, authz.RoleAuthor, TaskUpdate{Status: &started})
	if err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if updated.Status != models.StatusStarted {
		t.Errorf("status = %s, want STARTED", updated.Status)
	}
}

func TestUpdateTask_FieldEditsAreAuthorOnly(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	title := "Different title"
	var ad *apperrors.AccessDeniedError
	if _, err := f.svc.Update(ctx, task.ID, solverID, authz.RoleSolver, TaskUpdate{Title: &title}); !errors.As(err, &ad) {
		t.Errorf("solver editing title: got %v, want AccessDeniedError", err)
	}

	updated, err := f.svc.Update(ctx, task.ID, authorID, authz.RoleAuthor, TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q", updated.Title)
	}

	// non-participants see nothing
	var nf *apperrors.NotFoundError
	if _, err := f.svc.Update(ctx, task.ID, otherSolverID, authz.RoleSolver, TaskUpdate{Title: &title}); !errors.As(err, &nf) {
		t.Errorf("outsider update: got %v, want NotFoundError", err)
	}
}

func TestGetForUser_RoleDrivenView(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	first := f.mustCreate(t, "first")
	second := f.mustCreate(t, "second")

	authorTasks, err := f.svc.GetForUser(ctx, authorID, authz.RoleAuthor)
	if err != nil {
		t.Fatalf("author list: %v", err)
	}
	if len(authorTasks) != 2 {
		t.Fatalf("author sees %d tasks, want 2", len(authorTasks))
	}
	// newest first
	if authorTasks[0].ID != second.ID || authorTasks[1].ID != first.ID {
		t.Errorf("ordering wrong: %d, %d", authorTasks[0].ID, authorTasks[1].ID)
	}

	solverTasks, _ := f.svc.GetForUser(ctx, solverID, authz.RoleSolver)
	if len(solverTasks) != 2 {
		t.Errorf("solver sees %d tasks, want 2", len(solverTasks))
	}
	otherTasks, _ := f.svc.GetForUser(ctx, otherSolverID, authz.RoleSolver)
	if len(otherTasks) != 0 {
		t.Errorf("unassigned solver sees %d tasks, want 0", len(otherTasks))
	}
}

func TestGetByID_RoundTripAndVisibility(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	created := f.mustCreate(t, "Grade exams")

	got, err := f.svc.GetByID(ctx, created.ID, authorID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Grade exams" || got.Description != "desc" ||
		got.AuthorID != authorID || got.SolverID != solverID || got.Status != models.StatusPending {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := f.svc.GetByID(ctx, created.ID, solverID); err != nil {
		t.Errorf("solver should see the task: %v", err)
	}

	var nf *apperrors.NotFoundError
	if _, err := f.svc.GetByID(ctx, created.ID, otherSolverID); !errors.As(err, &nf) {
		t.Errorf("outsider get: got %v, want NotFoundError", err)
	}
}

func TestStartTask_LostRaceFailsCleanly(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	// A concurrent writer moves the task between the service's read and its
	// conditional update; the CAS must refuse the stale transition.
	f.tasks.beforeCAS = func() {
		f.tasks.beforeCAS = nil
		if tk, ok := f.tasks.tasks[task.ID]; ok {
			tk.Status = models.StatusStarted
		}
	}

	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Start(ctx, task.ID, solverID); !errors.As(err, &it) {
		t.Fatalf("raced start: got %v, want InvalidTransitionError", err)
	}
	if got := f.status(t, task.ID); got != models.StatusStarted {
		t.Errorf("racer's status overwritten: %s", got)
	}
}

func TestUpdateTask_LostRaceFailsCleanly(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	// The solver starts the task between the service's read and its write. A
	// title-only update must not push the stale PENDING status back.
	f.tasks.beforeUpdate = func() {
		f.tasks.beforeUpdate = nil
		if tk, ok := f.tasks.tasks[task.ID]; ok {
			tk.Status = models.StatusStarted
		}
	}

	title := "Grade exams (second attempt)"
	var it *apperrors.InvalidTransitionError
	if _, err := f.svc.Update(ctx, task.ID, authorID, authz.RoleAuthor, TaskUpdate{Title: &title}); !errors.As(err, &it) {
		t.Fatalf("raced update: got %v, want InvalidTransitionError", err)
	}
	raced, _ := f.tasks.FindByID(ctx, task.ID)
	if raced.Status != models.StatusStarted {
		t.Errorf("concurrent transition overwritten: status=%s", raced.Status)
	}
	if raced.Title != "Grade exams" {
		t.Errorf("title written despite failed guard: %q", raced.Title)
	}
}

func TestStatusAlwaysInDomain(t *testing.T) {
	f := newTaskServiceFixture()
	ctx := context.Background()
	task := f.mustCreate(t, "Grade exams")

	ops := []func() error{
		func() error { _, err := f.svc.Start(ctx, task.ID, solverID); return err },
		func() error { _, err := f.svc.Complete(ctx, task.ID, solverID); return err },
		func() error { _, err := f.svc.Reject(ctx, task.ID, authorID, "redo"); return err },
		func() error { _, err := f.svc.Resume(ctx, task.ID, solverID); return err },
		func() error { _, err := f.svc.Complete(ctx, task.ID, solverID); return err },
		func() error { _, err := f.svc.Approve(ctx, task.ID, authorID); return err },
		func() error { _, err := f.svc.Start(ctx, task.ID, solverID); return err }, // fails, terminal
	}
	for i, op := range ops {
		_ = op()
		if got := f.status(t, task.ID); !got.IsValid() {
			t.Fatalf("after step %d status out of domain: %q", i, got)
		}
	}
	if got := f.status(t, task.ID); got != models.StatusApproved {
		t.Errorf("final status = %s, want APPROVED", got)
	}
}
