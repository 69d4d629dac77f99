package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

type fakeRepo struct {
	tasks map[string]*Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[string]*Task{}}
}

func (r *fakeRepo) List(_ context.Context, _ ListFilters) ([]Task, int, error) {
	var out []Task
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	return out, len(out), nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Task, error) {
	if task, ok := r.tasks[id]; ok {
		clone := *task
		return &clone, nil
	}
	return nil, fmt.Errorf("tasks: %w", httpx.ErrNotFound)
}

func (r *fakeRepo) Insert(_ context.Context, task *Task) error {
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeRepo) Update(_ context.Context, task *Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return fmt.Errorf("tasks: %w", httpx.ErrNotFound)
	}
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("tasks: %w", httpx.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, task := range r.tasks {
		out[task.Status]++
	}
	return out, nil
}

func activePrincipal(id string, perms ...string) *shared.Principal {
	return &shared.Principal{ID: id, Role: rbac.RoleDeveloper, Permissions: perms, Status: shared.StatusActive}
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, rbac.NewEvaluator()), repo
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService()

	task, err := svc.Create(context.Background(), activePrincipal("dev-1"), CreateInput{Title: "write docs"})
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, "medium", task.Priority)
	assert.Equal(t, "dev-1", task.CreatorID)
}

func TestUpdateStatus(t *testing.T) {
	svc, repo := newTestService()
	repo.tasks["t1"] = &Task{ID: "t1", Title: "x", Status: StatusTodo}

	task, err := svc.UpdateStatus(context.Background(), "t1", StatusDone)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, task.Status)

	_, err = svc.UpdateStatus(context.Background(), "t1", "archived")
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreatorMayDeleteOwnTask(t *testing.T) {
	svc, repo := newTestService()
	repo.tasks["t1"] = &Task{ID: "t1", Title: "x", Status: StatusTodo, CreatorID: "dev-1"}

	// Unlike bugs, task deletion delegates to the creator.
	require.NoError(t, svc.Delete(context.Background(), activePrincipal("dev-1"), "t1"))
	assert.Empty(t, repo.tasks)
}

func TestNonCreatorNeedsDeletePermission(t *testing.T) {
	svc, repo := newTestService()
	repo.tasks["t1"] = &Task{ID: "t1", Title: "x", Status: StatusTodo, CreatorID: "dev-1"}

	err := svc.Delete(context.Background(), activePrincipal("dev-2", rbac.PermTaskRead), "t1")
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), activePrincipal("dev-2", rbac.PermTaskDelete), "t1"))
}

func TestInactivePrincipalCannotDelete(t *testing.T) {
	svc, repo := newTestService()
	repo.tasks["t1"] = &Task{ID: "t1", Title: "x", Status: StatusTodo, CreatorID: "dev-1"}

	suspended := activePrincipal("dev-1", rbac.PermTaskDelete)
	suspended.Status = shared.StatusSuspended
	err := svc.Delete(context.Background(), suspended, "t1")
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}
