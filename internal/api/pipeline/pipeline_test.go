package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/services/project"
	"github.com/uptask/uptask-server/internal/services/task"
	"github.com/uptask/uptask-server/internal/services/user"
)

type fakeVerifier struct {
	userID uuid.UUID
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (uuid.UUID, error) {
	return f.userID, f.err
}

type fakeUsers struct {
	users map[uuid.UUID]*user.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

type fakeProjects struct {
	projects map[uuid.UUID]*project.Project
}

func (f *fakeProjects) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, project.ErrProjectNotFound
}

type fakeTasks struct {
	tasks map[uuid.UUID]*task.Task
}

func (f *fakeTasks) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	if t, ok := f.tasks[id]; ok {
		return t, nil
	}
	return nil, task.ErrTaskNotFound
}

type fixture struct {
	pipeline  *Pipeline
	userID    uuid.UUID
	managerID uuid.UUID
	projectID uuid.UUID
	taskID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userID := uuid.New()
	managerID := uuid.New()
	projectID := uuid.New()
	taskID := uuid.New()

	users := &fakeUsers{users: map[uuid.UUID]*user.User{
		userID:    {ID: userID, Name: "Member", Email: "member@example.com"},
		managerID: {ID: managerID, Name: "Manager", Email: "manager@example.com"},
	}}
	projects := &fakeProjects{projects: map[uuid.UUID]*project.Project{
		projectID: {ID: projectID, ProjectName: "Website", ManagerID: managerID},
	}}
	tasks := &fakeTasks{tasks: map[uuid.UUID]*task.Task{
		taskID: {ID: taskID, Name: "Deploy", ProjectID: projectID},
	}}

	return &fixture{
		pipeline:  New(&fakeVerifier{userID: userID}, users, projects, tasks),
		userID:    userID,
		managerID: managerID,
		projectID: projectID,
		taskID:    taskID,
	}
}

func newRequestCtx() *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer token")
	return ctx
}

func TestAuthenticateMissingHeader(t *testing.T) {
	f := newFixture(t)

	ctx := &fasthttp.RequestCtx{}
	Chain(f.pipeline.Authenticate())(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Not authorized"}`, string(ctx.Response.Body()))
}

func TestAuthenticateRejectedToken(t *testing.T) {
	p := New(&fakeVerifier{err: errors.New("bad signature")}, &fakeUsers{}, &fakeProjects{}, &fakeTasks{})

	ctx := newRequestCtx()
	Chain(p.Authenticate())(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Token not valid"}`, string(ctx.Response.Body()))
}

func TestAuthenticateDeletedUser(t *testing.T) {
	p := New(&fakeVerifier{userID: uuid.New()}, &fakeUsers{}, &fakeProjects{}, &fakeTasks{})

	ctx := newRequestCtx()
	Chain(p.Authenticate())(ctx)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Token not valid"}`, string(ctx.Response.Body()))
}

type failingUsers struct{}

func (failingUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, errors.New("pq: connection refused")
}

func TestAuthenticateStoreFailure(t *testing.T) {
	// A broken user store is a server fault, not a credential problem
	p := New(&fakeVerifier{userID: uuid.New()}, failingUsers{}, &fakeProjects{}, &fakeTasks{})

	ctx := newRequestCtx()
	Chain(p.Authenticate())(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestAuthenticateAttachesUser(t *testing.T) {
	f := newFixture(t)

	ctx := newRequestCtx()
	var got *user.User
	Chain(
		f.pipeline.Authenticate(),
		func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
			got = sc.User
			return nil
		},
	)(ctx)

	require.NotNil(t, got)
	assert.Equal(t, f.userID, got.ID)
}

func TestLoadProjectMalformedID(t *testing.T) {
	f := newFixture(t)

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", "not-a-uuid")
	Chain(f.pipeline.Authenticate(), f.pipeline.LoadProject())(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Not valid ID"}`, string(ctx.Response.Body()))
}

func TestLoadProjectUnknown(t *testing.T) {
	f := newFixture(t)

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", uuid.NewString())
	Chain(f.pipeline.Authenticate(), f.pipeline.LoadProject())(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Project does not exist"}`, string(ctx.Response.Body()))
}

func TestLoadTaskUnknown(t *testing.T) {
	f := newFixture(t)

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", f.projectID.String())
	ctx.SetUserValue("taskId", uuid.NewString())
	Chain(f.pipeline.Authenticate(), f.pipeline.LoadProject(), f.pipeline.LoadTask())(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "task does not exist"}`, string(ctx.Response.Body()))
}

func TestTaskBelongsToProjectMismatch(t *testing.T) {
	f := newFixture(t)

	// A real task reached through the wrong project's path.
	otherProject := uuid.New()
	projects := &fakeProjects{projects: map[uuid.UUID]*project.Project{
		f.projectID:  {ID: f.projectID, ManagerID: f.managerID},
		otherProject: {ID: otherProject, ManagerID: f.managerID},
	}}
	tasks := &fakeTasks{tasks: map[uuid.UUID]*task.Task{
		f.taskID: {ID: f.taskID, ProjectID: f.projectID},
	}}
	users := &fakeUsers{users: map[uuid.UUID]*user.User{
		f.userID: {ID: f.userID},
	}}
	p := New(&fakeVerifier{userID: f.userID}, users, projects, tasks)

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", otherProject.String())
	ctx.SetUserValue("taskId", f.taskID.String())
	Chain(p.Authenticate(), p.LoadProject(), p.LoadTask(), TaskBelongsToProject())(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Invalid action"}`, string(ctx.Response.Body()))
}

func TestHasAuthorizationNonManager(t *testing.T) {
	f := newFixture(t)

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", f.projectID.String())
	Chain(f.pipeline.Authenticate(), f.pipeline.LoadProject(), HasAuthorization())(ctx)

	// The guard hides the project's existence rather than admitting a
	// permission problem.
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error": "Invalid action"}`, string(ctx.Response.Body()))
}

func TestHasAuthorizationManager(t *testing.T) {
	f := newFixture(t)
	users := &fakeUsers{users: map[uuid.UUID]*user.User{
		f.managerID: {ID: f.managerID},
	}}
	projects := &fakeProjects{projects: map[uuid.UUID]*project.Project{
		f.projectID: {ID: f.projectID, ManagerID: f.managerID},
	}}
	p := New(&fakeVerifier{userID: f.managerID}, users, projects, &fakeTasks{})

	ctx := newRequestCtx()
	ctx.SetUserValue("projectID", f.projectID.String())

	ran := false
	Chain(
		p.Authenticate(),
		p.LoadProject(),
		HasAuthorization(),
		func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
			ran = true
			return nil
		},
	)(ctx)

	assert.True(t, ran)
}

func TestChainShortCircuits(t *testing.T) {
	f := newFixture(t)

	ctx := &fasthttp.RequestCtx{} // no Authorization header

	ran := false
	Chain(
		f.pipeline.Authenticate(),
		func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
			ran = true
			return nil
		},
	)(ctx)

	assert.False(t, ran, "stage after a failed one must not run")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestChainRunsStagesInOrder(t *testing.T) {
	var order []string
	step := func(name string) Stage {
		return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *Scope) error {
			order = append(order, name)
			return nil
		}
	}

	Chain(step("first"), step("second"), step("third"))(&fasthttp.RequestCtx{})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("projectID", id.String())

	got, err := PathUUID(ctx, "projectID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = PathUUID(ctx, "missing")
	assert.Error(t, err)
}
