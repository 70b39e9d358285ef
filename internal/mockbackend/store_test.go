package mockbackend

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelhub/internal/backend"
)

func TestStore_Login(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	res, err := s.Login(ctx, "admin1", "pass")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Role)
	assert.Equal(t, "mock-token-admin1", res.AccessToken)

	_, err = s.Login(ctx, "admin1", "wrong")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	_, err = s.Login(ctx, "nobody", "pass")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestStore_CreateAndListRequests(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	created, err := s.CreateRequest(ctx, "T", "D", []string{"a", "b"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^req-\d+$`), created.ID)
	assert.Equal(t, "new", created.Status)
	assert.Equal(t, []string{"a", "b"}, created.Classes)

	items, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, created.ID, items[2].ID)

	// seeded ids never collide with generated ones
	for _, r := range items[:2] {
		assert.NotEqual(t, created.ID, r.ID)
	}
}

func TestStore_GetTask(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.GetTask(ctx, "unknown-id")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)

	task, err := s.GetTask(ctx, "task-5001")
	require.NoError(t, err)
	require.Len(t, task.Images, 10)
	for i, img := range task.Images {
		assert.Equal(t, fmt.Sprintf("task-5001_img_%03d", i+1), img.ImageID)
		assert.Nil(t, img.URL)
	}
	// classes come from the parent request
	assert.Equal(t, []string{"pothole", "crosswalk", "traffic_light", "road_sign"}, task.Classes)
}

func TestStore_SaveLabelsAndProgress(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	p, err := s.TaskProgress(ctx, "task-5001")
	require.NoError(t, err)
	assert.Equal(t, 10, p.TotalImages)
	assert.Equal(t, 0, p.LabeledImages)

	_, err = s.SaveLabels(ctx, "task-5001", "task-5001_img_001", []string{"pothole"})
	require.NoError(t, err)

	p, err = s.TaskProgress(ctx, "task-5001")
	require.NoError(t, err)
	assert.Equal(t, 10, p.TotalImages)
	assert.Equal(t, 1, p.LabeledImages)

	// last write wins; an empty set counts as unlabeled again
	_, err = s.SaveLabels(ctx, "task-5001", "task-5001_img_001", nil)
	require.NoError(t, err)

	p, err = s.TaskProgress(ctx, "task-5001")
	require.NoError(t, err)
	assert.Equal(t, 0, p.LabeledImages)
}

func TestStore_CompleteTask(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.CompleteTask(ctx, "missing")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)

	ack, err := s.CompleteTask(ctx, "task-5002")
	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	for _, task := range tasks {
		if task.ID == "task-5002" {
			assert.Equal(t, "done", task.Status)
		}
	}
}

func TestStore_QCResults(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	rows, err := s.QCResults(ctx, "req-1001")
	require.NoError(t, err)
	require.Len(t, rows, 25)
	for i, row := range rows {
		assert.Equal(t, "req-1001", row.RequestID)
		assert.Equal(t, fmt.Sprintf("req-1001_img_%03d", i+1), row.ImageID)
		assert.GreaterOrEqual(t, row.DuplicateScore, 0.0)
		assert.LessOrEqual(t, row.DuplicateScore, 1.0)
		assert.GreaterOrEqual(t, row.AIGeneratedScore, 0.0)
		assert.LessOrEqual(t, row.AIGeneratedScore, 1.0)
	}

	// the generator advances between calls
	again, err := s.QCResults(ctx, "req-1001")
	require.NoError(t, err)
	assert.NotEqual(t, rows, again)

	// a reset store replays the same sequence
	fresh := NewStore()
	replay, err := fresh.QCResults(ctx, "req-1001")
	require.NoError(t, err)
	assert.Equal(t, rows, replay)
}

func TestStore_Uploads(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	items, err := s.ListUploads(ctx, "req-1001")
	require.NoError(t, err)
	assert.Empty(t, items)

	ack, err := s.UploadFilesMVP(ctx, "req-1001", []backend.FileUpload{
		{Filename: "a.jpg", Content: []byte("xx"), ContentType: "image/jpeg"},
		{Filename: "b.png", Content: []byte("yyy"), ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ack.Count)

	items, err = s.ListUploads(ctx, "req-1001")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "mock/req-1001/a.jpg", items[0].Key)
	require.NotNil(t, items[0].SizeBytes)
	assert.Equal(t, int64(2), *items[0].SizeBytes)
}

func TestStore_PresignedFlow(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	res, err := s.PresignUploads(ctx, "req-1001", []backend.PresignFile{
		{Filename: "a.jpg", ContentType: "image/jpeg"},
		{},
	})
	require.NoError(t, err)
	require.Len(t, res.Uploads, 2)
	assert.Equal(t, "PUT", res.Uploads[0].Method)
	assert.Equal(t, "mock/req-1001/a.jpg", res.Uploads[0].Key)
	assert.Equal(t, "file.bin", res.Uploads[1].Filename)
	assert.Equal(t, "application/octet-stream", res.Uploads[1].Headers["Content-Type"])

	etag := "abc"
	ack, err := s.CompleteUploads(ctx, "req-1001", []backend.CompletedUpload{
		{Filename: "a.jpg", Key: "mock/req-1001/a.jpg", ETag: &etag},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)

	items, err := s.ListUploads(ctx, "req-1001")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ETag)
	assert.Equal(t, "abc", *items[0].ETag)
}

func TestStore_AdminAssign(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.AdminAssign(ctx, "req-nope", "labeler1")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)

	ack, err := s.AdminAssign(ctx, "req-1001", "labeler1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^task-\d+$`), ack.TaskID)

	tasks, err := s.AdminListTasks(ctx)
	require.NoError(t, err)
	var created *backend.Task
	for i := range tasks {
		if tasks[i].ID == ack.TaskID {
			created = &tasks[i]
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, "assigned", created.Status)
	require.NotNil(t, created.Assignee)
	assert.Equal(t, "labeler1", *created.Assignee)

	requests, err := s.AdminListRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", requests[0].Status)
}

func TestStore_AdminListUsers(t *testing.T) {
	s := NewStore()

	users, err := s.AdminListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, backend.User{Username: "customer1", Role: "customer"}, users[0])
	assert.Equal(t, backend.User{Username: "universal1", Role: "universal"}, users[3])
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.CreateRequest(ctx, "T", "D", nil)
	require.NoError(t, err)
	_, err = s.SaveLabels(ctx, "task-5001", "task-5001_img_001", []string{"pothole"})
	require.NoError(t, err)

	s.Reset()

	items, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	p, err := s.TaskProgress(ctx, "task-5001")
	require.NoError(t, err)
	assert.Equal(t, 0, p.LabeledImages)
}
