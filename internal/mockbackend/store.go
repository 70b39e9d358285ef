// Package mockbackend is an in-process stand-in for the backend
// service. It keeps every record in memory with deterministic seed
// data, so the front-end can be developed and tested without network
// access. The web binary uses it directly behind the use_mock flag;
// cmd/mockbackend serves the same store over HTTP.
package mockbackend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"labelhub/internal/backend"
)

const randSeed = 42

var defaultClasses = []string{"pothole", "crosswalk", "traffic_light", "road_sign"}

type labelKey struct {
	taskID  string
	imageID string
}

type mockUser struct {
	Username string
	Password string
	Role     string
}

// Store holds the whole mock state. The mutex matters because the HTTP
// wrapper serves concurrent requests against one shared store.
type Store struct {
	mu       sync.Mutex
	rand     *rand.Rand
	requests []backend.Request
	tasks    []backend.Task
	labels   map[labelKey][]string
	uploads  map[string][]backend.Upload
	users    []mockUser

	nextRequestID int
	nextTaskID    int
}

var _ backend.Service = (*Store)(nil)

func NewStore() *Store {
	s := &Store{}
	s.seed()
	return s
}

// Reset drops all state and reseeds, including the score generator.
// Tests use it for isolation; nothing calls it mid-run.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed()
}

func (s *Store) seed() {
	s.rand = rand.New(rand.NewSource(randSeed))
	s.labels = make(map[labelKey][]string)
	s.uploads = make(map[string][]backend.Upload)
	s.nextRequestID = 1003
	s.nextTaskID = 5003

	s.requests = []backend.Request{
		{
			ID:          "req-1001",
			Title:       "Road images: City A -> City B",
			Description: "Mock request",
			Classes:     []string{"pothole", "crosswalk", "traffic_light", "road_sign"},
			Status:      "new",
		},
		{
			ID:          "req-1002",
			Title:       "Winter roads: City C -> City D",
			Description: "Mock request",
			Classes:     []string{"snow", "ice", "lane_marking"},
			Status:      "in_progress",
		},
	}

	assignee := "labeler1"
	s.tasks = []backend.Task{
		{ID: "task-5001", Title: "Label req-1001", Status: "assigned", RequestID: "req-1001", Assignee: &assignee},
		{ID: "task-5002", Title: "Label req-1002", Status: "open", RequestID: "req-1002", Assignee: nil},
	}

	s.users = []mockUser{
		{Username: "customer1", Password: "pass", Role: "customer"},
		{Username: "labeler1", Password: "pass", Role: "labeler"},
		{Username: "admin1", Password: "pass", Role: "admin"},
		{Username: "universal1", Password: "pass", Role: "universal"},
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ---------- Auth ----------

func (s *Store) Login(_ context.Context, username, password string) (*backend.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username && u.Password == password {
			return &backend.LoginResult{
				AccessToken: "mock-token-" + username,
				Role:        u.Role,
			}, nil
		}
	}
	return nil, &backend.APIError{StatusCode: 401, Message: "Invalid credentials (mock)"}
}

// ---------- Requests ----------

func (s *Store) CreateRequest(_ context.Context, title, description string, classes []string) (*backend.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("req-%d", s.nextRequestID)
	s.nextRequestID++

	if title == "" {
		title = "Request " + id
	}
	if classes == nil {
		classes = []string{}
	}

	req := backend.Request{
		ID:          id,
		Title:       title,
		Description: description,
		Classes:     append([]string(nil), classes...),
		Status:      "new",
	}
	s.requests = append(s.requests, req)
	return &req, nil
}

func (s *Store) ListRequests(_ context.Context) ([]backend.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Request(nil), s.requests...), nil
}

// ---------- Uploads ----------

func (s *Store) UploadFilesMVP(_ context.Context, requestID string, files []backend.FileUpload) (*backend.UploadAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range files {
		ct := f.ContentType
		size := int64(len(f.Content))
		s.uploads[requestID] = append(s.uploads[requestID], backend.Upload{
			Filename:    f.Filename,
			Key:         fmt.Sprintf("mock/%s/%s", requestID, f.Filename),
			ContentType: &ct,
			SizeBytes:   &size,
			CreatedAt:   nowISO(),
		})
	}
	return &backend.UploadAck{Status: "ok", RequestID: requestID, Count: len(files)}, nil
}

func (s *Store) ListUploads(_ context.Context, requestID string) ([]backend.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Upload(nil), s.uploads[requestID]...), nil
}

func (s *Store) PresignUploads(_ context.Context, requestID string, files []backend.PresignFile) (*backend.PresignResult, error) {
	uploads := make([]backend.PresignedUpload, 0, len(files))
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = "file.bin"
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		uploads = append(uploads, backend.PresignedUpload{
			Filename: name,
			URL:      "https://example.com/mock-presigned-url",
			Method:   "PUT",
			Headers:  map[string]string{"Content-Type": ct},
			Key:      fmt.Sprintf("mock/%s/%s", requestID, name),
		})
	}
	return &backend.PresignResult{Uploads: uploads}, nil
}

// CompleteUploads trusts the caller: it appends whatever was reported
// without checking that a presign step happened first.
func (s *Store) CompleteUploads(_ context.Context, requestID string, uploaded []backend.CompletedUpload) (*backend.CompleteAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range uploaded {
		s.uploads[requestID] = append(s.uploads[requestID], backend.Upload{
			Filename:  u.Filename,
			Key:       u.Key,
			ETag:      u.ETag,
			CreatedAt: nowISO(),
		})
	}
	return &backend.CompleteAck{Status: "ok", RequestID: requestID, Uploaded: uploaded}, nil
}

// ---------- QC ----------

func (s *Store) RunQC(_ context.Context, requestID string) (*backend.Ack, error) {
	return &backend.Ack{Status: "mocked"}, nil
}

// QCResults draws from one process-lifetime generator, so calling it
// twice for the same request yields fresh scores while a whole run
// from NewStore stays reproducible.
func (s *Store) QCResults(_ context.Context, requestID string) ([]backend.QCRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]backend.QCRow, 0, 25)
	for i := 1; i <= 25; i++ {
		rows = append(rows, backend.QCRow{
			RequestID:        requestID,
			ImageID:          fmt.Sprintf("%s_img_%03d", requestID, i),
			DuplicateScore:   round4(s.rand.Float64()),
			AIGeneratedScore: round4(s.rand.Float64()),
		})
	}
	return rows, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ---------- Tasks ----------

func (s *Store) ListTasks(_ context.Context) ([]backend.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Task(nil), s.tasks...), nil
}

func (s *Store) GetTask(_ context.Context, taskID string) (*backend.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTask(taskID)
}

// getTask synthesizes the task view: ten images per task, classes
// resolved from the parent request. Callers hold the mutex.
func (s *Store) getTask(taskID string) (*backend.Task, error) {
	t := s.findTask(taskID)
	if t == nil {
		return nil, &backend.APIError{StatusCode: 404, Message: "Task not found (mock): " + taskID}
	}

	classes := defaultClasses
	if req := s.findRequest(t.RequestID); req != nil && len(req.Classes) > 0 {
		classes = req.Classes
	}

	images := make([]backend.TaskImage, 0, 10)
	for i := 1; i <= 10; i++ {
		images = append(images, backend.TaskImage{ImageID: fmt.Sprintf("%s_img_%03d", taskID, i)})
	}

	out := *t
	out.Classes = append([]string(nil), classes...)
	out.Images = images
	return &out, nil
}

func (s *Store) findTask(taskID string) *backend.Task {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			return &s.tasks[i]
		}
	}
	return nil
}

func (s *Store) findRequest(requestID string) *backend.Request {
	for i := range s.requests {
		if s.requests[i].ID == requestID {
			return &s.requests[i]
		}
	}
	return nil
}

// SaveLabels is an unconditional upsert, last write wins.
func (s *Store) SaveLabels(_ context.Context, taskID, imageID string, labels []string) (*backend.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels[labelKey{taskID, imageID}] = append([]string(nil), labels...)
	return &backend.Ack{Status: "ok", TaskID: taskID}, nil
}

func (s *Store) TaskProgress(_ context.Context, taskID string) (*backend.TaskProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTask(taskID)
	if err != nil {
		return nil, err
	}

	labeled := 0
	for _, img := range t.Images {
		if len(s.labels[labelKey{taskID, img.ImageID}]) > 0 {
			labeled++
		}
	}
	return &backend.TaskProgress{
		TaskID:        taskID,
		TotalImages:   len(t.Images),
		LabeledImages: labeled,
	}, nil
}

func (s *Store) CompleteTask(_ context.Context, taskID string) (*backend.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTask(taskID)
	if t == nil {
		return nil, &backend.APIError{StatusCode: 404, Message: "Task not found (mock): " + taskID}
	}
	t.Status = "done"
	return &backend.Ack{Status: "ok", TaskID: taskID}, nil
}

// ---------- Admin ----------

func (s *Store) AdminListRequests(ctx context.Context) ([]backend.Request, error) {
	return s.ListRequests(ctx)
}

func (s *Store) AdminListTasks(ctx context.Context) ([]backend.Task, error) {
	return s.ListTasks(ctx)
}

func (s *Store) AdminListUsers(_ context.Context) ([]backend.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]backend.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, backend.User{Username: u.Username, Role: u.Role})
	}
	return users, nil
}

func (s *Store) AdminAssign(_ context.Context, requestID, labelerUsername string) (*backend.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.findRequest(requestID)
	if req == nil {
		return nil, &backend.APIError{StatusCode: 404, Message: "Request not found (mock): " + requestID}
	}

	id := fmt.Sprintf("task-%d", s.nextTaskID)
	s.nextTaskID++

	assignee := labelerUsername
	s.tasks = append(s.tasks, backend.Task{
		ID:        id,
		Title:     "Label " + requestID,
		Status:    "assigned",
		RequestID: requestID,
		Assignee:  &assignee,
	})
	req.Status = "in_progress"

	return &backend.Ack{Status: "ok", TaskID: id}, nil
}
