package backend

import "context"

// Service is the backend contract, one method per route. It is
// implemented by the HTTP gateway client and by the in-memory mock
// store; the web layer picks one at startup and never looks behind the
// interface again.
type Service interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	CreateRequest(ctx context.Context, title, description string, classes []string) (*Request, error)
	ListRequests(ctx context.Context) ([]Request, error)

	UploadFilesMVP(ctx context.Context, requestID string, files []FileUpload) (*UploadAck, error)
	ListUploads(ctx context.Context, requestID string) ([]Upload, error)
	PresignUploads(ctx context.Context, requestID string, files []PresignFile) (*PresignResult, error)
	CompleteUploads(ctx context.Context, requestID string, uploaded []CompletedUpload) (*CompleteAck, error)

	RunQC(ctx context.Context, requestID string) (*Ack, error)
	QCResults(ctx context.Context, requestID string) ([]QCRow, error)

	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	SaveLabels(ctx context.Context, taskID, imageID string, labels []string) (*Ack, error)
	TaskProgress(ctx context.Context, taskID string) (*TaskProgress, error)
	CompleteTask(ctx context.Context, taskID string) (*Ack, error)

	AdminListRequests(ctx context.Context) ([]Request, error)
	AdminListTasks(ctx context.Context) ([]Task, error)
	AdminListUsers(ctx context.Context) ([]User, error)
	AdminAssign(ctx context.Context, requestID, labelerUsername string) (*Ack, error)
}
