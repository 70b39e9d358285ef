package backend

// Records are owned by the backend service; this package only declares
// the shapes the front-end reads. Optional fields are pointers so a
// missing value stays distinguishable from a zero one.

type Request struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Classes     []string `json:"classes"`
	Status      string   `json:"status"`
}

type TaskImage struct {
	ImageID string  `json:"image_id"`
	URL     *string `json:"url"`
}

type Task struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    string      `json:"status"`
	RequestID string      `json:"request_id"`
	Assignee  *string     `json:"assignee,omitempty"`
	Classes   []string    `json:"classes,omitempty"`
	Images    []TaskImage `json:"images,omitempty"`
}

type Upload struct {
	Filename    string  `json:"filename"`
	Key         string  `json:"key"`
	ETag        *string `json:"etag"`
	ContentType *string `json:"content_type"`
	SizeBytes   *int64  `json:"size_bytes"`
	CreatedAt   string  `json:"created_at"`
	PreviewURL  *string `json:"preview_url"`
}

type QCRow struct {
	RequestID        string  `json:"request_id"`
	ImageID          string  `json:"image_id"`
	DuplicateScore   float64 `json:"duplicate_score"`
	AIGeneratedScore float64 `json:"ai_generated_score"`
}

type TaskProgress struct {
	TaskID        string `json:"task_id"`
	TotalImages   int    `json:"total_images"`
	LabeledImages int    `json:"labeled_images"`
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// FileUpload is a file staged for upload: raw bytes plus metadata.
type FileUpload struct {
	Filename    string
	Content     []byte
	ContentType string
}

type PresignFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type PresignedUpload struct {
	Filename string            `json:"filename"`
	URL      string            `json:"url"`
	Method   string            `json:"method"`
	Headers  map[string]string `json:"headers"`
	Key      string            `json:"key"`
}

type PresignResult struct {
	Uploads []PresignedUpload `json:"uploads"`
}

// CompletedUpload reports one finished storage PUT back to the backend.
type CompletedUpload struct {
	Filename string  `json:"filename"`
	Key      string  `json:"key"`
	ETag     *string `json:"etag"`
}

type UploadAck struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Count     int    `json:"count"`
}

type CompleteAck struct {
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	Uploaded  []CompletedUpload `json:"uploaded"`
}

type Ack struct {
	Status string `json:"status"`
	TaskID string `json:"task_id,omitempty"`
}
