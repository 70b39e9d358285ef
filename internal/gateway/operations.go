package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"labelhub/internal/backend"
)

var _ backend.Service = (*Client)(nil)

func (c *Client) Login(ctx context.Context, username, password string) (*backend.LoginResult, error) {
	raw, err := c.postJSON(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.LoginResult](raw, "login")
}

func (c *Client) CreateRequest(ctx context.Context, title, description string, classes []string) (*backend.Request, error) {
	raw, err := c.postJSON(ctx, "/requests", map[string]any{
		"title":       title,
		"description": description,
		"classes":     classes,
	})
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.Request](raw, "create request")
}

func (c *Client) ListRequests(ctx context.Context) ([]backend.Request, error) {
	raw, err := c.getJSON(ctx, "/requests")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.Request](raw), nil
}

func (c *Client) UploadFilesMVP(ctx context.Context, requestID string, files []backend.FileUpload) (*backend.UploadAck, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		hdr.Set("Content-Type", contentType)

		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("create multipart part: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write multipart part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	raw, err := c.request(ctx, http.MethodPost, "/requests/"+requestID+"/uploads", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.UploadAck](raw, "upload files")
}

func (c *Client) ListUploads(ctx context.Context, requestID string) ([]backend.Upload, error) {
	raw, err := c.getJSON(ctx, "/requests/"+requestID+"/uploads")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.Upload](raw), nil
}

func (c *Client) PresignUploads(ctx context.Context, requestID string, files []backend.PresignFile) (*backend.PresignResult, error) {
	raw, err := c.postJSON(ctx, "/uploads/presign", map[string]any{
		"request_id": requestID,
		"files":      files,
	})
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.PresignResult](raw, "presign uploads")
}

func (c *Client) CompleteUploads(ctx context.Context, requestID string, uploaded []backend.CompletedUpload) (*backend.CompleteAck, error) {
	raw, err := c.postJSON(ctx, "/uploads/complete", map[string]any{
		"request_id": requestID,
		"uploaded":   uploaded,
	})
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.CompleteAck](raw, "complete uploads")
}

func (c *Client) RunQC(ctx context.Context, requestID string) (*backend.Ack, error) {
	raw, err := c.postJSON(ctx, "/requests/"+requestID+"/qc/run", nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &backend.Ack{Status: "ok"}, nil
	}
	return decodeInto[backend.Ack](raw, "run qc")
}

func (c *Client) QCResults(ctx context.Context, requestID string) ([]backend.QCRow, error) {
	raw, err := c.getJSON(ctx, "/requests/"+requestID+"/qc/results")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.QCRow](raw), nil
}

func (c *Client) ListTasks(ctx context.Context) ([]backend.Task, error) {
	raw, err := c.getJSON(ctx, "/tasks")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.Task](raw), nil
}

func (c *Client) GetTask(ctx context.Context, taskID string) (*backend.Task, error) {
	raw, err := c.getJSON(ctx, "/tasks/"+taskID)
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.Task](raw, "get task")
}

func (c *Client) SaveLabels(ctx context.Context, taskID, imageID string, labels []string) (*backend.Ack, error) {
	raw, err := c.postJSON(ctx, "/tasks/"+taskID+"/labels", map[string]any{
		"image_id": imageID,
		"labels":   labels,
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &backend.Ack{Status: "ok"}, nil
	}
	return decodeInto[backend.Ack](raw, "save labels")
}

func (c *Client) TaskProgress(ctx context.Context, taskID string) (*backend.TaskProgress, error) {
	raw, err := c.getJSON(ctx, "/tasks/"+taskID+"/progress")
	if err != nil {
		return nil, err
	}
	return decodeInto[backend.TaskProgress](raw, "task progress")
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) (*backend.Ack, error) {
	raw, err := c.postJSON(ctx, "/tasks/"+taskID+"/complete", nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &backend.Ack{Status: "ok"}, nil
	}
	return decodeInto[backend.Ack](raw, "complete task")
}

func (c *Client) AdminListRequests(ctx context.Context) ([]backend.Request, error) {
	raw, err := c.getJSON(ctx, "/admin/requests")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.Request](raw), nil
}

func (c *Client) AdminListTasks(ctx context.Context) ([]backend.Task, error) {
	raw, err := c.getJSON(ctx, "/admin/tasks")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.Task](raw), nil
}

func (c *Client) AdminListUsers(ctx context.Context) ([]backend.User, error) {
	raw, err := c.getJSON(ctx, "/admin/users")
	if err != nil {
		return nil, err
	}
	return decodeList[backend.User](raw), nil
}

func (c *Client) AdminAssign(ctx context.Context, requestID, labelerUsername string) (*backend.Ack, error) {
	raw, err := c.postJSON(ctx, "/admin/assign", map[string]string{
		"request_id":       requestID,
		"labeler_username": labelerUsername,
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &backend.Ack{Status: "ok"}, nil
	}
	return decodeInto[backend.Ack](raw, "admin assign")
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
