package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"labelhub/internal/backend"
)

// PutPresigned performs the storage leg of a presigned upload: one PUT
// of the raw file bytes to the issued URL with the issued headers. On
// success it returns the ETag the storage reported (quotes stripped,
// empty if the header was absent).
func (c *Client) PutPresigned(ctx context.Context, upload backend.PresignedUpload, content []byte) (string, error) {
	method := strings.ToUpper(upload.Method)
	if method == "" {
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(ctx, method, upload.URL, bytes.NewReader(content))
	if err != nil {
		return "", &backend.APIError{StatusCode: 0, Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}
	for k, v := range upload.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &backend.APIError{StatusCode: 0, Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", newStatusError(resp.StatusCode, raw)
	}

	// Header lookup is case-insensitive, quoting varies by provider.
	return strings.Trim(resp.Header.Get("ETag"), `"`), nil
}
