package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelhub/internal/backend"
)

const testBase = "http://backend.test"

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c := New(testBase, opts...)
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClient_AttachesHeaders(t *testing.T) {
	c := newTestClient(t, WithToken("tok-123"))

	var gotAccept, gotAuth string
	httpmock.RegisterResponder(http.MethodGet, testBase+"/requests",
		func(req *http.Request) (*http.Response, error) {
			gotAccept = req.Header.Get("Accept")
			gotAuth = req.Header.Get("Authorization")
			return httpmock.NewJsonResponse(http.StatusOK, []map[string]any{})
		})

	_, err := c.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	c := newTestClient(t)

	var hasAuth bool
	httpmock.RegisterResponder(http.MethodGet, testBase+"/tasks",
		func(req *http.Request) (*http.Response, error) {
			_, hasAuth = req.Header["Authorization"]
			return httpmock.NewJsonResponse(http.StatusOK, []map[string]any{})
		})

	_, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestClient_EmptyBaseURL_NoNetworkCall(t *testing.T) {
	c := New("")
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	_, err := c.ListRequests(context.Background())

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.ErrorIs(t, err, backend.ErrNotConfigured)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestClient_TransportError(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/requests",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.ListRequests(context.Background())

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Network error:")
}

func TestClient_ErrorMessageDerivation(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		contentType string
		wantMsg     string
	}{
		{"detail_field", http.StatusUnprocessableEntity, `{"detail": "title is required"}`, "application/json", "title is required"},
		{"message_field", http.StatusBadRequest, `{"message": "bad payload"}`, "application/json", "bad payload"},
		{"detail_wins_over_message", http.StatusBadRequest, `{"detail": "D", "message": "M"}`, "application/json", "D"},
		{"non_string_detail_ignored", http.StatusBadRequest, `{"detail": 42}`, "application/json", "Bad Request"},
		{"reason_phrase_fallback", http.StatusInternalServerError, `{"oops": true}`, "application/json", "Internal Server Error"},
		{"plain_text_body", http.StatusBadGateway, "upstream exploded", "text/plain", "Bad Gateway"},
		{"unknown_status", 599, "nope", "text/plain", "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			resp := httpmock.NewStringResponder(tt.status, tt.body)
			httpmock.RegisterResponder(http.MethodGet, testBase+"/tasks/task-1", resp.HeaderSet(http.Header{"Content-Type": []string{tt.contentType}}))

			_, err := c.GetTask(context.Background(), "task-1")

			var apiErr *backend.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.NotNil(t, apiErr.Payload)
		})
	}
}

func TestClient_ErrorPayload_RawTextWhenNotJSON(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/tasks/task-1",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream exploded"))

	_, err := c.GetTask(context.Background(), "task-1")

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Payload)
}

func TestClient_NoContent(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/tasks/task-1/complete",
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	ack, err := c.CompleteTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Status)
}

func TestClient_InvalidJSONOnSuccess(t *testing.T) {
	c := newTestClient(t)
	resp := httpmock.NewStringResponder(http.StatusOK, `{not json`)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/tasks/task-1",
		resp.HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	_, err := c.GetTask(context.Background(), "task-1")

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "Invalid JSON in response", apiErr.Message)
	assert.Equal(t, `{not json`, apiErr.Payload)
}

func TestClient_ListCoercion(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/requests",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"unexpected": "shape"}))

	items, err := c.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_ListDecodesItems(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/requests",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []map[string]any{
			{"id": "req-1", "title": "T", "status": "new", "classes": []string{"a", "b"}},
		}))

	items, err := c.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "req-1", items[0].ID)
	assert.Equal(t, []string{"a", "b"}, items[0].Classes)
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/auth/login",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			if err := jsonDecode(req, &body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad"), nil
			}
			if body["username"] != "admin1" || body["password"] != "pass" {
				return httpmock.NewJsonResponse(http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"access_token": "tok", "role": "admin"})
		})

	res, err := c.Login(context.Background(), "admin1", "pass")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "admin", res.Role)

	_, err = c.Login(context.Background(), "admin1", "wrong")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestClient_PutPresigned(t *testing.T) {
	c := newTestClient(t)

	var gotContentType string
	var gotBody []byte
	httpmock.RegisterResponder(http.MethodPut, "https://storage.test/key",
		func(req *http.Request) (*http.Response, error) {
			gotContentType = req.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(req.Body)
			resp := httpmock.NewStringResponse(http.StatusOK, "")
			resp.Header.Set("Etag", `"abc123"`)
			return resp, nil
		})

	etag, err := c.PutPresigned(context.Background(), backend.PresignedUpload{
		URL:     "https://storage.test/key",
		Method:  "PUT",
		Headers: map[string]string{"Content-Type": "image/png"},
	}, []byte("bytes"))

	require.NoError(t, err)
	assert.Equal(t, "abc123", etag)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, "bytes", string(gotBody))
}

func TestClient_PutPresigned_Failure(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPut, "https://storage.test/key",
		httpmock.NewStringResponder(http.StatusForbidden, "denied"))

	_, err := c.PutPresigned(context.Background(), backend.PresignedUpload{URL: "https://storage.test/key"}, []byte("x"))

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func jsonDecode(req *http.Request, out any) error {
	defer req.Body.Close()
	return json.NewDecoder(req.Body).Decode(out)
}
