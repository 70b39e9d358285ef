package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type uploadsData struct {
	Page
	RequestID string
	Mode      string
	Uploads   []backend.Upload
}

func (s *Server) UploadsPage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}

	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		requestID = sess.SelectedRequestID
	} else {
		sess.SelectedRequestID = requestID
	}

	data := uploadsData{
		Page:      s.page("Uploads", sess),
		RequestID: requestID,
		Mode:      s.uploadMode,
	}
	if n := r.URL.Query().Get("uploaded"); n != "" {
		data.Note = "Uploaded " + n + " file(s)."
	}

	if requestID != "" {
		svc := s.factory(sess.Token)
		out := calls.Do("Load uploads", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading uploads..."}, func() ([]backend.Upload, error) {
			return svc.ListUploads(r.Context(), requestID)
		})
		if out.OK {
			data.Uploads = out.Value
		} else {
			data.Failure = out.Failure
			data.Retry = retryGet(r)
		}
	}

	s.render(w, "uploads.html", data)
}

// Upload handles both modes. There is no retry affordance here: the
// file bytes live only in the submitted form, so a retry has to be a
// fresh file selection.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	requestID := r.PostFormValue("request_id")
	if requestID != "" {
		sess.SelectedRequestID = requestID
	}

	var files []backend.FileUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "unreadable file", http.StatusBadRequest)
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "unreadable file", http.StatusBadRequest)
				return
			}
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			files = append(files, backend.FileUpload{Filename: fh.Filename, Content: content, ContentType: ct})
		}
	}

	if requestID == "" || len(files) == 0 {
		data := uploadsData{Page: s.page("Uploads", sess), RequestID: requestID, Mode: s.uploadMode}
		data.Note = "Select a request and at least one file first."
		s.render(w, "uploads.html", data)
		return
	}

	svc := s.factory(sess.Token)
	var failure *calls.Failure
	count := 0

	if s.uploadMode == "presigned" {
		out := calls.Do("Upload files", calls.Options{ShowPayload: true, SpinnerText: "Uploading..."}, func() (*backend.CompleteAck, error) {
			return s.presignedUpload(r.Context(), svc, requestID, files)
		})
		if out.OK {
			count = len(out.Value.Uploaded)
		} else {
			failure = out.Failure
		}
	} else {
		out := calls.Do("Upload files", calls.Options{ShowPayload: true, SpinnerText: "Uploading..."}, func() (*backend.UploadAck, error) {
			return svc.UploadFilesMVP(r.Context(), requestID, files)
		})
		if out.OK {
			count = out.Value.Count
		} else {
			failure = out.Failure
		}
	}

	if failure != nil {
		data := uploadsData{Page: s.page("Uploads", sess), RequestID: requestID, Mode: s.uploadMode}
		data.Failure = failure
		if items, err := svc.ListUploads(r.Context(), requestID); err == nil {
			data.Uploads = items
		}
		s.render(w, "uploads.html", data)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/uploads?request_id=%s&uploaded=%d", requestID, count), http.StatusSeeOther)
}

// presignedUpload runs the three-leg flow: presign, PUT each file to
// storage, then report completions. In mock mode there is no storage
// leg, so the PUT is skipped and the ETag stays empty.
func (s *Server) presignedUpload(ctx context.Context, svc backend.Service, requestID string, files []backend.FileUpload) (*backend.CompleteAck, error) {
	presignFiles := make([]backend.PresignFile, 0, len(files))
	byName := make(map[string]backend.FileUpload, len(files))
	for _, f := range files {
		presignFiles = append(presignFiles, backend.PresignFile{Filename: f.Filename, ContentType: f.ContentType})
		byName[f.Filename] = f
	}

	res, err := svc.PresignUploads(ctx, requestID, presignFiles)
	if err != nil {
		return nil, err
	}

	putter, canPut := svc.(storagePutter)

	uploaded := make([]backend.CompletedUpload, 0, len(res.Uploads))
	for _, up := range res.Uploads {
		f, ok := byName[up.Filename]
		if !ok {
			continue
		}
		var etag *string
		if canPut {
			tag, err := putter.PutPresigned(ctx, up, f.Content)
			if err != nil {
				return nil, err
			}
			if tag != "" {
				etag = &tag
			}
		}
		uploaded = append(uploaded, backend.CompletedUpload{Filename: up.Filename, Key: up.Key, ETag: etag})
	}

	return svc.CompleteUploads(ctx, requestID, uploaded)
}
