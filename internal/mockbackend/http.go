package mockbackend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"labelhub/internal/backend"
)

// Handler exposes the store over the same routes the real backend
// serves, so the gateway client can be pointed at it in local dev.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", h.Login)

	r.Route("/requests", func(rt chi.Router) {
		rt.Post("/", h.CreateRequest)
		rt.Get("/", h.ListRequests)
		rt.Post("/{id}/uploads", h.UploadFiles)
		rt.Get("/{id}/uploads", h.ListUploads)
		rt.Post("/{id}/qc/run", h.RunQC)
		rt.Get("/{id}/qc/results", h.QCResults)
	})

	r.Post("/uploads/presign", h.PresignUploads)
	r.Post("/uploads/complete", h.CompleteUploads)

	r.Route("/tasks", func(rt chi.Router) {
		rt.Get("/", h.ListTasks)
		rt.Get("/{id}", h.GetTask)
		rt.Post("/{id}/labels", h.SaveLabels)
		rt.Get("/{id}/progress", h.TaskProgress)
		rt.Post("/{id}/complete", h.CompleteTask)
	})

	r.Route("/admin", func(rt chi.Router) {
		rt.Get("/requests", h.AdminListRequests)
		rt.Get("/tasks", h.AdminListTasks)
		rt.Get("/users", h.AdminListUsers)
		rt.Post("/assign", h.AdminAssign)
	})

	return r
}

// writeError keeps the wire shape the gateway client expects: the
// status from the APIError and a JSON body with a "detail" field.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		render.Status(r, apiErr.StatusCode)
		render.JSON(w, r, map[string]string{"detail": apiErr.Message})
		return
	}
	slog.Error("mock backend internal error", "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"detail": "internal error"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	res, err := h.store.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

type createRequestRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Classes     []string `json:"classes"`
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateRequest(r.Context(), req.Title, req.Description, req.Classes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	var files []backend.FileUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "unreadable file part", http.StatusBadRequest)
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "unreadable file part", http.StatusBadRequest)
				return
			}
			files = append(files, backend.FileUpload{
				Filename:    fh.Filename,
				Content:     content,
				ContentType: fh.Header.Get("Content-Type"),
			})
		}
	}

	ack, err := h.store.UploadFilesMVP(r.Context(), requestID, files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}

func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListUploads(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

type presignRequest struct {
	RequestID string                `json:"request_id"`
	Files     []backend.PresignFile `json:"files"`
}

func (h *Handler) PresignUploads(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	res, err := h.store.PresignUploads(r.Context(), req.RequestID, req.Files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

type completeUploadsRequest struct {
	RequestID string                    `json:"request_id"`
	Uploaded  []backend.CompletedUpload `json:"uploaded"`
}

func (h *Handler) CompleteUploads(w http.ResponseWriter, r *http.Request) {
	var req completeUploadsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ack, err := h.store.CompleteUploads(r.Context(), req.RequestID, req.Uploaded)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}

func (h *Handler) RunQC(w http.ResponseWriter, r *http.Request) {
	ack, err := h.store.RunQC(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}

func (h *Handler) QCResults(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.QCResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, rows)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, task)
}

type saveLabelsRequest struct {
	ImageID string   `json:"image_id"`
	Labels  []string `json:"labels"`
}

func (h *Handler) SaveLabels(w http.ResponseWriter, r *http.Request) {
	var req saveLabelsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ack, err := h.store.SaveLabels(r.Context(), chi.URLParam(r, "id"), req.ImageID, req.Labels)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}

func (h *Handler) TaskProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.store.TaskProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, progress)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ack, err := h.store.CompleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}

func (h *Handler) AdminListRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.AdminListRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (h *Handler) AdminListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.AdminListTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.AdminListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

type assignRequest struct {
	RequestID       string `json:"request_id"`
	LabelerUsername string `json:"labeler_username"`
}

func (h *Handler) AdminAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ack, err := h.store.AdminAssign(r.Context(), req.RequestID, req.LabelerUsername)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ack)
}
