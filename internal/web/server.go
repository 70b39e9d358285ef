// Package web is the multi-role front-end: customers file labeling
// requests and upload images, labelers annotate assigned tasks, admins
// hand work out. Every backend interaction is dispatched through
// calls.Do; a page render is the only thing that happens after an
// action, success or not.
package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ServiceFactory yields the backend for one request, bound to the
// session's bearer token. Mock mode ignores the token and returns the
// shared store.
type ServiceFactory func(token string) backend.Service

// storagePutter is the optional presigned-upload leg; only the real
// gateway client implements it.
type storagePutter interface {
	PutPresigned(ctx context.Context, upload backend.PresignedUpload, content []byte) (string, error)
}

type Server struct {
	factory    ServiceFactory
	sessions   *Sessions
	tmpl       *template.Template
	uploadMode string
}

func NewServer(factory ServiceFactory, sessions *Sessions, uploadMode string) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if uploadMode != "presigned" {
		uploadMode = "mvp"
	}
	return &Server{
		factory:    factory,
		sessions:   sessions,
		tmpl:       tmpl,
		uploadMode: uploadMode,
	}, nil
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.Home)
	r.Get("/login", s.LoginPage)
	r.Post("/login", s.Login)
	r.Post("/logout", s.Logout)

	r.Get("/requests", s.RequestsPage)
	r.Post("/requests/create", s.CreateRequest)
	r.Post("/requests/select", s.SelectRequest)

	r.Get("/uploads", s.UploadsPage)
	r.Post("/uploads", s.Upload)

	r.Get("/qc", s.QCPage)
	r.Post("/qc/run", s.RunQC)

	r.Get("/tasks", s.TasksPage)
	r.Post("/tasks/open", s.OpenTask)

	r.Get("/annotate", s.AnnotatePage)
	r.Post("/annotate/save", s.SaveLabels)
	r.Post("/annotate/finish", s.FinishTask)

	r.Get("/admin", s.AdminPage)
	r.Post("/admin/assign", s.Assign)

	return r
}

// Page is the data every template gets: identity for the nav, an
// optional success note, and at most one failure block with its retry
// affordance.
type Page struct {
	Title    string
	Username string
	Role     string
	Note     string
	Failure  *calls.Failure
	Retry    *Retry
}

// Retry re-dispatches the failed action as a whole: a fresh form
// submission, which is a full re-render cycle.
type Retry struct {
	Method string
	Action string
	Fields []RetryField
}

type RetryField struct {
	Name  string
	Value string
}

func (s *Server) page(title string, sess *Session) Page {
	p := Page{Title: title}
	if sess != nil {
		p.Username = sess.Username
		p.Role = sess.Role
	}
	return p
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template render failed", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// requireRole gates a page. A nil return means a redirect was already
// written. The universal role passes every gate.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, roles ...string) *Session {
	sess := s.sessions.Get(r)
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil
	}
	if sess.Role == "universal" {
		return sess
	}
	for _, role := range roles {
		if sess.Role == role {
			return sess
		}
	}
	http.Redirect(w, r, "/login?denied=1", http.StatusSeeOther)
	return nil
}

func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r)
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	switch sess.Role {
	case "labeler":
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
	case "admin":
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
	}
}

// retryGet is the affordance for failed page loads: re-request the
// same URL. Query parameters become form fields because a GET form
// replaces its action's query string.
func retryGet(r *http.Request) *Retry {
	var fields []RetryField
	for k, vs := range r.URL.Query() {
		for _, v := range vs {
			fields = append(fields, RetryField{Name: k, Value: v})
		}
	}
	return &Retry{Method: "get", Action: r.URL.Path, Fields: fields}
}

// retryPost rebuilds the submitted form so activating retry re-invokes
// the whole action with the same inputs. Multi-valued fields (label
// checkboxes) are kept as repeated hidden inputs.
func retryPost(r *http.Request) *Retry {
	var fields []RetryField
	for k, vs := range r.PostForm {
		for _, v := range vs {
			fields = append(fields, RetryField{Name: k, Value: v})
		}
	}
	return &Retry{Method: "post", Action: r.URL.Path, Fields: fields}
}
