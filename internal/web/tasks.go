package web

import (
	"net/http"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type tasksData struct {
	Page
	Tasks          []backend.Task
	SelectedTaskID string
}

func (s *Server) TasksPage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "labeler")
	if sess == nil {
		return
	}
	svc := s.factory(sess.Token)

	data := tasksData{
		Page:           s.page("My Tasks", sess),
		SelectedTaskID: sess.SelectedTaskID,
	}
	if done := r.URL.Query().Get("done"); done != "" {
		data.Note = "Task completed: " + done
	}

	out := calls.Do("Load tasks", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading tasks..."}, func() ([]backend.Task, error) {
		return svc.ListTasks(r.Context())
	})
	if out.OK {
		data.Tasks = out.Value
	} else {
		data.Failure = out.Failure
		data.Retry = retryGet(r)
	}

	s.render(w, "tasks.html", data)
}

func (s *Server) OpenTask(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "labeler", "admin")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if id := r.PostFormValue("task_id"); id != "" {
		sess.SelectedTaskID = id
	}
	http.Redirect(w, r, "/annotate", http.StatusSeeOther)
}
