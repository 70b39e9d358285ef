package web

import (
	"net/http"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type adminData struct {
	Page
	Requests []backend.Request
	Tasks    []backend.Task
	Users    []backend.User
	Labelers []backend.User
}

func (s *Server) AdminPage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "admin")
	if sess == nil {
		return
	}
	svc := s.factory(sess.Token)

	data := adminData{Page: s.page("Admin", sess)}
	if assigned := r.URL.Query().Get("assigned"); assigned != "" {
		data.Note = "Created task: " + assigned
	}

	outRequests := calls.Do("Load requests", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading requests..."}, func() ([]backend.Request, error) {
		return svc.AdminListRequests(r.Context())
	})
	outTasks := calls.Do("Load tasks", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading tasks..."}, func() ([]backend.Task, error) {
		return svc.AdminListTasks(r.Context())
	})
	outUsers := calls.Do("Load users", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading users..."}, func() ([]backend.User, error) {
		return svc.AdminListUsers(r.Context())
	})

	if outRequests.OK {
		data.Requests = outRequests.Value
	}
	if outTasks.OK {
		data.Tasks = outTasks.Value
	}
	if outUsers.OK {
		data.Users = outUsers.Value
		for _, u := range outUsers.Value {
			if u.Role == "labeler" || u.Role == "universal" {
				data.Labelers = append(data.Labelers, u)
			}
		}
	}

	// One error block per page; the first failed list wins.
	for _, out := range []*calls.Failure{outRequests.Failure, outTasks.Failure, outUsers.Failure} {
		if out != nil {
			data.Failure = out
			data.Retry = retryGet(r)
			break
		}
	}

	s.render(w, "admin.html", data)
}

func (s *Server) Assign(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "admin")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	requestID := r.PostFormValue("request_id")
	labeler := r.PostFormValue("labeler_username")
	if requestID == "" || labeler == "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	svc := s.factory(sess.Token)
	out := calls.Do("Assign labeler", calls.Options{ShowPayload: true, SuccessNote: true, OfferRetry: true, SpinnerText: "Assigning..."}, func() (*backend.Ack, error) {
		return svc.AdminAssign(r.Context(), requestID, labeler)
	})
	if !out.OK {
		data := adminData{Page: s.page("Admin", sess)}
		data.Failure = out.Failure
		data.Retry = retryPost(r)
		if items, err := svc.AdminListRequests(r.Context()); err == nil {
			data.Requests = items
		}
		if items, err := svc.AdminListTasks(r.Context()); err == nil {
			data.Tasks = items
		}
		if items, err := svc.AdminListUsers(r.Context()); err == nil {
			data.Users = items
			for _, u := range items {
				if u.Role == "labeler" || u.Role == "universal" {
					data.Labelers = append(data.Labelers, u)
				}
			}
		}
		s.render(w, "admin.html", data)
		return
	}

	http.Redirect(w, r, "/admin?assigned="+out.Value.TaskID, http.StatusSeeOther)
}
