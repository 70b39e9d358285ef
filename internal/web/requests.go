package web

import (
	"net/http"
	"strings"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type requestsData struct {
	Page
	Requests          []backend.Request
	SelectedRequestID string
}

func (s *Server) RequestsPage(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}
	svc := s.factory(sess.Token)

	data := requestsData{
		Page:              s.page("Requests", sess),
		SelectedRequestID: sess.SelectedRequestID,
	}
	if created := r.URL.Query().Get("created"); created != "" {
		data.Note = "Created request: " + created
	}

	out := calls.Do("Load requests", calls.Options{ShowPayload: true, OfferRetry: true, SpinnerText: "Loading requests..."}, func() ([]backend.Request, error) {
		return svc.ListRequests(r.Context())
	})
	if out.OK {
		data.Requests = out.Value
	} else {
		data.Failure = out.Failure
		data.Retry = retryGet(r)
	}

	s.render(w, "requests.html", data)
}

func (s *Server) CreateRequest(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	classes := splitLines(r.PostFormValue("classes"))

	svc := s.factory(sess.Token)
	out := calls.Do("Create request", calls.Options{ShowPayload: true, SuccessNote: true, OfferRetry: true, SpinnerText: "Creating request..."}, func() (*backend.Request, error) {
		return svc.CreateRequest(r.Context(), title, description, classes)
	})
	if !out.OK {
		data := requestsData{
			Page:              s.page("Requests", sess),
			SelectedRequestID: sess.SelectedRequestID,
		}
		data.Failure = out.Failure
		data.Retry = retryPost(r)
		if items, err := svc.ListRequests(r.Context()); err == nil {
			data.Requests = items
		}
		s.render(w, "requests.html", data)
		return
	}

	if out.Value.ID != "" {
		sess.SelectedRequestID = out.Value.ID
	}
	http.Redirect(w, r, "/requests?created="+out.Value.ID, http.StatusSeeOther)
}

func (s *Server) SelectRequest(w http.ResponseWriter, r *http.Request) {
	sess := s.requireRole(w, r, "customer")
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if id := r.PostFormValue("request_id"); id != "" {
		sess.SelectedRequestID = id
	}

	switch r.PostFormValue("dest") {
	case "uploads":
		http.Redirect(w, r, "/uploads", http.StatusSeeOther)
	case "qc":
		http.Redirect(w, r, "/qc", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
	}
}

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
