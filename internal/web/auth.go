package web

import (
	"net/http"

	"labelhub/internal/backend"
	"labelhub/internal/calls"
)

type loginData struct {
	Page
	Denied bool
}

func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginData{
		Page:   s.page("Sign in", nil),
		Denied: r.URL.Query().Get("denied") != "",
	}
	s.render(w, "login.html", data)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	// Login runs without a token; the session gets one on success.
	svc := s.factory("")
	out := calls.Do("Sign in", calls.Options{SpinnerText: "Signing in...", OfferRetry: true}, func() (*backend.LoginResult, error) {
		return svc.Login(r.Context(), username, password)
	})
	if !out.OK {
		data := loginData{Page: s.page("Sign in", nil)}
		data.Failure = out.Failure
		// A password never goes into a hidden replay field; retry is a
		// plain reload of the form.
		data.Retry = &Retry{Method: "get", Action: "/login"}
		s.render(w, "login.html", data)
		return
	}

	s.sessions.Start(w, &Session{
		Username: username,
		Role:     out.Value.Role,
		Token:    out.Value.AccessToken,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
