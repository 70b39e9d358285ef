package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

const sessionCookie = "labelhub_session"

// Session is the per-user state that survives across page loads:
// identity plus the UI selections the original pages kept (current
// request, current task, per-task image cursor, cached class list).
type Session struct {
	Username string
	Role     string
	Token    string

	SelectedRequestID string
	SelectedTaskID    string
	ImageIndex        map[string]int
	CachedClasses     []string
}

// Sessions maps cookie values to Session state with a sliding TTL.
type Sessions struct {
	ttl   time.Duration
	store *cache.Cache
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:   ttl,
		store: cache.New(ttl, 10*time.Minute),
	}
}

func (s *Sessions) Start(w http.ResponseWriter, sess *Session) {
	if sess.ImageIndex == nil {
		sess.ImageIndex = make(map[string]int)
	}
	id := uuid.NewString()
	s.store.Set(id, sess, s.ttl)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) Get(r *http.Request) *Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	v, ok := s.store.Get(c.Value)
	if !ok {
		return nil
	}
	sess := v.(*Session)
	s.store.Set(c.Value, sess, s.ttl)
	return sess
}

func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.store.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
