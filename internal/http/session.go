package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"worklog/internal/catalog"
)

const sessionName = "worklog_session"

// Session keys.
const (
	keyPersonID    = "person_id"
	keyPersonName  = "person_name"
	keyLastWorkDay = "last_work_day"
	keyHighlightID = "highlight_id"
)

func newSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   12 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// Get never fails fatally: a bad cookie yields a fresh session.
	sess, err := s.sessions.Get(r, sessionName)
	if err != nil {
		slog.DebugContext(r.Context(), "Session decode failed, starting fresh", "error", err)
	}
	return sess
}

func (s *Server) sessionPersonID(r *http.Request) (int, bool) {
	sess := s.session(r)
	id, ok := sess.Values[keyPersonID].(int)
	return id, ok
}

func (s *Server) sessionPersonName(r *http.Request) string {
	sess := s.session(r)
	name, _ := sess.Values[keyPersonName].(string)
	return name
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, person catalog.Person) error {
	sess := s.session(r)
	sess.Values[keyPersonID] = person.ID
	sess.Values[keyPersonName] = person.Name
	return sess.Save(r, w)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func (s *Server) sessionLastWorkDay(r *http.Request) string {
	sess := s.session(r)
	day, _ := sess.Values[keyLastWorkDay].(string)
	return day
}

func (s *Server) rememberWorkDay(w http.ResponseWriter, r *http.Request, workDay, highlightID string) {
	sess := s.session(r)
	sess.Values[keyLastWorkDay] = workDay
	sess.Values[keyHighlightID] = highlightID
	if err := sess.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Session save failed", "error", err)
	}
}

// takeHighlight returns the one-shot highlighted record id and clears it.
func (s *Server) takeHighlight(w http.ResponseWriter, r *http.Request) string {
	sess := s.session(r)
	id, _ := sess.Values[keyHighlightID].(string)
	if id != "" {
		delete(sess.Values, keyHighlightID)
		if err := sess.Save(r, w); err != nil {
			slog.ErrorContext(r.Context(), "Session save failed", "error", err)
		}
	}
	return id
}
