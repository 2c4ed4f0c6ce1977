package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"worklog/internal/auth"
	"worklog/internal/catalog"
)

type loginOption struct {
	ID   int
	Name string
}

type loginData struct {
	Persons []loginOption
	Error   string
}

func (s *Server) loginOptions(persons catalog.PersonDirectory) []loginOption {
	options := make([]loginOption, 0, len(persons))
	for _, id := range persons.IDs() {
		options = append(options, loginOption{ID: id, Name: persons[id].Name})
	}
	return options
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	persons := s.catalogs.Persons(r.Context())
	s.render(w, r, "login.html", loginData{Persons: s.loginOptions(persons)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	renderError := func(message string) {
		persons := s.catalogs.Persons(r.Context())
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", loginData{Persons: s.loginOptions(persons), Error: message})
	}

	personID, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("person_id")))
	if err != nil {
		renderError("担当者を選択してください。")
		return
	}
	pin := r.Form.Get("pin")

	person, err := s.auth.Login(r.Context(), personID, pin)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongPIN):
			slog.WarnContext(r.Context(), "Login rejected", "person_id", personID)
			renderError("PINが正しくありません。")
		case errors.Is(err, auth.ErrNoPIN), errors.Is(err, auth.ErrUnknownPerson):
			renderError("この担当者ではログインできません。")
		default:
			slog.ErrorContext(r.Context(), "Login failed", "person_id", personID, "error", err)
			renderError("ログイン処理でエラーが発生しました。")
		}
		return
	}

	if err := s.signIn(w, r, person); err != nil {
		slog.ErrorContext(r.Context(), "Session save failed", "person_id", personID, "error", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "Login succeeded", "person_id", personID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.signOut(w, r); err != nil {
		slog.ErrorContext(r.Context(), "Session clear failed", "error", err)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
