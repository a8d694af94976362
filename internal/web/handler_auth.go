package web

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/vbonduro/clawmap/internal/identity"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts either a JSON body or a form post.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req)
		return req, err
	}
	req.Email = r.FormValue("email")
	req.Password = r.FormValue("password")
	return req, nil
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"identity": viewer,
		"state":    viewer.State.String(),
	})
}

func (s *Server) handleSignInAnonymously(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.SignInAnonymously(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, "sign in", err)
		return
	}
	s.startSession(w, r, http.StatusOK, sess)
}

// handleSignUp and handleSignIn replace whatever session the browser holds.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(w, r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	current := identity.FromContext(r.Context()).SignOut()
	sess, err := s.auth.SignUp(r.Context(), current, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "sign up", err)
		return
	}
	s.startSession(w, r, http.StatusCreated, sess)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(w, r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	current := identity.FromContext(r.Context()).SignOut()
	sess, err := s.auth.SignIn(r.Context(), current, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "sign in", err)
		return
	}
	s.startSession(w, r, http.StatusOK, sess)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(w, r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := s.auth.Upgrade(r.Context(), identity.FromContext(r.Context()), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "upgrade account", err)
		return
	}
	s.startSession(w, r, http.StatusOK, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	next := s.auth.SignOut(identity.FromContext(r.Context()))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"state": next.State.String()})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, status int, sess *identity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, status, sess)
}
