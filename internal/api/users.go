package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/models"
)

type upsertUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoUrl"`
}

// handleUpsertUser registers an account on first sign-in. Existing accounts
// just get their last-login refreshed; the stored role is never touched here.
func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if req.Email == "" {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError("email is required", nil))
		return
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Name:     req.Name,
		Role:     models.RoleCustomer,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
	}
	inserted, err := s.users.Upsert(r.Context(), user)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	body := map[string]interface{}{"upsertedCount": 0, "matchedCount": 1}
	if inserted {
		status = http.StatusCreated
		body = map[string]interface{}{"upsertedCount": 1, "insertedId": user.ID}
	}
	s.writeJSON(w, status, body)
}

// handleUserRole reports the caller's resolved role. The email path segment
// must match the authenticated identity; roles are not discoverable across
// accounts.
func (s *Server) handleUserRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	email := mux.Vars(r)["email"]

	if email != actor.Email {
		s.errs.WriteError(w, r, stderrors.NewForbiddenError("role lookup is limited to the signed-in account"))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"role": actor.Role.String()})
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	user, err := s.users.GetByEmail(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

type profileUpdateRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoUrl"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	email := mux.Vars(r)["email"]

	if email != actor.Email {
		s.errs.WriteError(w, r, stderrors.NewForbiddenError("profile updates are limited to the signed-in account"))
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	modified, err := s.users.UpdateProfile(r.Context(), email, req.Name, req.Phone, req.PhotoURL)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"modifiedCount": modified})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	var req roleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError(
			"role must be customer, agent or admin", map[string]interface{}{"role": req.Role}))
		return
	}

	modified, err := s.users.UpdateRole(r.Context(), email, role)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"modifiedCount": modified})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	if err := s.users.Delete(r.Context(), email); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"deletedCount": 1})
}

func (s *Server) handleTopAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.users.ListAgents(r.Context(), limitParam(r, 3))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, agents)
}

// handleSignOut drops the session's cache wholesale. The identity provider
// owns the credential; this only guarantees nothing cached for the session
// survives it.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(sessionIDKey).(string)
	if sessionID == "" {
		s.errs.WriteError(w, r, stderrors.NewAuthenticationError("no session"))
		return
	}

	if err := s.sessions.Drop(r.Context(), sessionID); err != nil {
		s.errs.WriteError(w, r, stderrors.NewDatabaseError("drop session", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
