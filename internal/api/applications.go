package api

import (
	"net/http"

	"github.com/gorilla/mux"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/validation"
	"lifesure/internal/lifecycle"
	"lifesure/internal/models"
)

// One in-flight application submit per customer.
func (s *Server) applicationSubmitKey(r *http.Request) string {
	actor, ok := actorFrom(r.Context())
	if !ok {
		return ""
	}
	return "applications:" + actor.Email
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	payload, err := s.decodeBody(r, validation.SchemaApplicationIntake)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	in := lifecycle.SubmitApplicationInput{
		PolicyID:        stringField(payload, "policyId"),
		FullName:        stringField(payload, "fullName"),
		Email:           stringField(payload, "email"),
		Address:         stringField(payload, "address"),
		NID:             stringField(payload, "nid"),
		Nominee:         stringField(payload, "nominee"),
		NomineeRelation: stringField(payload, "nomineeRelation"),
		HealthCondition: stringField(payload, "healthCondition"),
	}
	if premium, ok := payload["estimatedPremium"].(float64); ok {
		in.EstimatedPremium = premium
	}

	app, err := s.lifecycle.SubmitApplication(r.Context(), actor, in)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"insertedId":  app.ID,
		"application": app,
	})
}

func (s *Server) handleCustomerApplications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	apps, err := s.applications.ListByCustomer(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleApprovedApplications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	apps, err := s.applications.ListApprovedByCustomer(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleAssignedApplications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	apps, err := s.applications.ListByAssignedAgent(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleAllApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleSetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	payload, err := s.decodeBody(r, validation.SchemaApplicationStatusSet)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	status, _ := models.ParseApplicationStatus(stringField(payload, "status"))
	version := int64(payload["version"].(float64))
	feedback := stringField(payload, "feedback")

	app, err := s.lifecycle.SetApplicationStatus(r.Context(), actor, id, status, feedback, version)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"modifiedCount": 1,
		"application":   app,
	})
}

type assignRequest struct {
	AgentEmail string `json:"agentEmail"`
	Version    int64  `json:"version"`
}

func (s *Server) handleAssignAgent(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if req.AgentEmail == "" || req.Version < 1 {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError(
			"agentEmail and version are required", nil))
		return
	}

	app, err := s.lifecycle.AssignAgent(r.Context(), actor, id, req.AgentEmail, req.Version)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"modifiedCount": 1,
		"application":   app,
	})
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
	Version  int64  `json:"version"`
}

func (s *Server) handleRejectApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if req.Version < 1 {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError("version is required", nil))
		return
	}

	app, err := s.lifecycle.RejectApplication(r.Context(), actor, id, req.Feedback, req.Version)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"modifiedCount": 1,
		"application":   app,
	})
}
