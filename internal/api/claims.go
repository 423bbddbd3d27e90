package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"lifesure/internal/common/validation"
	"lifesure/internal/lifecycle"
)

// One in-flight claim submit per customer.
func (s *Server) claimSubmitKey(r *http.Request) string {
	actor, ok := actorFrom(r.Context())
	if !ok {
		return ""
	}
	return "claims:" + actor.Email
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	payload, err := s.decodeBody(r, validation.SchemaClaimIntake)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	claim, err := s.lifecycle.SubmitClaim(r.Context(), actor, lifecycle.SubmitClaimInput{
		ApplicationID: stringField(payload, "applicationId"),
		Reason:        stringField(payload, "reason"),
		DocumentURL:   stringField(payload, "documentUrl"),
	})
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"insertedId": claim.ID,
		"claim":      claim,
	})
}

func (s *Server) handleCustomerClaims(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	claims, err := s.claims.ListByCustomer(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, claims)
}

func (s *Server) handlePendingClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claims.ListPending(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, claims)
}

func (s *Server) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	claim, err := s.lifecycle.ApproveClaim(r.Context(), actor, id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"modifiedCount": 1,
		"claim":         claim,
	})
}
