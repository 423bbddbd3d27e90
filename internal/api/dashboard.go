package api

import (
	"net/http"

	"lifesure/internal/models"
)

// handleAgentSummary reports the agent's assigned workload by status.
func (s *Server) handleAgentSummary(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	assigned, err := s.applications.ListByAssignedAgent(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	byStatus := map[models.ApplicationStatus]int{}
	for _, app := range assigned {
		byStatus[app.Status]++
	}

	pendingClaims, err := s.claims.ListPending(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignedTotal": len(assigned),
		"pending":       byStatus[models.ApplicationPending],
		"approved":      byStatus[models.ApplicationApproved],
		"rejected":      byStatus[models.ApplicationRejected],
		"pendingClaims": len(pendingClaims),
	})
}

// handleAdminSummary reports marketplace-wide counts and revenue.
func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	apps, err := s.applications.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	txns, err := s.transactions.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	revenue, err := s.transactions.TotalRevenue(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	byStatus := map[models.ApplicationStatus]int{}
	for _, app := range apps {
		byStatus[app.Status]++
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalUsers":           len(users),
		"totalApplications":    len(apps),
		"pendingApplications":  byStatus[models.ApplicationPending],
		"approvedApplications": byStatus[models.ApplicationApproved],
		"rejectedApplications": byStatus[models.ApplicationRejected],
		"totalTransactions":    len(txns),
		"totalRevenue":         revenue,
	})
}
