package api

import (
	"net/http"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/validation"
	"lifesure/internal/lifecycle"
	"lifesure/internal/models"
)

type intentRequest struct {
	ApplicationID string `json:"applicationId"`
}

// handleCreateIntent opens a payment intent for the premium of an approved
// application. The amount comes from the application row, never the client.
func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	var req intentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if req.ApplicationID == "" {
		s.errs.WriteError(w, r, stderrors.NewValidationFailedError("applicationId is required", nil))
		return
	}

	app, err := s.applications.Get(r.Context(), req.ApplicationID)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if app.CustomerEmail != actor.Email {
		s.errs.WriteError(w, r, stderrors.NewForbiddenError("application belongs to another customer"))
		return
	}
	if app.Status != models.ApplicationApproved || app.PaymentStatus != models.PaymentDue {
		s.errs.WriteError(w, r, stderrors.NewPaymentNotDueError("application is not awaiting payment"))
		return
	}

	// Premium is stored in major units; the gateway takes the smallest unit.
	amount := lifecycle.PremiumMinorUnits(app.EstimatedPremium)
	intent, err := s.gateway.CreateIntent(r.Context(), amount, app.ID)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	payload, err := s.decodeBody(r, validation.SchemaPaymentFinalize)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	txn, err := s.lifecycle.RecordPayment(r.Context(), actor, lifecycle.RecordPaymentInput{
		ApplicationID: stringField(payload, "applicationId"),
		ChargeID:      stringField(payload, "chargeId"),
	})
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"insertedId":  txn.ID,
		"transaction": txn,
	})
}

func (s *Server) handleCustomerPayments(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	txns, err := s.transactions.ListByCustomer(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleAllTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.transactions.ListAll(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, txns)
}
