package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/common/metrics"
	"lifesure/internal/models"
)

// ApplicationUpdate is a version-checked write against one application. Nil
// fields are left untouched; the store bumps the version on success.
type ApplicationUpdate struct {
	ID              string
	ExpectedVersion int64
	Status          *models.ApplicationStatus
	PaymentStatus   *models.PaymentStatus
	AssignedAgent   *string
	RejectionReason *string
}

// ApplicationStore persists applications.
type ApplicationStore interface {
	Get(ctx context.Context, id string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	UpdateLifecycle(ctx context.Context, upd ApplicationUpdate) (*models.Application, error)
}

// ClaimStore persists claims.
type ClaimStore interface {
	Get(ctx context.Context, id string) (*models.Claim, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Claim, error)
	Create(ctx context.Context, claim *models.Claim) error
	SetStatus(ctx context.Context, id string, status models.ClaimStatus, reviewedBy string) error
}

// PolicyStore is the slice of the catalog store the lifecycle needs.
type PolicyStore interface {
	Get(ctx context.Context, id string) (*models.Policy, error)
	IncrementPurchaseCount(ctx context.Context, id string) error
}

// PaymentFinalizer records a verified charge and flips the application's
// payment status in one database transaction. It reports false without error
// when the charge id was already recorded for the same application.
type PaymentFinalizer interface {
	Finalize(ctx context.Context, txn *models.Transaction) (inserted bool, err error)
	GetByChargeID(ctx context.Context, chargeID string) (*models.Transaction, error)
}

// Charge is the gateway's view of a completed payment. ApplicationID is the
// application the intent was opened for, carried in gateway metadata.
type Charge struct {
	ID            string
	ApplicationID string
	Amount        int64
	Currency      string
	Paid          bool
}

// PremiumMinorUnits converts a premium in major currency units to the
// smallest unit the gateway charges in. Rounded, not truncated, so 19.99
// becomes 1999 and not 1998.
func PremiumMinorUnits(premium float64) int64 {
	return int64(math.Round(premium * 100))
}

// ChargeVerifier confirms a charge with the payment gateway.
type ChargeVerifier interface {
	VerifyCharge(ctx context.Context, chargeID string) (*Charge, error)
}

// Notifier delivers lifecycle notifications. Delivery failures are logged and
// never fail the transition that caused them.
type Notifier interface {
	ApplicationApproved(ctx context.Context, app *models.Application) error
	ApplicationRejected(ctx context.Context, app *models.Application, reason string) error
	PaymentRecorded(ctx context.Context, app *models.Application, txn *models.Transaction) error
	ClaimApproved(ctx context.Context, claim *models.Claim) error
}

// Orchestrator executes lifecycle operations against the transition table.
type Orchestrator struct {
	applications ApplicationStore
	claims       ClaimStore
	policies     PolicyStore
	transactions PaymentFinalizer
	gateway      ChargeVerifier
	notifier     Notifier
	logger       logger.Logger
}

func NewOrchestrator(
	applications ApplicationStore,
	claims ClaimStore,
	policies PolicyStore,
	transactions PaymentFinalizer,
	gateway ChargeVerifier,
	notifier Notifier,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		applications: applications,
		claims:       claims,
		policies:     policies,
		transactions: transactions,
		gateway:      gateway,
		notifier:     notifier,
		logger:       log,
	}
}

// SubmitApplicationInput is the intake payload after schema validation.
type SubmitApplicationInput struct {
	PolicyID         string
	FullName         string
	Email            string
	Address          string
	NID              string
	Nominee          string
	NomineeRelation  string
	HealthCondition  string
	EstimatedPremium float64
}

// SubmitApplication creates a new application in Pending/Due at version 1.
func (o *Orchestrator) SubmitApplication(ctx context.Context, actor Actor, in SubmitApplicationInput) (*models.Application, error) {
	if actor.Role != models.RoleCustomer {
		o.observe("submit_application", "forbidden")
		return nil, stderrors.NewForbiddenError("only customers submit applications")
	}
	if actor.Email != in.Email {
		o.observe("submit_application", "forbidden")
		return nil, stderrors.NewForbiddenError("application email must match the authenticated customer")
	}
	if !digitsOnly(in.NID) {
		o.observe("submit_application", "invalid")
		return nil, stderrors.NewValidationFailedError("nid must contain digits only", map[string]interface{}{"nid": "digits only"})
	}

	if _, err := o.policies.Get(ctx, in.PolicyID); err != nil {
		o.observe("submit_application", "error")
		return nil, err
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:               uuid.NewString(),
		PolicyID:         in.PolicyID,
		CustomerEmail:    in.Email,
		FullName:         in.FullName,
		Address:          in.Address,
		NID:              in.NID,
		Nominee:          in.Nominee,
		NomineeRelation:  in.NomineeRelation,
		HealthCondition:  in.HealthCondition,
		Status:           models.ApplicationPending,
		PaymentStatus:    models.PaymentDue,
		EstimatedPremium: in.EstimatedPremium,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := o.applications.Create(ctx, app); err != nil {
		o.observe("submit_application", "error")
		return nil, err
	}

	o.observe("submit_application", "success")
	o.logger.Info("application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"policyId":      app.PolicyID,
		"customer":      app.CustomerEmail,
	})
	return app, nil
}

// AssignAgent assigns an agent to a pending application and approves it in
// the same write. Assignment is approval.
func (o *Orchestrator) AssignAgent(ctx context.Context, actor Actor, applicationID, agentEmail string, version int64) (*models.Application, error) {
	if actor.Role != models.RoleAdmin {
		o.observe("assign_agent", "forbidden")
		return nil, stderrors.NewForbiddenError("only admins assign agents")
	}

	app, err := o.applications.Get(ctx, applicationID)
	if err != nil {
		o.observe("assign_agent", "error")
		return nil, err
	}
	if err := CanTransition(Actor{Email: actor.Email, Role: models.RoleAdmin}, app, models.ApplicationApproved); err != nil {
		o.observe("assign_agent", "blocked")
		return nil, stderrors.NewTransitionNotAllowedError(err.Error())
	}

	approved := models.ApplicationApproved
	updated, err := o.applications.UpdateLifecycle(ctx, ApplicationUpdate{
		ID:              applicationID,
		ExpectedVersion: version,
		Status:          &approved,
		AssignedAgent:   &agentEmail,
	})
	if err != nil {
		o.observe("assign_agent", outcomeOf(err))
		return nil, err
	}

	if err := o.policies.IncrementPurchaseCount(ctx, updated.PolicyID); err != nil {
		o.logger.Warn("purchase count increment failed", map[string]interface{}{
			"policyId": updated.PolicyID,
			"error":    err.Error(),
		})
	}
	o.notify("application approved", func() error { return o.notifier.ApplicationApproved(ctx, updated) })

	o.observe("assign_agent", "success")
	return updated, nil
}

// RejectApplication rejects a pending application with feedback.
func (o *Orchestrator) RejectApplication(ctx context.Context, actor Actor, applicationID, feedback string, version int64) (*models.Application, error) {
	if actor.Role != models.RoleAdmin {
		o.observe("reject_application", "forbidden")
		return nil, stderrors.NewForbiddenError("only admins reject applications")
	}

	app, err := o.applications.Get(ctx, applicationID)
	if err != nil {
		o.observe("reject_application", "error")
		return nil, err
	}
	if err := CanTransition(actor, app, models.ApplicationRejected); err != nil {
		o.observe("reject_application", "blocked")
		return nil, stderrors.NewTransitionNotAllowedError(err.Error())
	}

	rejected := models.ApplicationRejected
	updated, err := o.applications.UpdateLifecycle(ctx, ApplicationUpdate{
		ID:              applicationID,
		ExpectedVersion: version,
		Status:          &rejected,
		RejectionReason: &feedback,
	})
	if err != nil {
		o.observe("reject_application", outcomeOf(err))
		return nil, err
	}

	o.notify("application rejected", func() error { return o.notifier.ApplicationRejected(ctx, updated, feedback) })

	o.observe("reject_application", "success")
	return updated, nil
}

// SetApplicationStatus moves an application the caller is assigned to through
// the agent's permitted subset of the transition table.
func (o *Orchestrator) SetApplicationStatus(ctx context.Context, actor Actor, applicationID string, to models.ApplicationStatus, feedback string, version int64) (*models.Application, error) {
	if actor.Role != models.RoleAgent {
		o.observe("set_status", "forbidden")
		return nil, stderrors.NewForbiddenError("only agents set application status directly")
	}

	app, err := o.applications.Get(ctx, applicationID)
	if err != nil {
		o.observe("set_status", "error")
		return nil, err
	}
	if err := CanTransition(actor, app, to); err != nil {
		o.observe("set_status", "blocked")
		return nil, stderrors.NewTransitionNotAllowedError(err.Error())
	}

	upd := ApplicationUpdate{
		ID:              applicationID,
		ExpectedVersion: version,
		Status:          &to,
	}
	if to == models.ApplicationRejected {
		upd.RejectionReason = &feedback
	}
	updated, err := o.applications.UpdateLifecycle(ctx, upd)
	if err != nil {
		o.observe("set_status", outcomeOf(err))
		return nil, err
	}

	switch to {
	case models.ApplicationApproved:
		o.notify("application approved", func() error { return o.notifier.ApplicationApproved(ctx, updated) })
	case models.ApplicationRejected:
		o.notify("application rejected", func() error { return o.notifier.ApplicationRejected(ctx, updated, feedback) })
	}

	o.observe("set_status", "success")
	return updated, nil
}

// RecordPaymentInput finalizes one gateway charge against one application.
type RecordPaymentInput struct {
	ApplicationID string
	ChargeID      string
}

// RecordPayment verifies the charge with the gateway, then records the
// transaction and flips the application to Paid in one database transaction.
// Replaying the same charge id for the same application is a no-op success.
func (o *Orchestrator) RecordPayment(ctx context.Context, actor Actor, in RecordPaymentInput) (*models.Transaction, error) {
	app, err := o.applications.Get(ctx, in.ApplicationID)
	if err != nil {
		o.observePayment("error")
		return nil, err
	}
	if actor.Role == models.RoleCustomer && app.CustomerEmail != actor.Email {
		o.observePayment("forbidden")
		return nil, stderrors.NewForbiddenError("application belongs to another customer")
	}

	if existing, err := o.transactions.GetByChargeID(ctx, in.ChargeID); err == nil && existing != nil {
		if existing.ApplicationID != in.ApplicationID {
			o.observePayment("duplicate")
			return nil, stderrors.NewDuplicateTransactionError(in.ChargeID)
		}
		o.observePayment("replay")
		return existing, nil
	}

	if app.Status != models.ApplicationApproved {
		o.observePayment("blocked")
		return nil, stderrors.NewPaymentNotDueError(fmt.Sprintf("application %s is %s", app.ID, app.Status))
	}
	if app.PaymentStatus != models.PaymentDue {
		o.observePayment("blocked")
		return nil, stderrors.NewPaymentNotDueError(fmt.Sprintf("application %s payment status is %s", app.ID, app.PaymentStatus))
	}

	charge, err := o.gateway.VerifyCharge(ctx, in.ChargeID)
	if err != nil {
		o.observePayment("gateway_error")
		return nil, err
	}
	if !charge.Paid {
		o.observePayment("unpaid")
		return nil, stderrors.NewChargeVerificationFailedError(in.ChargeID, fmt.Errorf("charge not settled"))
	}
	if charge.ApplicationID != app.ID {
		o.observePayment("mismatch")
		return nil, stderrors.NewChargeVerificationFailedError(in.ChargeID,
			fmt.Errorf("charge was opened for application %q, not %q", charge.ApplicationID, app.ID))
	}
	if due := PremiumMinorUnits(app.EstimatedPremium); charge.Amount < due {
		o.observePayment("mismatch")
		return nil, stderrors.NewChargeVerificationFailedError(in.ChargeID,
			fmt.Errorf("charge amount %d does not cover the %d due", charge.Amount, due))
	}

	policy, err := o.policies.Get(ctx, app.PolicyID)
	if err != nil {
		o.observePayment("error")
		return nil, err
	}

	txn := &models.Transaction{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		CustomerEmail: app.CustomerEmail,
		PolicyTitle:   policy.Title,
		ChargeID:      charge.ID,
		Amount:        charge.Amount,
		Currency:      charge.Currency,
		Status:        "succeeded",
		CreatedAt:     time.Now().UTC(),
	}
	inserted, err := o.transactions.Finalize(ctx, txn)
	if err != nil {
		o.observePayment("error")
		return nil, err
	}
	if !inserted {
		// Lost the race to a concurrent finalization of the same charge.
		o.observePayment("replay")
		return o.transactions.GetByChargeID(ctx, in.ChargeID)
	}

	o.notify("payment recorded", func() error { return o.notifier.PaymentRecorded(ctx, app, txn) })

	o.observePayment("success")
	o.logger.Info("payment finalized", map[string]interface{}{
		"applicationId": app.ID,
		"chargeId":      charge.ID,
		"amount":        charge.Amount,
	})
	return txn, nil
}

// SubmitClaimInput is the claim intake payload after schema validation.
type SubmitClaimInput struct {
	ApplicationID string
	Reason        string
	DocumentURL   string
}

// SubmitClaim opens a claim against the caller's paid, approved application.
// An application carries at most one claim.
func (o *Orchestrator) SubmitClaim(ctx context.Context, actor Actor, in SubmitClaimInput) (*models.Claim, error) {
	app, err := o.applications.Get(ctx, in.ApplicationID)
	if err != nil {
		o.observe("submit_claim", "error")
		return nil, err
	}
	if app.CustomerEmail != actor.Email {
		o.observe("submit_claim", "forbidden")
		return nil, stderrors.NewForbiddenError("application belongs to another customer")
	}
	if app.Status != models.ApplicationApproved || app.PaymentStatus != models.PaymentPaid {
		o.observe("submit_claim", "blocked")
		return nil, stderrors.NewTransitionNotAllowedError(
			fmt.Sprintf("claims require an approved, paid application; got %s/%s", app.Status, app.PaymentStatus))
	}

	if existing, err := o.claims.GetByApplicationID(ctx, in.ApplicationID); err == nil && existing != nil {
		o.observe("submit_claim", "duplicate")
		return nil, stderrors.NewDuplicateClaimError(in.ApplicationID)
	}

	now := time.Now().UTC()
	claim := &models.Claim{
		ID:            uuid.NewString(),
		ApplicationID: in.ApplicationID,
		CustomerEmail: actor.Email,
		Reason:        in.Reason,
		DocumentURL:   in.DocumentURL,
		Status:        models.ClaimPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.claims.Create(ctx, claim); err != nil {
		o.observe("submit_claim", "error")
		return nil, err
	}

	o.observe("submit_claim", "success")
	return claim, nil
}

// ApproveClaim approves a pending claim. Re-approving an approved claim is a
// no-op success.
func (o *Orchestrator) ApproveClaim(ctx context.Context, actor Actor, claimID string) (*models.Claim, error) {
	claim, err := o.claims.Get(ctx, claimID)
	if err != nil {
		o.observe("approve_claim", "error")
		return nil, err
	}
	if claim.Status == models.ClaimApproved {
		o.observe("approve_claim", "replay")
		return claim, nil
	}
	if err := CanTransitionClaim(actor, claim, models.ClaimApproved); err != nil {
		o.observe("approve_claim", "blocked")
		return nil, stderrors.NewTransitionNotAllowedError(err.Error())
	}

	if err := o.claims.SetStatus(ctx, claimID, models.ClaimApproved, actor.Email); err != nil {
		o.observe("approve_claim", "error")
		return nil, err
	}
	claim.Status = models.ClaimApproved
	claim.ApprovedBy = actor.Email

	o.notify("claim approved", func() error { return o.notifier.ClaimApproved(ctx, claim) })

	o.observe("approve_claim", "success")
	return claim, nil
}

func (o *Orchestrator) notify(event string, send func() error) {
	if o.notifier == nil {
		return
	}
	if err := send(); err != nil {
		o.logger.Warn("notification delivery failed", map[string]interface{}{
			"event": event,
			"error": err.Error(),
		})
	}
}

func (o *Orchestrator) observe(operation, outcome string) {
	metrics.LifecycleTransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

func (o *Orchestrator) observePayment(outcome string) {
	metrics.PaymentsFinalizedTotal.WithLabelValues(outcome).Inc()
	metrics.LifecycleTransitionsTotal.WithLabelValues("record_payment", outcome).Inc()
}

func outcomeOf(err error) string {
	switch stderrors.CodeOf(err) {
	case stderrors.ErrCodeVersionConflict:
		return "version_conflict"
	case stderrors.ErrCodeResourceNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
