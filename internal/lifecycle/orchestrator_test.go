package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

// ---- in-memory fakes ----

type fakeApplicationStore struct {
	apps map[string]*models.Application
}

func (f *fakeApplicationStore) Get(_ context.Context, id string) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("application", id)
	}
	cp := *app
	return &cp, nil
}

func (f *fakeApplicationStore) Create(_ context.Context, app *models.Application) error {
	cp := *app
	f.apps[app.ID] = &cp
	return nil
}

func (f *fakeApplicationStore) UpdateLifecycle(_ context.Context, upd ApplicationUpdate) (*models.Application, error) {
	app, ok := f.apps[upd.ID]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("application", upd.ID)
	}
	if app.Version != upd.ExpectedVersion {
		return nil, stderrors.NewVersionConflictError(upd.ID, upd.ExpectedVersion)
	}
	if upd.Status != nil {
		app.Status = *upd.Status
	}
	if upd.PaymentStatus != nil {
		app.PaymentStatus = *upd.PaymentStatus
	}
	if upd.AssignedAgent != nil {
		app.AssignedAgent = *upd.AssignedAgent
	}
	if upd.RejectionReason != nil {
		app.RejectionReason = *upd.RejectionReason
	}
	app.Version++
	cp := *app
	return &cp, nil
}

type fakeClaimStore struct {
	claims map[string]*models.Claim
}

func (f *fakeClaimStore) Get(_ context.Context, id string) (*models.Claim, error) {
	c, ok := f.claims[id]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("claim", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClaimStore) GetByApplicationID(_ context.Context, applicationID string) (*models.Claim, error) {
	for _, c := range f.claims {
		if c.ApplicationID == applicationID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, stderrors.NewResourceNotFoundError("claim", applicationID)
}

func (f *fakeClaimStore) Create(_ context.Context, claim *models.Claim) error {
	cp := *claim
	f.claims[claim.ID] = &cp
	return nil
}

func (f *fakeClaimStore) SetStatus(_ context.Context, id string, status models.ClaimStatus, reviewedBy string) error {
	c, ok := f.claims[id]
	if !ok {
		return stderrors.NewResourceNotFoundError("claim", id)
	}
	c.Status = status
	c.ApprovedBy = reviewedBy
	return nil
}

type fakePolicyStore struct {
	policies   map[string]*models.Policy
	increments int
}

func (f *fakePolicyStore) Get(_ context.Context, id string) (*models.Policy, error) {
	p, ok := f.policies[id]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("policy", id)
	}
	return p, nil
}

func (f *fakePolicyStore) IncrementPurchaseCount(_ context.Context, id string) error {
	f.increments++
	return nil
}

type fakeTransactionStore struct {
	byCharge map[string]*models.Transaction
	paid     map[string]bool
	apps     *fakeApplicationStore
}

func (f *fakeTransactionStore) Finalize(_ context.Context, txn *models.Transaction) (bool, error) {
	if _, exists := f.byCharge[txn.ChargeID]; exists {
		return false, nil
	}
	cp := *txn
	f.byCharge[txn.ChargeID] = &cp
	f.paid[txn.ApplicationID] = true
	// The real store flips the row to Paid in the same transaction.
	if app, ok := f.apps.apps[txn.ApplicationID]; ok {
		app.PaymentStatus = models.PaymentPaid
		app.Version++
	}
	return true, nil
}

func (f *fakeTransactionStore) GetByChargeID(_ context.Context, chargeID string) (*models.Transaction, error) {
	txn, ok := f.byCharge[chargeID]
	if !ok {
		return nil, stderrors.NewResourceNotFoundError("transaction", chargeID)
	}
	cp := *txn
	return &cp, nil
}

type fakeGateway struct {
	charges map[string]*Charge
}

func (f *fakeGateway) VerifyCharge(_ context.Context, chargeID string) (*Charge, error) {
	c, ok := f.charges[chargeID]
	if !ok {
		return nil, stderrors.NewChargeVerificationFailedError(chargeID, errors.New("unknown charge"))
	}
	return c, nil
}

type recordingNotifier struct {
	events []string
	fail   bool
}

func (n *recordingNotifier) record(event string) error {
	n.events = append(n.events, event)
	if n.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}

func (n *recordingNotifier) ApplicationApproved(_ context.Context, _ *models.Application) error {
	return n.record("approved")
}

func (n *recordingNotifier) ApplicationRejected(_ context.Context, _ *models.Application, _ string) error {
	return n.record("rejected")
}

func (n *recordingNotifier) PaymentRecorded(_ context.Context, _ *models.Application, _ *models.Transaction) error {
	return n.record("payment")
}

func (n *recordingNotifier) ClaimApproved(_ context.Context, _ *models.Claim) error {
	return n.record("claim")
}

// ---- fixture ----

type fixture struct {
	orch     *Orchestrator
	apps     *fakeApplicationStore
	claims   *fakeClaimStore
	policies *fakePolicyStore
	txns     *fakeTransactionStore
	gateway  *fakeGateway
	notifier *recordingNotifier
}

func newFixture() *fixture {
	f := &fixture{
		apps:     &fakeApplicationStore{apps: map[string]*models.Application{}},
		claims:   &fakeClaimStore{claims: map[string]*models.Claim{}},
		policies: &fakePolicyStore{policies: map[string]*models.Policy{}},
		gateway:  &fakeGateway{charges: map[string]*Charge{}},
		notifier: &recordingNotifier{},
	}
	f.txns = &fakeTransactionStore{byCharge: map[string]*models.Transaction{}, paid: map[string]bool{}, apps: f.apps}
	f.orch = NewOrchestrator(f.apps, f.claims, f.policies, f.txns, f.gateway, f.notifier, logger.NewNoOpLogger())
	return f
}

func (f *fixture) seedPolicy(id string) {
	f.policies.policies[id] = &models.Policy{ID: id, Title: "Term Life 20"}
}

func (f *fixture) seedApplication(app models.Application) {
	cp := app
	f.apps.apps[app.ID] = &cp
}

var (
	customer = Actor{Email: "jordan@example.com", Role: models.RoleCustomer}
	agent    = Actor{Email: "agent@lifesure.io", Role: models.RoleAgent}
	admin    = Actor{Email: "admin@lifesure.io", Role: models.RoleAdmin}
)

// ---- tests ----

func TestSubmitApplication(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")

	app, err := f.orch.SubmitApplication(context.Background(), customer, SubmitApplicationInput{
		PolicyID:        "pol-1",
		FullName:        "Jordan Reyes",
		Email:           "jordan@example.com",
		Address:         "12 Harbor Lane",
		NID:             "885522",
		Nominee:         "Casey Reyes",
		NomineeRelation: "spouse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, models.PaymentDue, app.PaymentStatus)
	assert.Equal(t, int64(1), app.Version)
}

func TestSubmitApplication_Guards(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")

	in := SubmitApplicationInput{PolicyID: "pol-1", Email: "jordan@example.com", NID: "885522"}

	_, err := f.orch.SubmitApplication(context.Background(), agent, in)
	assert.Equal(t, stderrors.ErrCodeForbidden, stderrors.CodeOf(err))

	_, err = f.orch.SubmitApplication(context.Background(), Actor{Email: "other@example.com", Role: models.RoleCustomer}, in)
	assert.Equal(t, stderrors.ErrCodeForbidden, stderrors.CodeOf(err))

	bad := in
	bad.NID = "88A522"
	_, err = f.orch.SubmitApplication(context.Background(), customer, bad)
	assert.Equal(t, stderrors.ErrCodeValidationFailed, stderrors.CodeOf(err))

	missing := in
	missing.PolicyID = "no-such-policy"
	_, err = f.orch.SubmitApplication(context.Background(), customer, missing)
	assert.Equal(t, stderrors.ErrCodeResourceNotFound, stderrors.CodeOf(err))
}

func TestAssignAgent_ApprovesAndIncrementsPurchases(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")
	f.seedApplication(models.Application{
		ID: "app-1", PolicyID: "pol-1", CustomerEmail: customer.Email,
		Status: models.ApplicationPending, PaymentStatus: models.PaymentDue, Version: 1,
	})

	updated, err := f.orch.AssignAgent(context.Background(), admin, "app-1", agent.Email, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, updated.Status)
	assert.Equal(t, agent.Email, updated.AssignedAgent)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 1, f.policies.increments)
	assert.Contains(t, f.notifier.events, "approved")
}

func TestAssignAgent_StaleVersionRejected(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")
	f.seedApplication(models.Application{
		ID: "app-1", PolicyID: "pol-1", Status: models.ApplicationPending,
		PaymentStatus: models.PaymentDue, Version: 3,
	})

	_, err := f.orch.AssignAgent(context.Background(), admin, "app-1", agent.Email, 2)
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeVersionConflict, stderrors.CodeOf(err))

	// The row is untouched.
	app, _ := f.apps.Get(context.Background(), "app-1")
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, int64(3), app.Version)
}

func TestAssignAgent_NonPendingBlocked(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")
	f.seedApplication(models.Application{
		ID: "app-1", PolicyID: "pol-1", Status: models.ApplicationApproved,
		PaymentStatus: models.PaymentDue, AssignedAgent: agent.Email, Version: 2,
	})

	_, err := f.orch.AssignAgent(context.Background(), admin, "app-1", agent.Email, 2)
	assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err))

	_, err = f.orch.RejectApplication(context.Background(), admin, "app-1", "too late", 2)
	assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err))
	assert.Zero(t, f.policies.increments)
}

func TestAssignAgent_NonAdminForbidden(t *testing.T) {
	f := newFixture()
	_, err := f.orch.AssignAgent(context.Background(), agent, "app-1", agent.Email, 1)
	assert.Equal(t, stderrors.ErrCodeForbidden, stderrors.CodeOf(err))
}

func TestRejectApplication(t *testing.T) {
	f := newFixture()
	f.seedApplication(models.Application{
		ID: "app-1", Status: models.ApplicationPending, PaymentStatus: models.PaymentDue, Version: 1,
	})

	updated, err := f.orch.RejectApplication(context.Background(), admin, "app-1", "incomplete medical history", 1)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, updated.Status)
	assert.Equal(t, "incomplete medical history", updated.RejectionReason)
	assert.Contains(t, f.notifier.events, "rejected")
}

func TestSetApplicationStatus_AgentSubset(t *testing.T) {
	f := newFixture()
	f.seedApplication(models.Application{
		ID: "app-1", Status: models.ApplicationRejected, AssignedAgent: agent.Email, Version: 2,
	})

	// Rejected -> Approved is not in the table for anyone.
	_, err := f.orch.SetApplicationStatus(context.Background(), agent, "app-1", models.ApplicationApproved, "", 2)
	assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err))

	// Rejected -> Pending is the agent's revert path.
	updated, err := f.orch.SetApplicationStatus(context.Background(), agent, "app-1", models.ApplicationPending, "", 2)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, updated.Status)

	// And from Pending the agent may approve.
	updated, err = f.orch.SetApplicationStatus(context.Background(), agent, "app-1", models.ApplicationApproved, "", updated.Version)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, updated.Status)
}

func TestSetApplicationStatus_UnassignedAgentBlocked(t *testing.T) {
	f := newFixture()
	f.seedApplication(models.Application{
		ID: "app-1", Status: models.ApplicationPending, AssignedAgent: "other@lifesure.io", Version: 1,
	})

	_, err := f.orch.SetApplicationStatus(context.Background(), agent, "app-1", models.ApplicationApproved, "", 1)
	assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err))
}

func paidFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.seedPolicy("pol-1")
	f.seedApplication(models.Application{
		ID: "app-1", PolicyID: "pol-1", CustomerEmail: customer.Email,
		Status: models.ApplicationApproved, PaymentStatus: models.PaymentDue,
		EstimatedPremium: 129, Version: 2,
	})
	f.gateway.charges["ch_100"] = &Charge{
		ID: "ch_100", ApplicationID: "app-1", Amount: 12900, Currency: "usd", Paid: true,
	}
	return f
}

func TestRecordPayment(t *testing.T) {
	f := paidFixture(t)

	txn, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	require.NoError(t, err)
	assert.Equal(t, "ch_100", txn.ChargeID)
	assert.Equal(t, int64(12900), txn.Amount)
	assert.Equal(t, "Term Life 20", txn.PolicyTitle)
	assert.Contains(t, f.notifier.events, "payment")
}

func TestRecordPayment_ReplaySameChargeIsNoOp(t *testing.T) {
	f := paidFixture(t)

	first, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	require.NoError(t, err)

	second, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.txns.byCharge, 1)
}

func TestRecordPayment_ChargeReusedOnOtherApplication(t *testing.T) {
	f := paidFixture(t)
	f.seedApplication(models.Application{
		ID: "app-2", PolicyID: "pol-1", CustomerEmail: customer.Email,
		Status: models.ApplicationApproved, PaymentStatus: models.PaymentDue, Version: 1,
	})

	_, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	require.NoError(t, err)

	_, err = f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-2", ChargeID: "ch_100",
	})
	assert.Equal(t, stderrors.ErrCodeDuplicateTransaction, stderrors.CodeOf(err))
}

func TestRecordPayment_Guards(t *testing.T) {
	f := paidFixture(t)

	// Another customer's application.
	other := Actor{Email: "other@example.com", Role: models.RoleCustomer}
	_, err := f.orch.RecordPayment(context.Background(), other, RecordPaymentInput{ApplicationID: "app-1", ChargeID: "ch_100"})
	assert.Equal(t, stderrors.ErrCodeForbidden, stderrors.CodeOf(err))

	// Pending application is not collectible.
	f.seedApplication(models.Application{
		ID: "app-3", PolicyID: "pol-1", CustomerEmail: customer.Email,
		Status: models.ApplicationPending, PaymentStatus: models.PaymentDue, Version: 1,
	})
	_, err = f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{ApplicationID: "app-3", ChargeID: "ch_100"})
	assert.Equal(t, stderrors.ErrCodePaymentNotDue, stderrors.CodeOf(err))

	// Unknown charge id.
	_, err = f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{ApplicationID: "app-1", ChargeID: "ch_999"})
	assert.Equal(t, stderrors.ErrCodeChargeVerificationFailed, stderrors.CodeOf(err))
}

func TestRecordPayment_UnsettledChargeRejected(t *testing.T) {
	f := paidFixture(t)
	f.gateway.charges["ch_100"].Paid = false

	_, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	assert.Equal(t, stderrors.ErrCodeChargeVerificationFailed, stderrors.CodeOf(err))
	assert.Empty(t, f.txns.byCharge)
}

func TestRecordPayment_ChargeBoundToOtherApplication(t *testing.T) {
	f := paidFixture(t)
	f.seedApplication(models.Application{
		ID: "app-expensive", PolicyID: "pol-1", CustomerEmail: customer.Email,
		Status: models.ApplicationApproved, PaymentStatus: models.PaymentDue,
		EstimatedPremium: 500, Version: 1,
	})

	// ch_100 was opened for app-1; it cannot settle a different application.
	_, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-expensive", ChargeID: "ch_100",
	})
	assert.Equal(t, stderrors.ErrCodeChargeVerificationFailed, stderrors.CodeOf(err))
	assert.Empty(t, f.txns.byCharge)

	app, _ := f.apps.Get(context.Background(), "app-expensive")
	assert.Equal(t, models.PaymentDue, app.PaymentStatus)
}

func TestRecordPayment_UnderpaidChargeRejected(t *testing.T) {
	f := paidFixture(t)
	f.gateway.charges["ch_100"].Amount = 12800

	_, err := f.orch.RecordPayment(context.Background(), customer, RecordPaymentInput{
		ApplicationID: "app-1", ChargeID: "ch_100",
	})
	assert.Equal(t, stderrors.ErrCodeChargeVerificationFailed, stderrors.CodeOf(err))
	assert.Empty(t, f.txns.byCharge)
}

func TestPremiumMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), PremiumMinorUnits(19.99))
	assert.Equal(t, int64(12900), PremiumMinorUnits(129))
	assert.Equal(t, int64(10), PremiumMinorUnits(0.1))
	assert.Equal(t, int64(0), PremiumMinorUnits(0))
}

func claimFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.seedApplication(models.Application{
		ID: "app-1", CustomerEmail: customer.Email,
		Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid, Version: 3,
	})
	return f
}

func TestSubmitClaim(t *testing.T) {
	f := claimFixture(t)

	claim, err := f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{
		ApplicationID: "app-1", Reason: "hospitalization",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)
}

func TestSubmitClaim_RequiresApprovedAndPaid(t *testing.T) {
	f := newFixture()

	for _, tc := range []struct {
		status  models.ApplicationStatus
		payment models.PaymentStatus
	}{
		{models.ApplicationPending, models.PaymentDue},
		{models.ApplicationApproved, models.PaymentDue},
		{models.ApplicationRejected, models.PaymentDue},
	} {
		f.seedApplication(models.Application{
			ID: "app-1", CustomerEmail: customer.Email, Status: tc.status, PaymentStatus: tc.payment, Version: 1,
		})
		_, err := f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{ApplicationID: "app-1", Reason: "x"})
		assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err), "%s/%s", tc.status, tc.payment)
	}
}

func TestSubmitClaim_DuplicateRejected(t *testing.T) {
	f := claimFixture(t)

	_, err := f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{ApplicationID: "app-1", Reason: "first"})
	require.NoError(t, err)

	_, err = f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{ApplicationID: "app-1", Reason: "second"})
	assert.Equal(t, stderrors.ErrCodeDuplicateClaim, stderrors.CodeOf(err))
}

func TestSubmitClaim_OtherCustomersApplication(t *testing.T) {
	f := claimFixture(t)

	other := Actor{Email: "other@example.com", Role: models.RoleCustomer}
	_, err := f.orch.SubmitClaim(context.Background(), other, SubmitClaimInput{ApplicationID: "app-1", Reason: "x"})
	assert.Equal(t, stderrors.ErrCodeForbidden, stderrors.CodeOf(err))
}

func TestApproveClaim(t *testing.T) {
	f := claimFixture(t)
	claim, err := f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{ApplicationID: "app-1", Reason: "hospitalization"})
	require.NoError(t, err)

	approved, err := f.orch.ApproveClaim(context.Background(), agent, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, approved.Status)
	assert.Equal(t, agent.Email, approved.ApprovedBy)
	assert.Contains(t, f.notifier.events, "claim")

	// Re-approving is a no-op success.
	events := len(f.notifier.events)
	again, err := f.orch.ApproveClaim(context.Background(), agent, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, again.Status)
	assert.Len(t, f.notifier.events, events)
}

func TestApproveClaim_CustomerForbidden(t *testing.T) {
	f := claimFixture(t)
	claim, err := f.orch.SubmitClaim(context.Background(), customer, SubmitClaimInput{ApplicationID: "app-1", Reason: "x"})
	require.NoError(t, err)

	_, err = f.orch.ApproveClaim(context.Background(), customer, claim.ID)
	assert.Equal(t, stderrors.ErrCodeTransitionNotAllowed, stderrors.CodeOf(err))
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	f.notifier.fail = true
	f.seedPolicy("pol-1")
	f.seedApplication(models.Application{
		ID: "app-1", PolicyID: "pol-1", Status: models.ApplicationPending,
		PaymentStatus: models.PaymentDue, Version: 1,
	})

	updated, err := f.orch.AssignAgent(context.Background(), admin, "app-1", agent.Email, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, updated.Status)
}

// Walks one application through its whole life: submission, assignment,
// payment, claim, claim approval.
func TestApplicationLifecycle_FullPath(t *testing.T) {
	f := newFixture()
	f.seedPolicy("pol-1")
	ctx := context.Background()

	submitted, err := f.orch.SubmitApplication(ctx, customer, SubmitApplicationInput{
		PolicyID:         "pol-1",
		FullName:         "Jordan Reyes",
		Email:            customer.Email,
		Address:          "12 Harbor Lane",
		NID:              "885522",
		Nominee:          "Casey Reyes",
		NomineeRelation:  "spouse",
		HealthCondition:  "none",
		EstimatedPremium: 500,
	})
	require.NoError(t, err)

	// The stored record carries the submitted fields unchanged.
	fetched, err := f.apps.Get(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 Harbor Lane", fetched.Address)
	assert.Equal(t, "885522", fetched.NID)
	assert.Equal(t, "Casey Reyes", fetched.Nominee)
	assert.Equal(t, "spouse", fetched.NomineeRelation)
	assert.Equal(t, float64(500), fetched.EstimatedPremium)
	assert.Equal(t, models.ApplicationPending, fetched.Status)
	assert.Equal(t, models.PaymentDue, fetched.PaymentStatus)

	approved, err := f.orch.AssignAgent(ctx, admin, submitted.ID, agent.Email, fetched.Version)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, approved.Status)
	assert.Equal(t, agent.Email, approved.AssignedAgent)

	f.gateway.charges["ch_full"] = &Charge{
		ID: "ch_full", ApplicationID: submitted.ID, Amount: 50000, Currency: "usd", Paid: true,
	}
	txn, err := f.orch.RecordPayment(ctx, customer, RecordPaymentInput{
		ApplicationID: submitted.ID, ChargeID: "ch_full",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), txn.Amount)

	settledApp, err := f.apps.Get(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, settledApp.PaymentStatus)

	claim, err := f.orch.SubmitClaim(ctx, customer, SubmitClaimInput{
		ApplicationID: submitted.ID, Reason: "hospitalization",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimPending, claim.Status)

	settled, err := f.orch.ApproveClaim(ctx, agent, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, settled.Status)
	assert.Equal(t, agent.Email, settled.ApprovedBy)

	assert.Equal(t, []string{"approved", "payment", "claim"}, f.notifier.events)
}
