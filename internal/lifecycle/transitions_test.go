package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lifesure/internal/models"
)

func TestCanTransition_AdminSubset(t *testing.T) {
	admin := Actor{Email: "admin@lifesure.io", Role: models.RoleAdmin}

	pending := &models.Application{ID: "app-1", Status: models.ApplicationPending}
	assert.NoError(t, CanTransition(admin, pending, models.ApplicationApproved))
	assert.NoError(t, CanTransition(admin, pending, models.ApplicationRejected))

	approved := &models.Application{ID: "app-2", Status: models.ApplicationApproved}
	assert.Error(t, CanTransition(admin, approved, models.ApplicationPending))
	assert.Error(t, CanTransition(admin, approved, models.ApplicationRejected))
}

func TestCanTransition_AgentMustBeAssigned(t *testing.T) {
	agent := Actor{Email: "agent@lifesure.io", Role: models.RoleAgent}

	unassigned := &models.Application{ID: "app-1", Status: models.ApplicationPending, AssignedAgent: "other@lifesure.io"}
	assert.Error(t, CanTransition(agent, unassigned, models.ApplicationApproved))

	assigned := &models.Application{ID: "app-1", Status: models.ApplicationPending, AssignedAgent: "agent@lifesure.io"}
	assert.NoError(t, CanTransition(agent, assigned, models.ApplicationApproved))
}

func TestCanTransition_NoDirectRejectedToApproved(t *testing.T) {
	rejected := &models.Application{ID: "app-1", Status: models.ApplicationRejected, AssignedAgent: "agent@lifesure.io"}

	for _, actor := range []Actor{
		{Email: "agent@lifesure.io", Role: models.RoleAgent},
		{Email: "admin@lifesure.io", Role: models.RoleAdmin},
	} {
		assert.Error(t, CanTransition(actor, rejected, models.ApplicationApproved),
			"role %s must not move Rejected directly to Approved", actor.Role)
	}

	// The revert path goes through Pending.
	agent := Actor{Email: "agent@lifesure.io", Role: models.RoleAgent}
	assert.NoError(t, CanTransition(agent, rejected, models.ApplicationPending))
}

func TestCanTransition_CustomerHasNoStatusMoves(t *testing.T) {
	customer := Actor{Email: "jordan@example.com", Role: models.RoleCustomer}

	for _, from := range []models.ApplicationStatus{models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected} {
		for _, to := range []models.ApplicationStatus{models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected} {
			if from == to {
				continue
			}
			app := &models.Application{ID: "app-1", Status: from}
			assert.Error(t, CanTransition(customer, app, to), "%s -> %s", from, to)
		}
	}
	assert.Empty(t, PermittedTransitions(models.RoleCustomer))
}

func TestPermittedTransitions_AgentIsSupersetOfAdmin(t *testing.T) {
	adminRules := PermittedTransitions(models.RoleAdmin)
	agentRules := PermittedTransitions(models.RoleAgent)

	assert.Len(t, adminRules, 2)
	assert.Len(t, agentRules, 5)

	for _, ar := range adminRules {
		found := false
		for _, gr := range agentRules {
			if gr.From == ar.From && gr.To == ar.To {
				found = true
			}
		}
		assert.True(t, found, "admin rule %s->%s missing from agent subset", ar.From, ar.To)
	}
}

func TestCanTransitionClaim(t *testing.T) {
	agent := Actor{Email: "agent@lifesure.io", Role: models.RoleAgent}
	customer := Actor{Email: "jordan@example.com", Role: models.RoleCustomer}

	pending := &models.Claim{ID: "clm-1", Status: models.ClaimPending}
	assert.NoError(t, CanTransitionClaim(agent, pending, models.ClaimApproved))
	assert.Error(t, CanTransitionClaim(customer, pending, models.ClaimApproved))

	approved := &models.Claim{ID: "clm-2", Status: models.ClaimApproved}
	assert.Error(t, CanTransitionClaim(agent, approved, models.ClaimApproved))
}
