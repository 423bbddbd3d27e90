// Package lifecycle owns the application, payment and claim state machines.
// One shared transition table drives every role; a role's capability is a
// permitted subset of that table, never a separate rule set.
package lifecycle

import (
	"fmt"

	"lifesure/internal/models"
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	Email string
	Role  models.Role
}

// StatusRule permits one application status transition for a set of roles.
// An agent-permitted rule additionally requires the actor to be the
// application's assigned agent.
type StatusRule struct {
	From  models.ApplicationStatus
	To    models.ApplicationStatus
	Roles []models.Role
}

// statusTable is the single source of truth for application status moves.
// Rejected never goes directly to Approved; a revert passes through Pending.
var statusTable = []StatusRule{
	{From: models.ApplicationPending, To: models.ApplicationApproved, Roles: []models.Role{models.RoleAdmin, models.RoleAgent}},
	{From: models.ApplicationPending, To: models.ApplicationRejected, Roles: []models.Role{models.RoleAdmin, models.RoleAgent}},
	{From: models.ApplicationApproved, To: models.ApplicationPending, Roles: []models.Role{models.RoleAgent}},
	{From: models.ApplicationApproved, To: models.ApplicationRejected, Roles: []models.Role{models.RoleAgent}},
	{From: models.ApplicationRejected, To: models.ApplicationPending, Roles: []models.Role{models.RoleAgent}},
}

// ClaimRule permits one claim status transition for a set of roles.
type ClaimRule struct {
	From  models.ClaimStatus
	To    models.ClaimStatus
	Roles []models.Role
}

var claimTable = []ClaimRule{
	{From: models.ClaimPending, To: models.ClaimApproved, Roles: []models.Role{models.RoleAgent}},
}

// CanTransition reports whether actor may move app from its current status to
// the target, and the reason when it may not.
func CanTransition(actor Actor, app *models.Application, to models.ApplicationStatus) error {
	rule, ok := findStatusRule(app.Status, to)
	if !ok {
		return fmt.Errorf("no transition from %s to %s", app.Status, to)
	}
	if !roleIn(actor.Role, rule.Roles) {
		return fmt.Errorf("role %s may not move %s to %s", actor.Role, app.Status, to)
	}
	if actor.Role == models.RoleAgent && app.AssignedAgent != actor.Email {
		return fmt.Errorf("agent %s is not assigned to application %s", actor.Email, app.ID)
	}
	return nil
}

// CanTransitionClaim reports whether actor may move a claim to the target
// status.
func CanTransitionClaim(actor Actor, claim *models.Claim, to models.ClaimStatus) error {
	for _, rule := range claimTable {
		if rule.From != claim.Status || rule.To != to {
			continue
		}
		if !roleIn(actor.Role, rule.Roles) {
			return fmt.Errorf("role %s may not move claim to %s", actor.Role, to)
		}
		return nil
	}
	return fmt.Errorf("no claim transition from %s to %s", claim.Status, to)
}

// PermittedTransitions returns the subset of the status table the role may
// exercise.
func PermittedTransitions(role models.Role) []StatusRule {
	var out []StatusRule
	for _, rule := range statusTable {
		if roleIn(role, rule.Roles) {
			out = append(out, rule)
		}
	}
	return out
}

func findStatusRule(from, to models.ApplicationStatus) (StatusRule, bool) {
	for _, rule := range statusTable {
		if rule.From == from && rule.To == to {
			return rule, true
		}
	}
	return StatusRule{}, false
}

func roleIn(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
