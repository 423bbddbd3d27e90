package models

import "time"

// ClaimStatus is the review state of a claim. At most one claim exists per
// application.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
)

// Claim is a customer's request for payout against a paid, approved
// application.
type Claim struct {
	ID            string      `json:"id" db:"id"`
	ApplicationID string      `json:"applicationId" db:"application_id"`
	CustomerEmail string      `json:"customerEmail" db:"customer_email"`
	Reason        string      `json:"reason" db:"reason"`
	DocumentURL   string      `json:"documentUrl,omitempty" db:"document_url"`
	Status        ClaimStatus `json:"status" db:"status"`
	ApprovedBy    string      `json:"approvedBy,omitempty" db:"approved_by"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}
