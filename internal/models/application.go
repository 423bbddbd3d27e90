package models

import "time"

// ApplicationStatus is the review state of a policy application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// ParseApplicationStatus maps a string to an ApplicationStatus, reporting
// whether it named a known status.
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch ApplicationStatus(s) {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return ApplicationStatus(s), true
	}
	return "", false
}

// PaymentStatus tracks whether the premium has been collected.
type PaymentStatus string

const (
	PaymentDue  PaymentStatus = "Due"
	PaymentPaid PaymentStatus = "Paid"
)

// Application is a customer's request to purchase a policy. Version increments
// on every write; writers must submit the version they read.
type Application struct {
	ID               string            `json:"id" db:"id"`
	PolicyID         string            `json:"policyId" db:"policy_id"`
	CustomerEmail    string            `json:"customerEmail" db:"customer_email"`
	FullName         string            `json:"fullName" db:"full_name"`
	Address          string            `json:"address" db:"address"`
	NID              string            `json:"nid" db:"nid"`
	Nominee          string            `json:"nominee" db:"nominee"`
	NomineeRelation  string            `json:"nomineeRelation" db:"nominee_relation"`
	HealthCondition  string            `json:"healthCondition" db:"health_condition"`
	Status           ApplicationStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus" db:"payment_status"`
	AssignedAgent    string            `json:"assignedAgent,omitempty" db:"assigned_agent"`
	RejectionReason  string            `json:"rejectionReason,omitempty" db:"rejection_reason"`
	EstimatedPremium float64           `json:"estimatedPremium" db:"estimated_premium"`
	Version          int64             `json:"version" db:"version"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" db:"updated_at"`
}
