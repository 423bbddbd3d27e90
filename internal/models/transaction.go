package models

import "time"

// Transaction records one verified gateway charge. ChargeID carries a unique
// constraint; finalizing the same charge twice writes one row.
type Transaction struct {
	ID            string    `json:"id" db:"id"`
	ApplicationID string    `json:"applicationId" db:"application_id"`
	CustomerEmail string    `json:"customerEmail" db:"customer_email"`
	PolicyTitle   string    `json:"policyTitle" db:"policy_title"`
	ChargeID      string    `json:"chargeId" db:"charge_id"`
	Amount        int64     `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
