package models

import "time"

// Policy is a purchasable product in the catalog.
type Policy struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Category       string    `json:"category" db:"category"`
	Description    string    `json:"description" db:"description"`
	ImageURL       string    `json:"imageUrl,omitempty" db:"image_url"`
	MinAge         int       `json:"minAge" db:"min_age"`
	MaxAge         int       `json:"maxAge" db:"max_age"`
	CoverageAmount float64   `json:"coverageAmount" db:"coverage_amount"`
	DurationYears  int       `json:"durationYears" db:"duration_years"`
	BasePremium    float64   `json:"basePremium" db:"base_premium"`
	PurchaseCount  int64     `json:"purchaseCount" db:"purchase_count"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// QuoteRequest is the input to premium estimation.
type QuoteRequest struct {
	PolicyID       string  `json:"policyId"`
	Age            int     `json:"age"`
	Gender         string  `json:"gender,omitempty"`
	CoverageAmount float64 `json:"coverageAmount"`
	DurationYears  int     `json:"durationYears"`
	Smoker         bool    `json:"smoker"`
}

// Quote is an estimated premium for a policy and applicant profile.
type Quote struct {
	PolicyID       string  `json:"policyId"`
	AnnualPremium  float64 `json:"annualPremium"`
	MonthlyPremium float64 `json:"monthlyPremium"`
	Currency       string  `json:"currency"`
}
