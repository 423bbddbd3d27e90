package models

import "time"

// Blog is an article written by an agent or admin.
type Blog struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	Summary     string    `json:"summary,omitempty" db:"summary"`
	ImageURL    string    `json:"imageUrl,omitempty" db:"image_url"`
	AuthorEmail string    `json:"authorEmail" db:"author_email"`
	AuthorName  string    `json:"authorName" db:"author_name"`
	TotalVisits int64     `json:"totalVisits" db:"total_visits"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Review is customer feedback on a purchased policy.
type Review struct {
	ID            string    `json:"id" db:"id"`
	PolicyID      string    `json:"policyId" db:"policy_id"`
	CustomerEmail string    `json:"customerEmail" db:"customer_email"`
	CustomerName  string    `json:"customerName" db:"customer_name"`
	CustomerPhoto string    `json:"customerPhoto,omitempty" db:"customer_photo"`
	Rating        int       `json:"rating" db:"rating"`
	Comment       string    `json:"comment" db:"comment"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// NewsletterSubscription is a public mailing-list signup.
type NewsletterSubscription struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
