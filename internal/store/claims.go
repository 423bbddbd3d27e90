package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const claimColumns = `id, application_id, customer_email, reason, document_url, status, approved_by, created_at, updated_at`

// ClaimRepo persists claims. The application_id column carries a unique
// constraint: one claim per application.
type ClaimRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewClaimRepo(db *sql.DB, log logger.Logger) *ClaimRepo {
	return &ClaimRepo{db: db, logger: log}
}

func (r *ClaimRepo) Get(ctx context.Context, id string) (*models.Claim, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	return scanClaim(row, id)
}

func (r *ClaimRepo) GetByApplicationID(ctx context.Context, applicationID string) (*models.Claim, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE application_id = $1`, applicationID)
	return scanClaim(row, applicationID)
}

func (r *ClaimRepo) Create(ctx context.Context, claim *models.Claim) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO claims (id, application_id, customer_email, reason, document_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		claim.ID, claim.ApplicationID, claim.CustomerEmail, claim.Reason,
		claim.DocumentURL, claim.Status, claim.CreatedAt, claim.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return stderrors.NewDuplicateClaimError(claim.ApplicationID)
		}
		return stderrors.NewDatabaseError("insert claim", err)
	}
	return nil
}

// SetStatus moves the claim and records who reviewed it.
func (r *ClaimRepo) SetStatus(ctx context.Context, id string, status models.ClaimStatus, reviewedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE claims SET status = $2, approved_by = $3, updated_at = NOW() WHERE id = $1`,
		id, status, reviewedBy)
	if err != nil {
		return stderrors.NewDatabaseError("update claim status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stderrors.NewResourceNotFoundError("claim", id)
	}
	return nil
}

func (r *ClaimRepo) ListByCustomer(ctx context.Context, email string) ([]models.Claim, error) {
	return r.list(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE customer_email = $1
		ORDER BY created_at DESC`, email)
}

// ListPending returns the claims awaiting agent review.
func (r *ClaimRepo) ListPending(ctx context.Context) ([]models.Claim, error) {
	return r.list(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE status = $1
		ORDER BY created_at ASC`, models.ClaimPending)
}

func (r *ClaimRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list claims", err)
	}
	defer rows.Close()

	var out []models.Claim
	for rows.Next() {
		var c models.Claim
		var documentURL, approvedBy sql.NullString
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.CustomerEmail, &c.Reason,
			&documentURL, &c.Status, &approvedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, stderrors.NewDatabaseError("scan claim", err)
		}
		c.DocumentURL = documentURL.String
		c.ApprovedBy = approvedBy.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list claims", err)
	}
	return out, nil
}

func scanClaim(row *sql.Row, id string) (*models.Claim, error) {
	var c models.Claim
	var documentURL, approvedBy sql.NullString
	err := row.Scan(&c.ID, &c.ApplicationID, &c.CustomerEmail, &c.Reason,
		&documentURL, &c.Status, &approvedBy, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("claim", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan claim", err)
	}
	c.DocumentURL = documentURL.String
	c.ApprovedBy = approvedBy.String
	return &c, nil
}
