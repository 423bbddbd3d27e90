package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const policyColumns = `id, title, category, description, image_url, min_age, max_age,
	coverage_amount, duration_years, base_premium, purchase_count, created_at, updated_at`

// PolicyRepo persists the policy catalog.
type PolicyRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPolicyRepo(db *sql.DB, log logger.Logger) *PolicyRepo {
	return &PolicyRepo{db: db, logger: log}
}

func (r *PolicyRepo) Get(ctx context.Context, id string) (*models.Policy, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	return scanPolicy(row, id)
}

func (r *PolicyRepo) Create(ctx context.Context, p *models.Policy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO policies (id, title, category, description, image_url, min_age, max_age,
			coverage_amount, duration_years, base_premium, purchase_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.Title, p.Category, p.Description, p.ImageURL, p.MinAge, p.MaxAge,
		p.CoverageAmount, p.DurationYears, p.BasePremium, p.PurchaseCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseError("insert policy", err)
	}
	return nil
}

func (r *PolicyRepo) Update(ctx context.Context, p *models.Policy) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE policies SET
			title = $2, category = $3, description = $4, image_url = $5,
			min_age = $6, max_age = $7, coverage_amount = $8, duration_years = $9,
			base_premium = $10, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.Category, p.Description, p.ImageURL,
		p.MinAge, p.MaxAge, p.CoverageAmount, p.DurationYears, p.BasePremium,
	)
	if err != nil {
		return stderrors.NewDatabaseError("update policy", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stderrors.NewResourceNotFoundError("policy", p.ID)
	}
	return nil
}

func (r *PolicyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return stderrors.NewDatabaseError("delete policy", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stderrors.NewResourceNotFoundError("policy", id)
	}
	return nil
}

func (r *PolicyRepo) IncrementPurchaseCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE policies SET purchase_count = purchase_count + 1, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return stderrors.NewDatabaseError("increment purchase count", err)
	}
	return nil
}

// ListPopular orders by purchase count, the homepage "most purchased" rail.
func (r *PolicyRepo) ListPopular(ctx context.Context, limit int) ([]models.Policy, error) {
	return r.list(ctx, `
		SELECT `+policyColumns+` FROM policies
		ORDER BY purchase_count DESC, created_at DESC
		LIMIT $1`, limit)
}

func (r *PolicyRepo) ListRecent(ctx context.Context, limit int) ([]models.Policy, error) {
	return r.list(ctx, `
		SELECT `+policyColumns+` FROM policies
		ORDER BY created_at DESC
		LIMIT $1`, limit)
}

func (r *PolicyRepo) ListAll(ctx context.Context) ([]models.Policy, error) {
	return r.list(ctx, `
		SELECT `+policyColumns+` FROM policies
		ORDER BY created_at DESC`)
}

func (r *PolicyRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Policy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list policies", err)
	}
	defer rows.Close()

	var out []models.Policy
	for rows.Next() {
		var p models.Policy
		var imageURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Description, &imageURL,
			&p.MinAge, &p.MaxAge, &p.CoverageAmount, &p.DurationYears, &p.BasePremium,
			&p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, stderrors.NewDatabaseError("scan policy", err)
		}
		p.ImageURL = imageURL.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list policies", err)
	}
	return out, nil
}

func scanPolicy(row *sql.Row, id string) (*models.Policy, error) {
	var p models.Policy
	var imageURL sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Category, &p.Description, &imageURL,
		&p.MinAge, &p.MaxAge, &p.CoverageAmount, &p.DurationYears, &p.BasePremium,
		&p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("policy", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan policy", err)
	}
	p.ImageURL = imageURL.String
	return &p, nil
}
