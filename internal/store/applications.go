// Package store holds the Postgres repositories, one per aggregate.
package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/lifecycle"
	"lifesure/internal/models"
)

const applicationColumns = `id, policy_id, customer_email, full_name, address, nid,
	nominee, nominee_relation, health_condition, status, payment_status,
	assigned_agent, rejection_reason, estimated_premium, version, created_at, updated_at`

// ApplicationRepo persists applications with version-checked writes.
type ApplicationRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationRepo(db *sql.DB, log logger.Logger) *ApplicationRepo {
	return &ApplicationRepo{db: db, logger: log}
}

func (r *ApplicationRepo) Get(ctx context.Context, id string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1`, id)
	return scanApplication(row, id)
}

func (r *ApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, policy_id, customer_email, full_name, address, nid,
			nominee, nominee_relation, health_condition, status, payment_status,
			assigned_agent, rejection_reason, estimated_premium, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		app.ID, app.PolicyID, app.CustomerEmail, app.FullName, app.Address, app.NID,
		app.Nominee, app.NomineeRelation, app.HealthCondition, app.Status, app.PaymentStatus,
		app.AssignedAgent, app.RejectionReason, app.EstimatedPremium, app.Version,
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseError("insert application", err)
	}
	return nil
}

// UpdateLifecycle applies a version-checked write. A zero-row update against
// an existing row means the submitted version is stale.
func (r *ApplicationRepo) UpdateLifecycle(ctx context.Context, upd lifecycle.ApplicationUpdate) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE applications SET
			status           = COALESCE($3::text, status),
			payment_status   = COALESCE($4::text, payment_status),
			assigned_agent   = COALESCE($5::text, assigned_agent),
			rejection_reason = COALESCE($6::text, rejection_reason),
			version          = version + 1,
			updated_at       = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+applicationColumns,
		upd.ID, upd.ExpectedVersion,
		statusArg(upd.Status), paymentArg(upd.PaymentStatus),
		upd.AssignedAgent, upd.RejectionReason,
	)

	app, err := scanApplication(row, upd.ID)
	if err == nil {
		return app, nil
	}
	if stderrors.CodeOf(err) != stderrors.ErrCodeResourceNotFound {
		return nil, err
	}

	// Distinguish a missing row from a stale version.
	var exists bool
	if qerr := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, upd.ID).Scan(&exists); qerr != nil {
		return nil, stderrors.NewDatabaseError("application existence check", qerr)
	}
	if exists {
		return nil, stderrors.NewVersionConflictError(upd.ID, upd.ExpectedVersion)
	}
	return nil, stderrors.NewResourceNotFoundError("application", upd.ID)
}

func (r *ApplicationRepo) ListByCustomer(ctx context.Context, email string) ([]models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE customer_email = $1
		ORDER BY created_at DESC`, email)
}

func (r *ApplicationRepo) ListApprovedByCustomer(ctx context.Context, email string) ([]models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE customer_email = $1 AND status = $2
		ORDER BY created_at DESC`, email, models.ApplicationApproved)
}

func (r *ApplicationRepo) ListByAssignedAgent(ctx context.Context, email string) ([]models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE assigned_agent = $1
		ORDER BY created_at DESC`, email)
}

func (r *ApplicationRepo) ListAll(ctx context.Context) ([]models.Application, error) {
	return r.list(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		ORDER BY created_at DESC`)
}

func (r *ApplicationRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list applications", err)
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		app, err := scanApplicationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list applications", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplicationFrom(s rowScanner) (*models.Application, error) {
	var app models.Application
	var assignedAgent, rejectionReason sql.NullString
	err := s.Scan(
		&app.ID, &app.PolicyID, &app.CustomerEmail, &app.FullName, &app.Address, &app.NID,
		&app.Nominee, &app.NomineeRelation, &app.HealthCondition, &app.Status, &app.PaymentStatus,
		&assignedAgent, &rejectionReason, &app.EstimatedPremium, &app.Version,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.AssignedAgent = assignedAgent.String
	app.RejectionReason = rejectionReason.String
	return &app, nil
}

func scanApplication(row *sql.Row, id string) (*models.Application, error) {
	app, err := scanApplicationFrom(row)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("application", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan application", err)
	}
	return app, nil
}

func scanApplicationRows(rows *sql.Rows) (*models.Application, error) {
	app, err := scanApplicationFrom(rows)
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan application", err)
	}
	return app, nil
}

func statusArg(s *models.ApplicationStatus) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func paymentArg(p *models.PaymentStatus) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}
