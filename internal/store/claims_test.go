package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

func testClaim() models.Claim {
	now := time.Now().UTC()
	return models.Claim{
		ID: "claim-1", ApplicationID: "app-1", CustomerEmail: "jordan@example.com",
		Reason: "hospitalization", DocumentURL: "https://files.example.com/doc.pdf",
		Status: models.ClaimPending, CreatedAt: now, UpdatedAt: now,
	}
}

func TestClaimRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := testClaim()
	mock.ExpectExec(`INSERT INTO claims`).
		WithArgs(c.ID, c.ApplicationID, c.CustomerEmail, c.Reason, c.DocumentURL,
			c.Status, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewClaimRepo(db, logger.NewNoOpLogger())
	require.NoError(t, repo.Create(context.Background(), &c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_Create_SecondClaimRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := testClaim()
	mock.ExpectExec(`INSERT INTO claims`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "claims_application_id_key"})

	repo := NewClaimRepo(db, logger.NewNoOpLogger())
	err = repo.Create(context.Background(), &c)
	assert.Equal(t, stderrors.ErrCodeDuplicateClaim, stderrors.CodeOf(err))
}

func TestClaimRepo_SetStatus_RecordsReviewer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE claims SET status`).
		WithArgs("claim-1", models.ClaimApproved, "agent@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewClaimRepo(db, logger.NewNoOpLogger())
	require.NoError(t, repo.SetStatus(context.Background(), "claim-1", models.ClaimApproved, "agent@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_SetStatus_MissingClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE claims SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewClaimRepo(db, logger.NewNoOpLogger())
	err = repo.SetStatus(context.Background(), "claim-missing", models.ClaimApproved, "agent@example.com")
	assert.Equal(t, stderrors.ErrCodeResourceNotFound, stderrors.CodeOf(err))
}

func TestClaimRepo_GetByApplicationID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := testClaim()
	mock.ExpectQuery(`SELECT (.+) FROM claims WHERE application_id`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "customer_email", "reason", "document_url",
			"status", "approved_by", "created_at", "updated_at",
		}).AddRow(c.ID, c.ApplicationID, c.CustomerEmail, c.Reason, c.DocumentURL,
			c.Status, nil, c.CreatedAt, c.UpdatedAt))

	repo := NewClaimRepo(db, logger.NewNoOpLogger())
	got, err := repo.GetByApplicationID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "claim-1", got.ID)
	assert.Empty(t, got.ApprovedBy)
}
