package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const userColumns = `id, email, name, role, phone, photo_url, created_at, updated_at, last_login_at`

// UserRepo persists accounts. Identity lives with the external provider; the
// row carries profile and role.
type UserRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserRepo(db *sql.DB, log logger.Logger) *UserRepo {
	return &UserRepo{db: db, logger: log}
}

// Upsert inserts a user on first sign-in and refreshes last_login_at after.
// The role survives re-login; only the first insert sets it.
func (r *UserRepo) Upsert(ctx context.Context, u *models.User) (inserted bool, err error) {
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, phone, photo_url, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET last_login_at = NOW(), updated_at = NOW()`,
		u.ID, u.Email, u.Name, u.Role, u.Phone, u.PhotoURL,
	)
	if err != nil {
		return false, stderrors.NewDatabaseError("upsert user", err)
	}

	// RowsAffected reports 1 for insert and update alike; re-read to tell
	// a first sign-in apart from a return visit.
	var createdEqualsLogin bool
	err = r.db.QueryRowContext(ctx, `
		SELECT created_at = last_login_at FROM users WHERE email = $1`, u.Email).Scan(&createdEqualsLogin)
	if err != nil {
		return false, stderrors.NewDatabaseError("read back user", err)
	}
	return createdEqualsLogin, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, email)
}

// RoleByEmail returns the stored role, defaulting to customer for unknown
// accounts.
func (r *UserRepo) RoleByEmail(ctx context.Context, email string) (models.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM users WHERE email = $1`, email).Scan(&role)
	if err == sql.ErrNoRows {
		return models.RoleCustomer, nil
	}
	if err != nil {
		return models.RoleCustomer, stderrors.NewDatabaseError("read user role", err)
	}
	return models.ParseRole(role), nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, email, name, phone, photoURL string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $2, phone = $3, photo_url = $4, updated_at = NOW() WHERE email = $1`,
		email, name, phone, photoURL)
	if err != nil {
		return 0, stderrors.NewDatabaseError("update user profile", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, email string, role models.Role) (int64, error) {
	if !role.Valid() {
		return 0, stderrors.NewValidationFailedError("unknown role", map[string]interface{}{"role": string(role)})
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE email = $1`, email, role)
	if err != nil {
		return 0, stderrors.NewDatabaseError("update user role", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return stderrors.NewDatabaseError("delete user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stderrors.NewResourceNotFoundError("user", email)
	}
	return nil
}

func (r *UserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

// ListAgents returns agent accounts, newest first.
func (r *UserRepo) ListAgents(ctx context.Context, limit int) ([]models.User, error) {
	return r.list(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role = $1
		ORDER BY created_at DESC
		LIMIT $2`, models.RoleAgent, limit)
}

func (r *UserRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list users", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		var role string
		var phone, photoURL sql.NullString
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &role, &phone, &photoURL,
			&u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
			return nil, stderrors.NewDatabaseError("scan user", err)
		}
		u.Role = models.ParseRole(role)
		u.Phone = phone.String
		u.PhotoURL = photoURL.String
		if lastLogin.Valid {
			u.LastLoginAt = &lastLogin.Time
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list users", err)
	}
	return out, nil
}

func scanUser(row *sql.Row, email string) (*models.User, error) {
	var u models.User
	var role string
	var phone, photoURL sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &phone, &photoURL,
		&u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("user", email)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan user", err)
	}
	u.Role = models.ParseRole(role)
	u.Phone = phone.String
	u.PhotoURL = photoURL.String
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}
