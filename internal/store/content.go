package store

import (
	"context"
	"database/sql"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/models"
)

const blogColumns = `id, title, content, summary, image_url, author_email, author_name, total_visits, created_at, updated_at`

// ContentRepo persists blogs, reviews and newsletter signups.
type ContentRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewContentRepo(db *sql.DB, log logger.Logger) *ContentRepo {
	return &ContentRepo{db: db, logger: log}
}

// ---- blogs ----

func (r *ContentRepo) CreateBlog(ctx context.Context, b *models.Blog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blogs (id, title, content, summary, image_url, author_email, author_name, total_visits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)`,
		b.ID, b.Title, b.Content, b.Summary, b.ImageURL, b.AuthorEmail, b.AuthorName, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseError("insert blog", err)
	}
	return nil
}

// GetBlog reads a blog and counts the visit in the same statement.
func (r *ContentRepo) GetBlog(ctx context.Context, id string) (*models.Blog, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE blogs SET total_visits = total_visits + 1
		WHERE id = $1
		RETURNING `+blogColumns, id)
	return scanBlog(row, id)
}

func (r *ContentRepo) UpdateBlog(ctx context.Context, b *models.Blog, authorEmail string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE blogs SET title = $2, content = $3, summary = $4, image_url = $5, updated_at = NOW()
		WHERE id = $1 AND author_email = $6`,
		b.ID, b.Title, b.Content, b.Summary, b.ImageURL, authorEmail)
	if err != nil {
		return 0, stderrors.NewDatabaseError("update blog", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *ContentRepo) DeleteBlog(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return stderrors.NewDatabaseError("delete blog", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return stderrors.NewResourceNotFoundError("blog", id)
	}
	return nil
}

func (r *ContentRepo) ListBlogs(ctx context.Context) ([]models.Blog, error) {
	return r.listBlogs(ctx, `SELECT `+blogColumns+` FROM blogs ORDER BY created_at DESC`)
}

func (r *ContentRepo) ListLatestBlogs(ctx context.Context, limit int) ([]models.Blog, error) {
	return r.listBlogs(ctx, `
		SELECT `+blogColumns+` FROM blogs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
}

func (r *ContentRepo) ListBlogsByAuthor(ctx context.Context, email string) ([]models.Blog, error) {
	return r.listBlogs(ctx, `
		SELECT `+blogColumns+` FROM blogs
		WHERE author_email = $1
		ORDER BY created_at DESC`, email)
}

func (r *ContentRepo) listBlogs(ctx context.Context, query string, args ...interface{}) ([]models.Blog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list blogs", err)
	}
	defer rows.Close()

	var out []models.Blog
	for rows.Next() {
		var b models.Blog
		var summary, imageURL sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &summary, &imageURL,
			&b.AuthorEmail, &b.AuthorName, &b.TotalVisits, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, stderrors.NewDatabaseError("scan blog", err)
		}
		b.Summary = summary.String
		b.ImageURL = imageURL.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list blogs", err)
	}
	return out, nil
}

func scanBlog(row *sql.Row, id string) (*models.Blog, error) {
	var b models.Blog
	var summary, imageURL sql.NullString
	err := row.Scan(&b.ID, &b.Title, &b.Content, &summary, &imageURL,
		&b.AuthorEmail, &b.AuthorName, &b.TotalVisits, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewResourceNotFoundError("blog", id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseError("scan blog", err)
	}
	b.Summary = summary.String
	b.ImageURL = imageURL.String
	return &b, nil
}

// ---- reviews ----

func (r *ContentRepo) CreateReview(ctx context.Context, rev *models.Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, policy_id, customer_email, customer_name, customer_photo, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rev.ID, rev.PolicyID, rev.CustomerEmail, rev.CustomerName, rev.CustomerPhoto,
		rev.Rating, rev.Comment, rev.CreatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseError("insert review", err)
	}
	return nil
}

func (r *ContentRepo) ListReviews(ctx context.Context, limit int) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, policy_id, customer_email, customer_name, customer_photo, rating, comment, created_at
		FROM reviews
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, stderrors.NewDatabaseError("list reviews", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rev models.Review
		var photo sql.NullString
		if err := rows.Scan(&rev.ID, &rev.PolicyID, &rev.CustomerEmail, &rev.CustomerName,
			&photo, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, stderrors.NewDatabaseError("scan review", err)
		}
		rev.CustomerPhoto = photo.String
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseError("list reviews", err)
	}
	return out, nil
}

// ---- newsletter ----

// SubscribeNewsletter is idempotent on email.
func (r *ContentRepo) SubscribeNewsletter(ctx context.Context, sub *models.NewsletterSubscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscriptions (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		sub.ID, sub.Name, sub.Email, sub.CreatedAt,
	)
	if err != nil {
		return stderrors.NewDatabaseError("insert newsletter subscription", err)
	}
	return nil
}
