package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/validation"
	"lifesure/internal/models"
)

// ---- blogs ----

func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := s.content.ListBlogs(r.Context())
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, blogs)
}

func (s *Server) handleLatestBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := s.content.ListLatestBlogs(r.Context(), limitParam(r, 4))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, blogs)
}

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := s.content.GetBlog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, blog)
}

func (s *Server) handleMyBlogs(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	blogs, err := s.content.ListBlogsByAuthor(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, blogs)
}

func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	payload, err := s.decodeBody(r, validation.SchemaBlogIntake)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	author, err := s.users.GetByEmail(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	now := time.Now().UTC()
	blog := &models.Blog{
		ID:          uuid.NewString(),
		Title:       stringField(payload, "title"),
		Content:     stringField(payload, "content"),
		Summary:     stringField(payload, "summary"),
		ImageURL:    stringField(payload, "imageUrl"),
		AuthorEmail: actor.Email,
		AuthorName:  author.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.content.CreateBlog(r.Context(), blog); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"insertedId": blog.ID,
		"blog":       blog,
	})
}

func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	payload, err := s.decodeBody(r, validation.SchemaBlogIntake)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	blog := &models.Blog{
		ID:       id,
		Title:    stringField(payload, "title"),
		Content:  stringField(payload, "content"),
		Summary:  stringField(payload, "summary"),
		ImageURL: stringField(payload, "imageUrl"),
	}

	// Admins edit any post; agents only their own.
	authorScope := actor.Email
	if actor.Role == models.RoleAdmin {
		authorScope = ""
	}
	modified, err := s.updateBlogScoped(r, blog, authorScope)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if modified == 0 {
		s.errs.WriteError(w, r, stderrors.NewResourceNotFoundError("blog", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"modifiedCount": modified})
}

func (s *Server) updateBlogScoped(r *http.Request, blog *models.Blog, authorScope string) (int64, error) {
	if authorScope == "" {
		existing, err := s.content.GetBlog(r.Context(), blog.ID)
		if err != nil {
			return 0, err
		}
		return s.content.UpdateBlog(r.Context(), blog, existing.AuthorEmail)
	}
	return s.content.UpdateBlog(r.Context(), blog, authorScope)
}

func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	id := mux.Vars(r)["id"]

	if actor.Role != models.RoleAdmin {
		existing, err := s.content.GetBlog(r.Context(), id)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}
		if existing.AuthorEmail != actor.Email {
			s.errs.WriteError(w, r, stderrors.NewForbiddenError("only the author may delete this post"))
			return
		}
	}

	if err := s.content.DeleteBlog(r.Context(), id); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"deletedCount": 1})
}

// ---- reviews ----

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.content.ListReviews(r.Context(), limitParam(r, 10))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())

	payload, err := s.decodeBody(r, validation.SchemaReviewIntake)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	reviewer, err := s.users.GetByEmail(r.Context(), actor.Email)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	review := &models.Review{
		ID:            uuid.NewString(),
		PolicyID:      stringField(payload, "policyId"),
		CustomerEmail: actor.Email,
		CustomerName:  reviewer.Name,
		CustomerPhoto: reviewer.PhotoURL,
		Rating:        int(payload["rating"].(float64)),
		Comment:       stringField(payload, "comment"),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.content.CreateReview(r.Context(), review); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"insertedId": review.ID})
}

// ---- newsletter ----

func (s *Server) handleNewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(r, validation.SchemaNewsletterSubscribe)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	sub := &models.NewsletterSubscription{
		ID:        uuid.NewString(),
		Name:      stringField(payload, "name"),
		Email:     stringField(payload, "email"),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.content.SubscribeNewsletter(r.Context(), sub); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"insertedId": sub.ID})
}
