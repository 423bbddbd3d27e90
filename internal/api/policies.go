package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/validation"
	"lifesure/internal/models"
	"lifesure/internal/search"
)

// handleListPolicies serves the catalog through the search index and
// degrades to the database listing when the cluster is down.
func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Text:     r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		q.Size = size
	}

	result, err := s.index.Search(r.Context(), q)
	if err != nil {
		s.logger.Warn("search degraded to database listing", map[string]interface{}{"error": err.Error()})
		policies, dbErr := s.policies.ListAll(r.Context())
		if dbErr != nil {
			s.errs.WriteError(w, r, dbErr)
			return
		}
		s.writeJSON(w, http.StatusOK, search.Result{Policies: policies, Total: int64(len(policies))})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.policies.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, policy)
}

func (s *Server) handlePopularPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.policies.ListPopular(r.Context(), limitParam(r, 6))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, policies)
}

func (s *Server) handleRecentPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.policies.ListRecent(r.Context(), limitParam(r, 6))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, policies)
}

type policyRequest struct {
	Title          string  `json:"title"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	ImageURL       string  `json:"imageUrl"`
	MinAge         int     `json:"minAge"`
	MaxAge         int     `json:"maxAge"`
	CoverageAmount float64 `json:"coverageAmount"`
	DurationYears  int     `json:"durationYears"`
	BasePremium    float64 `json:"basePremium"`
}

func (p *policyRequest) validate() error {
	if p.Title == "" || p.Category == "" {
		return stderrors.NewValidationFailedError("title and category are required", nil)
	}
	if p.MinAge < 0 || p.MaxAge < p.MinAge {
		return stderrors.NewValidationFailedError("age range is invalid", nil)
	}
	return nil
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	now := time.Now().UTC()
	policy := &models.Policy{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		MinAge:         req.MinAge,
		MaxAge:         req.MaxAge,
		CoverageAmount: req.CoverageAmount,
		DurationYears:  req.DurationYears,
		BasePremium:    req.BasePremium,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.policies.Create(r.Context(), policy); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	if err := s.index.Index(r.Context(), policy); err != nil {
		s.logger.Warn("policy not indexed", map[string]interface{}{"policyId": policy.ID, "error": err.Error()})
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"insertedId": policy.ID,
		"policy":     policy,
	})
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	policy := &models.Policy{
		ID:             id,
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		MinAge:         req.MinAge,
		MaxAge:         req.MaxAge,
		CoverageAmount: req.CoverageAmount,
		DurationYears:  req.DurationYears,
		BasePremium:    req.BasePremium,
	}
	if err := s.policies.Update(r.Context(), policy); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	if err := s.index.Index(r.Context(), policy); err != nil {
		s.logger.Warn("policy not reindexed", map[string]interface{}{"policyId": id, "error": err.Error()})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"modifiedCount": 1})
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.policies.Delete(r.Context(), id); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if err := s.index.Delete(r.Context(), id); err != nil {
		s.logger.Warn("policy not removed from index", map[string]interface{}{"policyId": id, "error": err.Error()})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"deletedCount": 1})
}

// handleQuote estimates an annual premium from the policy's base rate and the
// applicant's profile.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeBody(r, validation.SchemaQuoteRequest)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	policy, err := s.policies.Get(r.Context(), stringField(payload, "policyId"))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	age := int(payload["age"].(float64))
	coverage := payload["coverageAmount"].(float64)
	years := int(payload["durationYears"].(float64))
	smoker, _ := payload["smoker"].(bool)

	quote := estimatePremium(policy, age, coverage, years, smoker)
	s.writeJSON(w, http.StatusOK, quote)
}

// estimatePremium prices a policy: base rate per unit coverage, scaled by an
// age band, with a flat surcharge for smokers.
func estimatePremium(policy *models.Policy, age int, coverage float64, years int, smoker bool) models.Quote {
	rate := policy.BasePremium / 1000

	annual := coverage / float64(years) * rate / 100

	switch {
	case age >= 60:
		annual *= 1.8
	case age >= 45:
		annual *= 1.4
	case age >= 30:
		annual *= 1.15
	}
	if smoker {
		annual *= 1.5
	}

	return models.Quote{
		PolicyID:       policy.ID,
		AnnualPremium:  annual,
		MonthlyPremium: annual / 12,
		Currency:       "usd",
	}
}

func limitParam(r *http.Request, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 50 {
		return v
	}
	return fallback
}
